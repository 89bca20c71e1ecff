package polyhttp

import (
	"sync"

	"github.com/domsolutions/polyhttp/byteutil"
)

// HeaderField is a single decoded (or to-be-encoded) HPACK/header entry.
//
// Grounded on the teacher's HeaderField (headerField.go): pooled via
// sync.Pool, byte-slice-backed with append(x[:0], ...) reuse instead of
// reallocating on every Set call.
type HeaderField struct {
	key, value []byte
	sensitive  bool
}

var headerFieldPool = sync.Pool{
	New: func() interface{} { return &HeaderField{} },
}

// AcquireHeaderField gets a HeaderField from the pool.
func AcquireHeaderField() *HeaderField {
	return headerFieldPool.Get().(*HeaderField)
}

// ReleaseHeaderField resets hf and returns it to the pool.
func ReleaseHeaderField(hf *HeaderField) {
	hf.Reset()
	headerFieldPool.Put(hf)
}

// Reset clears hf for reuse.
func (hf *HeaderField) Reset() {
	hf.key = hf.key[:0]
	hf.value = hf.value[:0]
	hf.sensitive = false
}

// Empty reports whether hf carries neither a key nor a value.
func (hf *HeaderField) Empty() bool {
	return len(hf.key) == 0 && len(hf.value) == 0
}

// Key returns the field name as a string.
func (hf *HeaderField) Key() string { return string(hf.key) }

// Value returns the field value as a string.
func (hf *HeaderField) Value() string { return string(hf.value) }

// KeyBytes returns the field name.
func (hf *HeaderField) KeyBytes() []byte { return hf.key }

// ValueBytes returns the field value.
func (hf *HeaderField) ValueBytes() []byte { return hf.value }

// KeyUnsafe returns the field name as a string backed directly by hf's
// buffer, without copying. The returned string is only valid until hf is
// next mutated (SetKey/SetKeyBytes/Reset) or released to the pool; callers
// must not retain it past that point.
func (hf *HeaderField) KeyUnsafe() string { return byteutil.FastBytesToString(hf.key) }

// ValueUnsafe returns the field value as a string backed directly by hf's
// buffer, without copying. The returned string is only valid until hf is
// next mutated (SetValue/SetValueBytes/Reset) or released to the pool;
// callers must not retain it past that point.
func (hf *HeaderField) ValueUnsafe() string { return byteutil.FastBytesToString(hf.value) }

// KeyEquals reports whether hf's name equals want, ignoring ASCII case.
func (hf *HeaderField) KeyEquals(want string) bool {
	return byteutil.EqualsFold(hf.key, byteutil.FastStringToBytes(want))
}

// SetKey sets the field name.
func (hf *HeaderField) SetKey(k string) { hf.key = append(hf.key[:0], k...) }

// SetValue sets the field value.
func (hf *HeaderField) SetValue(v string) { hf.value = append(hf.value[:0], v...) }

// SetKeyBytes sets the field name from a byte slice.
func (hf *HeaderField) SetKeyBytes(k []byte) { hf.key = append(hf.key[:0], k...) }

// SetValueBytes sets the field value from a byte slice.
func (hf *HeaderField) SetValueBytes(v []byte) { hf.value = append(hf.value[:0], v...) }

// Set sets both key and value.
func (hf *HeaderField) Set(k, v string) {
	hf.SetKey(k)
	hf.SetValue(v)
}

// IsPseudo reports whether the field name is an HTTP/2 pseudo-header
// (":method", ":path", ...).
func (hf *HeaderField) IsPseudo() bool {
	return len(hf.key) > 0 && hf.key[0] == ':'
}

// IsSensitive reports whether hf was decoded/marked as "never indexed"
// (RFC 7541 §6.2.3) — intermediaries must preserve that representation.
func (hf *HeaderField) IsSensitive() bool { return hf.sensitive }

// SetSensitive marks hf as never-indexed.
func (hf *HeaderField) SetSensitive(v bool) { hf.sensitive = v }

// CopyTo deep-copies hf into other.
func (hf *HeaderField) CopyTo(other *HeaderField) {
	other.key = append(other.key[:0], hf.key...)
	other.value = append(other.value[:0], hf.value...)
	other.sensitive = hf.sensitive
}

// Size is the HPACK accounting size of the field: name+value octets plus the
// fixed 32-byte per-entry overhead (RFC 7541 §4.1).
func (hf *HeaderField) Size() int {
	return len(hf.key) + len(hf.value) + 32
}
