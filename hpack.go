package polyhttp

import (
	"encoding/binary"
)

// defaultDynamicTableSize is SETTINGS_HEADER_TABLE_SIZE's default (RFC 7540
// §6.5.2), used as the initial dynamic table cap before any peer SETTINGS
// frame or explicit HPACK "Dynamic Table Size Update" arrives.
const defaultDynamicTableSize = 4096

// dynamicTable is the HPACK dynamic table (RFC 7541 §2.3.2): a FIFO of
// HeaderField entries with eviction by total byte size (§4.1), newest
// entries at the front of the combined index space (index staticTableSize+1
// is the most-recently-added entry).
//
// Grounded on the teacher's hpack.go dynamic-table slice, which this repo's
// copy of the pack carries in a form that does not compile (mismatched
// Field/HeaderField types, an undefined `static` receiver field); the
// eviction/indexing algorithm below is reconstructed directly from RFC 7541
// §2.3, keeping the teacher's flat append/shift-slice shape rather than a
// container/ring-buffer.
type dynamicTable struct {
	entries []HeaderField
	size    int
	maxSize int
}

func newDynamicTable() *dynamicTable {
	return &dynamicTable{maxSize: defaultDynamicTableSize}
}

// SetMaxSize applies a peer SETTINGS_HEADER_TABLE_SIZE change or an
// in-stream Dynamic Table Size Update (RFC 7541 §6.3), evicting as needed.
func (t *dynamicTable) SetMaxSize(n int) {
	t.maxSize = n
	t.evict()
}

func (t *dynamicTable) evict() {
	for t.size > t.maxSize && len(t.entries) > 0 {
		last := t.entries[len(t.entries)-1]
		t.size -= last.Size()
		t.entries = t.entries[:len(t.entries)-1]
	}
}

// Add inserts a new entry at the front (RFC 7541 §2.3.2), evicting old
// entries first. An entry whose own size exceeds maxSize clears the table
// entirely and is not stored (§4.4).
func (t *dynamicTable) Add(key, value []byte) {
	entrySize := len(key) + len(value) + 32
	if entrySize > t.maxSize {
		t.entries = t.entries[:0]
		t.size = 0
		return
	}
	t.entries = append([]HeaderField{{key: append([]byte(nil), key...), value: append([]byte(nil), value...)}}, t.entries...)
	t.size += entrySize
	t.evict()
}

// Get resolves a 1-based index in the combined static+dynamic space (RFC
// 7541 §2.3.3).
func (t *dynamicTable) Get(index uint64) (HeaderField, bool) {
	if index == 0 {
		return HeaderField{}, false
	}
	if index <= staticTableSize {
		return staticTable[index-1], true
	}
	i := index - staticTableSize - 1
	if i >= uint64(len(t.entries)) {
		return HeaderField{}, false
	}
	return t.entries[i], true
}

// HPACKDecoder decodes header blocks against a per-connection dynamic table
// (spec §4.2.3/§4.2.4). Not safe for concurrent use; one per H2Context.
type HPACKDecoder struct {
	table *dynamicTable
}

func NewHPACKDecoder() *HPACKDecoder {
	return &HPACKDecoder{table: newDynamicTable()}
}

// SetMaxDynamicTableSize applies our own advertised
// SETTINGS_HEADER_TABLE_SIZE cap.
func (d *HPACKDecoder) SetMaxDynamicTableSize(n int) { d.table.SetMaxSize(n) }

// Decode parses a complete header block (the concatenation of a HEADERS
// frame and any CONTINUATION frames) and passes each field to fn.
// fn receives fields in wire order; pseudo-header-before-regular-header
// ordering validation is the caller's job (spec §7 "pseudo-header fields").
func (d *HPACKDecoder) Decode(src []byte, fn func(*HeaderField)) error {
	// sawField tracks whether any header field has been emitted yet; a
	// Dynamic Table Size Update is only legal before the first one (spec
	// §4.2.3 "Only valid at the start of a header block").
	sawField := false
	for len(src) > 0 {
		b := src[0]
		switch {
		case b&0x80 != 0: // 1xxxxxxx: indexed header field, RFC 7541 §6.1
			idx, n, err := decodeInt(src, 7)
			if err != nil {
				return err
			}
			src = src[n:]
			hf, ok := d.table.Get(idx)
			if !ok || hf.Empty() {
				return ErrFieldNotFound
			}
			out := AcquireHeaderField()
			hf.CopyTo(out)
			fn(out)
			sawField = true

		case b&0x40 != 0: // 01xxxxxx: literal with incremental indexing, §6.2.1
			idx, n, err := decodeInt(src, 6)
			if err != nil {
				return err
			}
			src = src[n:]
			key, value, rest, err := d.decodeKeyValue(idx, src)
			if err != nil {
				return err
			}
			src = rest
			d.table.Add(key, value)
			out := AcquireHeaderField()
			out.SetKeyBytes(key)
			out.SetValueBytes(value)
			fn(out)
			sawField = true

		case b&0x20 != 0: // 001xxxxx: dynamic table size update, §6.3
			if sawField {
				return ErrProtocol
			}
			n, nb, err := decodeInt(src, 5)
			if err != nil {
				return err
			}
			src = src[nb:]
			d.table.SetMaxSize(int(n))

		default: // 0000xxxx or 0001xxxx: literal without/never indexed, §6.2.2/3
			sensitive := b&0x10 != 0
			idx, n, err := decodeInt(src, 4)
			if err != nil {
				return err
			}
			src = src[n:]
			key, value, rest, err := d.decodeKeyValue(idx, src)
			if err != nil {
				return err
			}
			src = rest
			out := AcquireHeaderField()
			out.SetKeyBytes(key)
			out.SetValueBytes(value)
			out.SetSensitive(sensitive)
			fn(out)
			sawField = true
		}
	}
	return nil
}

// decodeKeyValue resolves the name (from the table when idx != 0, else a
// following string literal) and always reads the value as a string literal.
func (d *HPACKDecoder) decodeKeyValue(idx uint64, src []byte) (key, value []byte, rest []byte, err error) {
	if idx != 0 {
		hf, ok := d.table.Get(idx)
		if !ok {
			return nil, nil, nil, ErrFieldNotFound
		}
		key = append([]byte(nil), hf.KeyBytes()...)
	} else {
		key, src, err = decodeString(src)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	value, src, err = decodeString(src)
	if err != nil {
		return nil, nil, nil, err
	}
	return key, value, src, nil
}

// HPACKEncoder serializes header fields against the peer's dynamic table
// state (spec §4.2.5). Not safe for concurrent use.
type HPACKEncoder struct {
	table   *dynamicTable
	huffman bool
}

func NewHPACKEncoder() *HPACKEncoder {
	return &HPACKEncoder{table: newDynamicTable(), huffman: true}
}

// SetMaxDynamicTableSize applies the peer's advertised
// SETTINGS_HEADER_TABLE_SIZE cap.
func (e *HPACKEncoder) SetMaxDynamicTableSize(n int) { e.table.SetMaxSize(n) }

// SetHuffman toggles Huffman string encoding (on by default; disabling it is
// useful for test fixtures that want byte-for-byte wire comparisons).
func (e *HPACKEncoder) SetHuffman(v bool) { e.huffman = v }

// Encode appends hf's wire representation to dst. Status-line pseudo-headers
// that match the static table's canned status codes are emitted as a single
// indexed byte; everything else is a literal without indexing — this core
// never speculatively grows the encoder's own dynamic table beyond what the
// static table offers, keeping compression state trivial to reason about on
// the server side (DESIGN NOTES open question (a)).
func (e *HPACKEncoder) Encode(dst []byte, hf *HeaderField) []byte {
	if hf.Key() == ":status" {
		if idx, ok := staticStatusIndex[atoiStatus(hf.Value())]; ok {
			return encodeInt(dst, idx, 7, 0x80)
		}
	}

	if hf.IsSensitive() {
		dst = encodeInt(dst, 0, 4, 0x10)
	} else {
		dst = encodeInt(dst, 0, 4, 0x00)
	}
	dst = e.encodeString(dst, hf.KeyBytes())
	dst = e.encodeString(dst, hf.ValueBytes())
	return dst
}

func (e *HPACKEncoder) encodeString(dst, s []byte) []byte {
	if e.huffman {
		n := huffmanEncodedLen(s)
		if n < len(s) {
			dst = encodeInt(dst, uint64(n), 7, 0x80)
			return huffmanEncode(dst, s)
		}
	}
	dst = encodeInt(dst, uint64(len(s)), 7, 0x00)
	return append(dst, s...)
}

func atoiStatus(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return -1
		}
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// encodeInt encodes value with an N-bit prefix (RFC 7541 §5.1), OR-ing
// firstByteFlags into the first byte's unused high bits.
func encodeInt(dst []byte, value uint64, prefixBits int, firstByteFlags byte) []byte {
	max := uint64(1)<<uint(prefixBits) - 1
	if value < max {
		return append(dst, firstByteFlags|byte(value))
	}
	dst = append(dst, firstByteFlags|byte(max))
	value -= max
	for value >= 0x80 {
		dst = append(dst, byte(value&0x7f)|0x80)
		value >>= 7
	}
	return append(dst, byte(value))
}

// decodeInt decodes an N-bit-prefix integer (RFC 7541 §5.1) and returns the
// value plus the number of bytes consumed from src.
func decodeInt(src []byte, prefixBits int) (uint64, int, error) {
	if len(src) == 0 {
		return 0, 0, ErrMissingBytes
	}
	max := uint64(1)<<uint(prefixBits) - 1
	value := uint64(src[0]) & max
	if value < max {
		return value, 1, nil
	}

	var m uint
	for i := 1; ; i++ {
		if i >= len(src) {
			return 0, 0, ErrMissingBytes
		}
		b := src[i]
		if m >= 63 {
			return 0, 0, ErrBitOverflow
		}
		added := uint64(b&0x7f) << m
		if added > (^uint64(0))-value {
			return 0, 0, ErrBitOverflow
		}
		value += added
		m += 7
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
	}
}

// decodeString decodes a string literal (RFC 7541 §5.2): a length-prefixed,
// optionally Huffman-coded byte sequence.
func decodeString(src []byte) (value []byte, rest []byte, err error) {
	if len(src) == 0 {
		return nil, nil, ErrMissingBytes
	}
	huff := src[0]&0x80 != 0
	n, consumed, err := decodeInt(src, 7)
	if err != nil {
		return nil, nil, err
	}
	src = src[consumed:]
	if uint64(len(src)) < n {
		return nil, nil, ErrMissingBytes
	}
	raw := src[:n]
	rest = src[n:]

	if !huff {
		return append([]byte(nil), raw...), rest, nil
	}
	decoded, err := huffmanDecode(nil, raw)
	if err != nil {
		return nil, nil, err
	}
	return decoded, rest, nil
}

// appendUint32 is a small helper kept for symmetry with byteutil's
// Uint32ToBytes. Nothing in the package calls it; the frame codecs (e.g.
// SETTINGS values) use byteutil.AppendUint32Bytes.
func appendUint32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}
