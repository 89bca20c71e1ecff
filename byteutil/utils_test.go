package byteutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint24RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 255, 256, 65535, 65536, 1<<24 - 1}
	var b [3]byte
	for _, v := range cases {
		Uint24ToBytes(b[:], v)
		assert.Equal(t, v, BytesToUint24(b[:]), "value=%d", v)
	}
}

func TestUint32RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 1 << 31, 1<<32 - 1}
	var b [4]byte
	for _, v := range cases {
		Uint32ToBytes(b[:], v)
		assert.Equal(t, v, BytesToUint32(b[:]), "value=%d", v)
	}
}

func TestAppendUint32Bytes(t *testing.T) {
	dst := AppendUint32Bytes(nil, 0x01020304)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, dst)
}

func TestEqualsFold(t *testing.T) {
	assert.True(t, EqualsFold([]byte("Content-Type"), []byte("content-type")))
	assert.True(t, EqualsFold([]byte(""), []byte("")))
	assert.False(t, EqualsFold([]byte("a"), []byte("ab")))
	assert.False(t, EqualsFold([]byte("abc"), []byte("abd")))
}

func TestResizeGrowsAndPreservesCapacity(t *testing.T) {
	b := make([]byte, 0, 10)
	b = Resize(b, 5)
	assert.Len(t, b, 5)
	assert.GreaterOrEqual(t, cap(b), 5)

	b = Resize(b, 20)
	assert.Len(t, b, 20)
}

func TestCutPaddingRoundTrip(t *testing.T) {
	// PAD_LENGTH=2, data="hello", then 2 zero pad bytes.
	payload := append([]byte{2}, append([]byte("hello"), 0, 0)...)
	data, err := CutPadding(payload, len(payload))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestCutPaddingOutOfRange(t *testing.T) {
	payload := []byte{200, 'h', 'i'}
	_, err := CutPadding(payload, len(payload))
	require.ErrorIs(t, err, ErrPaddingOutOfRange)

	_, err = CutPadding(nil, 0)
	require.ErrorIs(t, err, ErrPaddingOutOfRange)
}

func TestAddPaddingCutPaddingRoundTrip(t *testing.T) {
	original := []byte("the quick brown fox")
	padded := AddPadding(original)

	// the length prepended to the frame payload for CutPadding is the
	// padding scheme's "declared length" field (PAD_LENGTH + data, RFC 7540
	// §6.1): here that is simply len(padded) since AddPadding already
	// includes its own 1-byte prefix.
	data, err := CutPadding(padded, len(padded))
	require.NoError(t, err)
	assert.Equal(t, original, data)
}

func TestFastBytesStringConversions(t *testing.T) {
	b := []byte("round trip me")
	s := FastBytesToString(b)
	assert.Equal(t, "round trip me", s)

	back := FastStringToBytes(s)
	assert.Equal(t, b, back)
}
