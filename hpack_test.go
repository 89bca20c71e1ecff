package polyhttp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHPACKIntegerRoundTrip covers spec §8's "HPACK integer codec is a
// round-trip bijection for every prefix N in {1..8} and every value in
// [0, 2^32)" — exhaustive values would be too slow, so this samples the
// boundary cases plus a deterministic pseudo-random spread per prefix.
func TestHPACKIntegerRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for prefix := 1; prefix <= 8; prefix++ {
		values := []uint64{0, 1, (1 << uint(prefix)) - 2, (1 << uint(prefix)) - 1, (1 << uint(prefix)), 127, 128, 16383, 16384}
		for i := 0; i < 200; i++ {
			values = append(values, rng.Uint64()%(1<<32))
		}

		for _, v := range values {
			dst := encodeInt(nil, v, prefix, 0)
			got, n, err := decodeInt(dst, prefix)
			require.NoError(t, err, "prefix=%d value=%d", prefix, v)
			assert.Equal(t, len(dst), n, "prefix=%d value=%d", prefix, v)
			assert.Equal(t, v, got, "prefix=%d value=%d", prefix, v)
		}
	}
}

func TestHPACKIntegerDecodeTruncated(t *testing.T) {
	_, _, err := decodeInt(nil, 5)
	require.Error(t, err)

	// a continuation byte with the high bit set but nothing following.
	_, _, err = decodeInt([]byte{0x1f, 0x80}, 5)
	require.Error(t, err)
}

// TestHuffmanRoundTrip covers spec §8's "HPACK Huffman codec is a
// round-trip bijection on every byte sequence."
func TestHuffmanRoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte(""),
		[]byte("www.example.com"),
		[]byte("no-cache"),
		[]byte("custom-key"),
		[]byte("custom-value"),
		[]byte("a"),
		[]byte("/"),
		{0x00, 0x01, 0x02, 0xff, 0xfe},
	}
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		n := rng.Intn(64)
		b := make([]byte, n)
		rng.Read(b)
		cases = append(cases, b)
	}

	for _, c := range cases {
		enc := huffmanEncode(nil, c)
		dec, err := huffmanDecode(nil, enc)
		require.NoError(t, err)
		if len(c) == 0 {
			assert.Empty(t, dec)
		} else {
			assert.Equal(t, c, dec)
		}
	}
}

func TestHuffmanDecodeRejectsEOS(t *testing.T) {
	// the EOS codeword itself, right-padded to a full byte with 1-bits.
	enc := huffmanEncode(nil, nil)
	_ = enc
	var buf []byte
	var cur uint64
	var nbits uint
	cur = (cur << huffmanEOSCodeLen) | uint64(huffmanEOSCode)
	nbits += uint(huffmanEOSCodeLen)
	for nbits >= 8 {
		nbits -= 8
		buf = append(buf, byte(cur>>nbits))
	}
	if nbits > 0 {
		pad := 8 - nbits
		buf = append(buf, byte(cur<<pad)|(0xff>>(8-pad)))
	}
	_, err := huffmanDecode(nil, buf)
	require.ErrorIs(t, err, ErrHuffmanEOS)
}

// TestHPACKIndexedHeaderStaticTable is scenario 5 from spec §8: byte 0x82
// decoded against the default static table yields (":method", "GET").
func TestHPACKIndexedHeaderStaticTable(t *testing.T) {
	dec := NewHPACKDecoder()
	var got []HeaderField
	err := dec.Decode([]byte{0x82}, func(hf *HeaderField) {
		got = append(got, HeaderField{key: append([]byte(nil), hf.KeyBytes()...), value: append([]byte(nil), hf.ValueBytes()...)})
		ReleaseHeaderField(hf)
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ":method", got[0].Key())
	assert.Equal(t, "GET", got[0].Value())
}

func TestHPACKIndexZeroIsProtocolError(t *testing.T) {
	dec := NewHPACKDecoder()
	err := dec.Decode([]byte{0x80}, func(*HeaderField) {})
	require.Error(t, err)
}

// TestHPACKDynamicTableSizeUpdate is scenario 6 from spec §8: after decoding
// 0x20 (size update to 0) against a populated dynamic table, the table is
// empty and its current size is 0.
func TestHPACKDynamicTableSizeUpdate(t *testing.T) {
	dec := NewHPACKDecoder()

	// literal with incremental indexing, name index 0 (literal name
	// follows), Huffman off: 0x40, then "x"/"y" as plain strings.
	lit := []byte{0x40, 0x01, 'x', 0x01, 'y'}
	err := dec.Decode(lit, func(hf *HeaderField) { ReleaseHeaderField(hf) })
	require.NoError(t, err)
	require.Equal(t, 1, len(dec.table.entries))
	require.Greater(t, dec.table.size, 0)

	err = dec.Decode([]byte{0x20}, func(*HeaderField) {})
	require.NoError(t, err)
	assert.Equal(t, 0, dec.table.size)
	assert.Empty(t, dec.table.entries)
}

// TestDynamicTableEvictionUnderSettings covers spec §8: "After applying a
// SETTINGS frame with header_table_size=k, the dynamic table's current size
// <= k and no previously added entry later than the cut survives."
func TestDynamicTableEvictionUnderSettings(t *testing.T) {
	table := newDynamicTable()
	table.Add([]byte("name-one"), []byte("value-one-value-one"))
	table.Add([]byte("name-two"), []byte("value-two-value-two"))
	table.Add([]byte("name-three"), []byte("value-three-value-three"))

	require.Greater(t, table.size, 0)
	oldestName := table.entries[len(table.entries)-1].Key()

	table.SetMaxSize(1)
	assert.LessOrEqual(t, table.size, 1)
	for _, e := range table.entries {
		assert.NotEqual(t, oldestName, e.Key())
	}
}

func TestDynamicTableOversizeEntryClearsTable(t *testing.T) {
	table := newDynamicTable()
	table.SetMaxSize(50)
	table.Add([]byte("k"), []byte("v"))
	require.NotEmpty(t, table.entries)

	table.Add(make([]byte, 100), make([]byte, 100))
	assert.Empty(t, table.entries)
	assert.Equal(t, 0, table.size)
}

// TestHPACKEncodeDecodeRoundTrip exercises the encoder/decoder pair end to
// end the way HttpResponder/HttpReader do for a HEADERS frame's body.
func TestHPACKEncodeDecodeRoundTrip(t *testing.T) {
	enc := NewHPACKEncoder()
	want := []struct{ k, v string }{
		{":status", "200"},
		{"content-type", "text/html"},
		{"content-length", "1234"},
		{"x-custom", "a-fairly-long-header-value-to-force-huffman"},
	}

	var block []byte
	for _, w := range want {
		hf := AcquireHeaderField()
		hf.Set(w.k, w.v)
		block = enc.Encode(block, hf)
		ReleaseHeaderField(hf)
	}

	dec := NewHPACKDecoder()
	var got []struct{ k, v string }
	err := dec.Decode(block, func(hf *HeaderField) {
		got = append(got, struct{ k, v string }{hf.Key(), hf.Value()})
		ReleaseHeaderField(hf)
	})
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.k, got[i].k)
		assert.Equal(t, w.v, got[i].v)
	}
}
