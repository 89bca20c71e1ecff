package polyhttp

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFrame serializes fr through a FrameHeader and returns the raw wire
// bytes, the way HttpResponder's writeHTTP2 path does for each frame.
func writeFrame(t *testing.T, streamID uint32, fr Frame) []byte {
	t.Helper()
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)

	fh := AcquireFrameHeader()
	fh.SetStream(streamID)
	fh.SetBody(fr)
	_, err := fh.WriteTo(bw)
	require.NoError(t, err)
	require.NoError(t, bw.Flush())
	ReleaseFrameHeader(fh)
	return buf.Bytes()
}

func readFrame(t *testing.T, wire []byte) *FrameHeader {
	t.Helper()
	br := bufio.NewReader(bytes.NewReader(wire))
	fh, err := ReadFrameFrom(br, 0)
	require.NoError(t, err)
	return fh
}

// TestSettingsFrameRoundTrip covers spec §8's "a SETTINGS frame serialized
// and re-parsed yields the same entries in the same order."
func TestSettingsFrameRoundTrip(t *testing.T) {
	s := acquireSettingsFrame()
	s.Add(SettingHeaderTableSize, 4096)
	s.Add(SettingEnablePush, 0)
	s.Add(SettingMaxConcurrentStreams, 100)
	s.Add(SettingInitialWindowSize, 65535)

	wire := writeFrame(t, 0, s)
	fh := readFrame(t, wire)
	defer ReleaseFrameHeader(fh)

	require.Equal(t, FrameSettings, fh.Type())
	got := fh.Body().(*SettingsFrame)
	require.Len(t, got.Entries(), 4)
	assert.Equal(t, SettingID(SettingHeaderTableSize), got.Entries()[0].ID)
	assert.EqualValues(t, 4096, got.Entries()[0].Value)
	assert.EqualValues(t, 0, got.Entries()[1].Value)
	assert.EqualValues(t, 100, got.Entries()[2].Value)
	assert.EqualValues(t, 65535, got.Entries()[3].Value)
	assert.False(t, got.Ack())
}

func TestSettingsFrameRejectsOutOfRangeValues(t *testing.T) {
	cases := []SettingEntry{
		{ID: SettingEnablePush, Value: 2},
		{ID: SettingInitialWindowSize, Value: maxWindowSize + 1},
		{ID: SettingMaxFrameSize, Value: 1},
		{ID: SettingMaxFrameSize, Value: 1 << 24},
	}
	for _, c := range cases {
		s := acquireSettingsFrame()
		s.Add(c.ID, c.Value)
		wire := writeFrame(t, 0, s)

		br := bufio.NewReader(bytes.NewReader(wire))
		_, err := ReadFrameFrom(br, 0)
		require.Error(t, err, "id=%d value=%d", c.ID, c.Value)

		var gae *GoAwayError
		require.ErrorAs(t, err, &gae)
	}
}

func TestSettingsAckCarriesNoPayload(t *testing.T) {
	s := acquireSettingsFrame()
	s.SetAck(true)
	wire := writeFrame(t, 0, s)
	fh := readFrame(t, wire)
	defer ReleaseFrameHeader(fh)

	got := fh.Body().(*SettingsFrame)
	assert.True(t, got.Ack())
	assert.Empty(t, got.Entries())
}

// TestHeadersFrameRoundTrip covers a HEADERS frame with END_HEADERS set and
// END_STREAM clear, matching what HttpResponder.writeHTTP2 emits for a
// response with a body.
func TestHeadersFrameRoundTrip(t *testing.T) {
	h := acquireHeaders()
	h.SetHeaderBlock([]byte{0x82, 0x86})
	h.SetEndStream(false)
	h.SetEndHeaders(true)

	wire := writeFrame(t, 1, h)
	fh := readFrame(t, wire)
	defer ReleaseFrameHeader(fh)

	require.Equal(t, FrameHeaders, fh.Type())
	require.EqualValues(t, 1, fh.Stream())
	got := fh.Body().(*Headers)
	assert.True(t, got.EndHeaders())
	assert.False(t, got.EndStream())
	assert.Equal(t, []byte{0x82, 0x86}, got.HeaderBlock())
}

func TestFrameHeaderRejectsOversizedPayload(t *testing.T) {
	s := acquireSettingsFrame()
	s.Add(SettingHeaderTableSize, 100)
	wire := writeFrame(t, 0, s)

	br := bufio.NewReader(bytes.NewReader(wire))
	_, err := ReadFrameFrom(br, 3)
	require.ErrorIs(t, err, ErrPayloadExceeds)
}

func TestFrameHeaderRejectsUnknownType(t *testing.T) {
	wire := writeFrame(t, 0, acquirePing())
	// corrupt the type byte (offset 3) to an out-of-range value.
	wire[3] = 0xff

	br := bufio.NewReader(bytes.NewReader(wire))
	_, err := ReadFrameFrom(br, 0)
	require.ErrorIs(t, err, ErrUnknownFrameType)
}

func TestFrameFlagsHasAdd(t *testing.T) {
	var f FrameFlags
	f = f.Add(FlagEndHeaders)
	assert.True(t, f.Has(FlagEndHeaders))
	assert.False(t, f.Has(FlagPadded))
	f = f.Add(FlagPadded)
	assert.True(t, f.Has(FlagPadded))
	assert.True(t, f.Has(FlagEndHeaders))
}
