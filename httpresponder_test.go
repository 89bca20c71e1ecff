package polyhttp

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteResponseHTTP1(t *testing.T) {
	req := AcquireRequest()
	req.Method = "GET"
	req.ProtoMajor = 1
	req.ProtoMinor = 1
	defer ReleaseRequest(req)

	res := AcquireResponse()
	res.StatusCode = 200
	res.Write([]byte("hello"))
	defer ReleaseResponse(res)

	var out bytes.Buffer
	bw := bufio.NewWriter(&out)
	responder := NewHttpResponder(bw)
	require.NoError(t, responder.WriteResponse(req, res, nil))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, text, "content-length: 5\r\n")
	assert.Contains(t, text, "content-type: application/octet-stream\r\n")
	assert.Contains(t, text, "server: polyhttp\r\n")
	assert.True(t, strings.HasSuffix(text, "\r\n\r\nhello"))
}

func TestWriteResponseHTTP1HeadSuppressesBody(t *testing.T) {
	req := AcquireRequest()
	req.Method = "HEAD"
	req.ProtoMajor = 1
	req.ProtoMinor = 1
	defer ReleaseRequest(req)

	res := AcquireResponse()
	res.Write([]byte("should not appear"))
	defer ReleaseResponse(res)

	var out bytes.Buffer
	bw := bufio.NewWriter(&out)
	responder := NewHttpResponder(bw)
	require.NoError(t, responder.WriteResponse(req, res, nil))

	text := out.String()
	assert.Contains(t, text, "content-length: 17\r\n")
	assert.True(t, strings.HasSuffix(text, "\r\n\r\n"))
}

func TestWriteResponseHTTP1GzipNegotiated(t *testing.T) {
	req := AcquireRequest()
	req.Method = "GET"
	req.ProtoMajor = 1
	req.ProtoMinor = 1
	hf := AcquireHeaderField()
	hf.Set("accept-encoding", "gzip")
	req.AddHeader(hf)
	defer ReleaseRequest(req)

	res := AcquireResponse()
	res.Write(bytes.Repeat([]byte("a"), 100))
	defer ReleaseResponse(res)

	var out bytes.Buffer
	bw := bufio.NewWriter(&out)
	responder := NewHttpResponder(bw)
	require.NoError(t, responder.WriteResponse(req, res, nil))

	text := out.String()
	assert.Contains(t, text, "content-encoding: gzip\r\n")
}

// TestWriteResponseHTTP2 builds a response over a fresh H2Context and
// decodes the emitted HEADERS+DATA frames back, matching what
// HttpReader.nextHTTP2Request would see from the client side.
func TestWriteResponseHTTP2(t *testing.T) {
	h2 := NewH2Context()
	defer h2.Close()

	req := AcquireRequest()
	req.Method = "GET"
	req.ProtoMajor = 2
	req.StreamID = 1
	defer ReleaseRequest(req)

	res := AcquireResponse()
	res.StatusCode = 200
	res.Write([]byte("hi there"))
	defer ReleaseResponse(res)

	var out bytes.Buffer
	bw := bufio.NewWriter(&out)
	responder := NewHttpResponder(bw)
	require.NoError(t, responder.WriteResponse(req, res, h2))

	br := bufio.NewReader(bytes.NewReader(out.Bytes()))

	headersFH, err := ReadFrameFrom(br, 0)
	require.NoError(t, err)
	defer ReleaseFrameHeader(headersFH)
	require.Equal(t, FrameHeaders, headersFH.Type())
	hdrs := headersFH.Body().(*Headers)
	assert.True(t, hdrs.EndHeaders())
	assert.False(t, hdrs.EndStream())

	var status, contentLength string
	decoder := NewHPACKDecoder()
	err = decoder.Decode(hdrs.HeaderBlock(), func(hf *HeaderField) {
		switch hf.Key() {
		case ":status":
			status = hf.Value()
		case "content-length":
			contentLength = hf.Value()
		}
		ReleaseHeaderField(hf)
	})
	require.NoError(t, err)
	assert.Equal(t, "200", status)
	assert.Equal(t, "8", contentLength)

	dataFH, err := ReadFrameFrom(br, 0)
	require.NoError(t, err)
	defer ReleaseFrameHeader(dataFH)
	require.Equal(t, FrameData, dataFH.Type())
	data := dataFH.Body().(*Data)
	assert.Equal(t, "hi there", string(data.Bytes()))
	assert.True(t, data.EndStream())
}

func TestWriteGoAwayAndRstStream(t *testing.T) {
	var out bytes.Buffer
	bw := bufio.NewWriter(&out)
	responder := NewHttpResponder(bw)

	h2 := NewH2Context()
	defer h2.Close()
	h2.ObserveStreamID(7)

	require.NoError(t, responder.WriteGoAway(h2, ProtocolError, "bad frame"))

	br := bufio.NewReader(bytes.NewReader(out.Bytes()))
	fh, err := ReadFrameFrom(br, 0)
	require.NoError(t, err)
	defer ReleaseFrameHeader(fh)
	ga := fh.Body().(*GoAway)
	assert.EqualValues(t, 7, ga.LastStreamID())
	assert.Equal(t, ProtocolError, ga.Code())
	assert.Equal(t, "bad frame", string(ga.DebugData()))

	out.Reset()
	require.NoError(t, responder.WriteRstStream(3, CancelError))
	br = bufio.NewReader(bytes.NewReader(out.Bytes()))
	fh2, err := ReadFrameFrom(br, 0)
	require.NoError(t, err)
	defer ReleaseFrameHeader(fh2)
	assert.EqualValues(t, 3, fh2.Stream())
	rs := fh2.Body().(*RstStream)
	assert.Equal(t, CancelError, rs.Code())
}
