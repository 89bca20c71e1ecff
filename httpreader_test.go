package polyhttp

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHTTP1GetRequest covers spec §8's end-to-end scenario: a plain
// HTTP/1.1 GET / request with only a Host header and no body.
func TestHTTP1GetRequest(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"
	conn := newFakeConn(raw)
	r := NewHttpReader(conn, ALPNNone, nil)

	req, err := r.Next()
	require.NoError(t, err)
	defer ReleaseRequest(req)

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, 1, req.ProtoMajor)
	assert.Equal(t, 1, req.ProtoMinor)
	assert.Equal(t, "/", req.URI.Path())
	assert.Equal(t, "example.com", req.Header("host"))
	assert.Empty(t, req.Body())
	assert.False(t, r.IsHTTP2())

	// HTTP/1 connections are single-request (spec Non-goal: no keepalive).
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

// TestHTTP10BodyByClose covers spec §4.4.2's "no Content-Length, no
// Transfer-Encoding, Connection: close, HTTP/1.0" case: the body runs to
// EOF.
func TestHTTP10BodyByClose(t *testing.T) {
	raw := "POST /submit HTTP/1.0\r\nConnection: close\r\n\r\nthe-entire-rest-is-body"
	conn := newFakeConn(raw)
	r := NewHttpReader(conn, ALPNNone, nil)

	req, err := r.Next()
	require.NoError(t, err)
	defer ReleaseRequest(req)

	assert.Equal(t, "the-entire-rest-is-body", string(req.Body()))
}

// TestTransferEncodingAndContentLengthIsProtocolError covers spec §8: a
// request carrying both Transfer-Encoding and Content-Length must be
// rejected (RFC 9112 §6.3 request smuggling guard), not silently resolved.
func TestTransferEncodingAndContentLengthIsProtocolError(t *testing.T) {
	raw := "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\nContent-Length: 5\r\n\r\n5\r\nhello\r\n0\r\n\r\n"
	conn := newFakeConn(raw)
	r := NewHttpReader(conn, ALPNNone, nil)

	_, err := r.Next()
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestHTTP1ChunkedBody(t *testing.T) {
	raw := "POST /up HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"
	conn := newFakeConn(raw)
	r := NewHttpReader(conn, ALPNNone, nil)

	req, err := r.Next()
	require.NoError(t, err)
	defer ReleaseRequest(req)
	assert.Equal(t, "hello world", string(req.Body()))
}

func TestHTTP1BodylessMethodWithBodyIsRejected(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nContent-Length: 3\r\n\r\nxyz"
	conn := newFakeConn(raw)
	r := NewHttpReader(conn, ALPNNone, nil)

	_, err := r.Next()
	assert.ErrorIs(t, err, ErrInvalidNonEmptyBody)
}

// TestHTTP2PrefaceHandshake covers spec §8's HTTP/2 connection preface
// scenario: the client's "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n" line switches the
// connection into HTTP/2 mode and elicits a server SETTINGS frame, with no
// Request yet produced.
func TestHTTP2PrefaceHandshake(t *testing.T) {
	conn := newFakeConn(http2Preface)
	r := NewHttpReader(conn, ALPNNone, nil)

	req, err := r.Next()
	require.NoError(t, err)
	assert.Nil(t, req)
	assert.True(t, r.IsHTTP2())
	require.NotNil(t, r.H2Context())

	written := conn.written.Bytes()
	require.GreaterOrEqual(t, len(written), FrameHeaderSize)
	assert.Equal(t, byte(FrameSettings), written[3])
}

// TestHTTP2ALPNStillRequiresPrefaceLine covers the ALPN-negotiated h2 path
// (spec §6 "ALPN"): when the transport already negotiated h2, the connection
// preface is still required on the wire (RFC 7540 §3.5) but is recognized
// the same way.
func TestHTTP2ALPNStillRequiresPrefaceLine(t *testing.T) {
	conn := newFakeConn(http2Preface)
	r := NewHttpReader(conn, ALPNHTTP2, nil)

	req, err := r.Next()
	require.NoError(t, err)
	assert.Nil(t, req)
	assert.True(t, r.IsHTTP2())
}

// TestHTTP2EndToEndGetRequest builds a minimal HPACK-encoded HEADERS frame
// by hand (as a client would) and drives it through HttpReader.Next() to
// confirm the full preface -> SETTINGS -> HEADERS(END_HEADERS|END_STREAM)
// path assembles a Request.
func TestHTTP2EndToEndGetRequest(t *testing.T) {
	enc := NewHPACKEncoder()
	var block []byte
	for _, kv := range []struct{ k, v string }{
		{":method", "GET"},
		{":scheme", "http"},
		{":authority", "example.com"},
		{":path", "/widgets"},
		{"user-agent", "polyhttp-test"},
	} {
		hf := AcquireHeaderField()
		hf.Set(kv.k, kv.v)
		block = enc.Encode(block, hf)
		ReleaseHeaderField(hf)
	}

	h := acquireHeaders()
	h.SetHeaderBlock(block)
	h.SetEndHeaders(true)
	h.SetEndStream(true)
	headersWire := writeFrame(t, 1, h)

	conn := newFakeConn(http2Preface + string(headersWire))
	r := NewHttpReader(conn, ALPNNone, nil)

	_, err := r.Next()
	require.NoError(t, err)

	req, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, req)
	defer ReleaseRequest(req)

	assert.Equal(t, "GET", req.Method)
	assert.EqualValues(t, 1, req.StreamID)
	assert.Equal(t, "/widgets", req.URI.Path())
	assert.Equal(t, "example.com", req.URI.Host)
	assert.Equal(t, "polyhttp-test", req.Header("user-agent"))
}
