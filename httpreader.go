package polyhttp

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// ALPN mirrors the TLS layer's negotiated-protocol outcome handed to the
// core (spec §6 "Connection descriptor"); the core never touches TLS
// itself.
type ALPN uint8

const (
	ALPNNone ALPN = iota
	ALPNHTTP11
	ALPNHTTP2
)

const http2Preface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// protoState is which wire format HttpReader has committed to for the
// lifetime of the connection.
type protoState uint8

const (
	protoUndetermined protoState = iota
	protoHTTP1
	protoHTTP2
)

// HttpReader selects HTTP/1 vs HTTP/2 from the first request line and the
// following bytes, then yields one complete Request at a time (spec §4.4).
//
// Grounded on the teacher's serverConn.go main loop (the general shape:
// peek the first bytes, detect the preface, fall back to HTTP/1 parsing)
// generalized into a pull-based Next() the way spec §2's "iterator-like
// interface" calls for, instead of the teacher's callback-per-connection
// loop.
type HttpReader struct {
	br   *ByteReader
	bw   *bufio.Writer
	alpn ALPN
	proto protoState

	h2          *H2Context
	maxLineSize int

	shutdown <-chan struct{}
}

// NewHttpReader wraps conn for one connection's lifetime. shutdown, if
// non-nil, is observed between requests and at ByteReader blocking
// boundaries (spec §5 "cooperative cancellation").
func NewHttpReader(conn Conn, alpn ALPN, shutdown <-chan struct{}) *HttpReader {
	return &HttpReader{
		br:          NewByteReader(conn),
		bw:          bufio.NewWriter(conn),
		alpn:        alpn,
		maxLineSize: 8192,
		shutdown:    shutdown,
	}
}

// Writer exposes the buffered writer HttpResponder serializes responses
// into; both share the same underlying connection.
func (r *HttpReader) Writer() *bufio.Writer { return r.bw }

// IsHTTP2 reports whether this connection settled on HTTP/2. It is false
// until the first Next() call completes negotiation.
func (r *HttpReader) IsHTTP2() bool { return r.proto == protoHTTP2 }

// H2Context returns the HTTP/2 connection state, or nil on an HTTP/1
// connection.
func (r *HttpReader) H2Context() *H2Context { return r.h2 }

func (r *HttpReader) shuttingDown() bool {
	if r.shutdown == nil {
		return false
	}
	select {
	case <-r.shutdown:
		return true
	default:
		return false
	}
}

// Next returns the next complete request on this connection, or io.EOF
// once the peer has cleanly closed it.
func (r *HttpReader) Next() (*Request, error) {
	if r.shuttingDown() {
		return nil, io.EOF
	}

	switch r.proto {
	case protoUndetermined:
		return r.negotiateAndReadFirst()
	case protoHTTP1:
		// spec Non-goal: no HTTP/1.1 keepalive beyond single-request
		// semantics — a second Next() call on an HTTP/1 connection ends it.
		return nil, io.EOF
	default:
		return r.nextHTTP2Request()
	}
}

func (r *HttpReader) negotiateAndReadFirst() (*Request, error) {
	line, err := r.br.ReadUntil('\n')
	if err != nil {
		return nil, err
	}
	line = trimCR(line)

	if string(line) == "PRI * HTTP/2.0" || r.alpn == ALPNHTTP2 {
		if string(line) != "PRI * HTTP/2.0" {
			return nil, NewGoAwayError(ProtocolError, "expected PRI * HTTP/2.0 preface")
		}
		rest, err := r.br.ReadExact(8)
		if err != nil {
			return nil, err
		}
		if string(rest) != "\r\nSM\r\n\r\n" {
			return nil, ErrInvalidHTTP2Preface
		}
		return nil, r.startHTTP2()
	}

	r.proto = protoHTTP1
	return r.readHTTP1Request(line)
}

// startHTTP2 completes the server side of the handshake by sending our
// SETTINGS. It does not wait for the peer's SETTINGS: that frame is ACKed by
// the frame loop on a later Next() call, and nothing checks that it is the
// first frame the peer sends. It returns a nil error and no request; the
// caller (dispatch loop) must call Next() again to pull the first HEADERS-
// derived request.
func (r *HttpReader) startHTTP2() error {
	r.proto = protoHTTP2
	r.h2 = NewH2Context()

	fh := AcquireFrameHeader()
	defer ReleaseFrameHeader(fh)
	settings := acquireSettingsFrame()
	for _, e := range r.h2.LocalSettings.Entries() {
		settings.Add(e.ID, e.Value)
	}
	fh.SetBody(settings)
	if _, err := fh.WriteTo(r.bw); err != nil {
		return err
	}
	return r.bw.Flush()
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}

// readHTTP1Request parses the request-line already read into line, then
// headers and body (spec §4.4.2).
func (r *HttpReader) readHTTP1Request(line []byte) (*Request, error) {
	parts := strings.SplitN(string(line), " ", 3)
	if len(parts) != 3 {
		return nil, ErrInvalidHTTPVersion
	}
	method, target, version := parts[0], parts[1], parts[2]

	major, minor, ok := parseHTTPVersion(version)
	if !ok {
		return nil, ErrInvalidHTTPVersion
	}
	if !isKnownMethod(method) {
		return nil, ErrMethodNotSupported
	}

	req := AcquireRequest()
	req.Method = method
	req.URI = ParseURI(method, target)
	req.ProtoMajor = major
	req.ProtoMinor = minor

	if err := r.validateURIForm(req); err != nil {
		ReleaseRequest(req)
		return nil, err
	}

	var transferEncoding, contentLength, connection string
	for {
		hline, err := r.br.ReadUntil('\n')
		if err != nil {
			ReleaseRequest(req)
			return nil, err
		}
		hline = trimCR(hline)
		if len(hline) == 0 {
			break
		}
		name, value, ok := strings.Cut(string(hline), ":")
		if !ok {
			ReleaseRequest(req)
			return nil, ErrProtocol
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)

		hf := AcquireHeaderField()
		hf.Set(name, value)
		req.AddHeader(hf)

		switch strings.ToLower(name) {
		case "transfer-encoding":
			transferEncoding = strings.ToLower(value)
		case "content-length":
			contentLength = value
		case "connection":
			connection = strings.ToLower(value)
		}
	}

	if transferEncoding != "" && contentLength != "" {
		ReleaseRequest(req)
		return nil, ErrProtocol
	}

	body, err := r.readHTTP1Body(transferEncoding, contentLength, connection, major, minor)
	if err != nil {
		ReleaseRequest(req)
		return nil, err
	}
	req.SetBody(body)

	if req.IsBodylessMethod() && len(body) > 0 {
		ReleaseRequest(req)
		return nil, ErrInvalidNonEmptyBody
	}

	return req, nil
}

func (r *HttpReader) readHTTP1Body(transferEncoding, contentLength, connection string, major, minor int) ([]byte, error) {
	switch {
	case transferEncoding != "":
		if !strings.Contains(transferEncoding, "chunked") {
			return nil, ErrNotSupported
		}
		return r.readChunkedBody()

	case contentLength != "":
		n, err := strconv.Atoi(contentLength)
		if err != nil || n < 0 {
			return nil, ErrLengthRequired
		}
		return r.br.ReadExact(n)

	case connection == "close" && major == 1 && minor == 0:
		return r.br.ReadToEnd()

	default:
		return nil, nil
	}
}

func (r *HttpReader) readChunkedBody() ([]byte, error) {
	var body []byte
	for {
		sizeLine, err := r.br.ReadUntil('\n')
		if err != nil {
			return nil, err
		}
		sizeLine = trimCR(sizeLine)
		if i := strings_IndexByte(sizeLine, ';'); i >= 0 {
			sizeLine = sizeLine[:i]
		}
		size, err := strconv.ParseInt(strings.TrimSpace(string(sizeLine)), 16, 64)
		if err != nil || size < 0 {
			return nil, ErrProtocol
		}
		if size == 0 {
			// consume trailers up to the blank line.
			for {
				t, err := r.br.ReadUntil('\n')
				if err != nil {
					return nil, err
				}
				if len(trimCR(t)) == 0 {
					break
				}
			}
			return body, nil
		}

		chunk, err := r.br.ReadExact(int(size))
		if err != nil {
			return nil, err
		}
		body = append(body, chunk...)

		trailingCRLF, err := r.br.ReadExact(2)
		if err != nil {
			return nil, err
		}
		if string(trailingCRLF) != "\r\n" {
			return nil, ErrProtocol
		}
	}
}

func strings_IndexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func (r *HttpReader) validateURIForm(req *Request) error {
	switch req.URI.Kind {
	case URIAsterisk:
		if req.Method != "OPTIONS" {
			return ErrProtocol
		}
	case URIAuthority:
		if req.Method != "CONNECT" {
			return ErrProtocol
		}
	}
	return nil
}

func isKnownMethod(m string) bool {
	switch m {
	case "GET", "POST", "HEAD", "OPTIONS", "CONNECT", "PRI":
		return true
	}
	return false
}

func parseHTTPVersion(v string) (major, minor int, ok bool) {
	switch v {
	case "HTTP/1.0":
		return 1, 0, true
	case "HTTP/1.1":
		return 1, 1, true
	case "HTTP/2.0", "HTTP/2":
		return 2, 0, true
	}
	return 0, 0, false
}

// nextHTTP2Request drives the frame loop (spec §4.4.4/§4.4.5) until a
// stream reaches half-closed-remote, then returns its assembled Request.
func (r *HttpReader) nextHTTP2Request() (*Request, error) {
	for {
		if r.shuttingDown() {
			return nil, io.EOF
		}

		fh, err := ReadFrameFrom(r.br.br, int(settingsValue(r.h2.LocalSettings, SettingMaxFrameSize, defaultMaxFrameSize)))
		if err != nil {
			if err == ErrPayloadExceeds {
				return nil, NewGoAwayError(FrameSizeError, "frame exceeds negotiated max_frame_size")
			}
			if err == ErrUnknownFrameType {
				continue
			}
			return nil, err
		}

		req, err := r.handleH2Frame(fh)
		ReleaseFrameHeader(fh)
		if err != nil {
			return nil, err
		}
		if req != nil {
			return req, nil
		}
	}
}

func settingsValue(s *SettingsFrame, id SettingID, def uint32) uint32 {
	for _, e := range s.Entries() {
		if e.ID == id {
			return e.Value
		}
	}
	return def
}

// handleH2Frame dispatches one parsed frame. Before looking at its type it
// enforces the continuation-state invariant (spec §4.4.4/§4.4.5): once a
// stream has an open header block (HEADERS/PUSH_PROMISE without
// END_HEADERS), every following frame up to the closing CONTINUATION must
// be a CONTINUATION on that same stream — anything else, any other frame
// type or a different stream, is a connection error.
func (r *HttpReader) handleH2Frame(fh *FrameHeader) (*Request, error) {
	if pending := r.h2.PendingHeaderStreamID(); pending != 0 {
		cont, ok := fh.Body().(*Continuation)
		if !ok || fh.Stream() != pending {
			return nil, NewGoAwayError(ProtocolError, "frame interleaved within an open header block")
		}
		return r.handleContinuationFrame(fh.Stream(), cont)
	}

	switch body := fh.Body().(type) {
	case *SettingsFrame:
		if body.Ack() {
			return nil, nil
		}
		r.h2.ApplyRemoteSettings(body.Entries())
		ack := acquireSettingsFrame()
		ack.SetAck(true)
		out := AcquireFrameHeader()
		defer ReleaseFrameHeader(out)
		out.SetBody(ack)
		if _, err := out.WriteTo(r.bw); err != nil {
			return nil, err
		}
		return nil, r.bw.Flush()

	case *Ping:
		if body.Ack() {
			return nil, nil
		}
		reply := acquirePing()
		reply.SetAck(true)
		reply.SetData(body.Data())
		out := AcquireFrameHeader()
		defer ReleaseFrameHeader(out)
		out.SetBody(reply)
		if _, err := out.WriteTo(r.bw); err != nil {
			return nil, err
		}
		return nil, r.bw.Flush()

	case *GoAway:
		return nil, io.EOF

	case *WindowUpdate:
		return nil, nil

	case *Priority:
		if fh.Stream() == 0 {
			return nil, NewGoAwayError(ProtocolError, "PRIORITY must be associated with a stream")
		}
		return nil, nil

	case *Headers:
		return r.handleHeadersFrame(fh.Stream(), body)

	case *Continuation:
		return nil, NewGoAwayError(ProtocolError, "CONTINUATION without open header block")

	case *Data:
		return r.handleDataFrame(fh.Stream(), body)

	case *RstStream:
		if fh.Stream() == 0 {
			return nil, NewGoAwayError(ProtocolError, "RST_STREAM must be associated with a stream")
		}
		r.h2.Streams().Del(fh.Stream())
		return nil, nil

	case *PushPromise:
		return nil, NewGoAwayError(ProtocolError, "server does not accept PUSH_PROMISE")
	}
	return nil, nil
}

func (r *HttpReader) handleHeadersFrame(streamID uint32, h *Headers) (*Request, error) {
	if !r.h2.NextStreamIDValid(streamID) {
		return nil, NewGoAwayError(ProtocolError, "non-monotonic stream id")
	}
	r.h2.ObserveStreamID(streamID)

	st := NewStream(streamID, int(settingsValue(r.h2.LocalSettings, SettingInitialWindowSize, 1<<16-1)))
	st.SetState(StreamStateOpen)
	st.AppendHeaderBlock(h.HeaderBlock())
	st.SetEndHeaders(h.EndHeaders())
	st.SetEndStream(h.EndStream())
	r.h2.Streams().Insert(st)

	if !h.EndHeaders() {
		r.h2.SetPendingHeaderStreamID(streamID)
	}

	return r.maybeFinishStream(st)
}

func (r *HttpReader) handleContinuationFrame(streamID uint32, c *Continuation) (*Request, error) {
	st := r.h2.Streams().Get(streamID)
	if st == nil || st.EndHeaders() {
		return nil, NewGoAwayError(ProtocolError, "CONTINUATION without open header block")
	}
	st.AppendHeaderBlock(c.HeaderBlock())
	st.SetEndHeaders(c.EndHeaders())
	if c.EndHeaders() {
		r.h2.SetPendingHeaderStreamID(0)
	}
	return r.maybeFinishStream(st)
}

func (r *HttpReader) handleDataFrame(streamID uint32, d *Data) (*Request, error) {
	st := r.h2.Streams().Get(streamID)
	if st == nil {
		return nil, NewStreamError(streamID, StreamClosedError)
	}
	st.AppendBody(d.Bytes())
	if d.EndStream() {
		st.SetEndStream(true)
	}
	return r.maybeFinishStream(st)
}

// maybeFinishStream decodes the accumulated header block once both
// END_HEADERS and END_STREAM have arrived, splitting pseudo-headers
// (:method, :scheme, :authority, :path) out of the ordinary header list and
// validating that none follow a regular header (spec §4.4.4/§7).
func (r *HttpReader) maybeFinishStream(st *Stream) (*Request, error) {
	if !st.EndHeaders() || !st.EndStream() {
		return nil, nil
	}

	req := AcquireRequest()
	req.ProtoMajor = 2
	req.StreamID = st.ID()

	var method, scheme, authority, path string
	var sawRegular, orderViolation bool

	err := r.h2.Decoder().Decode(st.HeaderBlock(), func(hf *HeaderField) {
		if hf.IsPseudo() {
			if sawRegular {
				orderViolation = true
			}
			switch hf.Key() {
			case ":method":
				method = hf.Value()
			case ":scheme":
				scheme = hf.Value()
			case ":authority":
				authority = hf.Value()
			case ":path":
				path = hf.Value()
			}
			ReleaseHeaderField(hf)
			return
		}
		sawRegular = true
		req.AddHeader(hf)
	})

	r.h2.Streams().Del(st.ID())

	if err != nil {
		ReleaseRequest(req)
		return nil, NewGoAwayError(CompressionError, err.Error())
	}
	if orderViolation || method == "" {
		ReleaseRequest(req)
		return nil, NewStreamError(st.ID(), ProtocolError)
	}

	req.Method = method
	target := path
	if target == "" {
		target = "/"
	}
	req.URI = ParseURI(method, target)
	if authority != "" && req.URI.Host == "" {
		req.URI.Host = authority
	}
	if scheme != "" && req.URI.Scheme == "" {
		req.URI.Scheme = scheme
	}
	if err := r.validateURIForm(req); err != nil {
		ReleaseRequest(req)
		return nil, NewStreamError(st.ID(), ProtocolError)
	}
	req.SetBody(st.Body())

	if req.IsBodylessMethod() && len(req.Body()) > 0 {
		ReleaseRequest(req)
		return nil, ErrInvalidNonEmptyBody
	}
	return req, nil
}
