package polyhttp

import (
	"bufio"
	"strconv"
)

// ServerName is the Server header value HttpResponder attaches to every
// response (spec §4.5).
const ServerName = "polyhttp"

// DefaultContentType is used when a response carries no explicit
// Content-Type (spec §4.5).
const DefaultContentType = "application/octet-stream"

// WarnLogger receives a one-line message when HttpResponder downgrades a
// response to identity encoding after a compressor failure. Left nil by
// default; cmd/polyservd wires internal/netlog's logger in.
var WarnLogger func(msg string)

func warn(msg string) {
	if WarnLogger != nil {
		WarnLogger(msg)
	}
}

// HttpResponder serializes a Response over an HttpReader's connection,
// choosing HTTP/1 status-line framing or HTTP/2 HEADERS/DATA framing to
// match the request it answers (spec §4.5).
//
// Grounded on the teacher's Response.Write (response.go): headers are
// appended into a buffer ahead of the body, Content-Length is computed from
// the accumulated body rather than trusted from the caller. HTTP/2 emission
// has no teacher equivalent (the teacher is a raw frame library, not a
// request/response server) and is built from RFC 7540 §8.1.
type HttpResponder struct {
	bw *bufio.Writer
}

func NewHttpResponder(bw *bufio.Writer) *HttpResponder {
	return &HttpResponder{bw: bw}
}

// WriteResponse applies compression negotiation, HEAD suppression and
// Content-* header synthesis, then serializes res using the protocol
// implied by req (spec §4.5.1-3).
func (hr *HttpResponder) WriteResponse(req *Request, res *Response, h2 *H2Context) error {
	body := res.Body()
	encoding := ""

	if acceptEnc := req.Header("accept-encoding"); acceptEnc != "" {
		entries := ParseAcceptEncoding(acceptEnc)
		selected := SelectEncoding(entries)
		if selected != "" {
			compressed, used, err := CompressBody(selected, body)
			if err != nil {
				warn("compression failed, falling back to identity: " + err.Error())
			} else {
				body, encoding = compressed, used
			}
		}
	}

	if res.Header("content-type") == "" {
		res.SetHeader("content-type", DefaultContentType)
	}
	res.SetHeader("content-length", strconv.Itoa(len(body)))
	if encoding != "" {
		res.SetHeader("content-encoding", encoding)
	}
	res.SetHeader("server", ServerName)

	suppressBody := req.Method == "HEAD" || !res.SendBody

	if req.ProtoMajor == 2 {
		return hr.writeHTTP2(req, res, body, suppressBody, h2)
	}
	return hr.writeHTTP1(req, res, body, suppressBody)
}

func (hr *HttpResponder) writeHTTP1(req *Request, res *Response, body []byte, suppressBody bool) error {
	if _, err := hr.bw.WriteString("HTTP/1.1 "); err != nil {
		return err
	}
	if _, err := hr.bw.WriteString(strconv.Itoa(res.StatusCode)); err != nil {
		return err
	}
	if _, err := hr.bw.WriteString(" " + StatusText(res.StatusCode) + "\r\n"); err != nil {
		return err
	}

	connection := "close"
	if res.StatusCode == 101 {
		connection = "upgrade"
	}
	if res.Header("connection") == "" {
		res.SetHeader("connection", connection)
	}

	for _, hf := range res.Headers() {
		if _, err := hr.bw.WriteString(hf.KeyUnsafe()); err != nil {
			return err
		}
		if _, err := hr.bw.WriteString(": "); err != nil {
			return err
		}
		if _, err := hr.bw.WriteString(hf.ValueUnsafe()); err != nil {
			return err
		}
		if _, err := hr.bw.WriteString("\r\n"); err != nil {
			return err
		}
	}
	if _, err := hr.bw.WriteString("\r\n"); err != nil {
		return err
	}

	if !suppressBody && len(body) > 0 {
		if _, err := hr.bw.Write(body); err != nil {
			return err
		}
	}
	return hr.bw.Flush()
}

// writeHTTP2 HPACK-encodes res's headers into one HEADERS frame, then emits
// the (possibly suppressed) body across zero or more DATA frames bounded by
// the peer's negotiated max_frame_size, the last carrying END_STREAM
// (spec §4.5.3).
func (hr *HttpResponder) writeHTTP2(req *Request, res *Response, body []byte, suppressBody bool, h2 *H2Context) error {
	enc := h2.Encoder()

	var block []byte
	status := AcquireHeaderField()
	status.Set(":status", strconv.Itoa(res.StatusCode))
	block = enc.Encode(block, status)
	ReleaseHeaderField(status)

	for _, hf := range res.Headers() {
		block = enc.Encode(block, hf)
	}

	sendBody := !suppressBody && len(body) > 0

	headers := acquireHeaders()
	headers.SetHeaderBlock(block)
	headers.SetEndHeaders(true)
	headers.SetEndStream(!sendBody)

	fh := AcquireFrameHeader()
	fh.SetStream(req.StreamID)
	fh.SetBody(headers)
	if _, err := fh.WriteTo(hr.bw); err != nil {
		ReleaseFrameHeader(fh)
		return err
	}
	ReleaseFrameHeader(fh)

	if !sendBody {
		return hr.bw.Flush()
	}

	maxFrame := int(settingsValue(h2.RemoteSettings, SettingMaxFrameSize, defaultMaxFrameSize))
	for len(body) > 0 {
		n := len(body)
		if n > maxFrame {
			n = maxFrame
		}
		chunk := body[:n]
		body = body[n:]

		data := acquireData()
		data.SetData(chunk)
		data.SetEndStream(len(body) == 0)

		dfh := AcquireFrameHeader()
		dfh.SetStream(req.StreamID)
		dfh.SetBody(data)
		if _, err := dfh.WriteTo(hr.bw); err != nil {
			ReleaseFrameHeader(dfh)
			return err
		}
		ReleaseFrameHeader(dfh)
	}

	return hr.bw.Flush()
}

// WriteGoAway sends a connection-terminating GOAWAY with the given error
// code and debug text (spec §7's HTTP/2 connection-error handling).
func (hr *HttpResponder) WriteGoAway(h2 *H2Context, code ErrorCode, debug string) error {
	ga := acquireGoAway()
	var last uint32
	if h2 != nil {
		last = h2.LastPeerStreamID()
	}
	ga.SetLastStreamID(last)
	ga.SetCode(code)
	ga.SetDebugData([]byte(debug))

	fh := AcquireFrameHeader()
	defer ReleaseFrameHeader(fh)
	fh.SetBody(ga)
	if _, err := fh.WriteTo(hr.bw); err != nil {
		return err
	}
	return hr.bw.Flush()
}

// WriteRstStream sends a stream-terminating RST_STREAM (spec §7's
// stream-error handling).
func (hr *HttpResponder) WriteRstStream(streamID uint32, code ErrorCode) error {
	rs := acquireRstStream()
	rs.SetCode(code)

	fh := AcquireFrameHeader()
	defer ReleaseFrameHeader(fh)
	fh.SetStream(streamID)
	fh.SetBody(rs)
	if _, err := fh.WriteTo(hr.bw); err != nil {
		return err
	}
	return hr.bw.Flush()
}
