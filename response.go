package polyhttp

import (
	"strconv"
	"sync"

	"github.com/valyala/bytebufferpool"
)

var responsePool = sync.Pool{New: func() interface{} { return &Response{} }}

// AcquireResponse gets a reset Response, defaulted to status 200.
func AcquireResponse() *Response {
	r := responsePool.Get().(*Response)
	r.Reset()
	return r
}

// ReleaseResponse returns res to the pool, releasing its header fields.
func ReleaseResponse(res *Response) {
	res.Reset()
	responsePool.Put(res)
}

// Response is a to-be-serialized response (spec §2 "Response"). SendBody
// controls whether HttpResponder writes the body octets after the headers
// — false for a HEAD response's Content-Length-without-body semantics
// (spec §2 edge case).
//
// Grounded on the teacher's Response+ResponseHeader (response.go).
type Response struct {
	StatusCode int
	SendBody   bool

	headers []*HeaderField
	body    bytebufferpool.ByteBuffer
}

func (res *Response) Reset() {
	for _, hf := range res.headers {
		ReleaseHeaderField(hf)
	}
	res.headers = res.headers[:0]
	res.body.Reset()
	res.StatusCode = 200
	res.SendBody = true
}

func (res *Response) Body() []byte { return res.body.Bytes() }

func (res *Response) Write(b []byte) (int, error) { return res.body.Write(b) }

func (res *Response) SetBody(b []byte) {
	res.body.Reset()
	res.body.Write(b)
}

// ContentLength is the response body's current length. HttpResponder does
// not use it: it always sets Content-Length from the length of the body it
// sends (after any compression).
func (res *Response) ContentLength() int { return res.body.Len() }

func (res *Response) Headers() []*HeaderField { return res.headers }

// SetHeader sets (or replaces) a header field by key.
func (res *Response) SetHeader(key, value string) {
	for _, hf := range res.headers {
		if hf.KeyEquals(key) {
			hf.SetValue(value)
			return
		}
	}
	hf := AcquireHeaderField()
	hf.Set(key, value)
	res.headers = append(res.headers, hf)
}

func (res *Response) Header(key string) string {
	for _, hf := range res.headers {
		if hf.KeyEquals(key) {
			return hf.Value()
		}
	}
	return ""
}

// StatusText is the minimal RFC 9110 §15 reason phrase table HttpResponder
// needs for HTTP/1 status lines (HTTP/2 carries no reason phrase).
func StatusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 204:
		return "No Content"
	case 206:
		return "Partial Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 304:
		return "Not Modified"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 411:
		return "Length Required"
	case 413:
		return "Payload Too Large"
	case 426:
		return "Upgrade Required"
	case 431:
		return "Request Header Fields Too Large"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	case 505:
		return "HTTP Version Not Supported"
	default:
		return "Status " + strconv.Itoa(code)
	}
}
