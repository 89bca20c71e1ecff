package polyhttp

import (
	"sync"

	"github.com/valyala/bytebufferpool"
)

var requestPool = sync.Pool{New: func() interface{} { return &Request{} }}

// AcquireRequest gets a reset Request from the pool.
func AcquireRequest() *Request {
	r := requestPool.Get().(*Request)
	r.Reset()
	return r
}

// ReleaseRequest returns req to the pool, releasing its header fields.
func ReleaseRequest(req *Request) {
	req.Reset()
	requestPool.Put(req)
}

// Request is a decoded request, assembled by HttpReader from either an
// HTTP/1 request line + headers + body, or an HTTP/2 stream's
// HEADERS/CONTINUATION/DATA sequence (spec §2 "Request").
//
// Grounded on the teacher's Request+RequestHeader (request.go), flattened
// into one type and generalized across both protocols: ProtoMajor/StreamID
// distinguish the origin, and Method/URI/Headers/Body are populated the
// same way regardless of which wire format produced them.
type Request struct {
	Method     string
	URI        *URI
	ProtoMajor int
	ProtoMinor int
	StreamID   uint32 // 0 for HTTP/1

	headers []*HeaderField
	body    bytebufferpool.ByteBuffer
}

func (req *Request) Reset() {
	for _, hf := range req.headers {
		ReleaseHeaderField(hf)
	}
	req.headers = req.headers[:0]
	req.body.Reset()
	req.Method = ""
	req.URI = nil
	req.ProtoMajor = 0
	req.ProtoMinor = 0
	req.StreamID = 0
}

// Body returns the accumulated request body.
func (req *Request) Body() []byte { return req.body.Bytes() }

// SetBody replaces the request body.
func (req *Request) SetBody(b []byte) {
	req.body.Reset()
	req.body.Write(b)
}

// AppendBody appends to the request body (used while streaming DATA
// frames / chunked HTTP/1 bodies in).
func (req *Request) AppendBody(b []byte) { req.body.Write(b) }

// Headers returns the parsed header fields in wire order. HTTP/2
// pseudo-headers are not included; their values are carried by Method and
// URI instead.
func (req *Request) Headers() []*HeaderField { return req.headers }

// AddHeader appends a header field taking ownership of hf.
func (req *Request) AddHeader(hf *HeaderField) { req.headers = append(req.headers, hf) }

// Header looks up the first header field matching key (case-insensitive).
func (req *Request) Header(key string) string {
	for _, hf := range req.headers {
		if hf.KeyEquals(key) {
			return hf.Value()
		}
	}
	return ""
}

// IsBodylessMethod reports whether method forbids a request body per
// spec §2 edge case ("GET/HEAD/OPTIONS with a non-empty body").
func (req *Request) IsBodylessMethod() bool {
	switch req.Method {
	case "GET", "HEAD", "OPTIONS":
		return true
	}
	return false
}
