package polyhttp

import (
	"sync"

	"github.com/domsolutions/polyhttp/byteutil"
)

var rstStreamPool = sync.Pool{New: func() interface{} { return &RstStream{} }}

func acquireRstStream() *RstStream { return rstStreamPool.Get().(*RstStream) }

// RstStream immediately terminates a stream (RFC 7540 §6.4).
type RstStream struct {
	code ErrorCode
}

func (r *RstStream) Type() FrameType  { return FrameResetStream }
func (r *RstStream) Reset()          { r.code = 0 }
func (r *RstStream) Code() ErrorCode { return r.code }
func (r *RstStream) SetCode(c ErrorCode) { r.code = c }

func (r *RstStream) Deserialize(fh *FrameHeader) error {
	if len(fh.payload) < 4 {
		return ErrMissingBytes
	}
	r.code = ErrorCode(byteutil.BytesToUint32(fh.payload))
	return nil
}

func (r *RstStream) Serialize(fh *FrameHeader) {
	fh.payload = byteutil.AppendUint32Bytes(fh.payload[:0], uint32(r.code))
}
