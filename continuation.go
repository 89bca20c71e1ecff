package polyhttp

import "sync"

var continuationPool = sync.Pool{New: func() interface{} { return &Continuation{} }}

func acquireContinuation() *Continuation { return continuationPool.Get().(*Continuation) }

// Continuation carries header block fragments that didn't fit in the
// preceding HEADERS or PUSH_PROMISE frame (RFC 7540 §6.10). A stream's
// header block is only complete once a CONTINUATION (or the original
// HEADERS/PUSH_PROMISE) sets END_HEADERS.
type Continuation struct {
	endHeaders bool
	rawHeaders []byte
}

func (c *Continuation) Type() FrameType { return FrameContinuation }

func (c *Continuation) Reset() {
	c.endHeaders = false
	c.rawHeaders = c.rawHeaders[:0]
}

func (c *Continuation) EndHeaders() bool    { return c.endHeaders }
func (c *Continuation) HeaderBlock() []byte { return c.rawHeaders }

func (c *Continuation) Deserialize(fh *FrameHeader) error {
	c.endHeaders = fh.Flags().Has(FlagEndHeaders)
	c.rawHeaders = append(c.rawHeaders[:0], fh.payload...)
	return nil
}

func (c *Continuation) Serialize(fh *FrameHeader) {
	if c.endHeaders {
		fh.SetFlags(fh.Flags().Add(FlagEndHeaders))
	}
	fh.setPayload(c.rawHeaders)
}
