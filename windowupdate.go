package polyhttp

import (
	"sync"

	"github.com/domsolutions/polyhttp/byteutil"
)

var windowUpdatePool = sync.Pool{New: func() interface{} { return &WindowUpdate{} }}

func acquireWindowUpdate() *WindowUpdate { return windowUpdatePool.Get().(*WindowUpdate) }

// WindowUpdate grants additional flow-control credit, either connection-wide
// (stream id 0) or for a single stream (RFC 7540 §6.9).
type WindowUpdate struct {
	increment uint32
}

func (w *WindowUpdate) Type() FrameType { return FrameWindowUpdate }
func (w *WindowUpdate) Reset()         { w.increment = 0 }
func (w *WindowUpdate) Increment() uint32 { return w.increment }
func (w *WindowUpdate) SetIncrement(n uint32) { w.increment = n & (1<<31 - 1) }

func (w *WindowUpdate) Deserialize(fh *FrameHeader) error {
	if len(fh.payload) != 4 {
		return ErrMissingBytes
	}
	w.increment = byteutil.BytesToUint32(fh.payload) & (1<<31 - 1)
	if w.increment == 0 {
		if fh.Stream() == 0 {
			return NewGoAwayError(ProtocolError, "WINDOW_UPDATE increment of 0 on the connection")
		}
		return NewStreamError(fh.Stream(), ProtocolError)
	}
	return nil
}

func (w *WindowUpdate) Serialize(fh *FrameHeader) {
	fh.payload = byteutil.AppendUint32Bytes(fh.payload[:0], w.increment)
}
