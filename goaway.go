package polyhttp

import (
	"fmt"
	"sync"

	"github.com/domsolutions/polyhttp/byteutil"
)

var goAwayPool = sync.Pool{New: func() interface{} { return &GoAway{} }}

func acquireGoAway() *GoAway { return goAwayPool.Get().(*GoAway) }

// GoAway tells the peer to stop opening new streams and reports the last
// stream this endpoint will process (RFC 7540 §6.8).
type GoAway struct {
	lastStreamID uint32
	code         ErrorCode
	debug        []byte
}

func (g *GoAway) Type() FrameType { return FrameGoAway }

func (g *GoAway) Reset() {
	g.lastStreamID = 0
	g.code = 0
	g.debug = g.debug[:0]
}

func (g *GoAway) LastStreamID() uint32 { return g.lastStreamID }
func (g *GoAway) SetLastStreamID(id uint32) { g.lastStreamID = id & (1<<31 - 1) }
func (g *GoAway) Code() ErrorCode      { return g.code }
func (g *GoAway) SetCode(c ErrorCode)  { g.code = c }
func (g *GoAway) DebugData() []byte    { return g.debug }
func (g *GoAway) SetDebugData(b []byte) { g.debug = append(g.debug[:0], b...) }

func (g *GoAway) Error() string {
	return fmt.Sprintf("goaway: last_stream=%d code=%s debug=%q", g.lastStreamID, g.code, g.debug)
}

// Deserialize reads RFC 7540 §6.8's wire layout: last_stream_id (31 bits,
// 4 octets), error_code (4 octets), then opaque debug data.
//
// The teacher's Deserialize reads the error code twice (once from
// payload[:4], then overwrites it from payload[4:]) and never captures
// last_stream_id at all — a copy/paste bug this codec does not reproduce.
func (g *GoAway) Deserialize(fh *FrameHeader) error {
	if fh.Stream() != 0 {
		return NewGoAwayError(ProtocolError, "GOAWAY must be sent on stream 0")
	}
	if len(fh.payload) < 8 {
		return ErrMissingBytes
	}
	g.lastStreamID = byteutil.BytesToUint32(fh.payload[:4]) & (1<<31 - 1)
	g.code = ErrorCode(byteutil.BytesToUint32(fh.payload[4:8]))
	if len(fh.payload) > 8 {
		g.debug = append(g.debug[:0], fh.payload[8:]...)
	}
	return nil
}

func (g *GoAway) Serialize(fh *FrameHeader) {
	payload := byteutil.AppendUint32Bytes(fh.payload[:0], g.lastStreamID)
	payload = byteutil.AppendUint32Bytes(payload, uint32(g.code))
	fh.payload = append(payload, g.debug...)
}
