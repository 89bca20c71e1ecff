package polyhttp

import (
	"sync"

	"github.com/domsolutions/polyhttp/byteutil"
)

var priorityPool = sync.Pool{New: func() interface{} { return &Priority{} }}

func acquirePriority() *Priority { return priorityPool.Get().(*Priority) }

// Priority advises the sender's preferred ordering of concurrent streams
// (RFC 7540 §6.3). The spec treats this as an advisory frame: this codec
// decodes it faithfully but dispatch is free to ignore it (spec §2
// "streams are served without priority tree scheduling").
type Priority struct {
	streamDep    uint32
	exclusiveDep bool
	weight       uint8
}

func (p *Priority) Type() FrameType { return FramePriority }

func (p *Priority) Reset() {
	p.streamDep = 0
	p.exclusiveDep = false
	p.weight = 0
}

func (p *Priority) StreamDependency() uint32 { return p.streamDep }
func (p *Priority) Exclusive() bool          { return p.exclusiveDep }
func (p *Priority) Weight() uint8            { return p.weight }

func (p *Priority) Deserialize(fh *FrameHeader) error {
	if len(fh.payload) != 5 {
		return NewGoAwayError(FrameSizeError, "PRIORITY payload must be exactly 5 bytes")
	}
	raw := byteutil.BytesToUint32(fh.payload)
	p.exclusiveDep = raw&0x80000000 != 0
	p.streamDep = raw & (1<<31 - 1)
	p.weight = fh.payload[4]
	return nil
}

func (p *Priority) Serialize(fh *FrameHeader) {
	dep := p.streamDep
	if p.exclusiveDep {
		dep |= 0x80000000
	}
	payload := byteutil.AppendUint32Bytes(fh.payload[:0], dep)
	fh.payload = append(payload, p.weight)
}
