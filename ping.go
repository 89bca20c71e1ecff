package polyhttp

import "sync"

var pingPool = sync.Pool{New: func() interface{} { return &Ping{} }}

func acquirePing() *Ping { return pingPool.Get().(*Ping) }

// Ping is a connection-level liveness probe carrying 8 opaque octets
// (RFC 7540 §6.7). An endpoint that receives one without ACK set must echo
// it back with ACK set and the same data — dispatch, not this codec, owns
// that behavior.
type Ping struct {
	ack  bool
	data [8]byte
}

func (p *Ping) Type() FrameType { return FramePing }

func (p *Ping) Reset() {
	p.ack = false
	p.data = [8]byte{}
}

func (p *Ping) Ack() bool        { return p.ack }
func (p *Ping) SetAck(v bool)    { p.ack = v }
func (p *Ping) Data() []byte     { return p.data[:] }
func (p *Ping) SetData(b []byte) { copy(p.data[:], b) }

func (p *Ping) Deserialize(fh *FrameHeader) error {
	if fh.Stream() != 0 {
		return NewGoAwayError(ProtocolError, "PING must be sent on stream 0")
	}
	if len(fh.payload) != 8 {
		return ErrMissingBytes
	}
	p.ack = fh.Flags().Has(FlagAck)
	copy(p.data[:], fh.payload)
	return nil
}

func (p *Ping) Serialize(fh *FrameHeader) {
	if p.ack {
		fh.SetFlags(fh.Flags().Add(FlagAck))
	}
	fh.setPayload(p.data[:])
}
