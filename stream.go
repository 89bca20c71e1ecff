package polyhttp

import "sort"

// StreamState is one node of the HTTP/2 stream state machine
// (RFC 7540 §5.1). Expanded from the teacher's five-state enum (which
// collapses both "reserved" directions into one state and both
// "half-closed" directions into another) into the full RFC graph, since
// distinguishing them is required to validate which frame types are legal
// on a stream at a given point (spec §2 "StreamState").
type StreamState int8

const (
	StreamStateIdle StreamState = iota
	StreamStateReservedLocal
	StreamStateReservedRemote
	StreamStateOpen
	StreamStateHalfClosedLocal
	StreamStateHalfClosedRemote
	StreamStateClosed
)

func (ss StreamState) String() string {
	switch ss {
	case StreamStateIdle:
		return "Idle"
	case StreamStateReservedLocal:
		return "ReservedLocal"
	case StreamStateReservedRemote:
		return "ReservedRemote"
	case StreamStateOpen:
		return "Open"
	case StreamStateHalfClosedLocal:
		return "HalfClosedLocal"
	case StreamStateHalfClosedRemote:
		return "HalfClosedRemote"
	case StreamStateClosed:
		return "Closed"
	}
	return "Unknown"
}

// Stream is one HTTP/2 stream's accumulated state across the frames that
// make it up: header block fragments (until END_HEADERS), body octets
// (until END_STREAM) and flow-control window.
//
// Grounded on the teacher's Stream (stream.go), generalized with the
// header/body accumulation buffers an H2Context needs to assemble a
// complete Request out of HEADERS+CONTINUATION+DATA (spec §4.3 "H2Context").
type Stream struct {
	id     uint32
	state  StreamState
	window int

	headerBlock []byte
	body        []byte
	endHeaders  bool
	endStream   bool
}

// NewStream creates an idle stream with the given initial flow-control
// window (HttpReader passes our own SETTINGS_INITIAL_WINDOW_SIZE).
func NewStream(id uint32, window int) *Stream {
	return &Stream{id: id, state: StreamStateIdle, window: window}
}

func (s *Stream) ID() uint32            { return s.id }
func (s *Stream) State() StreamState    { return s.state }
func (s *Stream) SetState(st StreamState) { s.state = st }
func (s *Stream) Window() int           { return s.window }
func (s *Stream) SetWindow(w int)       { s.window = w }
func (s *Stream) IncrWindow(delta int)  { s.window += delta }

// AppendHeaderBlock accumulates a HEADERS/CONTINUATION fragment.
func (s *Stream) AppendHeaderBlock(b []byte) { s.headerBlock = append(s.headerBlock, b...) }

// HeaderBlock returns the accumulated header block fragments so far.
func (s *Stream) HeaderBlock() []byte { return s.headerBlock }

// AppendBody accumulates a DATA frame's payload.
func (s *Stream) AppendBody(b []byte) { s.body = append(s.body, b...) }

// Body returns the accumulated request/response body so far.
func (s *Stream) Body() []byte { return s.body }

func (s *Stream) SetEndHeaders(v bool) { s.endHeaders = v }
func (s *Stream) EndHeaders() bool     { return s.endHeaders }
func (s *Stream) SetEndStream(v bool)  { s.endStream = v }
func (s *Stream) EndStream() bool      { return s.endStream }

// Streams is an id-ordered collection of Stream, grounded on the teacher's
// Streams (streams.go) sorted-slice + binary search implementation.
type Streams struct {
	list []*Stream
}

func (ss *Streams) Insert(s *Stream) {
	i := sort.Search(len(ss.list), func(i int) bool { return ss.list[i].id >= s.id })
	if i == len(ss.list) {
		ss.list = append(ss.list, s)
		return
	}
	ss.list = append(ss.list, nil)
	copy(ss.list[i+1:], ss.list[i:])
	ss.list[i] = s
}

func (ss *Streams) Del(id uint32) *Stream {
	i := sort.Search(len(ss.list), func(i int) bool { return ss.list[i].id >= id })
	if i < len(ss.list) && ss.list[i].id == id {
		s := ss.list[i]
		ss.list = append(ss.list[:i], ss.list[i+1:]...)
		return s
	}
	return nil
}

func (ss *Streams) Get(id uint32) *Stream {
	i := sort.Search(len(ss.list), func(i int) bool { return ss.list[i].id >= id })
	if i < len(ss.list) && ss.list[i].id == id {
		return ss.list[i]
	}
	return nil
}

// Len reports the number of open streams. Nothing in the package compares
// it against SETTINGS_MAX_CONCURRENT_STREAMS.
func (ss *Streams) Len() int { return len(ss.list) }
