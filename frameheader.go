package polyhttp

import (
	"bufio"
	"io"
	"sync"

	"github.com/domsolutions/polyhttp/byteutil"
)

// FrameHeaderSize is the fixed 9-byte frame header (RFC 7540 §4.1).
const FrameHeaderSize = 9

// defaultMaxFrameSize is SETTINGS_MAX_FRAME_SIZE's default/minimum
// (RFC 7540 §6.5.2).
const defaultMaxFrameSize = 1 << 14

var frameHeaderPool = sync.Pool{
	New: func() interface{} { return &FrameHeader{} },
}

// FrameHeader is the 9-byte HTTP/2 frame preamble plus the pooled payload
// buffer and decoded Frame body it wraps (spec §5 "H2FrameCodec").
//
// Not safe for concurrent use — one belongs to exactly one connection's
// read or write loop at a time, exactly like the teacher's FrameHeader.
type FrameHeader struct {
	length int
	kind   FrameType
	flags  FrameFlags
	stream uint32

	maxLen int

	rawHeader [FrameHeaderSize]byte
	payload   []byte

	fr Frame
}

// AcquireFrameHeader gets a reset FrameHeader from the pool.
func AcquireFrameHeader() *FrameHeader {
	fh := frameHeaderPool.Get().(*FrameHeader)
	fh.Reset()
	return fh
}

// ReleaseFrameHeader releases fh's body (if any) and returns fh to the pool.
func ReleaseFrameHeader(fh *FrameHeader) {
	ReleaseFrame(fh.fr)
	fh.fr = nil
	frameHeaderPool.Put(fh)
}

// Reset clears fh for reuse, restoring the default negotiated max length.
func (fh *FrameHeader) Reset() {
	fh.length = 0
	fh.kind = 0
	fh.flags = 0
	fh.stream = 0
	fh.maxLen = defaultMaxFrameSize
	fh.fr = nil
	fh.payload = fh.payload[:0]
}

func (fh *FrameHeader) Type() FrameType    { return fh.kind }
func (fh *FrameHeader) Flags() FrameFlags  { return fh.flags }
func (fh *FrameHeader) SetFlags(f FrameFlags) { fh.flags = f }
func (fh *FrameHeader) Stream() uint32     { return fh.stream }
func (fh *FrameHeader) SetStream(s uint32) { fh.stream = s }
func (fh *FrameHeader) Len() int           { return fh.length }

// SetMaxLen applies the locally negotiated SETTINGS_MAX_FRAME_SIZE, used to
// reject oversized incoming frames.
func (fh *FrameHeader) SetMaxLen(n int) { fh.maxLen = n }

// Body returns the decoded frame payload, or nil before ReadFrom/SetBody.
func (fh *FrameHeader) Body() Frame { return fh.fr }

// SetBody attaches fr as this header's payload, adopting its Type().
func (fh *FrameHeader) SetBody(fr Frame) {
	fh.fr = fr
	fh.kind = fr.Type()
}

func (fh *FrameHeader) parseValues(header []byte) {
	fh.length = int(byteutil.BytesToUint24(header[:3]))
	fh.kind = FrameType(header[3])
	fh.flags = FrameFlags(header[4])
	fh.stream = byteutil.BytesToUint32(header[5:]) & (1<<31 - 1)
}

func (fh *FrameHeader) buildHeader() {
	byteutil.Uint24ToBytes(fh.rawHeader[:3], uint32(fh.length))
	fh.rawHeader[3] = byte(fh.kind)
	fh.rawHeader[4] = byte(fh.flags)
	byteutil.Uint32ToBytes(fh.rawHeader[5:], fh.stream)
}

// ReadFrameFrom reads one complete frame (header + payload + body decode)
// from br. On error the returned FrameHeader is released back to the pool
// and nil is returned.
func ReadFrameFrom(br *bufio.Reader, maxLen int) (*FrameHeader, error) {
	fh := AcquireFrameHeader()
	if maxLen > 0 {
		fh.maxLen = maxLen
	}
	if _, err := fh.readFrom(br); err != nil {
		ReleaseFrameHeader(fh)
		return nil, err
	}
	return fh, nil
}

func (fh *FrameHeader) readFrom(br *bufio.Reader) (int64, error) {
	header, err := br.Peek(FrameHeaderSize)
	if err != nil {
		return 0, err
	}
	if _, err := br.Discard(FrameHeaderSize); err != nil {
		return 0, err
	}
	rn := int64(FrameHeaderSize)

	fh.parseValues(header)
	if fh.maxLen > 0 && fh.length > fh.maxLen {
		br.Discard(fh.length)
		return rn, ErrPayloadExceeds
	}

	if fh.kind < minFrameType || fh.kind > maxFrameType {
		br.Discard(fh.length)
		return rn, ErrUnknownFrameType
	}

	fh.fr = AcquireFrame(fh.kind)

	if fh.length > 0 {
		fh.payload = byteutil.Resize(fh.payload, fh.length)
		n, err := io.ReadFull(br, fh.payload)
		rn += int64(n)
		if err != nil {
			return rn, err
		}
	}

	return rn, fh.fr.Deserialize(fh)
}

// WriteTo serializes fh's body and writes the header+payload to w.
func (fh *FrameHeader) WriteTo(w *bufio.Writer) (int64, error) {
	fh.fr.Serialize(fh)
	fh.length = len(fh.payload)
	fh.buildHeader()

	n, err := w.Write(fh.rawHeader[:])
	wb := int64(n)
	if err != nil {
		return wb, err
	}
	n, err = w.Write(fh.payload)
	wb += int64(n)
	return wb, err
}

func (fh *FrameHeader) setPayload(payload []byte) {
	fh.payload = append(fh.payload[:0], payload...)
}
