package polyhttp

import (
	"sync"

	"github.com/domsolutions/polyhttp/byteutil"
)

var headersPool = sync.Pool{New: func() interface{} { return &Headers{} }}

func acquireHeaders() *Headers { return headersPool.Get().(*Headers) }

// Headers opens a stream and carries its HPACK-encoded header block
// fragment, possibly continued by following CONTINUATION frames
// (RFC 7540 §6.2). Flags: END_STREAM, END_HEADERS, PADDED, PRIORITY.
type Headers struct {
	hasPadding    bool
	priority      bool
	streamDep     uint32
	exclusiveDep  bool
	weight        uint8
	endStream     bool
	endHeaders    bool
	rawHeaders    []byte
}

func (h *Headers) Type() FrameType { return FrameHeaders }

func (h *Headers) Reset() {
	h.hasPadding = false
	h.priority = false
	h.streamDep = 0
	h.exclusiveDep = false
	h.weight = 0
	h.endStream = false
	h.endHeaders = false
	h.rawHeaders = h.rawHeaders[:0]
}

func (h *Headers) HeaderBlock() []byte         { return h.rawHeaders }
func (h *Headers) SetHeaderBlock(b []byte)     { h.rawHeaders = append(h.rawHeaders[:0], b...) }
func (h *Headers) AppendHeaderBlock(b []byte)  { h.rawHeaders = append(h.rawHeaders, b...) }
func (h *Headers) EndStream() bool             { return h.endStream }
func (h *Headers) SetEndStream(v bool)         { h.endStream = v }
func (h *Headers) EndHeaders() bool            { return h.endHeaders }
func (h *Headers) SetEndHeaders(v bool)        { h.endHeaders = v }
func (h *Headers) HasPriority() bool           { return h.priority }
func (h *Headers) StreamDependency() uint32    { return h.streamDep }
func (h *Headers) Exclusive() bool             { return h.exclusiveDep }
func (h *Headers) Weight() uint8               { return h.weight }

func (h *Headers) Deserialize(fh *FrameHeader) error {
	payload := fh.payload
	if fh.Flags().Has(FlagPadded) {
		var err error
		payload, err = byteutil.CutPadding(payload, fh.Len())
		if err != nil {
			return err
		}
	}

	if fh.Flags().Has(FlagPriority) {
		if len(payload) < 5 {
			return ErrMissingBytes
		}
		raw := byteutil.BytesToUint32(payload)
		h.exclusiveDep = raw&0x80000000 != 0
		h.streamDep = raw & (1<<31 - 1)
		h.weight = payload[4]
		h.priority = true
		payload = payload[5:]
	}

	h.endStream = fh.Flags().Has(FlagEndStream)
	h.endHeaders = fh.Flags().Has(FlagEndHeaders)
	h.rawHeaders = append(h.rawHeaders[:0], payload...)
	return nil
}

func (h *Headers) Serialize(fh *FrameHeader) {
	if h.endStream {
		fh.SetFlags(fh.Flags().Add(FlagEndStream))
	}
	if h.endHeaders {
		fh.SetFlags(fh.Flags().Add(FlagEndHeaders))
	}

	payload := h.rawHeaders
	if h.priority {
		fh.SetFlags(fh.Flags().Add(FlagPriority))
		var prefix [5]byte
		dep := h.streamDep
		if h.exclusiveDep {
			dep |= 0x80000000
		}
		byteutil.Uint32ToBytes(prefix[:4], dep)
		prefix[4] = h.weight
		payload = append(append([]byte(nil), prefix[:]...), payload...)
	}
	if h.hasPadding {
		fh.SetFlags(fh.Flags().Add(FlagPadded))
		payload = byteutil.AddPadding(payload)
	}
	fh.setPayload(payload)
}
