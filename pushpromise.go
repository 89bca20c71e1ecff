package polyhttp

import (
	"sync"

	"github.com/domsolutions/polyhttp/byteutil"
)

var pushPromisePool = sync.Pool{New: func() interface{} { return &PushPromise{} }}

func acquirePushPromise() *PushPromise { return pushPromisePool.Get().(*PushPromise) }

// PushPromise would announce a server-initiated stream (RFC 7540 §6.6). The
// spec's server never sends SETTINGS_ENABLE_PUSH=1 or a PUSH_PROMISE of its
// own (spec Non-goals "server push"); this codec still decodes an incoming
// one faithfully so a misbehaving/test peer gets a clean protocol error
// instead of a panic.
type PushPromise struct {
	hasPadding   bool
	endHeaders   bool
	promisedID   uint32
	rawHeaders   []byte
}

func (pp *PushPromise) Type() FrameType { return FramePushPromise }

func (pp *PushPromise) Reset() {
	pp.hasPadding = false
	pp.endHeaders = false
	pp.promisedID = 0
	pp.rawHeaders = pp.rawHeaders[:0]
}

func (pp *PushPromise) PromisedStreamID() uint32 { return pp.promisedID }
func (pp *PushPromise) EndHeaders() bool         { return pp.endHeaders }
func (pp *PushPromise) HeaderBlock() []byte      { return pp.rawHeaders }

func (pp *PushPromise) Deserialize(fh *FrameHeader) error {
	payload := fh.payload
	if fh.Flags().Has(FlagPadded) {
		var err error
		payload, err = byteutil.CutPadding(payload, fh.Len())
		if err != nil {
			return err
		}
	}
	if len(payload) < 4 {
		return ErrMissingBytes
	}
	pp.promisedID = byteutil.BytesToUint32(payload) & (1<<31 - 1)
	pp.rawHeaders = append(pp.rawHeaders[:0], payload[4:]...)
	pp.endHeaders = fh.Flags().Has(FlagEndHeaders)
	return nil
}

func (pp *PushPromise) Serialize(fh *FrameHeader) {
	if pp.endHeaders {
		fh.SetFlags(fh.Flags().Add(FlagEndHeaders))
	}
	payload := byteutil.AppendUint32Bytes(fh.payload[:0], pp.promisedID)
	fh.payload = append(payload, pp.rawHeaders...)
}
