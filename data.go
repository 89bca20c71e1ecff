package polyhttp

import (
	"sync"

	"github.com/domsolutions/polyhttp/byteutil"
)

var dataPool = sync.Pool{New: func() interface{} { return &Data{} }}

func acquireData() *Data { return dataPool.Get().(*Data) }

// Data carries a stream's body octets (RFC 7540 §6.1). Flags: END_STREAM,
// PADDED.
type Data struct {
	endStream  bool
	hasPadding bool
	b          []byte
}

func (d *Data) Type() FrameType { return FrameData }

func (d *Data) Reset() {
	d.endStream = false
	d.hasPadding = false
	d.b = d.b[:0]
}

func (d *Data) EndStream() bool        { return d.endStream }
func (d *Data) SetEndStream(v bool)    { d.endStream = v }
func (d *Data) Bytes() []byte          { return d.b }
func (d *Data) SetData(b []byte)       { d.b = append(d.b[:0], b...) }
func (d *Data) Append(b []byte)        { d.b = append(d.b, b...) }
func (d *Data) Padding() bool          { return d.hasPadding }
func (d *Data) SetPadding(v bool)      { d.hasPadding = v }

func (d *Data) Deserialize(fh *FrameHeader) error {
	payload := fh.payload
	if fh.Flags().Has(FlagPadded) {
		var err error
		payload, err = byteutil.CutPadding(payload, fh.Len())
		if err != nil {
			return err
		}
	}
	d.endStream = fh.Flags().Has(FlagEndStream)
	d.b = append(d.b[:0], payload...)
	return nil
}

func (d *Data) Serialize(fh *FrameHeader) {
	if d.endStream {
		fh.SetFlags(fh.Flags().Add(FlagEndStream))
	}
	if d.hasPadding {
		fh.SetFlags(fh.Flags().Add(FlagPadded))
		d.b = byteutil.AddPadding(d.b)
	}
	fh.setPayload(d.b)
}
