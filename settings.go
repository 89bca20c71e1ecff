package polyhttp

import (
	"sync"

	"github.com/domsolutions/polyhttp/byteutil"
)

// SettingID identifies a SETTINGS parameter (RFC 7540 §6.5.2).
type SettingID uint16

const (
	SettingHeaderTableSize      SettingID = 0x1
	SettingEnablePush           SettingID = 0x2
	SettingMaxConcurrentStreams SettingID = 0x3
	SettingInitialWindowSize    SettingID = 0x4
	SettingMaxFrameSize         SettingID = 0x5
	SettingMaxHeaderListSize    SettingID = 0x6
)

const maxWindowSize = 1<<31 - 1

var settingsFramePool = sync.Pool{New: func() interface{} { return &SettingsFrame{} }}

func acquireSettingsFrame() *SettingsFrame { return settingsFramePool.Get().(*SettingsFrame) }

// SettingEntry is one (id, value) pair inside a SETTINGS frame payload.
type SettingEntry struct {
	ID    SettingID
	Value uint32
}

// SettingsFrame carries connection configuration parameters
// (RFC 7540 §6.5) or, with ACK set, acknowledges a previously received one.
//
// Unlike the teacher's Settings type (which decodes into a handful of fixed
// struct fields and silently accepts any value), this codec keeps the wire
// order as a slice and validates each parameter against its RFC-mandated
// range, surfacing a connection error for anything out of bounds instead of
// clamping it quietly.
type SettingsFrame struct {
	ack     bool
	entries []SettingEntry
}

func (s *SettingsFrame) Type() FrameType { return FrameSettings }

func (s *SettingsFrame) Reset() {
	s.ack = false
	s.entries = s.entries[:0]
}

func (s *SettingsFrame) Ack() bool      { return s.ack }
func (s *SettingsFrame) SetAck(v bool)  { s.ack = v }
func (s *SettingsFrame) Entries() []SettingEntry { return s.entries }

func (s *SettingsFrame) Add(id SettingID, value uint32) {
	s.entries = append(s.entries, SettingEntry{ID: id, Value: value})
}

func (s *SettingsFrame) Deserialize(fh *FrameHeader) error {
	if fh.Stream() != 0 {
		return NewGoAwayError(ProtocolError, "SETTINGS must be sent on stream 0")
	}
	s.ack = fh.Flags().Has(FlagAck)
	if s.ack {
		if len(fh.payload) != 0 {
			return NewGoAwayError(FrameSizeError, "SETTINGS ack carries a payload")
		}
		return nil
	}
	if len(fh.payload)%6 != 0 {
		return NewGoAwayError(FrameSizeError, "SETTINGS payload not a multiple of 6")
	}

	for i := 0; i < len(fh.payload); i += 6 {
		chunk := fh.payload[i : i+6]
		id := SettingID(uint16(chunk[0])<<8 | uint16(chunk[1]))
		value := byteutil.BytesToUint32(chunk[2:])

		if err := validateSetting(id, value); err != nil {
			return err
		}
		s.entries = append(s.entries, SettingEntry{ID: id, Value: value})
	}
	return nil
}

// validateSetting enforces the per-parameter ranges RFC 7540 §6.5.2
// mandates; the teacher's Settings.Decode accepted any uint32 for every
// field.
func validateSetting(id SettingID, value uint32) error {
	switch id {
	case SettingEnablePush:
		if value != 0 && value != 1 {
			return NewGoAwayError(ProtocolError, "SETTINGS_ENABLE_PUSH must be 0 or 1")
		}
	case SettingInitialWindowSize:
		if value > maxWindowSize {
			return NewGoAwayError(FlowControlError, "SETTINGS_INITIAL_WINDOW_SIZE exceeds 2^31-1")
		}
	case SettingMaxFrameSize:
		if value < defaultMaxFrameSize || value > 1<<24-1 {
			return NewGoAwayError(ProtocolError, "SETTINGS_MAX_FRAME_SIZE out of [2^14, 2^24-1]")
		}
	}
	return nil
}

func (s *SettingsFrame) Serialize(fh *FrameHeader) {
	if s.ack {
		fh.SetFlags(fh.Flags().Add(FlagAck))
		fh.payload = fh.payload[:0]
		return
	}

	fh.payload = fh.payload[:0]
	for _, e := range s.entries {
		fh.payload = append(fh.payload, byte(e.ID>>8), byte(e.ID))
		fh.payload = byteutil.AppendUint32Bytes(fh.payload, e.Value)
	}
}
