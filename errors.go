package polyhttp

import (
	"errors"
	"fmt"
)

// ErrorCode is an HTTP/2 error code (RFC 7540 §11.4), carried by RST_STREAM
// and GOAWAY frames.
type ErrorCode uint32

// Error codes (https://httpwg.org/specs/rfc7540.html#ErrorCodes).
const (
	NoError              ErrorCode = 0x0
	ProtocolError        ErrorCode = 0x1
	InternalError        ErrorCode = 0x2
	FlowControlError     ErrorCode = 0x3
	SettingsTimeoutError ErrorCode = 0x4
	StreamClosedError    ErrorCode = 0x5
	FrameSizeError       ErrorCode = 0x6
	RefusedStreamError   ErrorCode = 0x7
	CancelError          ErrorCode = 0x8
	CompressionError     ErrorCode = 0x9
	ConnectError         ErrorCode = 0xa
	EnhanceYourCalmError ErrorCode = 0xb
	InadequateSecurity   ErrorCode = 0xc
	HTTP11Required       ErrorCode = 0xd
)

var errCodeNames = [...]string{
	NoError:              "NO_ERROR",
	ProtocolError:        "PROTOCOL_ERROR",
	InternalError:        "INTERNAL_ERROR",
	FlowControlError:     "FLOW_CONTROL_ERROR",
	SettingsTimeoutError: "SETTINGS_TIMEOUT",
	StreamClosedError:    "STREAM_CLOSED",
	FrameSizeError:       "FRAME_SIZE_ERROR",
	RefusedStreamError:   "REFUSED_STREAM",
	CancelError:          "CANCEL",
	CompressionError:     "COMPRESSION_ERROR",
	ConnectError:         "CONNECT_ERROR",
	EnhanceYourCalmError: "ENHANCE_YOUR_CALM",
	InadequateSecurity:   "INADEQUATE_SECURITY",
	HTTP11Required:       "HTTP_1_1_REQUIRED",
}

// String implements fmt.Stringer, used when embedding the code in GoAway's
// Error() message.
func (c ErrorCode) String() string {
	if int(c) < len(errCodeNames) && errCodeNames[c] != "" {
		return errCodeNames[c]
	}
	return fmt.Sprintf("UNKNOWN(0x%x)", uint32(c))
}

// HTTP/1 and protocol-selection level error sentinels, surfaced at the
// HttpReader boundary (spec §7).
var (
	ErrInvalidHTTPVersion = errors.New("polyhttp: unrecognized HTTP version")
	ErrMethodNotSupported = errors.New("polyhttp: method not supported")
	ErrInvalidNonEmptyBody = errors.New("polyhttp: GET/HEAD/OPTIONS request carries a body")
	ErrInvalidHTTP2Preface = errors.New("polyhttp: missing or malformed HTTP/2 connection preface")
	ErrLengthRequired      = errors.New("polyhttp: no valid body-length indicator")
	ErrProtocol            = errors.New("polyhttp: protocol error")
	ErrNotSupported        = errors.New("polyhttp: recognized but unimplemented feature")

	// ErrMissingBytes is returned by frame Deserialize implementations when
	// the payload is shorter than the frame type requires.
	ErrMissingBytes = errors.New("polyhttp: frame payload too short")

	// ErrPayloadExceeds is returned when a frame's declared length exceeds
	// the negotiated SETTINGS_MAX_FRAME_SIZE.
	ErrPayloadExceeds = errors.New("polyhttp: frame payload exceeds negotiated maximum size")

	// ErrUnknownFrameType marks a frame type byte outside the known range;
	// per RFC 7540 §4.1 it MUST be ignored, not treated as an error by the
	// caller — H2FrameCodec surfaces it so HttpReader can skip the frame.
	ErrUnknownFrameType = errors.New("polyhttp: unknown frame type")

	ErrBitOverflow    = errors.New("polyhttp: HPACK integer overflow")
	ErrFieldNotFound  = errors.New("polyhttp: HPACK indexed field not found")
	ErrHuffmanPadding = errors.New("polyhttp: invalid HPACK Huffman padding")
	ErrHuffmanEOS     = errors.New("polyhttp: HPACK Huffman stream produced EOS")
)

// GoAwayError is a connection-level HTTP/2 error: the condition under which
// H2FrameCodec/HttpReader emit a GOAWAY frame and terminate the connection.
type GoAwayError struct {
	Code  ErrorCode
	Debug string
}

// NewGoAwayError builds a connection error tagged with the ErrorCode that
// must accompany the GOAWAY frame sent in response.
func NewGoAwayError(code ErrorCode, debug string) *GoAwayError {
	return &GoAwayError{Code: code, Debug: debug}
}

func (e *GoAwayError) Error() string {
	if e.Debug == "" {
		return fmt.Sprintf("goaway: %s", e.Code)
	}
	return fmt.Sprintf("goaway: %s: %s", e.Code, e.Debug)
}

// StreamError is a stream-level HTTP/2 error: the condition under which the
// codec emits RST_STREAM on a single stream instead of tearing down the
// whole connection.
type StreamError struct {
	StreamID uint32
	Code     ErrorCode
}

func NewStreamError(streamID uint32, code ErrorCode) *StreamError {
	return &StreamError{StreamID: streamID, Code: code}
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("rst_stream(%d): %s", e.StreamID, e.Code)
}
