package protocol

import (
	"errors"
	"fmt"
)

// DecodeErrorKind classifies a structurally invalid frame.
type DecodeErrorKind int

const (
	// BadChecksum means the checksum byte does not match the frame contents
	BadChecksum DecodeErrorKind = iota + 1

	// Truncated means the frame holds fewer bytes than its length byte declares
	Truncated

	// UnexpectedOpcode means the payload is not the reply that was asked for
	UnexpectedOpcode

	// BadSource means the frame does not start with the display's source address
	BadSource
)

func (k DecodeErrorKind) String() string {
	switch k {
	case BadChecksum:
		return "bad checksum"
	case Truncated:
		return "truncated frame"
	case UnexpectedOpcode:
		return "unexpected opcode"
	case BadSource:
		return "bad source address"
	default:
		return fmt.Sprintf("decode error %d", int(k))
	}
}

// DecodeError is returned for frames that fail structural validation.
// A DecodeError means the whole transaction should be repeated; the bytes
// already read are not worth parsing again.
type DecodeError struct {
	Kind   DecodeErrorKind
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// IsDecodeError returns true if err is or wraps a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// ProtocolErrorKind classifies a well-formed reply the host cannot use.
type ProtocolErrorKind int

const (
	// UnsupportedVCPCode means the display answered with ResultUnsupportedVCP
	UnsupportedVCPCode ProtocolErrorKind = iota + 1

	// MaxRangeMismatch means the reported maximum cannot be mapped to a percentage
	MaxRangeMismatch

	// UnknownResult means the display answered with an undefined result code
	UnknownResult
)

func (k ProtocolErrorKind) String() string {
	switch k {
	case UnsupportedVCPCode:
		return "unsupported VCP code"
	case MaxRangeMismatch:
		return "max range mismatch"
	case UnknownResult:
		return "unknown result code"
	default:
		return fmt.Sprintf("protocol error %d", int(k))
	}
}

// ProtocolError represents a valid reply carrying a display-side failure.
// It is never the result of a transport problem.
type ProtocolError struct {
	// Operation is the command that failed
	Operation string

	Kind ProtocolErrorKind

	// VCPCode is the feature the request addressed
	VCPCode byte

	// ResultCode is the status byte from the reply
	ResultCode ResultCode

	// Current and Max are set for MaxRangeMismatch
	Current uint16
	Max     uint16
}

func (e *ProtocolError) Error() string {
	switch e.Kind {
	case MaxRangeMismatch:
		return fmt.Sprintf("%s failed: %s for VCP 0x%02X (current %d, max %d)",
			e.Operation, e.Kind, e.VCPCode, e.Current, e.Max)
	default:
		return fmt.Sprintf("%s failed: %s for VCP 0x%02X (result 0x%02X)",
			e.Operation, e.Kind, e.VCPCode, byte(e.ResultCode))
	}
}

// IsProtocolError returns true if err is or wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
