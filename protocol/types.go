package protocol

import "fmt"

// Command is a DDC/CI opcode.
type Command byte

func (c Command) String() string {
	switch c {
	case CmdGetVCPFeature:
		return "get VCP feature"
	case CmdGetVCPReply:
		return "get VCP reply"
	case CmdSetVCPFeature:
		return "set VCP feature"
	default:
		return fmt.Sprintf("opcode 0x%02X", byte(c))
	}
}

// ResultCode is the status byte of a Get VCP Feature reply.
type ResultCode byte

func (r ResultCode) String() string {
	switch r {
	case ResultNoError:
		return "no error"
	case ResultUnsupportedVCP:
		return "unsupported VCP code"
	default:
		return fmt.Sprintf("unknown result 0x%02X", byte(r))
	}
}

// Request is a VCP request sent from host to display.
// Value is only meaningful for CmdSetVCPFeature.
type Request struct {
	// Command is CmdGetVCPFeature or CmdSetVCPFeature
	Command Command

	// VCPCode is the feature addressed, e.g. VCPBrightness
	VCPCode byte

	// Value is the new feature value (Set only)
	Value uint16
}

// NewGetRequest returns a Get VCP Feature request for code.
func NewGetRequest(code byte) Request {
	return Request{Command: CmdGetVCPFeature, VCPCode: code}
}

// NewSetRequest returns a Set VCP Feature request writing value to code.
func NewSetRequest(code byte, value uint16) Request {
	return Request{Command: CmdSetVCPFeature, VCPCode: code, Value: value}
}

// Reply contains the values returned by a Get VCP Feature reply.
type Reply struct {
	// ResultCode is ResultNoError when the remaining fields are valid
	ResultCode ResultCode

	// VCPCode echoes the requested feature
	VCPCode byte

	// Type is the VCP type byte (0x00 set parameter, 0x01 momentary)
	Type byte

	// Max is the maximum value the display accepts for this feature
	Max uint16

	// Current is the feature's present value
	Current uint16
}

// Err returns a *ProtocolError when the display rejected the request,
// or nil when ResultCode is ResultNoError.
func (r *Reply) Err(operation string) error {
	switch r.ResultCode {
	case ResultNoError:
		return nil
	case ResultUnsupportedVCP:
		return &ProtocolError{
			Operation:  operation,
			Kind:       UnsupportedVCPCode,
			VCPCode:    r.VCPCode,
			ResultCode: r.ResultCode,
		}
	default:
		return &ProtocolError{
			Operation:  operation,
			Kind:       UnknownResult,
			VCPCode:    r.VCPCode,
			ResultCode: r.ResultCode,
		}
	}
}
