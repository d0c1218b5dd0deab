package protocol

import "fmt"

// BuildGetVCPCmd constructs a Get VCP Feature request frame for code.
//
// Frame structure:
//
//	[SRC=0x51][LEN=0x82][OPCODE=0x01][VCP][CHECKSUM]
func BuildGetVCPCmd(code byte) []byte {
	frame := make([]byte, 0, GetVCPCmdSize)

	frame = append(frame, HostAddress)
	frame = append(frame, LengthFlag|2)
	frame = append(frame, byte(CmdGetVCPFeature), code)

	return append(frame, requestChecksum(frame))
}

// BuildSetVCPCmd constructs a Set VCP Feature request frame writing value to code.
//
// Frame structure:
//
//	[SRC=0x51][LEN=0x84][OPCODE=0x03][VCP][VAL_H][VAL_L][CHECKSUM]
//
// The display sends no reply to this command.
func BuildSetVCPCmd(code byte, value uint16) []byte {
	frame := make([]byte, 0, SetVCPCmdSize)

	frame = append(frame, HostAddress)
	frame = append(frame, LengthFlag|4)
	frame = append(frame, byte(CmdSetVCPFeature), code)

	// Value is big-endian
	frame = append(frame, byte(value>>8), byte(value))

	return append(frame, requestChecksum(frame))
}

// Encode constructs the request frame for req.
func Encode(req Request) ([]byte, error) {
	switch req.Command {
	case CmdGetVCPFeature:
		return BuildGetVCPCmd(req.VCPCode), nil
	case CmdSetVCPFeature:
		return BuildSetVCPCmd(req.VCPCode, req.Value), nil
	default:
		return nil, fmt.Errorf("cannot encode %s request", req.Command)
	}
}

// DecodeRequest parses a host-to-display frame. It is the display side of
// Encode and is used by simulated displays.
func DecodeRequest(frame []byte) (Request, error) {
	payload, err := unframe(frame, HostAddress, DisplayAddress)
	if err != nil {
		return Request{}, err
	}
	if len(payload) == 0 {
		return Request{}, &DecodeError{Kind: UnexpectedOpcode, Detail: "empty request"}
	}

	switch Command(payload[0]) {
	case CmdGetVCPFeature:
		if len(payload) < 2 {
			return Request{}, &DecodeError{Kind: Truncated, Detail: "get VCP request without VCP code"}
		}
		return NewGetRequest(payload[1]), nil
	case CmdSetVCPFeature:
		if len(payload) < 4 {
			return Request{}, &DecodeError{
				Kind:   Truncated,
				Detail: fmt.Sprintf("set VCP request payload is %d bytes, need 4", len(payload)),
			}
		}
		return NewSetRequest(payload[1], uint16(payload[2])<<8|uint16(payload[3])), nil
	default:
		return Request{}, &DecodeError{
			Kind:   UnexpectedOpcode,
			Detail: fmt.Sprintf("got 0x%02X", payload[0]),
		}
	}
}
