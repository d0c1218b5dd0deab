package protocol

// ProtocolVersion is the DDC/CI standard revision implemented by this library.
const ProtocolVersion = "1.1"

// Addressing constants per DDC/CI 1.1 section 4.
const (
	// SlaveAddress is the 7-bit I2C address every DDC/CI display answers on (0x6E >> 1)
	SlaveAddress = 0x37

	// HostAddress is the source byte of host-to-display frames (0x51)
	HostAddress = 0x51

	// DisplayAddress is the virtual destination byte for host-to-display frames
	// and the source byte of display replies (0x6E)
	DisplayAddress = 0x6E

	// HostVirtualAddress seeds the checksum of display-to-host frames (0x50)
	HostVirtualAddress = 0x50

	// LengthFlag is set on every length byte; it is not part of the length
	LengthFlag = 0x80

	// LengthMask extracts the payload length from a length byte
	LengthMask = 0x7F

	// MinFrameSize is the minimum frame size in bytes:
	// SOURCE(1) + LEN(1) + CHECKSUM(1)
	MinFrameSize = 3
)

// Command opcodes.
const (
	// CmdGetVCPFeature requests the current and maximum value of a VCP feature
	CmdGetVCPFeature Command = 0x01

	// CmdGetVCPReply is the opcode of the display's answer to CmdGetVCPFeature
	CmdGetVCPReply Command = 0x02

	// CmdSetVCPFeature writes a new value for a VCP feature
	CmdSetVCPFeature Command = 0x03
)

// Result codes carried in a Get VCP Feature reply.
const (
	// ResultNoError indicates the VCP code is supported and the values are valid
	ResultNoError ResultCode = 0x00

	// ResultUnsupportedVCP indicates the display does not implement the VCP code
	ResultUnsupportedVCP ResultCode = 0x01
)

// VCP feature codes.
const (
	// VCPBrightness is the luminance control (0x10)
	VCPBrightness = 0x10
)

// Frame sizes.
const (
	// GetVCPCmdSize is the size of a Get VCP Feature request frame
	GetVCPCmdSize = 5

	// SetVCPCmdSize is the size of a Set VCP Feature request frame
	SetVCPCmdSize = 7

	// GetVCPReplyPayloadSize is the payload of a Get VCP Feature reply:
	// OPCODE RESULT VCP TYPE MAX_H MAX_L CUR_H CUR_L
	GetVCPReplyPayloadSize = 8

	// GetVCPReplySize is the full size of a Get VCP Feature reply frame (11 bytes)
	GetVCPReplySize = MinFrameSize + GetVCPReplyPayloadSize
)
