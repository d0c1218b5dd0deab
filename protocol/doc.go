// Package protocol implements the DDC/CI framing used to read and write VCP
// features of a monitor over I2C.
//
// This package provides functions to build request frames and parse reply
// frames according to the VESA DDC/CI 1.1 standard.
//
// # Protocol Overview
//
// DDC/CI messages are carried in I2C transfers addressed to slave 0x37:
//
//	Request: [0x51][0x80|LEN][OPCODE][DATA...][CHECKSUM]
//	Reply:   [0x6E][0x80|LEN][OPCODE][DATA...][CHECKSUM]
//
// Where:
//   - LEN = payload length (low 7 bits, the high bit is always set)
//   - CHECKSUM = XOR of every preceding byte, seeded with the virtual
//     destination address (0x6E for requests, 0x50 for replies)
//   - 16-bit values are big-endian
//
// # Command Builders
//
//	frame := protocol.BuildGetVCPCmd(protocol.VCPBrightness)
//	frame := protocol.BuildSetVCPCmd(protocol.VCPBrightness, 70)
//	frame, err := protocol.Encode(req)
//
// # Reply Parsing
//
//	reply, err := protocol.DecodeReply(raw)
//	if err != nil {
//	    // *protocol.DecodeError: retry the whole transaction
//	}
//	if err := reply.Err("get brightness"); err != nil {
//	    // *protocol.ProtocolError: the display rejected the request
//	}
//
// # Error Handling
//
// DecodeError covers frames that are not structurally valid (bad checksum,
// truncated, unexpected opcode, wrong source). ProtocolError covers valid
// replies the host cannot use (unsupported VCP code, unusable maximum).
// The two are never conflated with each other or with transport failures.
package protocol
