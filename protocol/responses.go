package protocol

import (
	"encoding/binary"
	"fmt"
)

// DecodeReply validates a display-to-host frame and extracts a Get VCP
// Feature reply.
//
// Reply frame structure:
//
//	[SRC=0x6E][LEN=0x88][0x02][RESULT][VCP][TYPE][MAX_H][MAX_L][CUR_H][CUR_L][CHECKSUM]
//
// raw may be longer than the frame (fixed-size reads); trailing bytes are
// ignored. Structural failures are returned as *DecodeError. A non-zero
// result code is not an error here; see Reply.Err.
func DecodeReply(raw []byte) (*Reply, error) {
	payload, err := unframe(raw, DisplayAddress, HostVirtualAddress)
	if err != nil {
		return nil, err
	}

	if len(payload) == 0 {
		// Null message: the display had nothing to say (busy or not ready)
		return nil, &DecodeError{Kind: UnexpectedOpcode, Detail: "null message"}
	}
	if Command(payload[0]) != CmdGetVCPReply {
		return nil, &DecodeError{
			Kind:   UnexpectedOpcode,
			Detail: fmt.Sprintf("got 0x%02X, expected 0x%02X", payload[0], byte(CmdGetVCPReply)),
		}
	}
	if len(payload) < GetVCPReplyPayloadSize {
		return nil, &DecodeError{
			Kind:   Truncated,
			Detail: fmt.Sprintf("get VCP reply payload is %d bytes, need %d", len(payload), GetVCPReplyPayloadSize),
		}
	}

	reply := &Reply{
		ResultCode: ResultCode(payload[1]),
		VCPCode:    payload[2],
		Type:       payload[3],
		Max:        binary.BigEndian.Uint16(payload[4:6]),
		Current:    binary.BigEndian.Uint16(payload[6:8]),
	}

	return reply, nil
}

// EncodeReply constructs the display-to-host frame for r. It is the display
// side of DecodeReply and is used by simulated displays.
func EncodeReply(r Reply) []byte {
	frame := make([]byte, 0, GetVCPReplySize)

	frame = append(frame, DisplayAddress)
	frame = append(frame, LengthFlag|GetVCPReplyPayloadSize)
	frame = append(frame, byte(CmdGetVCPReply), byte(r.ResultCode), r.VCPCode, r.Type)
	frame = binary.BigEndian.AppendUint16(frame, r.Max)
	frame = binary.BigEndian.AppendUint16(frame, r.Current)

	return append(frame, replyChecksum(frame))
}

// NullReply returns the DDC/CI null message a display sends when it has no
// reply ready.
func NullReply() []byte {
	frame := []byte{DisplayAddress, LengthFlag}
	return append(frame, replyChecksum(frame))
}

// unframe validates length, checksum and source of frame and returns the
// payload. The checksum is checked before the source byte so that any
// single corrupted byte inside a complete frame is reported as BadChecksum.
func unframe(frame []byte, source, seed byte) ([]byte, error) {
	if len(frame) < MinFrameSize {
		return nil, &DecodeError{
			Kind:   Truncated,
			Detail: fmt.Sprintf("got %d bytes, minimum is %d", len(frame), MinFrameSize),
		}
	}

	// High bit of the length byte is a protocol flag
	dataLen := int(frame[1] & LengthMask)
	end := MinFrameSize + dataLen
	if len(frame) < end {
		return nil, &DecodeError{
			Kind:   Truncated,
			Detail: fmt.Sprintf("got %d bytes, length byte declares %d", len(frame), end),
		}
	}

	checksumExpected := frame[end-1]
	checksumActual := Checksum(seed, frame[:end-1])
	if checksumExpected != checksumActual {
		return nil, &DecodeError{
			Kind:   BadChecksum,
			Detail: fmt.Sprintf("got 0x%02X, expected 0x%02X", checksumActual, checksumExpected),
		}
	}

	if frame[0] != source {
		return nil, &DecodeError{
			Kind:   BadSource,
			Detail: fmt.Sprintf("got 0x%02X, expected 0x%02X", frame[0], source),
		}
	}

	return frame[2 : end-1], nil
}
