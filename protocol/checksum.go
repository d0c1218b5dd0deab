package protocol

// Checksum computes the DDC/CI frame checksum: the seed XORed with every byte
// of data. The seed is DisplayAddress for host-to-display frames and
// HostVirtualAddress for replies.
//
// The checksum covers every frame byte before the checksum position,
// including the source and length bytes.
func Checksum(seed byte, data []byte) byte {
	sum := seed
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// requestChecksum is the checksum of a host-to-display frame.
func requestChecksum(frame []byte) byte {
	return Checksum(DisplayAddress, frame)
}

// replyChecksum is the checksum of a display-to-host frame.
func replyChecksum(frame []byte) byte {
	return Checksum(HostVirtualAddress, frame)
}
