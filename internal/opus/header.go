package opus

import "encoding/binary"

const (
	opusHeadMagic        = "OpusHead"
	opusHeadVersion byte = 1
)

// BuildOpusHead constructs the 19-byte Ogg Opus identification packet.
// preSkip is the encoder's reported lookahead in 48 kHz frames; channels is
// 1 or 2; inputSampleRateHz is informational only (the OpusHead mapping
// always decodes at 48 kHz).
func BuildOpusHead(channels int, preSkip uint16, inputSampleRateHz uint32) []byte {
	buf := make([]byte, 19)
	copy(buf[0:8], opusHeadMagic)
	buf[8] = opusHeadVersion
	buf[9] = byte(channels)
	binary.LittleEndian.PutUint16(buf[10:12], preSkip)
	binary.LittleEndian.PutUint32(buf[12:16], inputSampleRateHz)
	binary.LittleEndian.PutUint16(buf[16:18], 0) // output gain
	buf[18] = 0                                  // channel mapping family
	return buf
}
