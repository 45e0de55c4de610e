package opus

import (
	"encoding/binary"
	"io"

	"github.com/fractalbeauty/musicopy/internal/errors"
)

// PacketEnd marks how a page's trailing packet should be flagged.
type PacketEnd int

const (
	// NormalPacket is a packet with more audio to follow.
	NormalPacket PacketEnd = iota
	// EndStream marks the stream's final packet.
	EndStream
)

const (
	oggCapturePattern        = "OggS"
	oggStreamStructVersion   = 0
	headerFlagContinued byte = 0x01
	headerFlagBOS       byte = 0x02
	headerFlagEOS       byte = 0x04
)

// PageWriter muxes Opus packets into an Ogg bitstream, one page per packet,
// the layout the transcode pipeline's output stage uses (RFC 3533 framing).
type PageWriter struct {
	w              io.Writer
	serial         uint32
	pageSeq        uint32
	wroteFirstPage bool
}

// NewPageWriter returns a PageWriter for a single logical bitstream
// identified by serial.
func NewPageWriter(w io.Writer, serial uint32) *PageWriter {
	return &PageWriter{w: w, serial: serial}
}

// WriteHeaderPackets writes the OpusHead and OpusTags packets, each as its
// own page (OpusHead carries the beginning-of-stream flag), per the Ogg
// Opus mapping.
func (p *PageWriter) WriteHeaderPackets(opusHead, opusTags []byte) error {
	if err := p.writePage(opusHead, 0, headerFlagBOS); err != nil {
		return err
	}
	return p.writePage(opusTags, 0, 0)
}

// WriteAudioPacket writes one encoded audio packet as a single Ogg page at
// the given granule position (cumulative 48 kHz sample-frames, or the
// input's native rate per the mapping in use).
func (p *PageWriter) WriteAudioPacket(packet []byte, granulePos uint64, end PacketEnd) error {
	var flags byte
	if end == EndStream {
		flags = headerFlagEOS
	}
	return p.writePage(packet, granulePos, flags)
}

func (p *PageWriter) writePage(packet []byte, granulePos uint64, flags byte) error {
	segments, err := lacingValues(len(packet))
	if err != nil {
		return err
	}

	header := make([]byte, 27+len(segments))
	copy(header[0:4], oggCapturePattern)
	header[4] = oggStreamStructVersion
	header[5] = flags
	binary.LittleEndian.PutUint64(header[6:14], granulePos)
	binary.LittleEndian.PutUint32(header[14:18], p.serial)
	binary.LittleEndian.PutUint32(header[18:22], p.pageSeq)
	// header[22:26] checksum, filled below
	header[26] = byte(len(segments))
	copy(header[27:], segments)

	page := make([]byte, 0, len(header)+len(packet))
	page = append(page, header...)
	page = append(page, packet...)

	crc := oggCRC(page)
	binary.LittleEndian.PutUint32(page[22:26], crc)

	if _, err := p.w.Write(page); err != nil {
		return errors.Wrap(err, errors.CodeEncode, "write ogg page")
	}
	p.pageSeq++
	p.wroteFirstPage = true
	return nil
}

// lacingValues computes the Ogg lacing (segment table) for a single packet
// of the given length. One page here always carries exactly one packet, so
// the table is a sequence of 255-valued segments followed by a final
// segment in [0,254] (a packet whose length is an exact multiple of 255
// still needs a trailing zero-length segment to mark the packet boundary).
func lacingValues(packetLen int) ([]byte, error) {
	if packetLen/255 > 254 {
		return nil, errors.Encodef("ogg packet too large to lace: %d bytes", packetLen)
	}
	segments := make([]byte, 0, packetLen/255+1)
	remaining := packetLen
	for remaining >= 255 {
		segments = append(segments, 255)
		remaining -= 255
	}
	segments = append(segments, byte(remaining))
	return segments, nil
}

// oggCRCTable is the CRC-32 table the Ogg container format specifies
// (polynomial 0x04c11db7, MSB-first, no reflection, no final XOR) — distinct
// from the reflected CRC-32 used by zip/gzip, so it cannot reuse
// hash/crc32's IEEE table.
var oggCRCTable = buildOggCRCTable()

func buildOggCRCTable() [256]uint32 {
	const poly = uint32(0x04c11db7)
	var table [256]uint32
	for i := range table {
		crc := uint32(i) << 24
		for bit := 0; bit < 8; bit++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}

// oggCRC computes the Ogg page checksum over page, which must have its
// checksum field (bytes 22:26) zeroed.
func oggCRC(page []byte) uint32 {
	var crc uint32
	for _, b := range page {
		crc = (crc << 8) ^ oggCRCTable[byte(crc>>24)^b]
	}
	return crc
}
