package opus

import "encoding/binary"

const (
	opusTagsMagic = "OpusTags"
	vendorString  = "musicopy"
)

// BuildOpusTags constructs the OpusTags packet carrying the vendor string
// and the given user comments (already formatted as "KEY=value" strings).
func BuildOpusTags(comments []string) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, opusTagsMagic...)
	buf = appendLengthPrefixed(buf, []byte(vendorString))

	count := make([]byte, 4)
	binary.LittleEndian.PutUint32(count, uint32(len(comments)))
	buf = append(buf, count...)

	for _, c := range comments {
		buf = appendLengthPrefixed(buf, []byte(c))
	}
	return buf
}

func appendLengthPrefixed(dst []byte, s []byte) []byte {
	length := make([]byte, 4)
	binary.LittleEndian.PutUint32(length, uint32(len(s)))
	dst = append(dst, length...)
	return append(dst, s...)
}
