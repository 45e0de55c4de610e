package opus

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"image"
	"image/jpeg"

	// Registers decoders for the cover-art formats taggers commonly embed.
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/fractalbeauty/musicopy/internal/errors"
)

const (
	coverArtMaxDimension  = 500
	coverArtJPEGQuality   = 90
	pictureTypeCoverFront = 3
	pictureMIMEType       = "image/jpeg"
)

// BuildPictureComment decodes a source cover image, resizes it with
// Lanczos3 filtering to fit within 500x500, re-encodes it as JPEG at
// quality 90, and returns the full "METADATA_BLOCK_PICTURE=<base64>" user
// comment, matching the FLAC picture block's binary layout with big-endian
// field lengths.
func BuildPictureComment(source []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(source))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeImage, "decode cover art")
	}

	resized := imaging.Fit(img, coverArtMaxDimension, coverArtMaxDimension, imaging.Lanczos)

	var jpegBuf bytes.Buffer
	if err := jpeg.Encode(&jpegBuf, resized, &jpeg.Options{Quality: coverArtJPEGQuality}); err != nil {
		return "", errors.Wrap(err, errors.CodeImage, "encode cover art jpeg")
	}
	jpegBytes := jpegBuf.Bytes()

	block := make([]byte, 0, 32+len(pictureMIMEType)+len(jpegBytes))
	block = appendUint32BE(block, pictureTypeCoverFront)
	block = appendUint32BE(block, uint32(len(pictureMIMEType)))
	block = append(block, pictureMIMEType...)
	block = appendUint32BE(block, 0) // description length
	block = appendUint32BE(block, coverArtMaxDimension)
	block = appendUint32BE(block, coverArtMaxDimension)
	block = appendUint32BE(block, 0) // color depth
	block = appendUint32BE(block, 0) // indexed colors
	block = appendUint32BE(block, uint32(len(jpegBytes)))
	block = append(block, jpegBytes...)

	encoded := base64.StdEncoding.EncodeToString(block)
	return "METADATA_BLOCK_PICTURE=" + encoded, nil
}

func appendUint32BE(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}
