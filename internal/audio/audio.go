// Package audio decodes arbitrary source audio into planar float32 samples
// and extracts the probe-time information the transcoder and hash cache
// need: sample rate, channel count, duration, tags, cover art, and (for the
// one lossless format that carries one) an embedded content checksum.
//
// The supported codec matrix is WAV and AIFF PCM, MP3, FLAC, and Ogg
// Vorbis. Anything else fails probe with errors.CodeProbe.
package audio

import (
	"path/filepath"
	"strings"

	"github.com/fractalbeauty/musicopy/internal/errors"
)

// Samples is one fully decoded source: one f32 sequence per channel, all of
// equal length, at the source's native sample rate.
type Samples struct {
	SampleRate int
	Channels   int
	Planar     [][]float32 // len(Planar) == Channels
}

// Frames returns the per-channel sample-frame count.
func (s Samples) Frames() int {
	if len(s.Planar) == 0 {
		return 0
	}
	return len(s.Planar[0])
}

// Tags holds the subset of source metadata the Opus tags packet carries
// forward into the output container.
type Tags struct {
	Title       string
	Album       string
	Artist      string
	TrackNumber string
	Picture     *Picture
}

// Picture is a cover-art attachment: the raw embedded image bytes, ready
// for decoding and resizing. The output container always re-encodes to
// JPEG, so the source attachment's own format is detected from the bytes
// rather than carried alongside them.
type Picture struct {
	Data []byte
}

// format identifies which decoder handles a source file.
type format int

const (
	formatUnknown format = iota
	formatWAV
	formatAIFF
	formatMP3
	formatFLAC
	formatVorbis
)

func formatFromExt(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return formatWAV
	case ".aif", ".aiff":
		return formatAIFF
	case ".mp3":
		return formatMP3
	case ".flac":
		return formatFLAC
	case ".ogg", ".oga":
		return formatVorbis
	default:
		return formatUnknown
	}
}

// Probe opens path and returns enough information to drive the transcoding
// pipeline without fully decoding: sample rate, channel count, duration,
// and (for FLAC) the embedded MD5 checksum used as a content hash.
func Probe(path string) (*ProbeResult, error) {
	f := formatFromExt(path)
	switch f {
	case formatWAV:
		return probeWAV(path)
	case formatAIFF:
		return probeAIFF(path)
	case formatMP3:
		return probeMP3(path)
	case formatFLAC:
		return probeFLAC(path)
	case formatVorbis:
		return probeVorbis(path)
	default:
		return nil, errors.Probef("unsupported or unrecognized container: %s", filepath.Ext(path))
	}
}

// ProbeResult is what Probe reports before a full decode.
type ProbeResult struct {
	SampleRate      int
	Channels        int
	DurationSeconds float64
	// MD5 is the embedded decoded-audio checksum, when the container
	// advertises one (FLAC only in this matrix). nil otherwise.
	MD5 *[16]byte
}

// Decode fully decodes path to planar float32 samples.
func Decode(path string) (*Samples, error) {
	f := formatFromExt(path)
	switch f {
	case formatWAV:
		return decodeWAV(path)
	case formatAIFF:
		return decodeAIFF(path)
	case formatMP3:
		return decodeMP3(path)
	case formatFLAC:
		return decodeFLAC(path)
	case formatVorbis:
		return decodeVorbis(path)
	default:
		return nil, errors.Probef("unsupported or unrecognized container: %s", filepath.Ext(path))
	}
}
