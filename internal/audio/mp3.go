package audio

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"github.com/fractalbeauty/musicopy/internal/errors"
)

// go-mp3 always decodes to 16-bit signed, stereo, interleaved PCM
// regardless of the source's channel layout (mono sources are duplicated
// across both channels by the decoder itself).
const mp3BytesPerFrame = 4 // 2 channels * 2 bytes/sample

func probeMP3(path string) (*ProbeResult, error) {
	f, err := os.Open(path) //#nosec G304 -- path comes from the caller's library scan
	if err != nil {
		return nil, errors.IO(path, err)
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeProbe, "probe mp3 %s", path)
	}

	frames := d.Length() / mp3BytesPerFrame
	return &ProbeResult{
		SampleRate:      d.SampleRate(),
		Channels:        2,
		DurationSeconds: float64(frames) / float64(d.SampleRate()),
	}, nil
}

func decodeMP3(path string) (*Samples, error) {
	f, err := os.Open(path) //#nosec G304 -- path comes from the caller's library scan
	if err != nil {
		return nil, errors.IO(path, err)
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeDecode, "decode mp3 %s", path)
	}

	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeDecode, "decode mp3 %s", path)
	}

	frames := len(raw) / mp3BytesPerFrame
	left := make([]float32, frames)
	right := make([]float32, frames)
	for i := 0; i < frames; i++ {
		l := int16(binary.LittleEndian.Uint16(raw[i*4:]))
		r := int16(binary.LittleEndian.Uint16(raw[i*4+2:]))
		left[i] = float32(l) / 32768.0
		right[i] = float32(r) / 32768.0
	}

	return &Samples{
		SampleRate: d.SampleRate(),
		Channels:   2,
		Planar:     [][]float32{left, right},
	}, nil
}
