package audio

import (
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"

	"github.com/fractalbeauty/musicopy/internal/errors"
)

func probeVorbis(path string) (*ProbeResult, error) {
	f, err := os.Open(path) //#nosec G304 -- path comes from the caller's library scan
	if err != nil {
		return nil, errors.IO(path, err)
	}
	defer f.Close()

	r, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeProbe, "probe ogg vorbis %s", path)
	}

	sampleRate := r.SampleRate()
	totalSamples := r.Length()

	return &ProbeResult{
		SampleRate:      sampleRate,
		Channels:        r.Channels(),
		DurationSeconds: float64(totalSamples) / float64(sampleRate),
	}, nil
}

func decodeVorbis(path string) (*Samples, error) {
	f, err := os.Open(path) //#nosec G304 -- path comes from the caller's library scan
	if err != nil {
		return nil, errors.IO(path, err)
	}
	defer f.Close()

	r, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeDecode, "decode ogg vorbis %s", path)
	}

	channels := r.Channels()
	if channels != 1 && channels != 2 {
		return nil, errors.UnsupportedChannelCount(channels)
	}

	planar := make([][]float32, channels)
	buf := make([]float32, 4096*channels)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			frames := n / channels
			for i := 0; i < frames; i++ {
				for c := 0; c < channels; c++ {
					planar[c] = append(planar[c], buf[i*channels+c])
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeDecode, "decode ogg vorbis %s", path)
		}
	}

	return &Samples{
		SampleRate: r.SampleRate(),
		Channels:   channels,
		Planar:     planar,
	}, nil
}
