package audio

import (
	"os"

	"github.com/go-audio/aiff"

	"github.com/fractalbeauty/musicopy/internal/errors"
)

func probeAIFF(path string) (*ProbeResult, error) {
	f, err := os.Open(path) //#nosec G304 -- path comes from the caller's library scan
	if err != nil {
		return nil, errors.IO(path, err)
	}
	defer f.Close()

	d := aiff.NewDecoder(f)
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.CodeProbe, "read aiff header for %s", path)
	}

	duration, err := d.Duration()
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeProbe, "read aiff duration for %s", path)
	}

	return &ProbeResult{
		SampleRate:      int(d.SampleRate),
		Channels:        int(d.NumChans),
		DurationSeconds: duration.Seconds(),
	}, nil
}

func decodeAIFF(path string) (*Samples, error) {
	f, err := os.Open(path) //#nosec G304 -- path comes from the caller's library scan
	if err != nil {
		return nil, errors.IO(path, err)
	}
	defer f.Close()

	d := aiff.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeDecode, "decode aiff %s", path)
	}

	return planarFromIntBuffer(buf)
}
