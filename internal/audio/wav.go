package audio

import (
	"os"

	"github.com/go-audio/wav"

	"github.com/fractalbeauty/musicopy/internal/errors"
)

func probeWAV(path string) (*ProbeResult, error) {
	f, err := os.Open(path) //#nosec G304 -- path comes from the caller's library scan
	if err != nil {
		return nil, errors.IO(path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.CodeProbe, "read wav header for %s", path)
	}
	if !d.IsValidFile() {
		return nil, errors.Probef("not a valid wav file: %s", path)
	}

	duration, err := d.Duration()
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeProbe, "read wav duration for %s", path)
	}

	return &ProbeResult{
		SampleRate:      int(d.SampleRate),
		Channels:        int(d.NumChans),
		DurationSeconds: duration.Seconds(),
	}, nil
}

func decodeWAV(path string) (*Samples, error) {
	f, err := os.Open(path) //#nosec G304 -- path comes from the caller's library scan
	if err != nil {
		return nil, errors.IO(path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeDecode, "decode wav %s", path)
	}

	return planarFromIntBuffer(buf)
}
