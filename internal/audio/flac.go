package audio

import (
	"io"

	"github.com/mewkiz/flac"

	"github.com/fractalbeauty/musicopy/internal/errors"
)

func probeFLAC(path string) (*ProbeResult, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeProbe, "probe flac %s", path)
	}
	defer stream.Close()

	info := stream.Info
	duration := float64(info.NSamples) / float64(info.SampleRate)

	result := &ProbeResult{
		SampleRate:      int(info.SampleRate),
		Channels:        int(info.NChannels),
		DurationSeconds: duration,
	}

	// FLAC carries an embedded MD5 of the decoded audio; when present and
	// non-zero it is preferred over a computed content hash (see
	// audio.ComputeContentHash).
	if info.MD5sum != [16]byte{} {
		md5 := info.MD5sum
		result.MD5 = &md5
	}

	return result, nil
}

func decodeFLAC(path string) (*Samples, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeDecode, "decode flac %s", path)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	if channels != 1 && channels != 2 {
		return nil, errors.UnsupportedChannelCount(channels)
	}

	planar := make([][]float32, channels)
	maxAmplitude := float32(int64(1) << uint(stream.Info.BitsPerSample-1))

	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeDecode, "decode flac frame in %s", path)
		}
		for c := 0; c < channels; c++ {
			sub := frame.Subframes[c]
			for _, s := range sub.Samples {
				planar[c] = append(planar[c], float32(s)/maxAmplitude)
			}
		}
	}

	return &Samples{
		SampleRate: int(stream.Info.SampleRate),
		Channels:   channels,
		Planar:     planar,
	}, nil
}
