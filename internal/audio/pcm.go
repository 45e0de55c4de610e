package audio

import (
	goaudio "github.com/go-audio/audio"

	"github.com/fractalbeauty/musicopy/internal/errors"
)

// planarFromIntBuffer converts a decoded interleaved integer PCM buffer
// (the shape go-audio's WAV and AIFF decoders produce) into planar float32
// samples normalized to [-1, 1] by the buffer's source bit depth.
func planarFromIntBuffer(buf *goaudio.IntBuffer) (*Samples, error) {
	channels := buf.Format.NumChannels
	if channels != 1 && channels != 2 {
		return nil, errors.UnsupportedChannelCount(channels)
	}

	frames := len(buf.Data) / channels
	planar := make([][]float32, channels)
	for c := range planar {
		planar[c] = make([]float32, frames)
	}

	maxAmplitude := float32(int(1) << uint(buf.SourceBitDepth-1))
	for i, sample := range buf.Data {
		planar[i%channels][i/channels] = float32(sample) / maxAmplitude
	}

	return &Samples{
		SampleRate: buf.Format.SampleRate,
		Channels:   channels,
		Planar:     planar,
	}, nil
}
