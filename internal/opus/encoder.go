// Package opus wraps libopus encoding and Ogg container muxing for the
// transcode pipeline's output stage.
package opus

import (
	hopus "gopkg.in/hraban/opus.v2"

	"github.com/fractalbeauty/musicopy/internal/errors"
)

// FrameDurationMs is the fixed frame size every encoded packet covers.
const FrameDurationMs = 20

// maxPacketBytes is a scratch buffer large enough for a 20ms frame at
// any bitrate this pipeline configures, with generous headroom.
const maxPacketBytes = 4000

// Encoder wraps a libopus encoder configured for the "audio" application
// profile at a fixed target bitrate, the setup the pipeline standardizes on
// for pre-recorded music rather than voice.
type Encoder struct {
	enc        *hopus.Encoder
	sampleRate int
	channels   int
	frameSize  int
}

// NewEncoder constructs an Opus encoder at sampleRateHz with the given
// channel count (1 or 2), targeting bitrateBPS with the "audio" application
// profile.
func NewEncoder(sampleRateHz, channels, bitrateBPS int) (*Encoder, error) {
	if channels != 1 && channels != 2 {
		return nil, errors.UnsupportedChannelCount(channels)
	}

	enc, err := hopus.NewEncoder(sampleRateHz, channels, hopus.AppAudio)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeEncode, "construct opus encoder at %d Hz", sampleRateHz)
	}
	if err := enc.SetBitrate(bitrateBPS); err != nil {
		return nil, errors.Wrapf(err, errors.CodeEncode, "set opus bitrate to %d", bitrateBPS)
	}

	return &Encoder{
		enc:        enc,
		sampleRate: sampleRateHz,
		channels:   channels,
		frameSize:  sampleRateHz * FrameDurationMs / 1000,
	}, nil
}

// FrameSize reports the number of sample-frames (per channel) one encoded
// packet covers, e.g. 960 at 48 kHz.
func (e *Encoder) FrameSize() int {
	return e.frameSize
}

// Lookahead reports the encoder's algorithmic delay in sample-frames at the
// encoder's configured sample rate. This value becomes the OpusHead
// pre-skip field: every output stream must discard exactly this many
// leading frames to line the decoded signal back up with the source.
//
// libopus derives the value as Fs/400 frames of MDCT overlap plus Fs/250
// frames of delay compensation for the audio and voip applications (312 at
// 48 kHz, the value OPUS_GET_LOOKAHEAD reports); the binding does not
// expose that ctl, so the same derivation is applied here.
func (e *Encoder) Lookahead() int {
	return e.sampleRate/400 + e.sampleRate/250
}

// EncodeFrame encodes exactly FrameSize() interleaved PCM sample-frames
// (len(pcm) == FrameSize()*channels) into one Opus packet.
func (e *Encoder) EncodeFrame(pcm []float32) ([]byte, error) {
	if len(pcm) != e.frameSize*e.channels {
		return nil, errors.Encodef("opus encode: expected %d interleaved samples, got %d", e.frameSize*e.channels, len(pcm))
	}

	buf := make([]byte, maxPacketBytes)
	n, err := e.enc.EncodeFloat32(pcm, buf)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeEncode, "opus encode frame")
	}
	return buf[:n], nil
}
