// Package transcoder decodes an arbitrary source audio file, resamples it
// to the pipeline's fixed output rate, and re-encodes it into an Ogg Opus
// container, preserving the input's comment tags and cover art.
package transcoder

import (
	"context"
	"math"
	"os"
	"strings"

	"github.com/fractalbeauty/musicopy/internal/audio"
	"github.com/fractalbeauty/musicopy/internal/errors"
	"github.com/fractalbeauty/musicopy/internal/opus"
	"github.com/fractalbeauty/musicopy/internal/resample"
)

// oggSerial is the Ogg stream serial number for every file this transcoder
// writes. Each output file holds exactly one logical bitstream, so a fixed
// serial keeps re-transcodes of the same input byte-identical rather than
// depending on a random number generator.
const oggSerial = 1

// audioFrameSamples is the fixed frame size audio packets are chunked into,
// 20ms at 48kHz.
const audioFrameSamples = 960

// Transcoder converts one source audio file into one Ogg Opus output file.
// It holds no mutable state and is safe to invoke concurrently across
// independent inputs.
type Transcoder struct {
	bitrateBPS   int
	sampleRateHz int
}

// New builds a Transcoder targeting sampleRateHz at bitrateBPS.
func New(bitrateBPS, sampleRateHz int) *Transcoder {
	return &Transcoder{bitrateBPS: bitrateBPS, sampleRateHz: sampleRateHz}
}

// Transcode decodes input, resamples/pads it to the configured output rate,
// encodes it as Opus, and writes it as an Ogg container to output. It
// returns the final file size in bytes.
func (t *Transcoder) Transcode(ctx context.Context, input, output string) (uint64, error) {
	if _, err := audio.Probe(input); err != nil {
		return 0, err
	}

	samples, err := audio.Decode(input)
	if err != nil {
		return 0, err
	}

	enc, err := opus.NewEncoder(t.sampleRateHz, samples.Channels, t.bitrateBPS)
	if err != nil {
		return 0, err
	}
	lookahead := enc.Lookahead()

	planar, totalFrames, err := t.resampleAndPad(samples, lookahead)
	if err != nil {
		return 0, err
	}

	// Tag extraction is best-effort: a source whose tag container the
	// metadata reader cannot parse still transcodes, it just carries no
	// comments.
	tags, err := audio.ReadTags(ctx, input)
	if err != nil {
		tags = audio.Tags{}
	}

	interleaved := interleave(planar, samples.Channels)

	f, err := os.Create(output) //#nosec G304 -- output path is caller-controlled, under transcodes_dir
	if err != nil {
		return 0, errors.IO(output, err)
	}
	defer f.Close()

	pw := opus.NewPageWriter(f, oggSerial)

	head := opus.BuildOpusHead(samples.Channels, uint16(lookahead), uint32(t.sampleRateHz))
	tagsPacket := opus.BuildOpusTags(commentsFor(tags))
	if err := pw.WriteHeaderPackets(head, tagsPacket); err != nil {
		return 0, err
	}

	if err := encodeAudio(pw, enc, interleaved, samples.Channels, totalFrames); err != nil {
		return 0, err
	}

	if err := f.Sync(); err != nil {
		return 0, errors.IO(output, err)
	}

	info, err := f.Stat()
	if err != nil {
		return 0, errors.IO(output, err)
	}
	return uint64(info.Size()), nil
}

// resampleAndPad prepends `lookahead` zero frames per channel and, when the
// source rate differs from the target rate, resamples via the fixed-chunk
// FFT resampler. It returns the planar buffer and the buffer's own
// per-channel frame count (lookahead+nIn with no resampling, targetLen when
// resampled) — the granule position target for the final packet.
func (t *Transcoder) resampleAndPad(samples *audio.Samples, lookahead int) ([][]float32, int, error) {
	channels := samples.Channels
	nIn := samples.Frames()

	if samples.SampleRate == t.sampleRateHz {
		out := make([][]float32, channels)
		for c := 0; c < channels; c++ {
			out[c] = make([]float32, 0, lookahead+nIn)
			out[c] = append(out[c], make([]float32, lookahead)...)
			out[c] = append(out[c], samples.Planar[c]...)
		}
		return out, lookahead + nIn, nil
	}

	r, err := resample.New(samples.SampleRate, t.sampleRateHz, channels)
	if err != nil {
		return nil, 0, err
	}

	targetLen := ceilDiv(nIn*t.sampleRateHz, samples.SampleRate) + lookahead

	out := make([][]float32, channels)
	for c := 0; c < channels; c++ {
		out[c] = make([]float32, lookahead, targetLen+resample.ChunkFrames)
	}

	chunk := resample.ChunkFrames
	for offset := 0; offset < nIn; offset += chunk {
		end := offset + chunk
		in := make([][]float32, channels)
		for c := 0; c < channels; c++ {
			if end <= nIn {
				in[c] = samples.Planar[c][offset:end]
			} else {
				padded := make([]float32, chunk)
				copy(padded, samples.Planar[c][offset:nIn])
				in[c] = padded
			}
		}
		resampled, err := r.Process(in)
		if err != nil {
			return nil, 0, err
		}
		for c := 0; c < channels; c++ {
			out[c] = append(out[c], resampled[c]...)
		}
	}

	tail := r.Flush()
	for c := 0; c < channels; c++ {
		out[c] = append(out[c], tail[c]...)
	}

	for c := 0; c < channels; c++ {
		if len(out[c]) > targetLen {
			out[c] = out[c][:targetLen]
		} else {
			for len(out[c]) < targetLen {
				out[c] = append(out[c], 0)
			}
		}
	}

	return out, targetLen, nil
}

func ceilDiv(a, b int) int {
	return int(math.Ceil(float64(a) / float64(b)))
}

func interleave(planar [][]float32, channels int) []float32 {
	if channels == 1 {
		return planar[0]
	}
	frames := len(planar[0])
	out := make([]float32, frames*channels)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out[i*channels+c] = planar[c][i]
		}
	}
	return out
}

// commentsFor builds the Ogg comment list; a tag value containing a literal
// '=' is omitted rather than escaped.
func commentsFor(tags audio.Tags) []string {
	var comments []string
	if tags.Title != "" && !strings.Contains(tags.Title, "=") {
		comments = append(comments, "TITLE="+tags.Title)
	}
	if tags.Album != "" && !strings.Contains(tags.Album, "=") {
		comments = append(comments, "ALBUM="+tags.Album)
	}
	if tags.TrackNumber != "" && !strings.Contains(tags.TrackNumber, "=") {
		comments = append(comments, "TRACKNUMBER="+tags.TrackNumber)
	}
	if tags.Artist != "" && !strings.Contains(tags.Artist, "=") {
		comments = append(comments, "ARTIST="+tags.Artist)
	}
	if tags.Picture != nil {
		if comment, err := opus.BuildPictureComment(tags.Picture.Data); err == nil {
			comments = append(comments, comment)
		}
	}
	return comments
}

// encodeAudio implements pipeline stage 7: it chunks the interleaved stream
// into fixed 20ms frames, encodes each, and writes it as one Ogg page. The
// granule position on the final packet is totalFrames — the padded,
// resampled buffer's own per-channel length (lookahead+nIn at the target
// rate, or targetLen when resampled), i.e. interleaved_len/channels. A
// decoder trims exactly `lookahead` leading samples (the OpusHead pre-skip
// field) from this count and plays the rest, so the granule position must
// already include the pre-skip frames rather than omit them.
func encodeAudio(pw *opus.PageWriter, enc *opus.Encoder, interleaved []float32, channels, totalFrames int) error {
	frameSize := enc.FrameSize()
	samplesPerFrame := frameSize * channels
	totalSamples := len(interleaved)

	var cumulativeFrames int
	for offset := 0; offset < totalSamples; offset += samplesPerFrame {
		end := offset + samplesPerFrame
		isFinal := end >= totalSamples

		var frame []float32
		if end <= totalSamples {
			frame = interleaved[offset:end]
		} else {
			frame = make([]float32, samplesPerFrame)
			copy(frame, interleaved[offset:totalSamples])
		}

		packet, err := enc.EncodeFrame(frame)
		if err != nil {
			return err
		}

		cumulativeFrames += frameSize
		granule := uint64(cumulativeFrames)
		end_ := opus.NormalPacket
		if isFinal {
			end_ = opus.EndStream
			granule = uint64(totalFrames)
		}

		if err := pw.WriteAudioPacket(packet, granule, end_); err != nil {
			return err
		}
	}

	return nil
}
