package audio

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"

	"github.com/fractalbeauty/musicopy/internal/domain"
	"github.com/fractalbeauty/musicopy/internal/errors"
)

// xxh3Seed is pinned so every build of every peer computes identical hashes
// for identical audio; content addressing across devices depends on it
// never changing.
const xxh3Seed = 8888

// ComputeContentHash computes the ContentHash for path: the embedded MD5
// checksum when the container advertises one (FLAC), otherwise a 64-bit
// xxh3 hash widened to 128 bits by big-endian zero-extension.
//
// The hash covers the decoded sample stream, not the raw file bytes —
// go-audio/wav, go-mp3, and oggvorbis only hand back fully decoded PCM, not
// a compressed-packet layer. That keeps both properties the identity needs:
// a tag edit never touches a single decoded sample, so the hash is
// unchanged, while any re-encode that alters the decoded values changes the
// hash. Samples are normalized by the source bit depth, so PCM re-wrapped
// losslessly at a different bit depth decodes to the same values and keeps
// its hash.
func ComputeContentHash(path string) (domain.ContentHash, error) {
	probe, err := Probe(path)
	if err != nil {
		return domain.ContentHash{}, err
	}

	if probe.MD5 != nil {
		return domain.ContentHash{Kind: domain.HashKindMD5, Bytes: *probe.MD5}, nil
	}

	samples, err := Decode(path)
	if err != nil {
		return domain.ContentHash{}, errors.HashFailure(path, err)
	}

	h := xxh3.NewSeed(xxh3Seed)
	for _, channel := range samples.Planar {
		if err := binary.Write(h, binary.LittleEndian, channel); err != nil {
			return domain.ContentHash{}, errors.HashFailure(path, err)
		}
	}

	var bytes [16]byte
	binary.BigEndian.PutUint64(bytes[8:], h.Sum64())

	return domain.ContentHash{Kind: domain.HashKindXXH3, Bytes: bytes}, nil
}
