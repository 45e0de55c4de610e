// Package domain holds the data types shared across the transcoding core:
// content hashes, the persisted hash/size rows, transcode outcomes, and
// queue entries. None of these types carry behavior beyond small, obviously
// correct helpers — the components that manipulate them live in their own
// packages.
package domain

import (
	"encoding/hex"
	"strings"
)

// HashKind identifies which algorithm produced a ContentHash.
type HashKind string

const (
	HashKindMD5  HashKind = "md5"
	HashKindXXH3 HashKind = "xxh3"
)

// ContentHash identifies an audio file's perceptual content. It is stable
// under metadata edits but not under re-encoding. Bytes is a fixed-size
// array (not a slice) so ContentHash is comparable and usable as a map key
// without an allocating wrapper.
type ContentHash struct {
	Kind  HashKind
	Bytes [16]byte
}

// Hex returns the lowercase hex encoding of the hash bytes, as used in
// on-disk file names ("<kind>-<hex>.ogg").
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h.Bytes[:])
}

// FileName returns the content-addressed file name for the given extension
// ("ogg" for published artifacts, "tmp" for in-flight work).
func (h ContentHash) FileName(ext string) string {
	return string(h.Kind) + "-" + h.Hex() + "." + ext
}

// ParseContentHashStem parses a file stem of the form "<kind>-<hex32>", as
// produced by the startup scan of transcodes_dir. It rejects any kind other
// than the two recognized HashKind values and any hex payload that isn't
// exactly 16 bytes.
func ParseContentHashStem(stem string) (ContentHash, bool) {
	kind, hexPart, ok := strings.Cut(stem, "-")
	if !ok {
		return ContentHash{}, false
	}
	switch HashKind(kind) {
	case HashKindMD5, HashKindXXH3:
	default:
		return ContentHash{}, false
	}
	raw, err := hex.DecodeString(hexPart)
	if err != nil || len(raw) != 16 {
		return ContentHash{}, false
	}
	var bytes [16]byte
	copy(bytes[:], raw)
	return ContentHash{Kind: HashKind(kind), Bytes: bytes}, true
}

// HashEntry is the persisted record produced by HashCache.GetHash, valid
// only while the file's (size, mtime) match what was observed at compute
// time.
type HashEntry struct {
	Path           string
	LastFileSize   int64
	LastModifiedAt int64 // unix seconds
	Hash           ContentHash
}

// Matches reports whether this entry is still valid for a file observed
// with the given size and modification time.
func (e HashEntry) Matches(size, modifiedAt int64) bool {
	return e.LastFileSize == size && e.LastModifiedAt == modifiedAt
}

// SizeEntry is the persisted record of an estimated transcode output size,
// valid only while the file's (size, mtime) match what was observed at
// compute time.
type SizeEntry struct {
	Path               string
	LastFileSize       int64
	LastModifiedAt     int64
	DurationSeconds    float64
	EstimatedSizeBytes int64
}

// Matches reports whether this entry is still valid for a file observed
// with the given size and modification time.
func (e SizeEntry) Matches(size, modifiedAt int64) bool {
	return e.LastFileSize == size && e.LastModifiedAt == modifiedAt
}

// Estimate formula constants: 128 kbit/s audio in bytes/sec, a fixed
// cover-art budget, and a 1% container overhead factor.
const (
	estimateBytesPerSecond = 16000
	estimateCoverArtBudget = 150000
	estimateOverheadFactor = 1.01
)

// EstimateOutputSize applies the fixed estimate formula from the duration
// of a source file, in seconds.
func EstimateOutputSize(durationSeconds float64) int64 {
	raw := durationSeconds*estimateBytesPerSecond + estimateCoverArtBudget
	return int64(raw * estimateOverheadFactor)
}

// TranscodeStatus is the outcome of attempting to transcode the file
// identified by a ContentHash. Exactly one of the two constructors below
// should be used; the zero value is not a valid status.
type TranscodeStatus struct {
	Ready  *ReadyStatus
	Failed *FailedStatus
}

// ReadyStatus records a completed, published transcode.
type ReadyStatus struct {
	OutputPath string
	FileSize   int64
}

// FailedStatus records a transcode attempt that did not produce output.
type FailedStatus struct {
	Err error
}

// Ready constructs a Ready TranscodeStatus.
func Ready(path string, size int64) TranscodeStatus {
	return TranscodeStatus{Ready: &ReadyStatus{OutputPath: path, FileSize: size}}
}

// Failed constructs a Failed TranscodeStatus.
func Failed(err error) TranscodeStatus {
	return TranscodeStatus{Failed: &FailedStatus{Err: err}}
}

// IsReady reports whether this status represents a completed transcode.
func (s TranscodeStatus) IsReady() bool {
	return s.Ready != nil
}

// IsFailed reports whether this status represents a failed transcode.
func (s TranscodeStatus) IsFailed() bool {
	return s.Failed != nil
}

// TranscodePolicy gates whether priority-0 queue entries are eligible to
// be popped by a worker.
type TranscodePolicy int

const (
	// PolicyIfRequested admits only entries with priority > 0.
	PolicyIfRequested TranscodePolicy = iota
	// PolicyAlways admits every resident entry.
	PolicyAlways
)

// Admit reports whether an entry with the given priority is eligible to
// be popped under this policy.
func (p TranscodePolicy) Admit(priority uint64) bool {
	switch p {
	case PolicyAlways:
		return true
	default:
		return priority > 0
	}
}

// String implements fmt.Stringer for logging.
func (p TranscodePolicy) String() string {
	if p == PolicyAlways {
		return "always"
	}
	return "if_requested"
}

// QueueEntry is one resident item in the WorkQueue: a source path and its
// accumulated priority. priority == 0 means "admitted only under Always".
type QueueEntry struct {
	Path     string
	Priority uint64
}
