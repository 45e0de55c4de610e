// Package supervisor is the single-consumer command loop that mediates
// between the library scanner, the network-serving layer, and the
// WorkQueue/StatusCache the worker pool drains. It also owns the on-disk
// reconciliation walk that runs once at startup before any worker goroutine
// is allowed to touch the transcodes directory.
package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fractalbeauty/musicopy/internal/domain"
	"github.com/fractalbeauty/musicopy/internal/errors"
	"github.com/fractalbeauty/musicopy/internal/hashcache"
	"github.com/fractalbeauty/musicopy/internal/logger"
	"github.com/fractalbeauty/musicopy/internal/queue"
	"github.com/fractalbeauty/musicopy/internal/statuscache"
)

// commandBufferSize is generous enough that the library scanner and
// network layer never block enqueuing a command; the supervisor goroutine
// itself never blocks on anything but its own receive and the work it
// dispatches inline.
const commandBufferSize = 256

// Command is one message accepted by the Supervisor's command channel.
// Only the field its kind uses is set: Load and Prioritize carry a path
// set, DeleteMissing a live-path list, SetPolicy a policy, and DeleteAll
// carries no payload.
type Command struct {
	kind      commandKind
	paths     map[string]struct{}
	livePaths []string
	newPolicy domain.TranscodePolicy
}

type commandKind int

const (
	cmdLoad commandKind = iota
	cmdPrioritize
	cmdDeleteMissing
	cmdDeleteAll
	cmdSetPolicy
)

// LoadCommand requests that the queue be pruned to exactly paths, and that
// any path among them not already known-hashed-and-cached be enqueued.
func LoadCommand(paths []string) Command {
	return Command{kind: cmdLoad, paths: toSet(paths)}
}

// PrioritizeCommand requests priority bumps for every path in paths.
func PrioritizeCommand(paths []string) Command {
	return Command{kind: cmdPrioritize, paths: toSet(paths)}
}

// DeleteMissingCommand requests reconciliation of the status cache against
// livePaths: every Ready entry whose hash is no longer reachable from
// livePaths is dropped and its backing file removed.
func DeleteMissingCommand(livePaths []string) Command {
	return Command{kind: cmdDeleteMissing, livePaths: livePaths}
}

// DeleteAllCommand requests every Ready entry be dropped and its backing
// file removed.
func DeleteAllCommand() Command {
	return Command{kind: cmdDeleteAll}
}

// SetPolicyCommand requests the queue's admission policy be changed.
func SetPolicyCommand(p domain.TranscodePolicy) Command {
	return Command{kind: cmdSetPolicy, newPolicy: p}
}

func toSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}

// Supervisor owns the single goroutine that applies Commands to the
// WorkQueue and StatusCache. It is the only writer of queue mutations that
// originate outside the worker pool.
type Supervisor struct {
	queue         *queue.WorkQueue
	hashes        *hashcache.HashCache
	status        *statuscache.StatusCache
	transcodesDir string
	log           *logger.Logger

	commands chan Command
}

// New constructs a Supervisor. Spawn must be called once before any
// Command is sent.
func New(q *queue.WorkQueue, hashes *hashcache.HashCache, status *statuscache.StatusCache, transcodesDir string, log *logger.Logger) *Supervisor {
	return &Supervisor{
		queue:         q,
		hashes:        hashes,
		status:        status,
		transcodesDir: transcodesDir,
		log:           log,
		commands:      make(chan Command, commandBufferSize),
	}
}

// Submit enqueues cmd for processing. It never blocks except on the (very
// generously sized) channel buffer filling up, which would indicate the
// supervisor goroutine has stalled.
func (s *Supervisor) Submit(cmd Command) {
	s.commands <- cmd
}

// Spawn performs the startup reconciliation walk over transcodesDir and
// then launches the command loop goroutine. The
// status cache is fully populated with every valid on-disk Ready entry
// before Spawn returns, so workers (started by the caller immediately
// after) never race the scan.
func (s *Supervisor) Spawn(ctx context.Context) error {
	if err := s.reconcileOnDisk(); err != nil {
		return err
	}
	go s.run(ctx)
	return nil
}

func (s *Supervisor) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-s.commands:
			if !ok {
				return
			}
			s.apply(ctx, cmd)
		}
	}
}

func (s *Supervisor) apply(ctx context.Context, cmd Command) {
	switch cmd.kind {
	case cmdLoad:
		s.handleLoad(ctx, cmd.paths)
	case cmdPrioritize:
		s.queue.Prioritize(keys(cmd.paths))
	case cmdDeleteMissing:
		s.handleDeleteMissing(ctx, cmd.livePaths)
	case cmdDeleteAll:
		s.handleDeleteAll()
	case cmdSetPolicy:
		s.queue.SetPolicy(cmd.newPolicy)
	}
}

// handleLoad prunes the queue to the given set, filters out paths whose
// cached hash already has a status entry (Ready or Failed), enqueues
// survivors at priority 0, and kicks off a background size estimate for
// them.
func (s *Supervisor) handleLoad(ctx context.Context, paths map[string]struct{}) {
	s.queue.RemoveMissing(paths)

	survivors := make([]string, 0, len(paths))
	for path := range paths {
		if s.hasCachedStatus(ctx, path) {
			continue
		}
		survivors = append(survivors, path)
	}
	if len(survivors) == 0 {
		return
	}

	s.queue.Extend(survivors)

	go s.hashes.BatchGetEstimatedSize(ctx, survivors)
}

// hasCachedStatus reports whether path's cached-without-compute hash
// resolves to any status entry, Ready or Failed. A cache miss (no stored
// hash, or the file changed) is treated as "no status" — the file
// re-enters the queue and the worker pool will hash and check it properly.
func (s *Supervisor) hasCachedStatus(ctx context.Context, path string) bool {
	hash, ok := s.hashes.GetCachedHash(ctx, path)
	if !ok {
		return false
	}
	_, ok = s.status.Get(hash)
	return ok
}

// handleDeleteMissing computes hashes for livePaths and drops every Ready
// entry in the status cache whose hash is absent from that computed set,
// best-effort removing its backing file.
func (s *Supervisor) handleDeleteMissing(ctx context.Context, livePaths []string) {
	live := s.hashes.BatchGetHash(ctx, livePaths)

	s.status.Retain(func(hash domain.ContentHash, status domain.TranscodeStatus) bool {
		if !status.IsReady() {
			return true
		}
		_, keep := live[hash]
		return keep
	}, s.removeBackingFile)
}

// handleDeleteAll drops every Ready entry, removing its backing file.
func (s *Supervisor) handleDeleteAll() {
	s.status.Retain(func(_ domain.ContentHash, status domain.TranscodeStatus) bool {
		return !status.IsReady()
	}, s.removeBackingFile)
}

// removeBackingFile is passed as Retain's onDrop callback; it is only ever
// invoked for entries the keep predicate rejected, which for both
// handleDeleteMissing and handleDeleteAll means status.IsReady() here.
func (s *Supervisor) removeBackingFile(hash domain.ContentHash, status domain.TranscodeStatus) {
	if err := os.Remove(status.Ready.OutputPath); err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove backing file", "hash_kind", hash.Kind, "hash", hash.Hex(), "path", status.Ready.OutputPath, "error", err)
	}
}

// reconcileOnDisk is the startup walk: create transcodesDir if missing,
// delete every stray .tmp file, and populate the status cache with a Ready
// entry for every well-formed .ogg file. Malformed or unrecognized entries
// are logged and left in place.
func (s *Supervisor) reconcileOnDisk() error {
	if err := os.MkdirAll(s.transcodesDir, 0o755); err != nil {
		return errors.IO(s.transcodesDir, err)
	}

	entries, err := os.ReadDir(s.transcodesDir)
	if err != nil {
		return errors.IO(s.transcodesDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		if strings.HasSuffix(name, ".tmp") {
			full := filepath.Join(s.transcodesDir, name)
			if err := os.Remove(full); err != nil {
				s.log.Warn("failed to remove stray temp file", "path", full, "error", err)
			}
			continue
		}

		if !strings.HasSuffix(name, ".ogg") {
			s.log.Debug("skipping unrecognized entry in transcodes dir", "name", name)
			continue
		}

		stem := strings.TrimSuffix(name, ".ogg")
		hash, ok := domain.ParseContentHashStem(stem)
		if !ok {
			s.log.Warn("skipping malformed transcode file name", "name", name)
			continue
		}

		full := filepath.Join(s.transcodesDir, name)
		info, err := entry.Info()
		if err != nil {
			s.log.Warn("failed to stat transcode file", "name", name, "error", err)
			continue
		}

		s.status.Insert(hash, domain.Ready(full, info.Size()))
	}

	return nil
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
