// Package library is the root coordinator that owns one instance of the
// transcoding core's shared state and wires its subsystems together: the
// Store, HashCache, StatusCache, WorkQueue, WorkerPool, and Supervisor.
// Nothing in this package is a package-level singleton — every Library is
// independently constructable, which is what lets tests run several in
// parallel.
package library

import (
	"context"

	"github.com/fractalbeauty/musicopy/internal/config"
	"github.com/fractalbeauty/musicopy/internal/domain"
	"github.com/fractalbeauty/musicopy/internal/hashcache"
	"github.com/fractalbeauty/musicopy/internal/logger"
	"github.com/fractalbeauty/musicopy/internal/queue"
	"github.com/fractalbeauty/musicopy/internal/statuscache"
	"github.com/fractalbeauty/musicopy/internal/store"
	"github.com/fractalbeauty/musicopy/internal/supervisor"
	"github.com/fractalbeauty/musicopy/internal/transcoder"
	"github.com/fractalbeauty/musicopy/internal/workerpool"
)

// Library is the construct-once-per-process handle other collaborators
// (the P2P network layer, the library scanner) receive: it exposes the
// StatusCache for reads and the Supervisor's command surface for writes,
// while keeping the WorkQueue and WorkerPool entirely internal.
type Library struct {
	Status *statuscache.StatusCache
	Hashes *hashcache.HashCache

	queue      *queue.WorkQueue
	supervisor *supervisor.Supervisor
	pool       *workerpool.Pool
	log        *logger.Logger
}

// New builds every subsystem but does not yet perform the startup disk
// scan or launch any goroutine; call Start for that.
func New(db store.Database, cfg config.TranscodeConfig, log *logger.Logger) *Library {
	initialPolicy := domain.PolicyIfRequested
	if cfg.InitialPolicy == config.PolicyAlways {
		initialPolicy = domain.PolicyAlways
	}

	q := queue.New(initialPolicy)
	hashes := hashcache.New(db, log)
	status := statuscache.New()
	tc := transcoder.New(cfg.BitrateBPS, cfg.TargetSampleRateHz)
	sup := supervisor.New(q, hashes, status, cfg.TranscodesDir, log)
	pool := workerpool.New(q, hashes, status, tc, cfg.TranscodesDir, cfg.WorkerCount, log)

	return &Library{
		Status:     status,
		Hashes:     hashes,
		queue:      q,
		supervisor: sup,
		pool:       pool,
		log:        log,
	}
}

// Start runs the startup reconciliation walk over transcodes_dir (the
// status cache is fully populated before this returns), then launches the
// supervisor's command loop and the worker pool. ctx governs the lifetime
// of both; cancelling it stops accepting new work and lets in-flight
// transcodes finish.
func (l *Library) Start(ctx context.Context) error {
	if err := l.supervisor.Spawn(ctx); err != nil {
		return err
	}
	l.log.Info("transcode cache restored from disk",
		"ready", l.Status.Ready(),
		"policy", l.queue.Policy().String(),
	)
	l.pool.Start(ctx)
	return nil
}

// Wait blocks until every worker goroutine has exited, which happens once
// the Start context is cancelled and any in-flight transcode has published
// its outcome.
func (l *Library) Wait() {
	l.pool.Wait()
}

// Load prunes the queue to exactly paths and enqueues any survivor whose
// cached hash has no status entry yet (neither Ready nor Failed).
func (l *Library) Load(paths []string) {
	l.supervisor.Submit(supervisor.LoadCommand(paths))
}

// Prioritize bumps the priority of every resident queue entry in paths.
func (l *Library) Prioritize(paths []string) {
	l.supervisor.Submit(supervisor.PrioritizeCommand(paths))
}

// DeleteMissing reconciles the status cache and on-disk cache against
// livePaths, dropping and deleting anything no longer reachable.
func (l *Library) DeleteMissing(livePaths []string) {
	l.supervisor.Submit(supervisor.DeleteMissingCommand(livePaths))
}

// DeleteAll drops every Ready entry and deletes its backing file.
func (l *Library) DeleteAll() {
	l.supervisor.Submit(supervisor.DeleteAllCommand())
}

// SetPolicy changes the queue's admission policy.
func (l *Library) SetPolicy(p domain.TranscodePolicy) {
	l.supervisor.Submit(supervisor.SetPolicyCommand(p))
}

// QueueReady returns the eventually-correct count of queue entries
// currently admissible under the installed policy — the number a UI would
// show as "transcodes pending".
func (l *Library) QueueReady() int64 {
	return l.queue.Ready()
}

// Get answers the network-serving layer's hot-path lookup: the transcode
// outcome published for hash, if any.
func (l *Library) Get(hash domain.ContentHash) (domain.TranscodeStatus, bool) {
	return l.Status.Get(hash)
}
