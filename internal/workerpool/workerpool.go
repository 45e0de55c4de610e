// Package workerpool binds the WorkQueue to the Transcoder and StatusCache:
// a fixed number of long-lived goroutines that pop admissible work, hash
// it, transcode it to a temp file, and publish the outcome.
package workerpool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fractalbeauty/musicopy/internal/domain"
	"github.com/fractalbeauty/musicopy/internal/errors"
	"github.com/fractalbeauty/musicopy/internal/hashcache"
	"github.com/fractalbeauty/musicopy/internal/logger"
	"github.com/fractalbeauty/musicopy/internal/queue"
	"github.com/fractalbeauty/musicopy/internal/statuscache"
	"github.com/fractalbeauty/musicopy/internal/transcoder"
)

// Transcoder is the subset of transcoder.Transcoder the pool depends on,
// narrowed so tests can substitute a fake without pulling in real codecs.
type Transcoder interface {
	Transcode(ctx context.Context, input, output string) (uint64, error)
}

var _ Transcoder = (*transcoder.Transcoder)(nil)

// Pool runs a fixed number of worker goroutines over a shared WorkQueue.
type Pool struct {
	queue         *queue.WorkQueue
	hashes        *hashcache.HashCache
	status        *statuscache.StatusCache
	transcoder    Transcoder
	transcodesDir string
	workerCount   int
	log           *logger.Logger

	inprogress atomic.Int64
	wg         sync.WaitGroup
}

// New builds a Pool. workerCount is clamped to at least 1.
func New(q *queue.WorkQueue, hashes *hashcache.HashCache, status *statuscache.StatusCache, tc Transcoder, transcodesDir string, workerCount int, log *logger.Logger) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{
		queue:         q,
		hashes:        hashes,
		status:        status,
		transcoder:    tc,
		transcodesDir: transcodesDir,
		workerCount:   workerCount,
		log:           log,
	}
}

// Start launches the configured number of worker goroutines. Each runs
// until ctx is cancelled or the queue is closed.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Wait blocks until every worker goroutine has returned, which happens
// once ctx is cancelled or the queue is closed and each worker's in-flight
// job (if any) has published its outcome.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Inprogress returns the number of workers currently between pop and
// publishing an outcome.
func (p *Pool) Inprogress() int64 {
	return p.inprogress.Load()
}

func (p *Pool) run(ctx context.Context, workerID int) {
	defer p.wg.Done()
	for {
		entry, ok := p.queue.Wait(ctx)
		if !ok {
			return
		}
		p.process(ctx, workerID, entry)
	}
}

// process runs one iteration of the worker loop. The inprogress counter's
// decrement is deferred so it fires on every exit path, including a
// recovered panic from this single iteration — a panic in one job must not
// take down the whole worker goroutine or leave the counter stuck.
func (p *Pool) process(ctx context.Context, workerID int, entry domain.QueueEntry) {
	p.inprogress.Add(1)
	defer p.inprogress.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker panic recovered", "worker", workerID, "path", entry.Path, "panic", fmt.Sprint(r))
		}
	}()

	hash, err := p.hashes.GetHash(ctx, entry.Path)
	if err != nil {
		p.log.Warn("failed to hash queued file, skipping", "path", entry.Path, "error", err)
		return
	}

	if status, ok := p.status.Get(hash); ok && status.IsReady() {
		return
	}

	tempPath := filepath.Join(p.transcodesDir, hash.FileName("tmp"))
	finalPath := filepath.Join(p.transcodesDir, hash.FileName("ogg"))

	size, err := p.transcoder.Transcode(ctx, entry.Path, tempPath)
	if err != nil {
		p.log.Warn("transcode failed", "path", entry.Path, "hash_kind", hash.Kind, "hash", hash.Hex(), "error", err)
		_ = os.Remove(tempPath)
		p.status.Insert(hash, domain.Failed(err))
		return
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		p.log.Warn("rename to final path failed", "path", entry.Path, "temp", tempPath, "final", finalPath, "error", err)
		_ = os.Remove(tempPath)
		p.status.Insert(hash, domain.Failed(errors.IO(finalPath, err)))
		return
	}

	p.status.Insert(hash, domain.Ready(finalPath, int64(size)))
}
