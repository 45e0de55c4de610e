// Package hashcache memoizes the two expensive per-file computations the
// transcoding core needs before it can even consider a file admissible:
// its content hash and its estimated transcoded output size. Both are
// cached against the source file's (size, mtime) and invalidated
// implicitly when either changes.
package hashcache

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fractalbeauty/musicopy/internal/audio"
	"github.com/fractalbeauty/musicopy/internal/domain"
	"github.com/fractalbeauty/musicopy/internal/errors"
	"github.com/fractalbeauty/musicopy/internal/logger"
	"github.com/fractalbeauty/musicopy/internal/store"
)

// batchConcurrency bounds the work-stealing fan-out for batched hash/size
// computation, independent of the worker pool's own goroutine count.
const batchConcurrency = 8

// HashCache memoizes ContentHash and estimated-output-size lookups against
// a caller-supplied Database. It holds no in-memory index of its own:
// every lookup that might be stale re-reads the backing row, so the
// Database is the single source of truth and multiple HashCache values can
// share one store safely.
type HashCache struct {
	db  store.Database
	log *logger.Logger
}

// New creates a HashCache backed by db.
func New(db store.Database, log *logger.Logger) *HashCache {
	return &HashCache{db: db, log: log}
}

// stat returns the (size, mtime) pair Matches compares against, using
// unix-seconds mtime to match the persisted HashEntry/SizeEntry shape.
func stat(path string) (size int64, modifiedAt int64, err error) {
	info, err := os.Stat(path) //#nosec G304 -- path comes from the caller's library scan
	if err != nil {
		return 0, 0, errors.IO(path, err)
	}
	return info.Size(), info.ModTime().Unix(), nil
}

// GetCachedHash returns the ContentHash for path iff a stored HashEntry
// exists whose (size, mtime) matches the file as observed now. It never
// computes: this is the admission filter's hot path, which must avoid
// spurious I/O beyond one stat + one store lookup.
func (c *HashCache) GetCachedHash(ctx context.Context, path string) (domain.ContentHash, bool) {
	size, modifiedAt, err := stat(path)
	if err != nil {
		return domain.ContentHash{}, false
	}
	entry, err := c.db.GetFileHashByPath(ctx, path)
	if err != nil || entry == nil {
		return domain.ContentHash{}, false
	}
	if !entry.Matches(size, modifiedAt) {
		return domain.ContentHash{}, false
	}
	return entry.Hash, true
}

// GetHash returns the ContentHash for path, computing and persisting it if
// the cached row is absent or stale.
func (c *HashCache) GetHash(ctx context.Context, path string) (domain.ContentHash, error) {
	if hash, ok := c.GetCachedHash(ctx, path); ok {
		return hash, nil
	}

	size, modifiedAt, err := stat(path)
	if err != nil {
		return domain.ContentHash{}, err
	}

	hash, err := audio.ComputeContentHash(path)
	if err != nil {
		return domain.ContentHash{}, err
	}

	entry := domain.HashEntry{
		Path:           path,
		LastFileSize:   size,
		LastModifiedAt: modifiedAt,
		Hash:           hash,
	}
	if err := c.db.InsertFileHash(ctx, entry); err != nil {
		c.log.Warn("failed to persist hash entry", "path", path, "error", err)
	}

	return hash, nil
}

// BatchGetHash returns the unordered set of distinct hashes across paths,
// computing any missing or stale entries in parallel and persisting them
// in a single batched write at the end. Per-file failures are logged and
// omitted — never fatal to the batch.
func (c *HashCache) BatchGetHash(ctx context.Context, paths []string) map[domain.ContentHash]struct{} {
	type result struct {
		path string
		hash domain.ContentHash
	}

	existing, err := c.db.GetFileHashesByPaths(ctx, paths)
	if err != nil {
		c.log.Warn("failed to batch-load hash entries", "error", err)
		existing = nil
	}

	results := make([]result, len(paths))
	var mu sync.Mutex
	var toInsert []domain.HashEntry

	var g errgroup.Group
	g.SetLimit(batchConcurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			size, modifiedAt, err := stat(path)
			if err != nil {
				c.log.Warn("skipping unreadable file", "path", path, "error", err)
				return nil
			}

			if row, ok := existing[path]; ok && row.Matches(size, modifiedAt) {
				results[i] = result{path: path, hash: row.Hash}
				return nil
			}

			hash, err := audio.ComputeContentHash(path)
			if err != nil {
				c.log.Warn("failed to compute content hash", "path", path, "error", err)
				return nil
			}

			entry := domain.HashEntry{
				Path:           path,
				LastFileSize:   size,
				LastModifiedAt: modifiedAt,
				Hash:           hash,
			}
			results[i] = result{path: path, hash: hash}

			mu.Lock()
			toInsert = append(toInsert, entry)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(toInsert) > 0 {
		if err := c.db.InsertFileHashes(ctx, toInsert); err != nil {
			c.log.Warn("failed to persist batched hash entries", "count", len(toInsert), "error", err)
		}
	}

	out := make(map[domain.ContentHash]struct{}, len(paths))
	for _, r := range results {
		if r.path == "" {
			continue
		}
		var zero domain.ContentHash
		if r.hash == zero {
			continue
		}
		out[r.hash] = struct{}{}
	}
	return out
}

// GetCachedEstimatedSize returns the estimated transcode output size for
// path iff a stored SizeEntry matches the file's current (size, mtime).
func (c *HashCache) GetCachedEstimatedSize(ctx context.Context, path string) (int64, bool) {
	size, modifiedAt, err := stat(path)
	if err != nil {
		return 0, false
	}
	entry, err := c.db.GetFileSizeByPath(ctx, path)
	if err != nil || entry == nil {
		return 0, false
	}
	if !entry.Matches(size, modifiedAt) {
		return 0, false
	}
	return entry.EstimatedSizeBytes, true
}

// BatchGetEstimatedSize populates any missing or stale SizeEntry rows for
// paths in parallel, persisting them in a single batched write. Per-file
// failures are logged and skipped.
func (c *HashCache) BatchGetEstimatedSize(ctx context.Context, paths []string) {
	existing, err := c.db.GetFileSizesByPaths(ctx, paths)
	if err != nil {
		c.log.Warn("failed to batch-load size entries", "error", err)
		existing = nil
	}

	var mu sync.Mutex
	var toInsert []domain.SizeEntry

	var g errgroup.Group
	g.SetLimit(batchConcurrency)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			size, modifiedAt, err := stat(path)
			if err != nil {
				c.log.Warn("skipping unreadable file", "path", path, "error", err)
				return nil
			}

			if row, ok := existing[path]; ok && row.Matches(size, modifiedAt) {
				return nil
			}

			probe, err := audio.Probe(path)
			if err != nil {
				c.log.Warn("failed to probe for size estimate", "path", path, "error", err)
				return nil
			}

			entry := domain.SizeEntry{
				Path:               path,
				LastFileSize:       size,
				LastModifiedAt:     modifiedAt,
				DurationSeconds:    probe.DurationSeconds,
				EstimatedSizeBytes: domain.EstimateOutputSize(probe.DurationSeconds),
			}

			mu.Lock()
			toInsert = append(toInsert, entry)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(toInsert) > 0 {
		if err := c.db.InsertFileSizes(ctx, toInsert); err != nil {
			c.log.Warn("failed to persist batched size entries", "count", len(toInsert), "error", err)
		}
	}
}
