// Package statuscache implements the content-hash-keyed transcode status
// map shared by workers, the supervisor, and the network-serving layer: a
// striped concurrent map plus two atomic counters that must always equal
// the exact multiset size of each status variant.
package statuscache

import (
	"sync/atomic"

	"github.com/fractalbeauty/musicopy/internal/cache"
	"github.com/fractalbeauty/musicopy/internal/domain"
)

// StatusCache is a thread-safe mapping from ContentHash to TranscodeStatus.
// Reads are wait-free (bar the shard's brief read lock); writes hold a
// short-duration exclusive section over a single shard only.
type StatusCache struct {
	entries *cache.Sharded[domain.ContentHash, domain.TranscodeStatus]
	ready   atomic.Int64
	failed  atomic.Int64
}

// New creates an empty StatusCache.
func New() *StatusCache {
	return &StatusCache{entries: cache.NewSharded[domain.ContentHash, domain.TranscodeStatus]()}
}

// Get returns the status recorded for hash, if any.
func (c *StatusCache) Get(hash domain.ContentHash) (domain.TranscodeStatus, bool) {
	return c.entries.Load(hash)
}

// Insert records status for hash, replacing any prior entry. The ready and
// failed counters are updated for the observable transition: the
// destination counter is incremented, and if an existing entry was
// replaced, its counter is decremented.
func (c *StatusCache) Insert(hash domain.ContentHash, status domain.TranscodeStatus) {
	previous, replaced := c.entries.Store(hash, status)
	if replaced {
		c.decrementFor(previous)
	}
	c.incrementFor(status)
}

// Retain drops every entry for which keep returns false, decrementing the
// appropriate counter for each dropped entry and invoking onDrop while the
// entry's shard is still locked (so onDrop can, e.g., schedule a best-effort
// file deletion without racing a concurrent Insert of the same key).
func (c *StatusCache) Retain(keep func(domain.ContentHash, domain.TranscodeStatus) bool, onDrop func(domain.ContentHash, domain.TranscodeStatus)) {
	c.entries.Retain(keep, func(hash domain.ContentHash, status domain.TranscodeStatus) {
		c.decrementFor(status)
		if onDrop != nil {
			onDrop(hash, status)
		}
	})
}

// Range calls f for every (hash, status) pair currently in the cache.
func (c *StatusCache) Range(f func(domain.ContentHash, domain.TranscodeStatus) bool) {
	c.entries.Range(f)
}

// Ready returns the current count of Ready entries.
func (c *StatusCache) Ready() int64 {
	return c.ready.Load()
}

// Failed returns the current count of Failed entries.
func (c *StatusCache) Failed() int64 {
	return c.failed.Load()
}

// Len returns the exact number of entries in the map.
func (c *StatusCache) Len() int {
	return c.entries.Len()
}

func (c *StatusCache) incrementFor(status domain.TranscodeStatus) {
	switch {
	case status.IsReady():
		c.ready.Add(1)
	case status.IsFailed():
		c.failed.Add(1)
	}
}

func (c *StatusCache) decrementFor(status domain.TranscodeStatus) {
	switch {
	case status.IsReady():
		c.ready.Add(-1)
	case status.IsFailed():
		c.failed.Add(-1)
	}
}
