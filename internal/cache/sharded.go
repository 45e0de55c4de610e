// Package cache provides a generic, shard-striped concurrent map. It is the
// backing structure for the StatusCache: readers of one shard never block
// writers to another, which matters once hundreds of workers are probing
// hashes concurrently.
package cache

import (
	"hash/maphash"
	"sync"
)

const shardCount = 32

// Sharded is a type-safe concurrent map split into a fixed number of
// independently locked shards. It is the closest idiomatic Go equivalent of
// a striped concurrent map: simpler than wiring in a third-party
// implementation for a fixed, small shard count, and it lets callers iterate
// a single shard under its own lock (needed by StatusCache.Retain).
type Sharded[K comparable, V any] struct {
	seed   maphash.Seed
	shards [shardCount]shard[K, V]
}

type shard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// NewSharded creates an empty sharded map.
func NewSharded[K comparable, V any]() *Sharded[K, V] {
	s := &Sharded[K, V]{seed: maphash.MakeSeed()}
	for i := range s.shards {
		s.shards[i].m = make(map[K]V)
	}
	return s
}

func (s *Sharded[K, V]) shardFor(key K) *shard[K, V] {
	h := maphash.Comparable(s.seed, key)
	return &s.shards[h%shardCount]
}

// Load returns the value stored for key, if present.
func (s *Sharded[K, V]) Load(key K) (V, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	v, ok := sh.m[key]
	return v, ok
}

// Store sets the value for key, returning the previous value if one was
// replaced.
func (s *Sharded[K, V]) Store(key K, value V) (previous V, replaced bool) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	previous, replaced = sh.m[key]
	sh.m[key] = value
	return previous, replaced
}

// Delete removes key, returning the removed value if one was present.
func (s *Sharded[K, V]) Delete(key K) (V, bool) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	v, ok := sh.m[key]
	if ok {
		delete(sh.m, key)
	}
	return v, ok
}

// Len returns the total number of entries across all shards. It is not
// atomic with respect to concurrent mutation of multiple shards, but is
// exact at any moment no shard is being written.
func (s *Sharded[K, V]) Len() int {
	n := 0
	for i := range s.shards {
		s.shards[i].mu.RLock()
		n += len(s.shards[i].m)
		s.shards[i].mu.RUnlock()
	}
	return n
}

// Retain drops every entry for which keep returns false, invoking onDrop
// for each dropped (key, value) pair while still holding that shard's
// write lock. Shards are processed one at a time so onDrop never observes
// more than one shard locked at once.
func (s *Sharded[K, V]) Retain(keep func(K, V) bool, onDrop func(K, V)) {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for k, v := range sh.m {
			if !keep(k, v) {
				delete(sh.m, k)
				if onDrop != nil {
					onDrop(k, v)
				}
			}
		}
		sh.mu.Unlock()
	}
}

// Range calls f for every entry. f must not call back into the map. Range
// does not hold a single global lock, so it is not a snapshot: it is
// intended for diagnostics and startup reconciliation, not hot paths.
func (s *Sharded[K, V]) Range(f func(K, V) bool) {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for k, v := range sh.m {
			if !f(k, v) {
				sh.mu.RUnlock()
				return
			}
		}
		sh.mu.RUnlock()
	}
}
