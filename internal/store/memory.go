package store

import (
	"context"
	"sync"

	"github.com/fractalbeauty/musicopy/internal/domain"
)

// MemoryStore is an in-memory Database implementation for tests that don't
// need badger's durability. It satisfies the same interface as BadgerStore.
type MemoryStore struct {
	mu     sync.Mutex
	hashes map[string]domain.HashEntry
	sizes  map[string]domain.SizeEntry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hashes: make(map[string]domain.HashEntry),
		sizes:  make(map[string]domain.SizeEntry),
	}
}

func (s *MemoryStore) GetFileHashByPath(_ context.Context, path string) (*domain.HashEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.hashes[path]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *MemoryStore) GetFileHashesByPaths(_ context.Context, paths []string) (map[string]domain.HashEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.HashEntry, len(paths))
	for _, p := range paths {
		if e, ok := s.hashes[p]; ok {
			out[p] = e
		}
	}
	return out, nil
}

func (s *MemoryStore) InsertFileHash(_ context.Context, entry domain.HashEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[entry.Path] = entry
	return nil
}

func (s *MemoryStore) InsertFileHashes(_ context.Context, entries []domain.HashEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.hashes[e.Path] = e
	}
	return nil
}

func (s *MemoryStore) GetFileSizeByPath(_ context.Context, path string) (*domain.SizeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sizes[path]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *MemoryStore) GetFileSizesByPaths(_ context.Context, paths []string) (map[string]domain.SizeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.SizeEntry, len(paths))
	for _, p := range paths {
		if e, ok := s.sizes[p]; ok {
			out[p] = e
		}
	}
	return out, nil
}

func (s *MemoryStore) InsertFileSizes(_ context.Context, entries []domain.SizeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.sizes[e.Path] = e
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Database = (*MemoryStore)(nil)
var _ Database = (*BadgerStore)(nil)
