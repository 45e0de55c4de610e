// Package store provides the embedded persistence layer consumed by
// HashCache: a badger-backed implementation of the Database surface, with
// prefix-keyed rows and JSON-marshaled values, scoped to one badger
// transaction per logical operation.
package store

import (
	"context"

	"github.com/fractalbeauty/musicopy/internal/domain"
)

// Database is the opaque storage surface this module consumes. Any
// implementation satisfying it — the badger-backed BadgerStore in
// badger.go, or the in-memory MemoryStore for unit tests — is acceptable; no component outside this
// package depends on badger directly.
type Database interface {
	GetFileHashByPath(ctx context.Context, path string) (*domain.HashEntry, error)
	GetFileHashesByPaths(ctx context.Context, paths []string) (map[string]domain.HashEntry, error)
	InsertFileHash(ctx context.Context, entry domain.HashEntry) error
	InsertFileHashes(ctx context.Context, entries []domain.HashEntry) error

	GetFileSizeByPath(ctx context.Context, path string) (*domain.SizeEntry, error)
	GetFileSizesByPaths(ctx context.Context, paths []string) (map[string]domain.SizeEntry, error)
	InsertFileSizes(ctx context.Context, entries []domain.SizeEntry) error

	Close() error
}
