package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/fractalbeauty/musicopy/internal/domain"
	"github.com/fractalbeauty/musicopy/internal/errors"
)

const (
	hashPrefix = "hash:"
	sizePrefix = "size:"
)

// BadgerStore is the badger-backed Database implementation. It opens one
// database at a configurable path and is otherwise invisible to every
// other component in this module — they only see the Database interface.
type BadgerStore struct {
	db *badger.DB
}

// Open opens (creating if necessary) a badger database at path.
func Open(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeDatabase, "failed to open store at %s", path)
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying badger database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func hashKey(path string) []byte {
	return []byte(hashPrefix + path)
}

func sizeKey(path string) []byte {
	return []byte(sizePrefix + path)
}

// GetFileHashByPath returns the hash entry for path, or nil if absent.
func (s *BadgerStore) GetFileHashByPath(ctx context.Context, path string) (*domain.HashEntry, error) {
	var entry domain.HashEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(hashKey(path))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeDatabase, "get file hash for %s", path)
	}
	if entry.Path == "" {
		return nil, nil
	}
	return &entry, nil
}

// GetFileHashesByPaths returns the subset of paths that have a stored hash
// row, in a single read transaction.
func (s *BadgerStore) GetFileHashesByPaths(ctx context.Context, paths []string) (map[string]domain.HashEntry, error) {
	out := make(map[string]domain.HashEntry, len(paths))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, p := range paths {
			item, err := txn.Get(hashKey(p))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			var entry domain.HashEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}
			out[p] = entry
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeDatabase, "batch get file hashes")
	}
	return out, nil
}

// InsertFileHash persists a single hash entry.
func (s *BadgerStore) InsertFileHash(ctx context.Context, entry domain.HashEntry) error {
	return s.InsertFileHashes(ctx, []domain.HashEntry{entry})
}

// InsertFileHashes persists a batch of hash entries in one write
// transaction, so a whole batch-hash pass touches the database exactly
// once.
func (s *BadgerStore) InsertFileHashes(ctx context.Context, entries []domain.HashEntry) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, entry := range entries {
			data, err := json.Marshal(&entry)
			if err != nil {
				return fmt.Errorf("marshal hash entry for %s: %w", entry.Path, err)
			}
			if err := txn.Set(hashKey(entry.Path), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, errors.CodeDatabase, "insert file hashes")
	}
	return nil
}

// GetFileSizeByPath returns the size entry for path, or nil if absent.
func (s *BadgerStore) GetFileSizeByPath(ctx context.Context, path string) (*domain.SizeEntry, error) {
	var entry domain.SizeEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sizeKey(path))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeDatabase, "get file size for %s", path)
	}
	if entry.Path == "" {
		return nil, nil
	}
	return &entry, nil
}

// GetFileSizesByPaths returns the subset of paths that have a stored size
// row, in a single read transaction.
func (s *BadgerStore) GetFileSizesByPaths(ctx context.Context, paths []string) (map[string]domain.SizeEntry, error) {
	out := make(map[string]domain.SizeEntry, len(paths))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, p := range paths {
			item, err := txn.Get(sizeKey(p))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			var entry domain.SizeEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}
			out[p] = entry
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeDatabase, "batch get file sizes")
	}
	return out, nil
}

// InsertFileSizes persists a batch of size entries in one write
// transaction.
func (s *BadgerStore) InsertFileSizes(ctx context.Context, entries []domain.SizeEntry) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, entry := range entries {
			data, err := json.Marshal(&entry)
			if err != nil {
				return fmt.Errorf("marshal size entry for %s: %w", entry.Path, err)
			}
			if err := txn.Set(sizeKey(entry.Path), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, errors.CodeDatabase, "insert file sizes")
	}
	return nil
}
