package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractalbeauty/musicopy/internal/domain"
)

func openTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestBadgerStore_HashEntryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entry := domain.HashEntry{
		Path:           "/music/a.flac",
		LastFileSize:   4096,
		LastModifiedAt: 1700000000,
		Hash:           domain.ContentHash{Kind: domain.HashKindMD5, Bytes: [16]byte{1, 2, 3}},
	}
	require.NoError(t, s.InsertFileHash(ctx, entry))

	got, err := s.GetFileHashByPath(ctx, entry.Path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry, *got)
}

func TestBadgerStore_GetFileHashByPathAbsent(t *testing.T) {
	s := openTestStore(t)

	got, err := s.GetFileHashByPath(context.Background(), "/music/missing.mp3")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBadgerStore_BatchHashesReturnsOnlyStoredRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entries := []domain.HashEntry{
		{Path: "/music/a.mp3", LastFileSize: 1, LastModifiedAt: 10, Hash: domain.ContentHash{Kind: domain.HashKindXXH3, Bytes: [16]byte{1}}},
		{Path: "/music/b.mp3", LastFileSize: 2, LastModifiedAt: 20, Hash: domain.ContentHash{Kind: domain.HashKindXXH3, Bytes: [16]byte{2}}},
	}
	require.NoError(t, s.InsertFileHashes(ctx, entries))

	got, err := s.GetFileHashesByPaths(ctx, []string{"/music/a.mp3", "/music/b.mp3", "/music/c.mp3"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, entries[0], got["/music/a.mp3"])
	assert.Equal(t, entries[1], got["/music/b.mp3"])
}

func TestBadgerStore_SizeEntryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entry := domain.SizeEntry{
		Path:               "/music/a.wav",
		LastFileSize:       8192,
		LastModifiedAt:     1700000001,
		DurationSeconds:    61.5,
		EstimatedSizeBytes: domain.EstimateOutputSize(61.5),
	}
	require.NoError(t, s.InsertFileSizes(ctx, []domain.SizeEntry{entry}))

	got, err := s.GetFileSizeByPath(ctx, entry.Path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry, *got)

	batch, err := s.GetFileSizesByPaths(ctx, []string{entry.Path, "/music/missing.wav"})
	require.NoError(t, err)
	assert.Len(t, batch, 1)
}

func TestBadgerStore_InsertReplacesExistingRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := domain.HashEntry{Path: "/music/a.mp3", LastFileSize: 1, LastModifiedAt: 10}
	second := domain.HashEntry{Path: "/music/a.mp3", LastFileSize: 2, LastModifiedAt: 20}
	require.NoError(t, s.InsertFileHash(ctx, first))
	require.NoError(t, s.InsertFileHash(ctx, second))

	got, err := s.GetFileHashByPath(ctx, "/music/a.mp3")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.EqualValues(t, 2, got.LastFileSize)
}
