package library

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractalbeauty/musicopy/internal/config"
	"github.com/fractalbeauty/musicopy/internal/domain"
	"github.com/fractalbeauty/musicopy/internal/logger"
	"github.com/fractalbeauty/musicopy/internal/store"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Writer: io.Discard})
}

func testConfig(transcodesDir string) config.TranscodeConfig {
	return config.TranscodeConfig{
		TranscodesDir:      transcodesDir,
		InitialPolicy:      config.PolicyIfRequested,
		WorkerCount:        2,
		BitrateBPS:         128000,
		TargetSampleRateHz: 48000,
	}
}

func TestLibrary_StartPopulatesStatusFromDisk(t *testing.T) {
	dir := t.TempDir()
	h := domain.ContentHash{Kind: domain.HashKindXXH3, Bytes: [16]byte{1, 2, 3}}
	require.NoError(t, os.WriteFile(filepath.Join(dir, h.FileName("ogg")), []byte("payload"), 0o600))

	lib := New(store.NewMemoryStore(), testConfig(dir), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, lib.Start(ctx))

	status, ok := lib.Get(h)
	require.True(t, ok)
	assert.True(t, status.IsReady())
}

func TestLibrary_PolicyGatesAdmissionAndHashFailureIsSkipped(t *testing.T) {
	dir := t.TempDir()
	lib := New(store.NewMemoryStore(), testConfig(dir), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, lib.Start(ctx))

	missing := filepath.Join(dir, "does-not-exist.wav")
	lib.Load([]string{missing})

	// Under the initial if-requested policy a priority-0 entry is resident
	// but inadmissible, so no worker pops it and the ready count stays 0.
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 0, lib.QueueReady())

	lib.Prioritize([]string{missing})

	// Now a worker pops the entry, fails to hash a nonexistent file, logs,
	// and skips — it never reaches the transcoder, so no Failed status is
	// published for a hash that was never computed.
	require.Eventually(t, func() bool {
		return lib.QueueReady() == 0
	}, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 0, lib.Status.Failed())
	assert.EqualValues(t, 0, lib.Status.Ready())
}

func TestLibrary_DeleteAllRemovesReadyEntriesAndFiles(t *testing.T) {
	dir := t.TempDir()
	h := domain.ContentHash{Kind: domain.HashKindMD5, Bytes: [16]byte{9}}
	path := filepath.Join(dir, h.FileName("ogg"))
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o600))

	lib := New(store.NewMemoryStore(), testConfig(dir), testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, lib.Start(ctx))

	_, ok := lib.Get(h)
	require.True(t, ok)

	lib.DeleteAll()

	require.Eventually(t, func() bool {
		_, ok := lib.Get(h)
		return !ok
	}, time.Second, 10*time.Millisecond)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
