package workerpool

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractalbeauty/musicopy/internal/domain"
	"github.com/fractalbeauty/musicopy/internal/hashcache"
	"github.com/fractalbeauty/musicopy/internal/logger"
	"github.com/fractalbeauty/musicopy/internal/queue"
	"github.com/fractalbeauty/musicopy/internal/statuscache"
	"github.com/fractalbeauty/musicopy/internal/store"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Writer: io.Discard})
}

func writeWAV(t *testing.T, path string, frames int) {
	t.Helper()
	const sampleRate = 8000
	const bitsPerSample = 16
	const channels = 1
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := frames * blockAlign

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	write := func(v any) { require.NoError(t, binary.Write(f, binary.LittleEndian, v)) }

	_, err = f.WriteString("RIFF")
	require.NoError(t, err)
	write(uint32(36 + dataSize))
	_, err = f.WriteString("WAVE")
	require.NoError(t, err)
	_, err = f.WriteString("fmt ")
	require.NoError(t, err)
	write(uint32(16))
	write(uint16(1))
	write(uint16(channels))
	write(uint32(sampleRate))
	write(uint32(byteRate))
	write(uint16(blockAlign))
	write(uint16(bitsPerSample))
	_, err = f.WriteString("data")
	require.NoError(t, err)
	write(uint32(dataSize))
	for i := 0; i < frames; i++ {
		write(int16(0))
	}
}

// fakeTranscoder writes a fixed payload to the output path instead of
// running the real codec pipeline, so these tests exercise pool plumbing
// (hash → status → rename) without depending on libopus.
type fakeTranscoder struct {
	fail bool
}

func (f *fakeTranscoder) Transcode(_ context.Context, _, output string) (uint64, error) {
	if f.fail {
		return 0, errFakeTranscode
	}
	payload := []byte("fake-ogg-opus-payload")
	if err := os.WriteFile(output, payload, 0o600); err != nil {
		return 0, err
	}
	return uint64(len(payload)), nil
}

var errFakeTranscode = errors.New("fake transcode failure")

func TestPool_TranscodesAndPublishesReady(t *testing.T) {
	dir := t.TempDir()
	transcodesDir := filepath.Join(dir, "transcodes")
	require.NoError(t, os.MkdirAll(transcodesDir, 0o755))

	src := filepath.Join(dir, "a.wav")
	writeWAV(t, src, 800)

	q := queue.New(domain.PolicyAlways)
	hashes := hashcache.New(store.NewMemoryStore(), testLogger())
	status := statuscache.New()

	pool := New(q, hashes, status, &fakeTranscoder{}, transcodesDir, 2, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	q.Extend([]string{src})

	require.Eventually(t, func() bool {
		return status.Ready() == 1
	}, 2*time.Second, 5*time.Millisecond)

	assert.EqualValues(t, 0, status.Failed())

	hash, err := hashes.GetHash(context.Background(), src)
	require.NoError(t, err)
	st, ok := status.Get(hash)
	require.True(t, ok)
	require.True(t, st.IsReady())
	assert.FileExists(t, st.Ready.OutputPath)

	_, err = os.Stat(filepath.Join(transcodesDir, hash.FileName("tmp")))
	assert.True(t, os.IsNotExist(err), "no .tmp file should survive a successful transcode")
}

func TestPool_PublishesFailedOnTranscodeError(t *testing.T) {
	dir := t.TempDir()
	transcodesDir := filepath.Join(dir, "transcodes")
	require.NoError(t, os.MkdirAll(transcodesDir, 0o755))

	src := filepath.Join(dir, "a.wav")
	writeWAV(t, src, 800)

	q := queue.New(domain.PolicyAlways)
	hashes := hashcache.New(store.NewMemoryStore(), testLogger())
	status := statuscache.New()

	pool := New(q, hashes, status, &fakeTranscoder{fail: true}, transcodesDir, 1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	q.Extend([]string{src})

	require.Eventually(t, func() bool {
		return status.Failed() == 1
	}, 2*time.Second, 5*time.Millisecond)

	assert.EqualValues(t, 0, status.Ready())
}

func TestPool_SkipsTranscodeWhenAlreadyReady(t *testing.T) {
	dir := t.TempDir()
	transcodesDir := filepath.Join(dir, "transcodes")
	require.NoError(t, os.MkdirAll(transcodesDir, 0o755))

	src := filepath.Join(dir, "a.wav")
	writeWAV(t, src, 800)

	hashes := hashcache.New(store.NewMemoryStore(), testLogger())
	hash, err := hashes.GetHash(context.Background(), src)
	require.NoError(t, err)

	status := statuscache.New()
	status.Insert(hash, domain.Ready("/already/there.ogg", 123))

	tc := &fakeTranscoder{}
	q := queue.New(domain.PolicyAlways)
	pool := New(q, hashes, status, tc, transcodesDir, 1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	q.Extend([]string{src})

	time.Sleep(50 * time.Millisecond)

	st, ok := status.Get(hash)
	require.True(t, ok)
	assert.Equal(t, "/already/there.ogg", st.Ready.OutputPath)
}
