package statuscache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractalbeauty/musicopy/internal/domain"
)

func hashN(n byte) domain.ContentHash {
	var h domain.ContentHash
	h.Kind = domain.HashKindXXH3
	h.Bytes[0] = n
	return h
}

func TestStatusCache_InsertAndGet(t *testing.T) {
	c := New()
	h := hashN(1)

	c.Insert(h, domain.Ready("/tmp/x.ogg", 1234))

	got, ok := c.Get(h)
	require.True(t, ok)
	assert.True(t, got.IsReady())
	assert.EqualValues(t, 1, c.Ready())
	assert.EqualValues(t, 0, c.Failed())
}

func TestStatusCache_ReplaceTransitionsCounters(t *testing.T) {
	c := New()
	h := hashN(2)

	c.Insert(h, domain.Ready("/tmp/a.ogg", 10))
	assert.EqualValues(t, 1, c.Ready())

	c.Insert(h, domain.Failed(errors.New("boom")))
	assert.EqualValues(t, 0, c.Ready())
	assert.EqualValues(t, 1, c.Failed())
}

func TestStatusCache_CountersEqualExactSize(t *testing.T) {
	c := New()
	for i := byte(0); i < 10; i++ {
		if i%2 == 0 {
			c.Insert(hashN(i), domain.Ready("/tmp/x", 1))
		} else {
			c.Insert(hashN(i), domain.Failed(errors.New("x")))
		}
	}

	assert.EqualValues(t, c.Len(), c.Ready()+c.Failed())
	assert.EqualValues(t, 5, c.Ready())
	assert.EqualValues(t, 5, c.Failed())
}

func TestStatusCache_RetainDropsAndDecrements(t *testing.T) {
	c := New()
	keep := hashN(1)
	drop := hashN(2)

	c.Insert(keep, domain.Ready("/tmp/keep.ogg", 1))
	c.Insert(drop, domain.Ready("/tmp/drop.ogg", 1))

	var droppedPaths []string
	c.Retain(func(h domain.ContentHash, _ domain.TranscodeStatus) bool {
		return h == keep
	}, func(_ domain.ContentHash, s domain.TranscodeStatus) {
		droppedPaths = append(droppedPaths, s.Ready.OutputPath)
	})

	assert.Equal(t, 1, c.Len())
	assert.EqualValues(t, 1, c.Ready())
	assert.Equal(t, []string{"/tmp/drop.ogg"}, droppedPaths)

	_, ok := c.Get(drop)
	assert.False(t, ok)
}
