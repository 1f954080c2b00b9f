package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceCache_GetRespectsNotBefore(t *testing.T) {
	ctx := context.Background()
	c := NewSourceCache()
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, c.Put(ctx, "easyeda", "C2040", []byte(`{"a":1}`), at))

	got, ok, err := c.Get(ctx, "easyeda", "C2040", at.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(got))

	_, ok, err = c.Get(ctx, "easyeda", "C2040", at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "entry older than notBefore is a miss")

	_, ok, _ = c.Get(ctx, "jlcpcb", "C2040", at.Add(-time.Hour))
	assert.False(t, ok, "entries are keyed by source")
}

func TestSourceCache_Purge(t *testing.T) {
	ctx := context.Background()
	c := NewSourceCache()
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, c.Put(ctx, "easyeda", "C1", []byte("x"), old))
	require.NoError(t, c.Put(ctx, "easyeda", "C2", []byte("y"), old.Add(48*time.Hour)))

	n, err := c.Purge(ctx, old.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, c.Len())
	assert.NoError(t, c.Close())
}
