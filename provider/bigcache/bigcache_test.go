package bigcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBigCacheProvider(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{LifeWindow: time.Minute, MaxEntriesInWindow: 100, MaxEntrySize: 256})
	require.NoError(t, err)
	defer p.Close(ctx)

	_, hit, err := p.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, hit)

	ok, err := p.Set(ctx, "island:ns:k", []byte("payload"), 0, 0)
	require.NoError(t, err)
	require.True(t, ok)

	b, hit, err := p.Get(ctx, "island:ns:k")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []byte("payload"), b)

	require.NoError(t, p.Del(ctx, "island:ns:k"))
	require.NoError(t, p.Del(ctx, "island:ns:k"), "deleting a missing key is not an error")
	_, hit, err = p.Get(ctx, "island:ns:k")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestBigCacheRequiresLifeWindow(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}
