package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryTokenCache()
	c.now = func() time.Time { return now }

	tok := CachedToken{TokenID: "tok_1", WorkspaceID: "ws_1", RateLimit: 600, KeyDigest: "abc"}
	require.NoError(t, c.Set(ctx, "partial1", tok, time.Minute))

	got, ok, err := c.Get(ctx, "partial1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tok, *got)

	t.Run("expire removes entries", func(t *testing.T) {
		require.NoError(t, c.Expire(ctx, "partial1", "unknown"))
		_, ok, err := c.Get(ctx, "partial1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ttl elapses", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "partial2", tok, time.Minute))
		now = now.Add(time.Minute)
		_, ok, err := c.Get(ctx, "partial2")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
