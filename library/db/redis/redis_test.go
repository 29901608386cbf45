package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, KeyTagHistogram, []string{"go"}))
	var got []string
	ok, err := c.GetJSON(ctx, KeyTagHistogram, &got)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, got)
	require.NoError(t, c.Delete(ctx, KeyTagHistogram, KeyCategoryCountsAll))
}

func TestNewDBDefaults(t *testing.T) {
	d := NewDB(&redis.Options{Addr: "127.0.0.1:0"}, 0)
	t.Cleanup(func() { _ = d.Close() })

	require.Equal(t, defaultTTL, d.ttl)
	require.Equal(t, "blog/posts/tags", fullKey(KeyTagHistogram))

	d2 := NewDB(&redis.Options{Addr: "127.0.0.1:0"}, time.Minute)
	t.Cleanup(func() { _ = d2.Close() })
	require.Equal(t, time.Minute, d2.ttl)

	// no round trip when nothing to delete
	require.NoError(t, d.Delete(context.Background()))
}
