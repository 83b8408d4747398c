//go:build integration

package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/wellness_hub/internal/testinfra"
)

func TestRedisPresence(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: testinfra.StartRedis(t)})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())

	nodeA := NewRedisPresence(rdb, time.Minute)
	nodeB := NewRedisPresence(rdb, time.Minute)

	require.NoError(t, nodeA.Connect(ctx, 1))
	require.NoError(t, nodeB.Connect(ctx, 1))
	require.NoError(t, nodeA.Connect(ctx, 2))

	online, err := nodeB.OnlineUsers(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{1: true, 2: true, 3: false}, online)

	require.NoError(t, nodeA.Disconnect(ctx, 1))
	require.NoError(t, nodeA.Disconnect(ctx, 2))
	online, err = nodeA.OnlineUsers(ctx, []int64{1, 2})
	require.NoError(t, err)
	assert.True(t, online[1], "second node still holds a socket")
	assert.False(t, online[2])

	exists, err := rdb.Exists(ctx, presenceKey(2)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	require.NoError(t, nodeB.Refresh(ctx, 1))
	ttl, err := rdb.TTL(ctx, presenceKey(1)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 30*time.Second)
}
