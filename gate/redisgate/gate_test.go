package redisgate_test

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devlongs/solesub/gate/redisgate"
)

// Runs against a live server only when SOLESUB_TEST_REDIS_ADDR is set.
func newGate(t *testing.T) *redisgate.Gate {
	t.Helper()
	addr := os.Getenv("SOLESUB_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SOLESUB_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	prefix := "solesub:test:" + t.Name() + ":"
	ctx := context.Background()
	t.Cleanup(func() { rdb.Del(ctx, prefix+"admins", prefix+"paused") })

	return redisgate.New(rdb, prefix)
}

func TestRedisGateAdmins(t *testing.T) {
	g := newGate(t)
	ctx := context.Background()

	require.NoError(t, g.Grant(ctx, "root", "ops"))
	ok, err := g.IsAdmin(ctx, "ops")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, g.Revoke(ctx, "ops"))
	ok, err = g.IsAdmin(ctx, "ops")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisGatePause(t *testing.T) {
	g := newGate(t)
	ctx := context.Background()

	paused, err := g.IsPaused(ctx)
	require.NoError(t, err)
	assert.False(t, paused)

	require.NoError(t, g.SetPaused(ctx, true))
	paused, err = g.IsPaused(ctx)
	require.NoError(t, err)
	assert.True(t, paused)
}
