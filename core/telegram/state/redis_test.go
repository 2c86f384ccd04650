package state

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRedis connects to REDIS_ADDR (default localhost:6379) and skips when unreachable.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("skipping integration test: Redis not reachable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisManagerLifecycle(t *testing.T) {
	client := testRedis(t)
	ctx := context.Background()
	prefix := "furnibot:test:" + t.Name() + ":"
	m := NewRedisManager(client, prefix, time.Minute)
	t.Cleanup(func() { _ = m.Clear(ctx, 9) })

	_, err := m.Load(ctx, 9)
	assert.ErrorIs(t, err, ErrNoSession)

	s := NewSession("consultation", "consultation.waiting_for_phone")
	s.Set("name", "Анна")
	require.NoError(t, m.Save(ctx, 9, s))

	got, err := m.Load(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	ttl, err := client.TTL(ctx, prefix+"9").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, m.Clear(ctx, 9))
	_, err = m.Load(ctx, 9)
	assert.ErrorIs(t, err, ErrNoSession)
}
