package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()
	key := c.GenerateKey("idempotency", uuid.NewString())

	v, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "", v)

	ok, err := c.SetNX(ctx, key, "pending", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, key, "other", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, "order-1", time.Minute))
	v, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "order-1", v)

	require.NoError(t, c.Delete(ctx, key))
	v, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestMemory(t *testing.T) {
	exerciseCache(t, NewMemory("order-service"))
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory("order-service")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	ctx := context.Background()
	ok, err := m.SetNX(ctx, "k", "v", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	ok, err = m.SetNX(ctx, "k", "v2", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "order-service:idempotency:u1:abc", NewMemory("order-service").GenerateKey("idempotency", "u1:abc"))
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("ORDER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ORDER_TEST_REDIS_ADDR not set")
	}
	exerciseCache(t, NewRedisCache(addr, "order-service-test"))
}
