package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore instance
func setupTestRedis(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client, opts...)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func TestRedisGet_Success(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set(redisKey("storeCart"), `{"items":[]}`))

	v, err := store.Get(context.Background(), "storeCart")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, v)
}

func TestRedisGet_Miss(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	v, err := store.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, v)
}

func TestRedisSet_NoTTLByDefault(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, store.Set(context.Background(), "storeCart", "payload"))

	got, err := mr.Get(redisKey("storeCart"))
	require.NoError(t, err)
	assert.Equal(t, "payload", got)
	assert.Equal(t, time.Duration(0), mr.TTL(redisKey("storeCart")))
}

func TestRedisSet_WithTTL(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t, WithTTL(15*time.Minute))
	defer cleanup()

	require.NoError(t, store.Set(context.Background(), "storeCart", "payload"))

	ttl := mr.TTL(redisKey("storeCart"))
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.Less(t, ttl, 20*time.Minute)

	mr.FastForward(21 * time.Minute)
	_, err := store.Get(context.Background(), "storeCart")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisDelete(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "storeCart", "payload"))
	require.NoError(t, store.Delete(ctx, "storeCart"))
	assert.False(t, mr.Exists(redisKey("storeCart")))

	require.NoError(t, store.Delete(ctx, "storeCart"))
}

func TestRedis_ServerDown(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Close()

	_, err := store.Get(context.Background(), "storeCart")
	require.ErrorContains(t, err, "redis get failed")
	assert.NotErrorIs(t, err, ErrNotFound)

	err = store.Set(context.Background(), "storeCart", "x")
	require.ErrorContains(t, err, "redis set failed")
}
