package redis

import (
	"context"
	"testing"
	"time"

	"github.com/forkline/forkline-backend/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:        map[string]string{},
		incr:        map[string]int64{},
		expireCalls: map[string]time.Duration{},
	}
}

func (m *mockCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = value.(string)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	val, ok := m.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if _, exists := m.data[key]; exists {
		cmd.SetVal(false)
		return cmd
	}
	m.data[key] = value.(string)
	cmd.SetVal(true)
	return cmd
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(m.incr[key])
	return cmd
}

func (m *mockCmdable) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.expireCalls[key] = ttl
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			delete(m.data, key)
			removed++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

func TestFixedWindowAllow(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{store: mock}
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "orders:user:abc", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, i, count)
	}

	allowed, count, err := client.FixedWindowAllow(ctx, "orders:user:abc", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(6), count)

	// TTL is only set on the first increment of the window.
	assert.Equal(t, time.Minute, mock.expireCalls[client.RateLimitKey("orders:user:abc")])
	assert.Len(t, mock.expireCalls, 1)
}

func TestSetNXIdempotency(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{store: mock}
	ctx := context.Background()

	key := client.IdempotencyKey("orders", "req-123")
	first, err := client.SetNX(ctx, key, "held", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := client.SetNX(ctx, key, "held", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}

	assert.Equal(t, "fl:rate_limit:orders:ip:10.0.0.1", client.RateLimitKey("orders:ip:10.0.0.1"))
	assert.Equal(t, "fl:idempotency:orders:req-1", client.IdempotencyKey("orders", "req-1"))
}

func TestNilClientIsSafeToClose(t *testing.T) {
	var client *Client

	require.NoError(t, client.Close())
	require.Error(t, client.Ping(context.Background()))
}

func TestOptionsFromConfig(t *testing.T) {
	t.Run("from url", func(t *testing.T) {
		opts, err := optionsFromConfig(config.RedisConfig{
			URL:      "redis://:secret@cache.internal:6380/2",
			PoolSize: 20,
		})
		require.NoError(t, err)
		assert.Equal(t, "cache.internal:6380", opts.Addr)
		assert.Equal(t, "secret", opts.Password)
		assert.Equal(t, 2, opts.DB)
		assert.Equal(t, 20, opts.PoolSize)
	})

	t.Run("from address", func(t *testing.T) {
		opts, err := optionsFromConfig(config.RedisConfig{
			Address:  "localhost:6379",
			Password: "pw",
			DB:       1,
		})
		require.NoError(t, err)
		assert.Equal(t, "localhost:6379", opts.Addr)
		assert.Equal(t, "pw", opts.Password)
		assert.Equal(t, 1, opts.DB)
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := optionsFromConfig(config.RedisConfig{})
		require.Error(t, err)
	})
}
