package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/storefront/pkg/config"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"reachable", "redis://" + mr.Addr(), false},
		{"invalid url", "not-a-valid-url", true},
		{"unreachable host", "redis://127.0.0.1:1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := NewRedisClient(&config.Config{RedisURL: tt.url})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = rc.Close() })
			assert.NotNil(t, rc.Client())
			assert.Equal(t, redisPoolSize, rc.Client().Options().PoolSize)
		})
	}
}

func TestRedisClient_PingReportsOutage(t *testing.T) {
	rc, mr := setupMiniredis(t)
	require.NoError(t, rc.Ping(context.Background()))

	mr.Close()
	assert.Error(t, rc.Ping(context.Background()))
}

func TestRedisClient_CloseWithoutClient(t *testing.T) {
	assert.NoError(t, (&RedisClient{}).Close())
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions("redis://:secret@cache:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, redisPoolSize, opts.PoolSize)
	assert.Equal(t, time.Second, opts.ReadTimeout)
}
