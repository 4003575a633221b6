package corporation

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"
	"time"

	"onboarding-workers/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_Expiry(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := cache.Find(ctx, "123456789")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Save(ctx, "123456789", true))
	valid, err := cache.Find(ctx, "123456789")
	require.NoError(t, err)
	assert.True(t, valid)

	now = now.Add(59 * time.Minute)
	_, err = cache.Find(ctx, "123456789")
	assert.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = cache.Find(ctx, "123456789")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryCache_SaveSweepsExpired(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, "111111111", true))
	now = now.Add(30 * time.Minute)
	require.NoError(t, cache.Save(ctx, "222222222", false))
	assert.Equal(t, 2, cache.Len())

	// Nothing looks up the first two numbers again; the next sweep still drops them.
	now = now.Add(90 * time.Minute)
	require.NoError(t, cache.Save(ctx, "333333333", true))
	assert.Equal(t, 1, cache.Len())

	valid, err := cache.Find(ctx, "333333333")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestMemoryCache_ZeroTTLDisablesCaching(t *testing.T) {
	cache := NewMemoryCache(0)
	require.NoError(t, cache.Save(context.Background(), "123456789", true))
	assert.Equal(t, 0, cache.Len())
}

func TestRedisCache_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cache := NewRedisCache(rdb, time.Hour)
	ctx := context.Background()

	_, err := cache.Find(ctx, "123456789")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Save(ctx, "123456789", false))
	assert.True(t, mr.Exists("corporation-number:123456789"))
	assert.Equal(t, time.Hour, mr.TTL("corporation-number:123456789"))

	valid, err := cache.Find(ctx, "123456789")
	require.NoError(t, err)
	assert.False(t, valid)

	mr.FastForward(time.Hour)
	_, err = cache.Find(ctx, "123456789")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	require.NoError(t, mr.Set("corporation-number:123456789", "{"))

	_, err := NewRedisCache(rdb, time.Hour).Find(context.Background(), "123456789")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestClient_WithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	srv := newRegistryServer(t, respond(http.StatusOK, `{"valid":true}`))
	client := newTestClient(t, srv.URL, NewRedisCache(rdb, time.Hour))

	for i := 0; i < 2; i++ {
		valid, err := client.CheckCorporationNumber(context.Background(), "123456789")
		require.NoError(t, err)
		assert.True(t, valid)
	}
	assert.Equal(t, int32(1), srv.hits.Load())
}

func TestClient_RedisFailureDegradesToLookup(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("corporation-number:123456789").SetErr(stderrors.New("connection reset"))
	mock.Regexp().ExpectSet("corporation-number:123456789", `.*`, time.Hour).SetErr(stderrors.New("connection reset"))

	srv := newRegistryServer(t, respond(http.StatusOK, `{"valid":true}`))
	client := NewClient(
		Config{BaseURL: srv.URL, Timeout: time.Second},
		Dependencies{Cache: NewRedisCache(rdb, time.Hour), Logger: logger.NewTestLogger(t)},
	)

	valid, err := client.CheckCorporationNumber(context.Background(), "123456789")
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, int32(1), srv.hits.Load())
	assert.NoError(t, mock.ExpectationsWereMet())
}
