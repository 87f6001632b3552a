package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"evconnect/internal/auth/adapter/persistence/redis"
	"evconnect/internal/auth/domain/model"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRevocationList struct {
	mock.Mock
}

func (m *MockRevocationList) Revoke(ctx context.Context, token string) (*model.RevokedToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RevokedToken), args.Error(1)
}

func (m *MockRevocationList) IsRevoked(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockRevocationList) Lookup(ctx context.Context, token string) (*model.RevokedToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RevokedToken), args.Error(1)
}

// fakeRedis implements the two commands the cache issues; any other call panics.
type fakeRedis struct {
	goredis.Cmdable
	values  map[string]string
	ttls    map[string]time.Duration
	failing bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *goredis.StringCmd {
	if f.failing {
		return goredis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := f.values[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	if f.failing {
		return goredis.NewStatusResult("", errors.New("connection refused"))
	}
	f.values[key] = value.(string)
	f.ttls[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

const ttl = 24 * time.Hour

func newCache(t *testing.T) (*redis.CachedRevocationList, *MockRevocationList, *fakeRedis, time.Time) {
	t.Helper()
	store := new(MockRevocationList)
	client := newFakeRedis()
	cache := redis.NewCachedRevocationList(store, client, ttl, "test:revoked:", nil)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cache.SetClock(func() time.Time { return now })
	return cache, store, client, now
}

func TestRevoke_WritesThroughWithRemainingTTL(t *testing.T) {
	cache, store, client, now := newCache(t)
	ctx := context.Background()
	store.On("Revoke", ctx, "tok").Return(&model.RevokedToken{Token: "tok", CreatedAt: now}, nil)

	entry, err := cache.Revoke(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "tok", entry.Token)

	key := cache.Key("tok")
	assert.NotContains(t, key, "tok")
	assert.Equal(t, ttl, client.ttls[key])

	// hit served from redis without touching the store
	revoked, err := cache.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)
	store.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestRevoke_DuplicateNotCached(t *testing.T) {
	cache, store, client, _ := newCache(t)
	ctx := context.Background()
	store.On("Revoke", ctx, "tok").Return(nil, model.ErrTokenAlreadyRevoked)

	_, err := cache.Revoke(ctx, "tok")
	assert.ErrorIs(t, err, model.ErrTokenAlreadyRevoked)
	assert.Empty(t, client.values)
}

func TestLookup_MissFillsCache(t *testing.T) {
	cache, store, client, now := newCache(t)
	ctx := context.Background()
	createdAt := now.Add(-20 * time.Hour)
	store.On("Lookup", ctx, "tok").Return(&model.RevokedToken{Token: "tok", CreatedAt: createdAt}, nil).Once()

	entry, err := cache.Lookup(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, createdAt.Equal(entry.CreatedAt))
	assert.Equal(t, 4*time.Hour, client.ttls[cache.Key("tok")])

	_, err = cache.Lookup(ctx, "tok")
	require.NoError(t, err)
	store.AssertNumberOfCalls(t, "Lookup", 1)
}

func TestIsRevoked_NotRevokedIsNotCached(t *testing.T) {
	cache, store, client, _ := newCache(t)
	ctx := context.Background()
	store.On("Lookup", ctx, "fresh").Return(nil, model.ErrTokenNotRevoked)

	revoked, err := cache.IsRevoked(ctx, "fresh")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Empty(t, client.values)
}

func TestLookup_ExpiredCacheEntryFallsThrough(t *testing.T) {
	cache, store, client, now := newCache(t)
	ctx := context.Background()
	client.values[cache.Key("tok")] = now.Add(-25 * time.Hour).Format(time.RFC3339Nano)
	store.On("Lookup", ctx, "tok").Return(nil, model.ErrTokenNotRevoked)

	revoked, err := cache.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)
	store.AssertExpectations(t)
}

func TestLookup_RedisFailureFallsBackToStore(t *testing.T) {
	cache, store, client, now := newCache(t)
	ctx := context.Background()
	client.failing = true
	store.On("Lookup", ctx, "tok").Return(&model.RevokedToken{Token: "tok", CreatedAt: now}, nil)

	revoked, err := cache.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestIsRevoked_StoreErrorPropagates(t *testing.T) {
	cache, store, _, _ := newCache(t)
	ctx := context.Background()
	boom := errors.New("mongo down")
	store.On("Lookup", ctx, "tok").Return(nil, boom)

	_, err := cache.IsRevoked(ctx, "tok")
	assert.ErrorIs(t, err, boom)
}
