package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/azinedine/school-manager-api/pkg/errors"
)

type fakeCacheRepo struct {
	entries map[string]string
	getErr  error
	lastTTL time.Duration
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	value, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*string) = value
	return nil
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if f.entries == nil {
		f.entries = make(map[string]string)
	}
	f.entries[key] = value.(string)
	f.lastTTL = ttl
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	f.entries = nil
	return nil
}

func TestCacheServiceGetDistinguishesMissFromFailure(t *testing.T) {
	repo := &fakeCacheRepo{entries: map[string]string{"k": "v"}}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "v", out)

	hit, err = svc.Get(context.Background(), "absent", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	repo.getErr = errors.New("connection refused")
	hit, err = svc.Get(context.Background(), "k", &out)
	require.Error(t, err)
	assert.False(t, hit)
}

func TestCacheServiceSetAppliesDefaultTTL(t *testing.T) {
	repo := &fakeCacheRepo{}
	svc := NewCacheService(repo, nil, 2*time.Minute, zap.NewNop(), true)

	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	assert.Equal(t, 2*time.Minute, repo.lastTTL)

	require.NoError(t, svc.Set(context.Background(), "k", "v", time.Second))
	assert.Equal(t, time.Second, repo.lastTTL)
}

func TestCacheServiceNilAndDisabledAreNoOps(t *testing.T) {
	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	hit, err := nilSvc.Get(context.Background(), "k", nil)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, nilSvc.Set(context.Background(), "k", "v", 0))
	require.NoError(t, nilSvc.Invalidate(context.Background(), "k:*"))

	disabled := NewCacheService(&fakeCacheRepo{}, nil, 0, nil, false)
	assert.False(t, disabled.Enabled())
	hit, err = disabled.Get(context.Background(), "k", nil)
	require.NoError(t, err)
	assert.False(t, hit)
}
