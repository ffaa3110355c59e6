package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visa-locker/internal/common/database"
	"visa-locker/internal/locker"
)

func setupGuard(t *testing.T) (*miniredis.Miniredis, *database.RedisClient) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rc := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { rc.Close() })
	return mr, rc
}

func TestRedisUploadGuard(t *testing.T) {
	mr, rc := setupGuard(t)
	ctx := context.Background()
	g := NewRedisUploadGuard(rc, time.Minute)

	ok, err := g.TryAcquire(ctx, "tok", "passport_image")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists(locker.GuardKey("tok", "passport_image")))

	ok, err = g.TryAcquire(ctx, "tok", "passport_image")
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must fail while held")

	ok, err = g.TryAcquire(ctx, "tok", "photo")
	require.NoError(t, err)
	assert.True(t, ok, "guards are per field")

	require.NoError(t, g.Release(ctx, "tok", "passport_image"))
	assert.False(t, mr.Exists(locker.GuardKey("tok", "passport_image")))

	ok, err = g.TryAcquire(ctx, "tok", "passport_image")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisUploadGuardExpires(t *testing.T) {
	mr, rc := setupGuard(t)
	ctx := context.Background()
	first := NewRedisUploadGuard(rc, 30*time.Second)
	second := NewRedisUploadGuard(rc, 30*time.Second)

	ok, err := first.TryAcquire(ctx, "tok", "photo")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(31 * time.Second)

	ok, err = second.TryAcquire(ctx, "tok", "photo")
	require.NoError(t, err)
	require.True(t, ok, "expired guard is free again")

	// the stale owner must not drop the new owner's guard
	require.NoError(t, first.Release(ctx, "tok", "photo"))
	assert.True(t, mr.Exists(locker.GuardKey("tok", "photo")))

	require.NoError(t, second.Release(ctx, "tok", "photo"))
	assert.False(t, mr.Exists(locker.GuardKey("tok", "photo")))
}

func TestRedisUploadGuardUnavailable(t *testing.T) {
	mr, rc := setupGuard(t)
	mr.Close()

	_, err := NewRedisUploadGuard(rc, time.Minute).TryAcquire(context.Background(), "tok", "photo")
	require.Error(t, err)
}
