package repository

import (
	"context"
	stderrors "errors"
	"time"

	"visa-locker/internal/common/database"
	"visa-locker/internal/common/errors"
	"visa-locker/internal/locker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the guard only while it still holds our owner id, so
// an expired guard re-taken by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisUploadGuard shares the upload guard between processes with SET NX and
// a TTL that frees guards left by a crashed process.
type RedisUploadGuard struct {
	client redis.UniversalClient
	owner  string
	ttl    time.Duration
}

func NewRedisUploadGuard(rc *database.RedisClient, ttl time.Duration) *RedisUploadGuard {
	return &RedisUploadGuard{client: rc.Client, owner: uuid.New().String(), ttl: ttl}
}

var _ locker.UploadGuard = (*RedisUploadGuard)(nil)

func (g *RedisUploadGuard) TryAcquire(ctx context.Context, token, field string) (bool, error) {
	ok, err := g.client.SetNX(ctx, locker.GuardKey(token, field), g.owner, g.ttl).Result()
	if err != nil {
		return false, errors.NewCacheFailedError("acquire_upload_guard", err)
	}
	return ok, nil
}

func (g *RedisUploadGuard) Release(ctx context.Context, token, field string) error {
	if err := releaseScript.Run(ctx, g.client, []string{locker.GuardKey(token, field)}, g.owner).Err(); err != nil && !stderrors.Is(err, redis.Nil) {
		return errors.NewCacheFailedError("release_upload_guard", err)
	}
	return nil
}
