package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

var releaseScript = goredis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

type redisLocker struct {
	rdb    goredis.UniversalClient
	prefix string
}

func NewRedis(rdb goredis.UniversalClient, prefix string) Locker {
	if prefix == "" {
		prefix = "lock:"
	}
	return &redisLocker{rdb: rdb, prefix: prefix}
}

func (r *redisLocker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (Lease, error) {
	token := uuid.New().String()
	ok, err := r.rdb.SetNX(ctx, r.prefix+name, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock acquire %s: %w", name, err)
	}
	if !ok {
		return nil, ErrHeld
	}
	return &lease{name: name, token: token, release: r.release}, nil
}

func (r *redisLocker) release(ctx context.Context, name, token string) error {
	if err := releaseScript.Run(ctx, r.rdb, []string{r.prefix + name}, token).Err(); err != nil {
		return fmt.Errorf("lock release %s: %w", name, err)
	}
	return nil
}
