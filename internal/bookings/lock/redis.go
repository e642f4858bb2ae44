package lock

import (
	"context"
	"fmt"
	"time"

	bookingserrors "facilitybook/internal/bookings/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "facilitybook:lock:"

// releaseScript deletes the key only while it still carries our token, so an
// expired holder can never release a lock that someone else now owns.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client redis.UniversalClient
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	token := uuid.NewString()
	redisKey := redisKeyPrefix + key

	ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis SETNX failed: %w", err)
	}
	if !ok {
		return nil, bookingserrors.ErrLockBusy
	}

	return &redisLease{client: l.client, key: redisKey, token: token}, nil
}

type redisLease struct {
	client redis.UniversalClient
	key    string
	token  string
}

func (r *redisLease) Release(ctx context.Context) error {
	deleted, err := releaseScript.Run(ctx, r.client, []string{r.key}, r.token).Int()
	if err != nil {
		return fmt.Errorf("redis release failed: %w", err)
	}
	if deleted == 0 {
		return bookingserrors.ErrLockLost
	}
	return nil
}
