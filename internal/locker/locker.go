// Package locker serializes transitions per audit across service instances.
// The lock is an optimization that avoids doing guard work destined to lose a
// race; the storage layer's version check remains the authoritative conflict
// detector.
package locker

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"cedrus/internal/platform/redis"
	"cedrus/pkg/platform/sentinel"
)

// Locker acquires a short-lived exclusive lock for one audit.
type Locker interface {
	// Acquire returns a release function, or sentinel.ErrConflict when
	// another transition currently holds the audit.
	Acquire(ctx context.Context, auditID uuid.UUID) (release func(), err error)
}

// RedisLocker implements Locker with SET NX and a TTL so a crashed holder
// cannot wedge the audit.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, auditID uuid.UUID) (func(), error) {
	key := "cedrus:transition-lock:" + auditID.String()
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sentinel.ErrConflict
	}

	release := func() {
		// Release only our own lock; an expired lock may already belong to
		// someone else.
		_ = releaseScript.Run(context.Background(), l.client, []string{key}, token).Err()
	}
	return release, nil
}

var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// NopLocker is used when Redis is not configured. Conflicts then surface
// only through the storage version check.
type NopLocker struct{}

func (NopLocker) Acquire(_ context.Context, _ uuid.UUID) (func(), error) {
	return func() {}, nil
}
