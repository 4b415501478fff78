package lock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Redis is a Locker shared by every API instance pointing at the same
// redis server.
type Redis struct {
	client *redislock.Client
}

func NewRedis(rdb redis.UniversalClient) *Redis {
	return &Redis{client: redislock.New(rdb)}
}

func (r *Redis) Obtain(ctx context.Context, key string, ttl time.Duration) (Releaser, error) {
	l, err := r.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Connect pings the server before handing out a client, so a bad address
// fails at startup rather than on the first request.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
