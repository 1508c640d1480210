package redisx

import (
	"context"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"time"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Claim sets key only if it is absent; false means someone got there first.
func Claim(ctx context.Context, rdb redis.Cmdable, key, value string, ttl time.Duration) (bool, error) {
	ok, err := rdb.SetNX(ctx, key, value, ttl).Result()
	return ok, errors.Wrap(err, "redisx: setnx")
}

// Lookup returns the stored value and whether it exists.
func Lookup(ctx context.Context, rdb redis.Cmdable, key string) (string, bool, error) {
	v, err := rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "redisx: get")
	}
	return v, true, nil
}
