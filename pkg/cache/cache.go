// Package cache holds the shared Redis client and small JSON helpers over it.
// When Redis is unreachable RDB stays nil and every helper degrades to a miss.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytekstore/bytek/config"
	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

// Connect initialises the Redis client and verifies it with a ping.
func Connect(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		RDB = nil
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	RDB = client
	return nil
}

// Available reports whether a Redis connection was established.
func Available() bool { return RDB != nil }

// Get unmarshals the cached JSON under key into dest.
// Returns true on a hit.
func Get(ctx context.Context, key string, dest interface{}) bool {
	if RDB == nil {
		return false
	}

	val, err := RDB.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(val, dest) == nil
}

// Set stores value as JSON under key for ttl.
func Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return RDB.Set(ctx, key, data, ttl).Err()
}

// Del removes keys.
func Del(ctx context.Context, keys ...string) error {
	if RDB == nil {
		return nil
	}
	return RDB.Del(ctx, keys...).Err()
}

// Remember returns the cached value for key, or calls fn and caches its
// result. Errors from fn are returned and nothing is cached.
func Remember[T any](ctx context.Context, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var out T
	if Get(ctx, key, &out) {
		return out, nil
	}
	out, err := fn()
	if err != nil {
		return out, err
	}
	_ = Set(ctx, key, out, ttl)
	return out, nil
}
