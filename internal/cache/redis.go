package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "mosque-times:"
	redisTTL       = 7 * 24 * time.Hour
	redisTimeout   = 2 * time.Second
)

// RedisBackend shares cached documents between hosts, e.g. several lobby
// screens of the same mosque.
type RedisBackend struct {
	rdb *redis.Client
}

// NewRedisBackend connects to addr and verifies the connection.
func NewRedisBackend(addr, username, password string, db int) (*RedisBackend, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("cannot reach redis at %s: %w", addr, err)
	}

	return &RedisBackend{rdb: rdb}, nil
}

// Get reads the entry for key.
func (r *RedisBackend) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	data, err := r.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Put writes the entry for key with a one-week expiry.
func (r *RedisBackend) Put(key string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := r.rdb.Set(ctx, redisKeyPrefix+key, data, redisTTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (r *RedisBackend) Close() error {
	return r.rdb.Close()
}
