package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisTimeout = 5 * time.Second

// RedisOptions configures the Redis connection behind RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// OpenRedis connects to Redis and pings it.
func OpenRedis(opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

// RedisStore persists a collection as one JSON array value under key.
type RedisStore[T any] struct {
	client *redis.Client
	key    string
}

// NewRedisStore returns a RedisStore writing to key.
func NewRedisStore[T any](client *redis.Client, key string) *RedisStore[T] {
	return &RedisStore[T]{client: client, key: key}
}

// Key returns the Redis key holding the collection.
func (s *RedisStore[T]) Key() string {
	return s.key
}

// Load reads the key. A missing key loads as empty.
func (s *RedisStore[T]) Load() ([]T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return records, nil
}

// Save overwrites the key with records.
func (s *RedisStore[T]) Save(records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	return s.client.Set(ctx, s.key, data, 0).Err()
}
