// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "evm:mark:"

// RedisStore keeps marks as plain keys set with SETNX. Marks never expire.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the URL and pings it
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	return &RedisStore{client: c}, nil
}

func markKey(m Mark) string {
	return fmt.Sprintf("%s%s:%s:%s", keyPrefix, m.Key.RaceID, m.Key.Seat, m.VoterToken)
}

func (rs *RedisStore) MarkOnce(ctx context.Context, m Mark) (bool, error) {
	ok, err := rs.client.SetNX(ctx, markKey(m), time.Now().UTC().Unix(), 0).Result()
	if err != nil {
		return false, fmt.Errorf("error setting mark: %w", err)
	}
	return ok, nil
}

func (rs *RedisStore) Unmark(ctx context.Context, m Mark) error {
	if err := rs.client.Del(ctx, markKey(m)).Err(); err != nil {
		return fmt.Errorf("error deleting mark: %w", err)
	}
	return nil
}

// Reset scans the race's keys and deletes them in batches
func (rs *RedisStore) Reset(ctx context.Context, raceID string) (int64, error) {
	pattern := keyPrefix + raceID + ":*"

	var cleared int64
	var cursor uint64
	for {
		keys, next, err := rs.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return cleared, fmt.Errorf("error scanning marks: %w", err)
		}
		if len(keys) > 0 {
			n, err := rs.client.Del(ctx, keys...).Result()
			if err != nil {
				return cleared, fmt.Errorf("error deleting marks: %w", err)
			}
			cleared += n
		}
		cursor = next
		if cursor == 0 {
			return cleared, nil
		}
	}
}

func (rs *RedisStore) Close() error {
	if err := rs.client.Close(); err != nil {
		return fmt.Errorf("error closing redis client: %w", err)
	}
	return nil
}
