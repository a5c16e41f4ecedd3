package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore handles the transport-level concerns that sit in front of a
// turn: per-chat rate limiting and duplicate-delivery suppression. The
// conversational core never reads from Redis; chat history stays in the
// durable store only.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// turnLimitKey returns the key for a chat's turn counter.
func turnLimitKey(chatID string) string {
	return fmt.Sprintf("turnlimit:%s", chatID)
}

// updateKey returns the key marking a delivered update.
func updateKey(chatID, messageID string) string {
	return fmt.Sprintf("update:%s:%s", chatID, messageID)
}

// AllowTurn checks whether the chat is under its turn rate limit and
// counts the current turn. The window is a fixed TTL window.
func (s *RedisStore) AllowTurn(ctx context.Context, chatID string, limit int, window time.Duration) (bool, error) {
	key := turnLimitKey(chatID)

	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return incr.Val() <= int64(limit), nil
}

// SeenUpdate marks an update as delivered and reports whether it was
// already seen. Redelivered transport updates are dropped on true.
func (s *RedisStore) SeenUpdate(ctx context.Context, chatID, messageID string, ttl time.Duration) (bool, error) {
	set, err := s.client.SetNX(ctx, updateKey(chatID, messageID), "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}
