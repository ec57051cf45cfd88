package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for the Redis-backed queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string // list key holding pending batch messages
}

// RedisQueue implements Queue on a Redis list. LPUSH publishes, RPOP
// consumes, so messages come off in publish order. The single client is
// shared across the dispatch loop; go-redis pools connections internally,
// so per-message connection churn is avoided.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue connects to Redis and verifies the connection.
func NewRedisQueue(ctx context.Context, cfg *RedisConfig) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisQueue{client: client, key: cfg.Key}, nil
}

// Publish serializes the message and pushes it onto the list.
func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize queue message: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish batch %d: %w", msg.BatchID, err)
	}
	return nil
}

// Pop removes and returns the oldest message, or ErrEmptyQueue.
func (q *RedisQueue) Pop(ctx context.Context) (*Message, error) {
	payload, err := q.client.RPop(ctx, q.key).Bytes()
	if err == redis.Nil {
		return nil, ErrEmptyQueue
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop queue message: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode queue message: %w", err)
	}
	return &msg, nil
}

// Size returns the number of pending messages.
func (q *RedisQueue) Size(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue length: %w", err)
	}
	return n, nil
}

// Close releases the underlying client.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
