// Package streamconsumer implements the Stream Consumer (component F): a
// three-stream, consumer-group poll loop with at-least-once delivery and
// ack-after-process semantics, plus a go-redis/v9-backed realization of
// the Redis-Streams-shaped collaborator interface from spec.md §6.
package streamconsumer

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/meridianlabs/xchain-arbitrage/internal/arbitrage/model"
)

// RedisStreamClient adapts a go-redis/v9 client to model.StreamClient.
type RedisStreamClient struct {
	rdb *redis.Client
}

// NewRedisStreamClient wraps an existing go-redis/v9 client.
func NewRedisStreamClient(rdb *redis.Client) *RedisStreamClient {
	return &RedisStreamClient{rdb: rdb}
}

// CreateConsumerGroup creates group on stream at startID, creating the
// stream itself (MKSTREAM) if it does not yet exist. BUSYGROUP (the
// group already exists) is not an error.
func (c *RedisStreamClient) CreateConsumerGroup(ctx context.Context, stream, group, startID string) error {
	err := c.rdb.XGroupCreateMkStream(ctx, stream, group, startID).Err()
	if err != nil && !isBusyGroup(err) {
		return fmt.Errorf("create consumer group %s/%s: %w", stream, group, err)
	}
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && len(err.Error()) >= 9 && err.Error()[:9] == "BUSYGROUP"
}

// XReadGroup reads up to count pending/new entries across streams for
// group/consumer, blocking up to blockMs milliseconds.
func (c *RedisStreamClient) XReadGroup(ctx context.Context, group, consumer string, streams []string, count int64, blockMs int64) ([]model.StreamMessage, error) {
	args := make([]string, 0, len(streams)*2)
	args = append(args, streams...)
	for range streams {
		args = append(args, ">")
	}

	res, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  args,
		Count:    count,
		Block:    msToDuration(blockMs),
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	var out []model.StreamMessage
	for _, streamResult := range res {
		for _, msg := range streamResult.Messages {
			out = append(out, model.StreamMessage{
				Stream: streamResult.Stream,
				ID:     msg.ID,
				Values: msg.Values,
			})
		}
	}
	return out, nil
}

// XAck acknowledges one or more message ids on stream/group.
func (c *RedisStreamClient) XAck(ctx context.Context, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.rdb.XAck(ctx, stream, group, ids...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

// XAddWithLimit appends payload to stream, approximately trimming the
// stream to cap entries (MAXLEN ~).
func (c *RedisStreamClient) XAddWithLimit(ctx context.Context, stream string, payload map[string]interface{}, cap int64) (string, error) {
	id, err := c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: cap,
		Approx: true,
		Values: payload,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", stream, err)
	}
	return id, nil
}

// Disconnect closes the underlying Redis client.
func (c *RedisStreamClient) Disconnect(ctx context.Context) error {
	return c.rdb.Close()
}

// Get retrieves a string key.
func (c *RedisStreamClient) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}

// Set stores a string key with an optional TTL in milliseconds (0 = no expiry).
func (c *RedisStreamClient) Set(ctx context.Context, key string, value string, ttlMs int64) error {
	return c.rdb.Set(ctx, key, value, msToDuration(ttlMs)).Err()
}

// Del removes a key.
func (c *RedisStreamClient) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// Scan returns keys matching pattern.
func (c *RedisStreamClient) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}
