package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"payrelay/pkg/models"
)

// Client wraps the shared Redis store with the queue and scored-set
// primitives the repository builds on. The store is responsible for its own
// concurrency control; no in-process locking is applied around calls.
type Client struct {
	rdb *redis.Client
}

func NewClient(addr string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// PushQueue pushes raw bytes onto the queue's "in" end.
func (c *Client) PushQueue(ctx context.Context, key string, raw []byte) error {
	if err := c.rdb.LPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("push queue: %w", err)
	}
	return nil
}

// PopQueue pops from the opposite end from push, giving FIFO order.
func (c *Client) PopQueue(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.rdb.RPop(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, models.ErrQueueEmpty
		}
		return nil, fmt.Errorf("pop queue: %w", err)
	}
	return raw, nil
}

func (c *Client) AddSorted(ctx context.Context, key, member string, score float64) error {
	err := c.rdb.ZAdd(ctx, key, &redis.Z{Score: score, Member: member}).Err()
	if err != nil {
		return fmt.Errorf("add to sorted set: %w", err)
	}
	return nil
}

func (c *Client) RangeByScore(ctx context.Context, key string, min, max int64) ([]string, error) {
	members, err := c.rdb.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatInt(min, 10),
		Max: strconv.FormatInt(max, 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("range by score: %w", err)
	}
	return members, nil
}

func (c *Client) QueueLen(ctx context.Context, key string) (int64, error) {
	length, err := c.rdb.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue length: %w", err)
	}
	return length, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	return nil
}
