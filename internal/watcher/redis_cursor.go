package watcher

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const cursorKey = "bridge:deposit_cursor:v1"

// RedisCursor stores the deposit cursor in Redis with no expiry.
type RedisCursor struct {
	client *redis.Client
}

// NewRedisCursor builds a Redis-backed cursor store.
func NewRedisCursor(client *redis.Client) *RedisCursor {
	return &RedisCursor{client: client}
}

// Load fetches the stored block number, returning 0 when the key is absent.
func (c *RedisCursor) Load(ctx context.Context) (uint64, error) {
	val, err := c.client.Get(ctx, cursorKey).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load cursor: %w", err)
	}
	block, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cursor %q: %w", val, err)
	}
	return block, nil
}

// Save writes the block number.
func (c *RedisCursor) Save(ctx context.Context, block uint64) error {
	if err := c.client.Set(ctx, cursorKey, strconv.FormatUint(block, 10), 0).Err(); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}
