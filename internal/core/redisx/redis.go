// Package redisx wraps the shared Redis client used for cross-instance rate limiting.
package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	RDB    *redis.Client
	prefix string
	now    func() time.Time
}

func New(addr, pass string, db int) *Client {
	return &Client{
		RDB:    redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		prefix: "shop:rl:",
		now:    time.Now,
	}
}

func (c *Client) Ping(ctx context.Context) error { return c.RDB.Ping(ctx).Err() }

func (c *Client) Close() error { return c.RDB.Close() }

// Hit 固定窗口计数：key 按窗口序号分桶，返回当前窗口内的累计次数
func (c *Client) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if window <= 0 {
		window = time.Second
	}
	k := c.slotKey(key, window)

	pipe := c.RDB.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *Client) slotKey(key string, window time.Duration) string {
	return fmt.Sprintf("%s%s:%d", c.prefix, key, c.now().UnixNano()/int64(window))
}
