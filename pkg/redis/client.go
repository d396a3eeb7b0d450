// Package redis is a thin wrapper over go-redis used by the telemetry
// sink and the optional command bridge: HSET+PUBLISH of decoded samples,
// and BRPOP-based draining of an inbound command list.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Client wraps a go-redis client with the narrow set of operations the
// telemetry package needs.
type Client struct {
	client *goredis.Client
	ctx    context.Context
}

// New connects to addr and pings it, failing fast if Redis is unreachable.
func New(addr, password string, db int) (*Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: connect %s: %w", addr, err)
	}

	return &Client{client: client, ctx: ctx}, nil
}

// WriteAndPublishHex HSETs field to the hex encoding of value under key and
// PUBLISHes "field:hexvalue" on the same key, in a single pipeline, so a
// sample is both queryable as hash state and observable as a live event.
func (c *Client) WriteAndPublishHex(key, field string, value []byte) error {
	hexVal := fmt.Sprintf("%x", value)
	pipe := c.client.Pipeline()
	pipe.HSet(c.ctx, key, field, hexVal)
	pipe.Publish(c.ctx, key, fmt.Sprintf("%s:%s", field, hexVal))
	_, err := pipe.Exec(c.ctx)
	return err
}

// Publish publishes message on channel.
func (c *Client) Publish(channel, message string) error {
	return c.client.Publish(c.ctx, channel, message).Err()
}

// Subscribe subscribes to channel and returns a message channel plus a
// close function to unsubscribe.
func (c *Client) Subscribe(channel string) (<-chan *goredis.Message, func()) {
	pubsub := c.client.Subscribe(c.ctx, channel)
	return pubsub.Channel(), func() { pubsub.Close() }
}

// BRPop blocks up to timeout (0 blocks indefinitely) waiting for a value on
// key's list, returning [key, value] on success and (nil, nil) on timeout.
func (c *Client) BRPop(timeout time.Duration, key string) ([]string, error) {
	result, err := c.client.BRPop(c.ctx, timeout, key).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: brpop %s: %w", key, err)
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("redis: brpop %s: unexpected result %v", key, result)
	}
	return result, nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	return c.client.Close()
}
