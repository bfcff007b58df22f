package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client wraps the go-redis client with the key prefix of this deployment.
type Client struct {
	*redis.Client
	prefix string
}

// Open creates a new Redis client and pings it to validate the connection.
func Open(ctx context.Context, addr, password string, db int, prefix string) (*Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("empty redis addr")
	}
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Client{Client: c, prefix: prefix}, nil
}

// Key namespaces key under the client prefix
func (c *Client) Key(key string) string {
	return PrefixedKey(c.prefix, key)
}

func PrefixedKey(prefix, key string) string {
	return prefix + key
}

// IsNil reports a missing key
func IsNil(err error) bool {
	return err == redis.Nil
}
