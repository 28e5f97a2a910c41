package database

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the go-redis client used by the backend repositories
type RedisClient struct{ *redis.Client }

// NewRedis creates a client; it does not connect until first use
func NewRedis(addr, pass string, db int) *RedisClient {
	return &RedisClient{redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

// Ping checks the connection
func (c *RedisClient) Ping(ctx context.Context) error { return c.Client.Ping(ctx).Err() }
