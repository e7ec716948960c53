package redis

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/config"
)

// Client aliases the go-redis client so callers depend on this package.
type Client = redis.Client

// NewRedisClient builds a redis client from configuration.
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping verifies connectivity.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// Close closes the client, tolerating nil.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
