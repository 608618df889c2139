package cache

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"go_netinv/internal/util"
)

// Client is the process-wide redis client; nil when redis is disabled
var Client *redis.Client

// InitRedis initializes Redis connection. An empty addr leaves redis disabled.
func InitRedis(addr, password string, db int) error {
	if addr == "" {
		util.WithComponent("cache").Warn("REDIS_ADDR not set, observation cache and reconcile lock disabled")
		return nil
	}

	Client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := Client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	util.WithComponent("cache").WithField("addr", addr).Info("redis connected")
	return nil
}

// Close closes the Redis connection
func Close() error {
	if Client != nil {
		return Client.Close()
	}
	return nil
}
