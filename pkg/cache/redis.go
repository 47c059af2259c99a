package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rahulvs07/complyark-data-shield/pkg/config"
)

const pingTimeout = 5 * time.Second

// NewRedis dials Redis and verifies the connection with a PING.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     Addr(cfg),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", Addr(cfg), err)
	}

	return client, nil
}

// Addr renders the host:port pair for cfg.
func Addr(cfg config.RedisConfig) string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}
