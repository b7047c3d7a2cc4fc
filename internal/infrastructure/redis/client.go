package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-auth-redis/internal/config"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient parses REDIS_URL and checks the connection before returning.
func NewClient(ctx context.Context, cfg *config.Config) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
