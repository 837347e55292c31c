package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/lingoforge/authoring-service/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects the signed-URL cache. Every media preview resolves
// through it, so reads get a short deadline instead of stalling the request.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	opt.PoolSize = 20
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 500 * time.Millisecond
	opt.WriteTimeout = time.Second

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return client, nil
}
