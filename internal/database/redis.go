package database

import (
	"context"
	"fmt"
	"time"

	"controlos-backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedis opens the client used for per-month operational records. The client is
// returned even when the first ping fails; go-redis reconnects on later calls.
func NewRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return client, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
