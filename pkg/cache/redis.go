package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/rfid-textile/pkg/logger"
)

// Config holds redis connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to redis. It returns a nil client when no address is configured,
// which callers treat as "cache disabled".
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		logger.Logger.Info().Msg("Redis not configured, caching and rate limiting disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	logger.Logger.Info().Str("addr", cfg.Addr).Msg("Connected to Redis")
	return client, nil
}
