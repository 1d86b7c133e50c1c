// Package redis connects the snapshot cache.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"conquest-server/internal/shared/config"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

type Client struct {
	*redis.Client
}

// Options turns the cache settings into client options. REDIS_URL, when
// set, overrides host, port, password and DB.
func Options(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		return opts, nil
	}

	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  pingTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     4,
	}, nil
}

// Connect dials the cache from GlobalConfig. It returns a nil client when
// the cache is disabled.
func Connect() (*Client, error) {
	return Dial(context.Background(), config.GlobalConfig.Redis)
}

func Dial(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	logger := slog.With("component", "redis", "operation", "dial")

	if !cfg.Enabled {
		logger.Info("Redis disabled, snapshots are read from the database only")
		return nil, nil
	}

	opts, err := Options(cfg)
	if err != nil {
		logger.Error("Invalid Redis settings", "error", err)
		return nil, err
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		logger.Error("Failed to ping Redis", "addr", opts.Addr, "error", err)
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("Snapshot cache connected", "addr", opts.Addr, "db", opts.DB, "ttl", cfg.CacheTTL)
	return &Client{rdb}, nil
}

func (c *Client) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
