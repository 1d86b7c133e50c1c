package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"conquest-server/internal/snapshot"
)

const latestKeyPrefix = "conquest:snapshot:latest:"

// CachedStore keeps the latest snapshot of every game in redis in front of
// another store. Redis failures are logged and fall through to the store
// behind it. A nil client makes it a plain passthrough.
type CachedStore struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedStore(next Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{next: next, client: client, ttl: ttl, logger: logger}
}

func latestKey(gameID string) string {
	return latestKeyPrefix + gameID
}

func (c *CachedStore) Save(ctx context.Context, s snapshot.Snapshot) error {
	if err := c.next.Save(ctx, s); err != nil {
		return err
	}
	c.remember(ctx, s)
	return nil
}

func (c *CachedStore) Load(ctx context.Context, gameID string, turn int) (snapshot.Snapshot, error) {
	return c.next.Load(ctx, gameID, turn)
}

func (c *CachedStore) Latest(ctx context.Context, gameID string) (snapshot.Snapshot, error) {
	logger := c.logger.With("component", "snapshot_cache", "operation", "latest", "game_id", gameID)

	if c.client != nil {
		data, err := c.client.Get(ctx, latestKey(gameID)).Bytes()
		switch {
		case err == nil:
			var s snapshot.Snapshot
			if err := json.Unmarshal(data, &s); err == nil && s.Verify() == nil {
				logger.Debug("Snapshot served from cache", "turn", s.Turn)
				return s, nil
			}
			logger.Warn("Discarding unreadable cached snapshot")
		case stderrors.Is(err, redis.Nil):
			logger.Debug("Snapshot cache miss")
		default:
			logger.Warn("Failed to read snapshot cache", "error", err)
		}
	}

	s, err := c.next.Latest(ctx, gameID)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	c.remember(ctx, s)
	return s, nil
}

// remember caches s unless a later turn is cached already.
func (c *CachedStore) remember(ctx context.Context, s snapshot.Snapshot) {
	if c.client == nil {
		return
	}
	logger := c.logger.With("component", "snapshot_cache", "operation", "remember", "game_id", s.GameID, "turn", s.Turn)

	if cached, err := c.client.Get(ctx, latestKey(s.GameID)).Bytes(); err == nil {
		var current snapshot.Snapshot
		if json.Unmarshal(cached, &current) == nil && current.Turn > s.Turn {
			return
		}
	}

	data, err := json.Marshal(s)
	if err != nil {
		logger.Warn("Failed to encode snapshot for cache", "error", err)
		return
	}
	if err := c.client.Set(ctx, latestKey(s.GameID), data, c.ttl).Err(); err != nil {
		logger.Warn("Failed to cache snapshot", "error", err)
	}
}
