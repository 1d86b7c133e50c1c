package game

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"conquest-server/internal/shared/config"
)

// CommandLimiter throttles commands per player.
type CommandLimiter struct {
	config  config.RateLimitConfig
	players map[string]*rate.Limiter
	mu      sync.RWMutex
	done    chan struct{}
	once    sync.Once
}

func NewCommandLimiter(cfg config.RateLimitConfig) *CommandLimiter {
	cl := &CommandLimiter{
		config:  cfg,
		players: make(map[string]*rate.Limiter),
		done:    make(chan struct{}),
	}

	if cfg.Enabled {
		go cl.cleanupPlayers()
	}

	return cl
}

// Allow reports whether userID may issue another command now. A nil or
// disabled limiter allows everything.
func (cl *CommandLimiter) Allow(userID string) bool {
	if cl == nil || !cl.config.Enabled {
		return true
	}
	return cl.getLimiter(userID).Allow()
}

func (cl *CommandLimiter) getLimiter(userID string) *rate.Limiter {
	cl.mu.RLock()
	limiter, exists := cl.players[userID]
	cl.mu.RUnlock()

	if exists {
		return limiter
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if limiter, exists = cl.players[userID]; !exists {
		limiter = rate.NewLimiter(rate.Limit(cl.config.CommandsPerSecond), cl.config.BurstSize)
		cl.players[userID] = limiter
	}
	return limiter
}

func (cl *CommandLimiter) cleanupPlayers() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			cl.mu.Lock()
			// a full bucket means the player has been idle
			for id, limiter := range cl.players {
				if limiter.TokensAt(time.Now()) >= float64(cl.config.BurstSize) {
					delete(cl.players, id)
				}
			}
			cl.mu.Unlock()
		}
	}
}

// Close stops the cleanup goroutine.
func (cl *CommandLimiter) Close() {
	if cl == nil {
		return
	}
	cl.once.Do(func() { close(cl.done) })
}
