package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"conquest-server/internal/galaxy"
	"conquest-server/internal/game"
	"conquest-server/internal/rng"
	"conquest-server/internal/shared/config"
	"conquest-server/internal/shared/database"
	"conquest-server/internal/shared/errors"
	"conquest-server/internal/shared/logger"
	"conquest-server/internal/shared/redis"
	"conquest-server/internal/shared/telemetry"
	"conquest-server/internal/storage"
)

func main() {
	if err := config.Init(); err != nil {
		log.Fatal("Failed to initialize configuration:", err)
	}
	logger.Init()

	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.GlobalConfig
	logger := slog.With("component", "main", "operation", "run", "game_id", cfg.Game.ID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", "error", err)
		}
	}()

	db, err := database.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	rc, err := redis.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	sqlStore := storage.NewSQLStore(db, slog.Default())
	var store storage.Store = sqlStore
	if rc != nil {
		defer rc.Close()
		store = storage.NewCachedStore(store, rc.Client, cfg.Redis.CacheTTL, slog.Default())
	}

	limiter := game.NewCommandLimiter(cfg.RateLimit)
	scheduler := game.NewScheduler(slog.Default())

	svc, err := game.Restore(ctx, cfg.Game.ID, scheduler, store, limiter, slog.Default())
	switch {
	case errors.Is(err, errors.ErrorTypeNotFound):
		svc, err = newGame(cfg, scheduler, store, limiter)
		if err != nil {
			return err
		}
		svc.Checkpoint(ctx)
	case err != nil:
		return fmt.Errorf("failed to restore game: %w", err)
	default:
		// the restored snapshot is already linked to its predecessor
		if checked, err := sqlStore.Audit(ctx, cfg.Game.ID); err != nil {
			logger.Warn("Snapshot history failed verification", "error", err)
		} else {
			logger.Info("Snapshot history verified", "snapshots", checked)
		}
	}
	defer svc.Close()

	info := svc.Info()
	logger.Info("Turn server started",
		"turn", info.Turn,
		"status", info.Status,
		"turn_interval", cfg.Server.TurnInterval,
	)
	if info.Status == game.GameStatusCompleted {
		logger.Info("Game already finished", "winner", info.Winner)
		return nil
	}

	ticker := time.NewTicker(cfg.Server.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down")
			return nil
		case <-ticker.C:
			summary, err := svc.ResolveIfDue(ctx, cfg.Server.TurnInterval)
			if err != nil {
				return fmt.Errorf("failed to resolve turn: %w", err)
			}
			if summary == nil {
				continue
			}
			if info := svc.Info(); info.Status == game.GameStatusCompleted {
				logger.Info("Game finished", "turn", info.Turn, "winner", info.Winner)
				return nil
			}
		}
	}
}

func newGame(cfg *config.Config, scheduler *game.Scheduler, store game.Store, limiter *game.CommandLimiter) (*game.Service, error) {
	logger := slog.With("component", "main", "operation", "new_game", "game_id", cfg.Game.ID)

	seed := cfg.Game.Seed
	if seed == "" {
		var err error
		if seed, err = rng.NewSeed(); err != nil {
			return nil, fmt.Errorf("failed to create seed: %w", err)
		}
	}

	seats := make([]game.Seat, 0, len(cfg.Game.Players))
	for _, name := range cfg.Game.Players {
		seats = append(seats, game.Seat{ID: name, Name: name})
	}

	generator := galaxy.NewGenerator(galaxy.ConfigFromGame(cfg.Game), slog.Default())
	state, err := game.New(cfg.Game.ID, game.SettingsFromConfig(cfg.Game), seats, generator, rng.New(seed), time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	logger.Info("New game created", "players", len(seats), "systems", len(state.Systems), "seed", seed)
	return game.NewService(state, scheduler, store, limiter, slog.Default()), nil
}
