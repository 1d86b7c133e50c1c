package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver got %q", cfg.Database.Driver)
	}
	if cfg.Server.TurnInterval != 24*time.Hour {
		t.Fatalf("expected 24h turn interval got %v", cfg.Server.TurnInterval)
	}
	if len(cfg.Game.Players) != 2 {
		t.Fatalf("expected 2 default players got %v", cfg.Game.Players)
	}
	if cfg.Game.ShipSpeedATurn != 5 {
		t.Fatalf("expected ship speed 5 got %d", cfg.Game.ShipSpeedATurn)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("GAME_PLAYERS", "ann,ben,cal")
	t.Setenv("TURN_INTERVAL", "90m")

	cfg, err := load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Logging.JSONFormat {
		t.Fatalf("expected JSON logging in production")
	}
	if strings.Join(cfg.Game.Players, ",") != "ann,ben,cal" {
		t.Fatalf("unexpected players %v", cfg.Game.Players)
	}
	if cfg.Server.TurnInterval != 90*time.Minute {
		t.Fatalf("expected 90m got %v", cfg.Server.TurnInterval)
	}
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("GAME_SHIP_SPEED", "fast")

	_, err := load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "DB_DRIVER"},
		{"postgres without host", func(c *Config) { c.Database.Driver = "postgres"; c.Database.Host = "" }, "DB_HOST"},
		{"zero interval", func(c *Config) { c.Server.TurnInterval = 0 }, "TURN_INTERVAL"},
		{"telemetry without endpoint", func(c *Config) { c.Telemetry.Enabled = true }, "OTEL_ENDPOINT"},
		{"no game id", func(c *Config) { c.Game.ID = "" }, "GAME_ID"},
		{"no players", func(c *Config) { c.Game.Players = nil }, "GAME_PLAYERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := load()
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q got %v", tt.wantErr, err)
			}
		})
	}
}
