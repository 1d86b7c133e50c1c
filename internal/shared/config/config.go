package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
	Game      GameConfig
}

type ServerConfig struct {
	Environment  string        `env:"ENVIRONMENT" envDefault:"development"`
	TurnInterval time.Duration `env:"TURN_INTERVAL" envDefault:"24h"`
	PollInterval time.Duration `env:"TURN_POLL_INTERVAL" envDefault:"1m"`
}

type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"sqlite"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD" envDefault:"postgres"`
	Name            string        `env:"DB_NAME" envDefault:"conquest"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	SQLitePath      string        `env:"DB_SQLITE_PATH" envDefault:"./data/conquest.db"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
}

type RedisConfig struct {
	Enabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	URL      string        `env:"REDIS_URL"`
	Host     string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string        `env:"REDIS_PORT" envDefault:"6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL time.Duration `env:"REDIS_CACHE_TTL" envDefault:"168h"`
}

type LoggingConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"debug"`
	Format     string `env:"LOG_FORMAT" envDefault:"text"`
	JSONFormat bool
}

type RateLimitConfig struct {
	Enabled           bool    `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	CommandsPerSecond float64 `env:"RATE_LIMIT_COMMANDS_PER_SECOND" envDefault:"5"`
	BurstSize         int     `env:"RATE_LIMIT_BURST_SIZE" envDefault:"10"`
}

type TelemetryConfig struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint    string `env:"OTEL_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"conquest-server"`
}

// GameConfig holds the defaults used when the server creates a new game.
type GameConfig struct {
	ID                   string   `env:"GAME_ID" envDefault:"default"`
	Seed                 string   `env:"GAME_SEED"`
	Players              []string `env:"GAME_PLAYERS" envSeparator:"," envDefault:"alice,bob"`
	NeutralSystems       int      `env:"GAME_NEUTRAL_SYSTEMS" envDefault:"12"`
	InitialFactories     int      `env:"GAME_INITIAL_FACTORIES" envDefault:"15"`
	ShipSpeedATurn       int      `env:"GAME_SHIP_SPEED" envDefault:"5"`
	Difficulty           string   `env:"GAME_DIFFICULTY" envDefault:"hard"`
	MaxGameLength        int      `env:"GAME_MAX_LENGTH" envDefault:"100"`
	EnableNoviceMode     bool     `env:"GAME_NOVICE_MODE" envDefault:"false"`
	EnableSystemDefenses bool     `env:"GAME_SYSTEM_DEFENSES" envDefault:"true"`
	EnableRandomEvents   bool     `env:"GAME_RANDOM_EVENTS" envDefault:"true"`
	EnableEmpireBuilds   bool     `env:"GAME_EMPIRE_BUILDS" envDefault:"true"`
}

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

func load() (*Config, error) {
	var config Config
	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	config.Logging.JSONFormat = config.Server.Environment == "production" || config.Logging.Format == "json"

	return &config, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("DB_SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}

	if c.Server.TurnInterval <= 0 {
		return fmt.Errorf("TURN_INTERVAL must be positive")
	}

	if c.RateLimit.Enabled && c.RateLimit.CommandsPerSecond <= 0 {
		return fmt.Errorf("RATE_LIMIT_COMMANDS_PER_SECOND must be positive")
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("OTEL_ENDPOINT is required when OTEL_ENABLED is true")
	}

	if c.Game.ID == "" {
		return fmt.Errorf("GAME_ID is required")
	}

	if len(c.Game.Players) == 0 {
		return fmt.Errorf("GAME_PLAYERS is required")
	}

	return nil
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
