package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

type Config struct {
	RiotAPIKey  string `envconfig:"RIOT_API_KEY"`
	RiotBaseURL string `envconfig:"RIOT_BASE_URL"`
	DBPath      string `envconfig:"DB_PATH" default:"summoner.db"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// comma separated keys accepted on POST /profile
	WriteAPIKeys []string `envconfig:"WRITE_API_KEYS"`

	Redis     RedisConfig
	RateLimit RateLimitConfig
	Profile   ProfileConfig
	Batch     BatchConfig
}

type RedisConfig struct {
	Addr         string `envconfig:"REDIS_ADDR"`
	Password     string `envconfig:"REDIS_PASSWORD"`
	DB           int    `envconfig:"REDIS_DB" default:"0"`
	CacheBackend string `envconfig:"CACHE_BACKEND" default:"memory"`
}

type RateLimitConfig struct {
	Backend  string        `envconfig:"RATE_LIMIT_BACKEND" default:"memory"`
	Requests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"60"`
	Window   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

type ProfileConfig struct {
	MatchCount            int  `envconfig:"MATCH_COUNT" default:"20"`
	MasteryCount          int  `envconfig:"MASTERY_COUNT" default:"5"`
	MatchFetchConcurrency int  `envconfig:"MATCH_FETCH_CONCURRENCY" default:"-1"`
	SingleFlight          bool `envconfig:"REFRESH_SINGLE_FLIGHT" default:"false"`
}

type BatchConfig struct {
	Size       int           `envconfig:"BATCH_SIZE" default:"100"`
	CallBudget int           `envconfig:"BATCH_CALL_BUDGET" default:"90"`
	Window     time.Duration `envconfig:"BATCH_WINDOW" default:"2m"`
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("cache_backend", cfg.Redis.CacheBackend).
		Str("rate_limit_backend", cfg.RateLimit.Backend).
		Int("rate_limit_requests", cfg.RateLimit.Requests).
		Dur("rate_limit_window", cfg.RateLimit.Window).
		Int("match_count", cfg.Profile.MatchCount).
		Bool("single_flight", cfg.Profile.SingleFlight).
		Int("write_keys", len(cfg.WriteAPIKeys)).
		Msg("configuration loaded")

	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.RiotAPIKey) == "" {
		return fmt.Errorf("RIOT_API_KEY is required")
	}
	if c.Profile.MatchCount < 0 || c.Profile.MatchCount > 100 {
		return fmt.Errorf("MATCH_COUNT must be between 0 and 100, got %d", c.Profile.MatchCount)
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit requests and window must be positive")
	}
	if c.Batch.CallBudget <= 0 || c.Batch.Window <= 0 {
		return fmt.Errorf("batch call budget and window must be positive")
	}
	for _, backend := range []string{c.Redis.CacheBackend, c.RateLimit.Backend} {
		if backend == "redis" && c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when a redis backend is selected")
		}
	}
	return nil
}
