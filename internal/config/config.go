package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Insert feed kinds for Results.Feed.
const (
	FeedMemory   = "memory"
	FeedRedis    = "redis"
	FeedPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		RateLimit      struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		ID            string `yaml:"id"`
		BankFile      string `yaml:"bank_file"`
		TTL           string `yaml:"ttl"`
		FeedbackDelay string `yaml:"feedback_delay"`
		ResultDelay   string `yaml:"result_delay"`
	} `yaml:"quiz"`
	Leaderboard struct {
		Limit int `yaml:"limit"`
	} `yaml:"leaderboard"`
	Results struct {
		Feed string `yaml:"feed"`
	} `yaml:"results"`
}

// Default is the configuration used for anything the file leaves out.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Server.RateLimit.RPS = 20
	cfg.Server.RateLimit.Burst = 40
	cfg.Log.Level = "info"
	cfg.Redis.TTL = "10m"
	cfg.Quiz.TTL = "0"
	cfg.Quiz.FeedbackDelay = "1200ms"
	cfg.Quiz.ResultDelay = "1500ms"
	cfg.Leaderboard.Limit = 5
	cfg.Results.Feed = FeedMemory
	return cfg
}

// Load reads YAML config from path on top of Default, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("RESULTS_FEED"); v != "" {
		cfg.Results.Feed = v
	}
	if v := os.Getenv("LEADERBOARD_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Leaderboard.Limit = n
		}
	}
}

// Validate checks that the selected insert feed has its backend configured.
func (c Config) Validate() error {
	switch c.Results.Feed {
	case FeedMemory:
	case FeedRedis:
		if c.Redis.Addr == "" {
			return errors.New("results.feed redis requires redis.addr")
		}
	case FeedPostgres:
		if c.Postgres.URL == "" {
			return errors.New("results.feed postgres requires postgres.url")
		}
	default:
		return fmt.Errorf("unknown results.feed %q", c.Results.Feed)
	}
	if c.Leaderboard.Limit < 0 {
		return fmt.Errorf("leaderboard.limit must not be negative, got %d", c.Leaderboard.Limit)
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
