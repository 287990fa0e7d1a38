// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	DatabaseURL     string
	DatabaseType    string
	BaseURL         string
	IdleThreshold   time.Duration
	ReapInterval    time.Duration
	SendBuffer      int
	AllowedOrigins  []string
	SubmitRateLimit int
}

// CleanupConfig drives the one-shot "cleanup" sub-command
type CleanupConfig struct {
	Config
	Minutes int
	DryRun  bool
}

// LoadDotEnv reads .env into the environment without overriding variables
// that are already set. A missing file is fine.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("oxpoll", flag.ContinueOnError)
	register(fs, &cfg)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseCleanupFlags parses arguments after "cleanup"
func ParseCleanupFlags(args []string) (CleanupConfig, error) {
	var cfg CleanupConfig

	fs := flag.NewFlagSet("oxpoll cleanup", flag.ContinueOnError)
	register(fs, &cfg.Config)
	fs.IntVar(&cfg.Minutes, "minutes", 30, "Deactivate polls idle for more than this many minutes")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Only list the polls that would be deactivated")

	if err := fs.Parse(args); err != nil {
		return CleanupConfig{}, err
	}

	if cfg.Minutes <= 0 {
		return CleanupConfig{}, errors.New("minutes must be positive")
	}

	if err := applyEnv(&cfg.Config); err != nil {
		return CleanupConfig{}, err
	}
	return cfg, nil
}

func register(fs *flag.FlagSet, cfg *Config) {
	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "Public front-end URL used in share links")

	// Realtime and lifecycle tuning
	fs.DurationVar(&cfg.IdleThreshold, "idle", 0, "Deactivate polls idle for longer than this")
	fs.DurationVar(&cfg.ReapInterval, "reap-interval", 0, "How often the idle reaper runs")
	fs.IntVar(&cfg.SendBuffer, "send-buffer", 0, "Per-connection realtime send buffer")
	fs.IntVar(&cfg.SubmitRateLimit, "submit-rate", 0, "Response submissions allowed per IP per minute")

	fs.Func("origins", "Comma-separated allowed origins (empty allows any)", func(s string) error {
		cfg.AllowedOrigins = splitList(s)
		return nil
	})
}

func applyEnv(cfg *Config) error {
	// Fall back to environment variables
	if cfg.Port == 0 {
		port, err := envInt("PORT", 3318)
		if err != nil {
			return err
		}
		cfg.Port = port
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return fmt.Errorf("invalid database type %q (use sqlite or postgres)", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "postgres" {
			return errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = "file:oxpoll.db"
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("BASE_URL")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + strconv.Itoa(cfg.Port)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.IdleThreshold == 0 {
		d, err := envDuration("IDLE_THRESHOLD", 30*time.Minute)
		if err != nil {
			return err
		}
		cfg.IdleThreshold = d
	}

	if cfg.ReapInterval == 0 {
		d, err := envDuration("REAP_INTERVAL", time.Minute)
		if err != nil {
			return err
		}
		cfg.ReapInterval = d
	}

	if cfg.SendBuffer == 0 {
		n, err := envInt("WS_SEND_BUFFER", 16)
		if err != nil {
			return err
		}
		cfg.SendBuffer = n
	}

	if cfg.SubmitRateLimit == 0 {
		n, err := envInt("SUBMIT_RATE_LIMIT", 120)
		if err != nil {
			return err
		}
		cfg.SubmitRateLimit = n
	}

	if cfg.AllowedOrigins == nil {
		cfg.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))
	}

	if cfg.IdleThreshold < 0 || cfg.ReapInterval <= 0 {
		return errors.New("idle threshold and reap interval must be positive")
	}
	if cfg.SendBuffer < 1 || cfg.SubmitRateLimit < 1 {
		return errors.New("send buffer and submit rate must be at least 1")
	}

	return nil
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
