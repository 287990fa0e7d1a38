// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// clearEnv blanks every variable ParseFlags reads
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATABASE_URL", "DATABASE_TYPE", "BASE_URL", "IDLE_THRESHOLD",
		"REAP_INTERVAL", "WS_SEND_BUFFER", "SUBMIT_RATE_LIMIT", "ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite, got %s", cfg.DatabaseType)
	}
	if cfg.DatabaseURL != "file:oxpoll.db" {
		t.Errorf("expected default sqlite file, got %s", cfg.DatabaseURL)
	}
	if cfg.BaseURL != "http://localhost:3318" {
		t.Errorf("unexpected base URL %s", cfg.BaseURL)
	}
	if cfg.IdleThreshold != 30*time.Minute {
		t.Errorf("expected 30m idle threshold, got %s", cfg.IdleThreshold)
	}
	if cfg.ReapInterval != time.Minute {
		t.Errorf("expected 1m reap interval, got %s", cfg.ReapInterval)
	}
	if cfg.SendBuffer != 16 || cfg.SubmitRateLimit != 120 {
		t.Errorf("unexpected buffer/rate %d/%d", cfg.SendBuffer, cfg.SubmitRateLimit)
	}
	if cfg.AllowedOrigins != nil {
		t.Errorf("expected no origin restriction, got %v", cfg.AllowedOrigins)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("BASE_URL", "https://ox.example/")
	t.Setenv("IDLE_THRESHOLD", "45m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.BaseURL != "https://ox.example" {
		t.Errorf("trailing slash should be trimmed, got %s", cfg.BaseURL)
	}
	if cfg.IdleThreshold != 45*time.Minute {
		t.Errorf("expected 45m, got %s", cfg.IdleThreshold)
	}
	expected := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, expected) {
		t.Errorf("expected %v, got %v", expected, cfg.AllowedOrigins)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-idle", "5m", "-send-buffer", "4"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "file:test.db" {
		t.Errorf("expected file:test.db, got %s", cfg.DatabaseURL)
	}
	if cfg.IdleThreshold != 5*time.Minute || cfg.SendBuffer != 4 {
		t.Errorf("unexpected idle/buffer %s/%d", cfg.IdleThreshold, cfg.SendBuffer)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "postgres without url", env: map[string]string{"DATABASE_TYPE": "postgres"}},
		{name: "unknown database type", args: []string{"-t", "mysql"}},
		{name: "bad port env", env: map[string]string{"PORT": "abc"}},
		{name: "bad duration env", env: map[string]string{"IDLE_THRESHOLD": "soon"}},
		{name: "negative buffer", args: []string{"-send-buffer", "-1"}},
		{name: "unknown flag", args: []string{"-nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := ParseFlags(tt.args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseCleanupFlags(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseCleanupFlags([]string{"-minutes", "10", "-dry-run"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Minutes != 10 || !cfg.DryRun {
		t.Errorf("unexpected cleanup config %+v", cfg)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("shared config should be filled, got %q", cfg.DatabaseType)
	}

	defaults, err := ParseCleanupFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if defaults.Minutes != 30 || defaults.DryRun {
		t.Errorf("expected 30 minutes without dry run, got %+v", defaults)
	}

	if _, err := ParseCleanupFlags([]string{"-minutes", "0"}); err == nil {
		t.Error("expected error for zero minutes")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SUBMIT_RATE_LIMIT=7\nPORT=4000\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	// Already-set variables win over the file
	t.Setenv("PORT", "5000")
	os.Unsetenv("SUBMIT_RATE_LIMIT")

	if err := LoadDotEnv(path); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SubmitRateLimit != 7 {
		t.Errorf("expected rate from .env, got %d", cfg.SubmitRateLimit)
	}
	if cfg.Port != 5000 {
		t.Errorf("environment should override .env, got %d", cfg.Port)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should not be an error: %v", err)
	}
}
