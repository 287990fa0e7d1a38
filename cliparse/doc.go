// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

LoadDotEnv can run first to pull a local .env file into the environment.
Variables already set are never overwritten.

# CLI Flags

	-p              Server port (default 3318)
	-d              Database URL (default file:oxpoll.db for sqlite)
	-t              Database type: sqlite or postgres (default sqlite)
	-base-url       Public front-end URL used in share links
	-idle           Idle threshold before a poll is deactivated (default 30m)
	-reap-interval  How often the idle reaper sweeps (default 1m)
	-send-buffer    Per-connection realtime send buffer (default 16)
	-submit-rate    Response submissions per IP per minute (default 120)
	-origins        Comma-separated allowed WebSocket/CORS origins

# Environment Variables

Flags fall back to environment variables:

	PORT              → -p
	DATABASE_URL      → -d
	DATABASE_TYPE     → -t
	BASE_URL          → -base-url
	IDLE_THRESHOLD    → -idle
	REAP_INTERVAL     → -reap-interval
	WS_SEND_BUFFER    → -send-buffer
	SUBMIT_RATE_LIMIT → -submit-rate
	ALLOWED_ORIGINS   → -origins

CLI flags take precedence over environment variables.

# Cleanup Sub-command

ParseCleanupFlags accepts the same flags plus:

	-minutes  Idle minutes before deactivation (default 30)
	-dry-run  List the selection without changing anything
*/
package cliparse
