// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the oxpoll server.

oxpoll runs live polls. An organizer creates a binary (O/X) or free-text
poll and shares a 4-digit code; participants answer from their own devices
and every connected viewer sees the results update over a WebSocket.

# Starting the Server

With no configuration the server uses a local SQLite file:

	go run .

Or against PostgreSQL:

	DATABASE_TYPE=postgres DATABASE_URL=postgres://... go run .

A .env file in the working directory is loaded first; real environment
variables win over it, and CLI flags win over both.

# Configuration

  - PORT (-p): server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): connection string (required for postgres)
  - BASE_URL (-base-url): public URL used in share links
  - IDLE_THRESHOLD (-idle): end polls idle this long (default: 30m)
  - REAP_INTERVAL (-reap-interval): idle sweep period (default: 1m)
  - WS_SEND_BUFFER (-send-buffer): per-connection queue (default: 16)
  - SUBMIT_RATE_LIMIT (-submit-rate): submissions per IP per minute (default: 120)
  - ALLOWED_ORIGINS (-origins): comma-separated CORS/WebSocket origins

# Cleanup

Run one idle sweep without starting the server:

	go run . cleanup -minutes 30 -dry-run

# Architecture

  - store: persistence, lifecycle, one-vote-per-client, post-write broadcast
  - aggregate: tallies and frequency tables
  - rooms: per-poll connection sets and fan-out
  - gateway: WebSocket protocol
  - reaper: idle poll sweeps
  - handlers, router, middleware: HTTP surface
  - identity: client fingerprints, short codes, owner sessions
  - db: driver selection and schema
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
