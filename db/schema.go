// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported database types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Open connects to the configured database and verifies the connection.
// SQLite is limited to a single connection so writers queue instead of
// failing with SQLITE_BUSY.
func Open(dbType, url string) (*sql.DB, error) {
	var driver string
	switch dbType {
	case TypeSQLite:
		driver = "sqlite"
	case TypePostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbType == TypeSQLite {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// IsUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint in either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// The partial index on poll keeps short codes unique among active polls only,
// so codes of ended polls can be handed out again.
const schema = `
-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    short_code TEXT NOT NULL CHECK (length(short_code) = 4),
    text TEXT NOT NULL,
    kind TEXT NOT NULL CHECK (kind IN ('binary', 'free_text')),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    show_results BOOLEAN NOT NULL DEFAULT FALSE,
    owner_session TEXT NOT NULL,
    last_activity TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_poll_active_short_code ON poll(short_code) WHERE is_active;
CREATE INDEX IF NOT EXISTS idx_poll_short_code ON poll(short_code);
CREATE INDEX IF NOT EXISTS idx_poll_activity ON poll(is_active, last_activity);

-- Binary votes: one per client per poll
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    client_fingerprint TEXT NOT NULL,
    choice TEXT NOT NULL CHECK (choice IN ('O', 'X')),
    created_at TIMESTAMP NOT NULL,
    UNIQUE (poll_id, client_fingerprint)
);

CREATE INDEX IF NOT EXISTS idx_vote_poll_id ON vote(poll_id);

-- Free-text answers: repeat submissions allowed
CREATE TABLE IF NOT EXISTS short_answer (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    client_fingerprint TEXT NOT NULL,
    response_text TEXT NOT NULL CHECK (length(response_text) BETWEEN 1 AND 200),
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_short_answer_poll_id ON short_answer(poll_id);
CREATE INDEX IF NOT EXISTS idx_short_answer_fingerprint ON short_answer(poll_id, client_fingerprint);
`
