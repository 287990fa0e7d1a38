// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/oxpoll/cliparse"
	"github.com/danielhkuo/oxpoll/db"
	"github.com/danielhkuo/oxpoll/identity"
	"github.com/danielhkuo/oxpoll/models"
)

// TestDBURL is an in-memory SQLite database; db.Open pins it to one
// connection so every query sees the same data.
const TestDBURL = ":memory:"

// SetupTestDB creates a fresh test database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, TestDBURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseURL:     TestDBURL,
		DatabaseType:    db.TypeSQLite,
		BaseURL:         "https://oxpoll.test",
		IdleThreshold:   30 * time.Minute,
		ReapInterval:    time.Minute,
		SendBuffer:      16,
		SubmitRateLimit: 10000,
	}
}

// PollOptions tweaks rows created by CreateTestPoll
type PollOptions struct {
	Kind         models.Kind
	ShortCode    string
	Inactive     bool
	ShowResults  bool
	LastActivity time.Time
}

// CreateTestPoll inserts a poll directly and returns it, owner session included
func CreateTestPoll(t *testing.T, conn *sql.DB, opts PollOptions) models.Poll {
	t.Helper()

	if opts.Kind == "" {
		opts.Kind = models.KindBinary
	}
	if opts.ShortCode == "" {
		code, err := identity.RandomShortCode()
		if err != nil {
			t.Fatalf("Failed to generate short code: %v", err)
		}
		opts.ShortCode = code
	}

	now := time.Now().UTC()
	if opts.LastActivity.IsZero() {
		opts.LastActivity = now
	}
	createdAt := now
	if opts.LastActivity.Before(createdAt) {
		createdAt = opts.LastActivity
	}

	session, _ := identity.GenerateOwnerSession()
	poll := models.Poll{
		ID:           uuid.NewString(),
		ShortCode:    opts.ShortCode,
		Text:         "Test Poll",
		Kind:         opts.Kind,
		IsActive:     !opts.Inactive,
		ShowResults:  opts.ShowResults,
		OwnerSession: session,
		LastActivity: opts.LastActivity.UTC(),
		CreatedAt:    createdAt,
	}

	_, err := conn.Exec(`
		INSERT INTO poll (id, short_code, text, kind, is_active, show_results, owner_session, last_activity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, poll.ID, poll.ShortCode, poll.Text, string(poll.Kind), poll.IsActive, poll.ShowResults,
		poll.OwnerSession, poll.LastActivity, poll.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	return poll
}

// AddTestVote stores a binary vote for a fingerprint
func AddTestVote(t *testing.T, conn *sql.DB, pollID, fingerprint, choice string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO vote (id, poll_id, client_fingerprint, choice, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), pollID, fingerprint, choice, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}
}

// AddTestAnswer stores a free-text answer for a fingerprint
func AddTestAnswer(t *testing.T, conn *sql.DB, pollID, fingerprint, text string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO short_answer (id, poll_id, client_fingerprint, response_text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), pollID, fingerprint, text, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test answer: %v", err)
	}
}

// CountRows counts rows in table matching poll_id
func CountRows(t *testing.T, conn *sql.DB, table, pollID string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE poll_id = $1", pollID).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s rows: %v", table, err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
