// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/danielhkuo/oxpoll/aggregate"
	"github.com/danielhkuo/oxpoll/db"
	"github.com/danielhkuo/oxpoll/identity"
	"github.com/danielhkuo/oxpoll/models"
)

// MaxCodeAttempts bounds short-code rejection sampling
const MaxCodeAttempts = 100

// MaxResponseLength is the free-text limit, in characters
const MaxResponseLength = 200

// Broadcaster fans a message out to everyone watching a poll.
// rooms.Registry implements it.
type Broadcaster interface {
	Broadcast(pollID string, msg any) int
}

// Store persists polls and responses. Every successful mutation ends with a
// broadcast of a fresh snapshot to the poll's room.
type Store struct {
	db         *sql.DB
	rooms      Broadcaster
	publish    publishLocks
	now        func() time.Time
	randomCode func() (string, error)
}

type Option func(*Store)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithCodeSource overrides the short-code generator
func WithCodeSource(fn func() (string, error)) Option {
	return func(s *Store) { s.randomCode = fn }
}

// New creates a Store. rooms may be nil when nobody needs notifying
// (for example the one-shot cleanup command).
func New(conn *sql.DB, rooms Broadcaster, opts ...Option) *Store {
	s := &Store{
		db:         conn,
		rooms:      rooms,
		now:        time.Now,
		randomCode: identity.RandomShortCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const pollColumns = `id, short_code, text, kind, is_active, show_results, owner_session, last_activity, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (models.Poll, error) {
	var p models.Poll
	var kind string
	err := row.Scan(
		&p.ID, &p.ShortCode, &p.Text, &kind, &p.IsActive, &p.ShowResults,
		&p.OwnerSession, &p.LastActivity, &p.CreatedAt,
	)
	p.Kind = models.Kind(kind)
	return p, err
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// CreatePoll stores a new active poll with a short code that no other
// active poll holds.
func (s *Store) CreatePoll(ctx context.Context, text string, kind models.Kind, ownerSession string) (models.Poll, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Poll{}, ErrEmptyQuestion
	}
	if !kind.Valid() {
		return models.Poll{}, ErrInvalidKind
	}

	now := s.timestamp()
	poll := models.Poll{
		ID:           uuid.NewString(),
		Text:         text,
		Kind:         kind,
		IsActive:     true,
		ShowResults:  false,
		OwnerSession: ownerSession,
		LastActivity: now,
		CreatedAt:    now,
	}

	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		code, err := s.randomCode()
		if err != nil {
			return models.Poll{}, err
		}

		var taken bool
		err = s.db.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM poll WHERE short_code = $1 AND is_active)
		`, code).Scan(&taken)
		if err != nil {
			return models.Poll{}, fmt.Errorf("failed to check short code: %w", err)
		}
		if taken {
			continue
		}

		poll.ShortCode = code
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO poll (`+pollColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, poll.ID, poll.ShortCode, poll.Text, string(poll.Kind), poll.IsActive, poll.ShowResults,
			poll.OwnerSession, poll.LastActivity, poll.CreatedAt)

		if db.IsUniqueViolation(err) {
			// Another poll claimed the code between the check and the insert
			continue
		}
		if err != nil {
			return models.Poll{}, fmt.Errorf("failed to insert poll: %w", err)
		}

		slog.Info("poll created", "poll_id", poll.ID, "short_code", poll.ShortCode, "kind", poll.Kind, "attempts", attempt+1)
		return poll, nil
	}

	slog.Warn("short code space exhausted", "attempts", MaxCodeAttempts)
	return models.Poll{}, ErrCodeSpaceExhausted
}

// GetPoll loads a poll by its permanent identifier, active or not
func (s *Store) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pollColumns+` FROM poll WHERE id = $1`, id)
	poll, err := scanPoll(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, ErrNotFound
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to query poll: %w", err)
	}
	return poll, nil
}

// GetPollByCode finds the active poll holding code. With allowInactive it
// falls back to the most recent inactive holder, so callers can tell
// "never existed" from "ended".
func (s *Store) GetPollByCode(ctx context.Context, code string, allowInactive bool) (models.Poll, error) {
	if !identity.IsShortCode(code) {
		return models.Poll{}, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+pollColumns+` FROM poll
		WHERE short_code = $1 AND is_active
		LIMIT 1
	`, code)
	poll, err := scanPoll(row)
	if err == nil {
		return poll, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, fmt.Errorf("failed to query poll by code: %w", err)
	}
	if !allowInactive {
		return models.Poll{}, ErrNotFound
	}

	row = s.db.QueryRowContext(ctx, `
		SELECT `+pollColumns+` FROM poll
		WHERE short_code = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, code)
	poll, err = scanPoll(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, ErrNotFound
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to query poll by code: %w", err)
	}
	return poll, nil
}

// Lookup resolves a route that names a poll either by id or by short code.
// A code route never falls back to id lookup.
func (s *Store) Lookup(ctx context.Context, id, code string) (models.Poll, error) {
	if code != "" {
		return s.GetPollByCode(ctx, code, true)
	}
	if id == "" {
		return models.Poll{}, ErrNotFound
	}
	return s.GetPoll(ctx, id)
}

// RequireActive returns ErrInactive for ended polls
func RequireActive(poll models.Poll) error {
	if !poll.IsActive {
		return ErrInactive
	}
	return nil
}

// IsOwner reports whether session is the poll creator's session
func IsOwner(poll models.Poll, session string) bool {
	if session == "" || poll.OwnerSession == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(session), []byte(poll.OwnerSession)) == 1
}

// RequireOwner returns ErrNotOwner unless session created the poll
func RequireOwner(poll models.Poll, session string) error {
	if !IsOwner(poll, session) {
		return ErrNotOwner
	}
	return nil
}

// SubmitResponse records a vote or short answer. Binary polls accept one
// response per fingerprint; the table constraint decides races, so
// concurrent duplicates get ErrAlreadyResponded rather than a second row.
func (s *Store) SubmitResponse(ctx context.Context, poll models.Poll, fingerprint, value string) (models.Response, error) {
	value = strings.TrimSpace(value)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Response{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Re-read state inside the transaction; the caller's copy may be stale
	current, err := scanPoll(tx.QueryRowContext(ctx, `SELECT `+pollColumns+` FROM poll WHERE id = $1`, poll.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Response{}, ErrNotFound
	}
	if err != nil {
		return models.Response{}, fmt.Errorf("failed to query poll: %w", err)
	}
	if !current.IsActive {
		return models.Response{}, ErrInactive
	}

	resp := models.Response{
		ID:                uuid.NewString(),
		PollID:            current.ID,
		ClientFingerprint: fingerprint,
		Value:             value,
		CreatedAt:         s.timestamp(),
	}

	switch current.Kind {
	case models.KindBinary:
		if value != models.ChoiceO && value != models.ChoiceX {
			return models.Response{}, ErrInvalidChoice
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO vote (id, poll_id, client_fingerprint, choice, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, resp.ID, resp.PollID, resp.ClientFingerprint, resp.Value, resp.CreatedAt)

	case models.KindFreeText:
		if n := utf8.RuneCountInString(value); n < 1 || n > MaxResponseLength {
			return models.Response{}, ErrInvalidResponse
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO short_answer (id, poll_id, client_fingerprint, response_text, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, resp.ID, resp.PollID, resp.ClientFingerprint, resp.Value, resp.CreatedAt)

	default:
		return models.Response{}, fmt.Errorf("poll %s has unknown kind %q", current.ID, current.Kind)
	}

	if db.IsUniqueViolation(err) {
		return models.Response{}, ErrAlreadyResponded
	}
	if err != nil {
		return models.Response{}, fmt.Errorf("failed to insert response: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if db.IsUniqueViolation(err) {
			return models.Response{}, ErrAlreadyResponded
		}
		return models.Response{}, fmt.Errorf("failed to commit response: %w", err)
	}

	slog.Info("response submitted", "poll_id", resp.PollID, "response_id", resp.ID, "kind", current.Kind)

	s.broadcast(ctx, resp.PollID)
	return resp, nil
}

// ToggleResults flips show_results on an active poll and refreshes its
// activity timestamp.
func (s *Store) ToggleResults(ctx context.Context, pollID string) (models.Poll, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE poll
		SET show_results = NOT show_results, last_activity = $1
		WHERE id = $2 AND is_active
	`, s.timestamp(), pollID)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to toggle results: %w", err)
	}
	if err := s.requireUpdated(ctx, res, pollID); err != nil {
		return models.Poll{}, err
	}

	poll, err := s.GetPoll(ctx, pollID)
	if err != nil {
		return models.Poll{}, err
	}

	slog.Info("results toggled", "poll_id", pollID, "show_results", poll.ShowResults)

	s.broadcast(ctx, pollID)
	return poll, nil
}

// EndPoll deactivates a poll. Responses are kept and stay viewable.
func (s *Store) EndPoll(ctx context.Context, pollID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE poll SET is_active = $1 WHERE id = $2 AND is_active
	`, false, pollID)
	if err != nil {
		return fmt.Errorf("failed to end poll: %w", err)
	}
	if err := s.requireUpdated(ctx, res, pollID); err != nil {
		return err
	}

	slog.Info("poll ended", "poll_id", pollID)

	s.broadcast(ctx, pollID)
	return nil
}

// requireUpdated turns "no rows matched" into ErrNotFound or ErrInactive
func (s *Store) requireUpdated(ctx context.Context, res sql.Result, pollID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	if _, err := s.GetPoll(ctx, pollID); err != nil {
		return err
	}
	return ErrInactive
}

// Touch refreshes last_activity when session is the poll owner's.
// Anyone else is ignored: only the creator keeps a poll alive.
func (s *Store) Touch(ctx context.Context, poll models.Poll, session string) (bool, error) {
	if !IsOwner(poll, session) {
		return false, nil
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE poll SET last_activity = $1 WHERE id = $2
	`, s.timestamp(), poll.ID)
	if err != nil {
		return false, fmt.Errorf("failed to touch poll: %w", err)
	}
	return true, nil
}

// Snapshot recomputes the poll's aggregate from stored responses
func (s *Store) Snapshot(ctx context.Context, pollID string) (models.Snapshot, error) {
	poll, err := s.GetPoll(ctx, pollID)
	if err != nil {
		return models.Snapshot{}, err
	}

	switch poll.Kind {
	case models.KindBinary:
		choices, err := s.loadChoices(ctx, poll.ID)
		if err != nil {
			return models.Snapshot{}, err
		}
		return aggregate.BinarySnapshot(poll, choices), nil

	case models.KindFreeText:
		answers, err := s.loadAnswers(ctx, poll.ID)
		if err != nil {
			return models.Snapshot{}, err
		}
		return aggregate.FreeTextSnapshot(poll, answers), nil
	}

	return models.Snapshot{}, fmt.Errorf("poll %s has unknown kind %q", poll.ID, poll.Kind)
}

func (s *Store) loadChoices(ctx context.Context, pollID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT choice FROM vote WHERE poll_id = $1`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	var choices []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		choices = append(choices, c)
	}
	return choices, rows.Err()
}

func (s *Store) loadAnswers(ctx context.Context, pollID string) ([]aggregate.Answer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT client_fingerprint, response_text
		FROM short_answer
		WHERE poll_id = $1
		ORDER BY created_at, id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query short answers: %w", err)
	}
	defer rows.Close()

	var answers []aggregate.Answer
	for rows.Next() {
		var a aggregate.Answer
		if err := rows.Scan(&a.Fingerprint, &a.Value); err != nil {
			return nil, fmt.Errorf("failed to scan short answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// Participation reports whether fingerprint voted (binary) and how many
// answers it submitted (free text).
func (s *Store) Participation(ctx context.Context, poll models.Poll, fingerprint string) (models.MyParticipationResponse, error) {
	var out models.MyParticipationResponse

	table := "vote"
	if poll.Kind == models.KindFreeText {
		table = "short_answer"
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM `+table+` WHERE poll_id = $1 AND client_fingerprint = $2
	`, poll.ID, fingerprint).Scan(&out.ResponseCount)
	if err != nil {
		return out, fmt.Errorf("failed to count responses: %w", err)
	}

	out.AlreadyVoted = poll.Kind == models.KindBinary && out.ResponseCount > 0
	return out, nil
}
