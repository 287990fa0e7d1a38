// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/danielhkuo/oxpoll/models"
)

// IdlePolls lists active polls whose last activity is before cutoff
func (s *Store) IdlePolls(ctx context.Context, cutoff time.Time) ([]models.Poll, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pollColumns+` FROM poll
		WHERE is_active AND last_activity < $1
		ORDER BY last_activity
	`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query idle polls: %w", err)
	}
	defer rows.Close()

	var polls []models.Poll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan idle poll: %w", err)
		}
		polls = append(polls, p)
	}
	return polls, rows.Err()
}

// DeactivateIdle ends every active poll idle since before cutoff in a single
// statement and returns how many it ended. It does not broadcast.
func (s *Store) DeactivateIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE poll SET is_active = $1
		WHERE is_active AND last_activity < $2
	`, false, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate idle polls: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// Now exposes the store clock so sweeps and writes agree on time
func (s *Store) Now() time.Time {
	return s.timestamp()
}
