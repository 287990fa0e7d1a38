// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/danielhkuo/oxpoll/models"
)

const publishStripes = 64

// publishLocks orders snapshot delivery per poll. A snapshot is read and
// queued under the same lock, so a room never receives an older snapshot
// after a newer one. Polls share stripes; that only costs contention.
type publishLocks [publishStripes]sync.Mutex

func (l *publishLocks) lock(pollID string) func() {
	h := fnv.New32a()
	h.Write([]byte(pollID))
	mu := &l[h.Sum32()%publishStripes]
	mu.Lock()
	return mu.Unlock
}

// broadcast pushes a fresh snapshot to the poll's room. Failures are logged
// only; the write that triggered it has already succeeded.
// Must not be called inside a transaction.
func (s *Store) broadcast(ctx context.Context, pollID string) {
	if s.rooms == nil {
		return
	}

	unlock := s.publish.lock(pollID)
	defer unlock()

	snap, err := s.Snapshot(ctx, pollID)
	if err != nil {
		slog.Warn("failed to build snapshot for broadcast", "poll_id", pollID, "error", err)
		return
	}

	delivered := s.rooms.Broadcast(pollID, models.ServerMessage{
		Type: models.MessageSnapshot,
		Data: &snap,
	})
	slog.Debug("snapshot broadcast", "poll_id", pollID, "delivered", delivered)
}

// SendSnapshot reads the poll's current snapshot and hands it to deliver
// while holding the poll's publish lock. Use it for snapshots sent to a
// single room member so they stay ordered against broadcasts.
// deliver must not block.
func (s *Store) SendSnapshot(ctx context.Context, pollID string, deliver func(models.Snapshot)) error {
	unlock := s.publish.lock(pollID)
	defer unlock()

	snap, err := s.Snapshot(ctx, pollID)
	if err != nil {
		return err
	}
	deliver(snap)
	return nil
}
