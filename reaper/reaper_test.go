// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reaper

import (
	"context"
	"testing"
	"time"

	"github.com/danielhkuo/oxpoll/store"
	"github.com/danielhkuo/oxpoll/testutil"
)

func TestSweep(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		dryRun          bool
		wantSelected    int
		wantDeactivated int64
		wantStaleActive bool
	}{
		{name: "deactivates stale polls", dryRun: false, wantSelected: 1, wantDeactivated: 1, wantStaleActive: false},
		{name: "dry run reports only", dryRun: true, wantSelected: 1, wantDeactivated: 0, wantStaleActive: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := testutil.SetupTestDB(t)
			s := store.New(conn, nil, store.WithClock(func() time.Time { return now }))
			r := New(s, 30*time.Minute, time.Minute)
			ctx := context.Background()

			stale := testutil.CreateTestPoll(t, conn, testutil.PollOptions{LastActivity: now.Add(-31 * time.Minute)})
			fresh := testutil.CreateTestPoll(t, conn, testutil.PollOptions{LastActivity: now.Add(-29 * time.Minute)})

			res, err := r.Sweep(ctx, tt.dryRun)
			if err != nil {
				t.Fatalf("Sweep failed: %v", err)
			}
			if len(res.Selected) != tt.wantSelected {
				t.Fatalf("Expected %d selected, got %d", tt.wantSelected, len(res.Selected))
			}
			if res.Selected[0].ID != stale.ID {
				t.Errorf("Expected stale poll selected, got %s", res.Selected[0].ID)
			}
			if res.Deactivated != tt.wantDeactivated {
				t.Errorf("Expected %d deactivated, got %d", tt.wantDeactivated, res.Deactivated)
			}
			if !res.Cutoff.Equal(now.Add(-30 * time.Minute)) {
				t.Errorf("Unexpected cutoff %v", res.Cutoff)
			}

			got, err := s.GetPoll(ctx, stale.ID)
			if err != nil {
				t.Fatalf("GetPoll failed: %v", err)
			}
			if got.IsActive != tt.wantStaleActive {
				t.Errorf("Stale poll: expected active=%v, got %v", tt.wantStaleActive, got.IsActive)
			}

			got, err = s.GetPoll(ctx, fresh.ID)
			if err != nil {
				t.Fatalf("GetPoll failed: %v", err)
			}
			if !got.IsActive {
				t.Error("Fresh poll must stay active")
			}
		})
	}
}

func TestSweep_Empty(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	r := New(store.New(conn, nil), 0, 0)

	res, err := r.Sweep(context.Background(), false)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if len(res.Selected) != 0 || res.Deactivated != 0 {
		t.Errorf("Expected empty sweep, got %+v", res)
	}
	if r.threshold != 30*time.Minute || r.interval != time.Minute {
		t.Errorf("Expected defaults, got threshold=%v interval=%v", r.threshold, r.interval)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	r := New(store.New(conn, nil), time.Minute, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
