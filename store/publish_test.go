// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/danielhkuo/oxpoll/models"
)

// A vote that commits while a direct snapshot is being queued must not
// reach the room ahead of it.
func TestSendSnapshot_OrderedAgainstBroadcast(t *testing.T) {
	s, rooms := setupStore(t)
	ctx := context.Background()

	poll, err := s.CreatePoll(ctx, "Pizza?", models.KindBinary, "owner")
	if err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}

	inside := make(chan models.Snapshot)
	release := make(chan struct{})
	sent := make(chan error, 1)
	go func() {
		sent <- s.SendSnapshot(ctx, poll.ID, func(snap models.Snapshot) {
			inside <- snap
			<-release
		})
	}()

	direct := <-inside
	if direct.Tally == nil || direct.Tally.TotalVotes != 0 {
		t.Fatalf("Expected empty tally in direct snapshot, got %+v", direct.Tally)
	}

	voted := make(chan error, 1)
	go func() {
		_, err := s.SubmitResponse(ctx, poll, "client-a", models.ChoiceO)
		voted <- err
	}()

	// The vote commits but its broadcast waits for the direct snapshot
	select {
	case err := <-voted:
		t.Fatalf("SubmitResponse returned before the direct snapshot was queued: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	if n := rooms.count(); n != 0 {
		t.Fatalf("Expected no broadcast while a direct snapshot is in flight, got %d", n)
	}

	close(release)
	if err := <-sent; err != nil {
		t.Fatalf("SendSnapshot failed: %v", err)
	}
	if err := <-voted; err != nil {
		t.Fatalf("SubmitResponse failed: %v", err)
	}

	last := rooms.last(t)
	if last.msg.Data == nil || last.msg.Data.Tally.TotalVotes != 1 {
		t.Errorf("Expected broadcast with 1 vote, got %+v", last.msg.Data)
	}
}

func TestSendSnapshot_UnknownPoll(t *testing.T) {
	s, _ := setupStore(t)

	called := false
	err := s.SendSnapshot(context.Background(), "missing", func(models.Snapshot) { called = true })
	if err == nil {
		t.Fatal("Expected an error for an unknown poll")
	}
	if called {
		t.Error("Expected deliver not to run for an unknown poll")
	}
}

func TestPublishLocks_SamePollSerializes(t *testing.T) {
	var locks publishLocks

	unlock := locks.lock("poll-a")
	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		locks.lock("poll-a")()
	}()

	select {
	case <-acquired:
		t.Fatal("Expected second lock on the same poll to wait")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	<-acquired
}
