// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/oxpoll/models"
	"github.com/danielhkuo/oxpoll/testutil"
)

// TestConcurrentVotes verifies that simultaneous votes from different
// clients are all recorded
func TestConcurrentVotes(t *testing.T) {
	s, db := setupStore(t)
	handler := NewResponseHandler(s, testutil.GetTestConfig())
	poll := testutil.CreateTestPoll(t, db, testutil.PollOptions{Kind: models.KindBinary})

	numVoters := 20
	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			choice := models.ChoiceO
			if idx%2 == 1 {
				choice = models.ChoiceX
			}

			req := testutil.MakeRequest("POST", "/", models.SubmitResponseRequest{Value: choice},
				clientHeaders(fmt.Sprintf("10.0.0.%d", idx+1)))
			req.SetPathValue("id", poll.ID)
			w := httptest.NewRecorder()

			handler.SubmitResponse(w, req)

			if w.Code == http.StatusCreated {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("Expected %d successful votes, got %d", numVoters, successCount.Load())
	}

	snap, err := s.Snapshot(t.Context(), poll.ID)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Tally.TotalVotes != numVoters || snap.Tally.OVotes != numVoters/2 {
		t.Errorf("Unexpected tally: %+v", *snap.Tally)
	}
}

// TestConcurrentDuplicateVotes verifies that one client hammering the
// submit endpoint ends up with exactly one vote
func TestConcurrentDuplicateVotes(t *testing.T) {
	s, db := setupStore(t)
	handler := NewResponseHandler(s, testutil.GetTestConfig())
	poll := testutil.CreateTestPoll(t, db, testutil.PollOptions{Kind: models.KindBinary})

	attempts := 15
	var created, conflicts atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/", models.SubmitResponseRequest{Value: models.ChoiceO},
				clientHeaders("192.0.2.10"))
			req.SetPathValue("id", poll.ID)
			w := httptest.NewRecorder()

			handler.SubmitResponse(w, req)

			switch w.Code {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				conflicts.Add(1)
			default:
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}()
	}

	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("Expected exactly 1 accepted vote, got %d", created.Load())
	}
	if int(conflicts.Load()) != attempts-1 {
		t.Errorf("Expected %d conflicts, got %d", attempts-1, conflicts.Load())
	}
	if n := testutil.CountRows(t, db, "vote", poll.ID); n != 1 {
		t.Errorf("Expected 1 stored vote, got %d", n)
	}
}

// TestConcurrentFreeText verifies free-text answers are never deduplicated
func TestConcurrentFreeText(t *testing.T) {
	s, db := setupStore(t)
	handler := NewResponseHandler(s, testutil.GetTestConfig())
	poll := testutil.CreateTestPoll(t, db, testutil.PollOptions{Kind: models.KindFreeText})

	answers := 12
	var wg sync.WaitGroup

	for i := 0; i < answers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/", models.SubmitResponseRequest{Value: "same"},
				clientHeaders("192.0.2.20"))
			req.SetPathValue("id", poll.ID)
			w := httptest.NewRecorder()

			handler.SubmitResponse(w, req)

			if w.Code != http.StatusCreated {
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}()
	}

	wg.Wait()

	snap, err := s.Snapshot(t.Context(), poll.ID)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Table.TotalResponses != answers || snap.Table.UniqueParticipants != 1 {
		t.Errorf("Unexpected table: %+v", *snap.Table)
	}
	if len(snap.Table.Frequencies) != 1 || snap.Table.Frequencies[0].Count != answers {
		t.Errorf("Expected one entry with count %d, got %+v", answers, snap.Table.Frequencies)
	}
}
