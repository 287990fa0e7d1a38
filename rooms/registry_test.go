// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rooms

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

// fakeConn records everything it is sent
type fakeConn struct {
	id   string
	fail bool

	mu       sync.Mutex
	received [][]byte
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(data []byte) error {
	if c.fail {
		return errors.New("connection closed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = append(c.received, data)
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func TestJoinAndBroadcast(t *testing.T) {
	reg := NewRegistry()
	a := newFakeConn("a")
	b := newFakeConn("b")
	other := newFakeConn("other")

	reg.Join("poll-1", a)
	reg.Join("poll-1", b)
	reg.Join("poll-2", other)

	delivered := reg.Broadcast("poll-1", map[string]string{"type": "snapshot"})
	if delivered != 2 {
		t.Errorf("Expected 2 deliveries, got %d", delivered)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("Expected each member to receive one message, got a=%d b=%d", a.count(), b.count())
	}
	if other.count() != 0 {
		t.Error("Broadcast leaked into another poll's room")
	}
	if string(a.received[0]) != `{"type":"snapshot"}` {
		t.Errorf("Unexpected payload %s", a.received[0])
	}
}

func TestJoinTwiceCountsOnce(t *testing.T) {
	reg := NewRegistry()
	a := newFakeConn("a")

	reg.Join("poll-1", a)
	reg.Join("poll-1", a)

	if reg.Size("poll-1") != 1 {
		t.Errorf("Expected room size 1, got %d", reg.Size("poll-1"))
	}
	if delivered := reg.BroadcastRaw("poll-1", []byte("x")); delivered != 1 {
		t.Errorf("Expected 1 delivery, got %d", delivered)
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	a := newFakeConn("a")

	// Leaving without joining
	reg.Leave("poll-1", a)

	reg.Join("poll-1", a)
	reg.Leave("poll-1", a)
	reg.Leave("poll-1", a)

	if reg.Size("poll-1") != 0 {
		t.Errorf("Expected empty room, got %d", reg.Size("poll-1"))
	}
	if delivered := reg.BroadcastRaw("poll-1", []byte("x")); delivered != 0 {
		t.Errorf("Expected no deliveries, got %d", delivered)
	}
}

func TestBroadcastToEmptyRoom(t *testing.T) {
	reg := NewRegistry()
	if delivered := reg.Broadcast("nobody-here", map[string]int{"n": 1}); delivered != 0 {
		t.Errorf("Expected 0 deliveries, got %d", delivered)
	}
}

func TestBroadcastPrunesFailedConnections(t *testing.T) {
	reg := NewRegistry()
	good := newFakeConn("good")
	dead := newFakeConn("dead")
	dead.fail = true

	reg.Join("poll-1", good)
	reg.Join("poll-1", dead)

	delivered := reg.BroadcastRaw("poll-1", []byte("hello"))
	if delivered != 1 {
		t.Errorf("Expected 1 delivery, got %d", delivered)
	}
	if reg.Size("poll-1") != 1 {
		t.Errorf("Dead connection should be pruned, room size %d", reg.Size("poll-1"))
	}

	reg.BroadcastRaw("poll-1", []byte("again"))
	if good.count() != 2 {
		t.Errorf("Healthy connection should keep receiving, got %d", good.count())
	}
}

func TestBroadcastUnencodableMessage(t *testing.T) {
	reg := NewRegistry()
	a := newFakeConn("a")
	reg.Join("poll-1", a)

	if delivered := reg.Broadcast("poll-1", make(chan int)); delivered != 0 {
		t.Errorf("Expected 0 deliveries for unencodable message, got %d", delivered)
	}
	if a.count() != 0 {
		t.Error("Nothing should be sent when encoding fails")
	}
}

// TestConcurrentMembershipDuringBroadcast exercises join/leave racing with
// broadcasts; run with -race.
func TestConcurrentMembershipDuringBroadcast(t *testing.T) {
	reg := NewRegistry()
	stable := newFakeConn("stable")
	reg.Join("poll-1", stable)

	const workers = 20
	const rounds = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				c := newFakeConn(fmt.Sprintf("w%d-%d", w, i))
				reg.Join("poll-1", c)
				reg.Leave("poll-1", c)
			}
		}(w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			reg.BroadcastRaw("poll-1", []byte("tick"))
		}
	}()

	wg.Wait()

	if reg.Size("poll-1") != 1 {
		t.Errorf("Expected only the stable member to remain, got %d", reg.Size("poll-1"))
	}
	if stable.count() != rounds {
		t.Errorf("Stable member should get every broadcast, got %d/%d", stable.count(), rounds)
	}
}
