// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rooms

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Conn is a live subscriber. Send must not block: implementations queue the
// message or fail fast when the peer is gone or too slow.
type Conn interface {
	ID() string
	Send(data []byte) error
}

// Registry indexes live connections by poll. It never owns a connection's
// lifecycle; it only tracks membership.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[string]Conn)}
}

// Join adds c to the poll's room, creating the room on first use
func (r *Registry) Join(pollID string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[pollID]
	if !ok {
		room = make(map[string]Conn)
		r.rooms[pollID] = room
		roomsActive.Inc()
	}
	if _, exists := room[c.ID()]; !exists {
		room[c.ID()] = c
		connectionsActive.Inc()
	}
}

// Leave removes c from the poll's room. Leaving twice, or without having
// joined, is a no-op.
func (r *Registry) Leave(pollID string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(pollID, c.ID())
}

func (r *Registry) leaveLocked(pollID, connID string) {
	room, ok := r.rooms[pollID]
	if !ok {
		return
	}
	if _, exists := room[connID]; !exists {
		return
	}

	delete(room, connID)
	connectionsActive.Dec()

	if len(room) == 0 {
		delete(r.rooms, pollID)
		roomsActive.Dec()
	}
}

// Size returns how many connections are joined to the poll's room
func (r *Registry) Size(pollID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[pollID])
}

// members copies the room so sends happen outside the lock
func (r *Registry) members(pollID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[pollID]
	out := make([]Conn, 0, len(room))
	for _, c := range room {
		out = append(out, c)
	}
	return out
}

// Broadcast encodes msg once and sends it to every connection in the poll's
// room, returning how many accepted it. Connections that fail are pruned.
func (r *Registry) Broadcast(pollID string, msg any) int {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to encode broadcast", "poll_id", pollID, "error", err)
		return 0
	}
	return r.BroadcastRaw(pollID, data)
}

// BroadcastRaw sends pre-encoded data to the poll's room
func (r *Registry) BroadcastRaw(pollID string, data []byte) int {
	broadcastsTotal.Inc()

	delivered := 0
	for _, c := range r.members(pollID) {
		if err := c.Send(data); err != nil {
			slog.Debug("dropping connection from room", "poll_id", pollID, "conn_id", c.ID(), "error", err)
			broadcastDropped.Inc()
			r.mu.Lock()
			r.leaveLocked(pollID, c.ID())
			r.mu.Unlock()
			continue
		}
		delivered++
	}

	broadcastDeliveries.Add(float64(delivered))
	return delivered
}
