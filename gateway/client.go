// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gateway

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// ErrSlowConsumer is returned by Send when the client's buffer is full.
// The client is closed; the registry prunes it on the same call.
var ErrSlowConsumer = errors.New("client send buffer full")

// ErrClosed is returned by Send after the client has gone away
var ErrClosed = errors.New("client closed")

// client is one WebSocket connection. Writes happen only in writePump;
// everything else queues into send.
type client struct {
	id      string
	pollID  string
	session string
	conn    *websocket.Conn
	send    chan []byte

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func newClient(conn *websocket.Conn, pollID, session string, buffer int) *client {
	return &client{
		id:      uuid.NewString(),
		pollID:  pollID,
		session: session,
		conn:    conn,
		send:    make(chan []byte, buffer),
		done:    make(chan struct{}),
	}
}

func (c *client) ID() string {
	return c.id
}

// Send queues data without blocking
func (c *client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		slog.Warn("dropping slow realtime client", "client_id", c.id, "poll_id", c.pollID)
		c.closeLocked()
		return ErrSlowConsumer
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// writePump drains send and keeps the peer alive with pings. It owns all
// writes to conn and closes conn on exit, which unblocks readPump.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Debug("realtime write failed", "client_id", c.id, "error", err)
				c.close()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump delivers inbound frames to handle until the peer disconnects
func (c *client) readPump(handle func(data []byte)) {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("realtime connection lost", "client_id", c.id, "error", err)
			}
			return
		}
		handle(data)
	}
}
