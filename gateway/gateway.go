// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danielhkuo/oxpoll/cliparse"
	"github.com/danielhkuo/oxpoll/identity"
	"github.com/danielhkuo/oxpoll/middleware"
	"github.com/danielhkuo/oxpoll/models"
	"github.com/danielhkuo/oxpoll/rooms"
	"github.com/danielhkuo/oxpoll/store"
)

var messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "oxpoll",
	Name:      "gateway_messages_total",
	Help:      "Realtime client messages received, by type.",
}, []string{"type"})

type Handler struct {
	store    *store.Store
	rooms    *rooms.Registry
	cfg      cliparse.Config
	upgrader websocket.Upgrader
}

func NewHandler(s *store.Store, reg *rooms.Registry, cfg cliparse.Config) *Handler {
	h := &Handler{store: s, rooms: reg, cfg: cfg}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || middleware.OriginAllowed(cfg.AllowedOrigins, origin)
		},
	}
	return h
}

// Connect handles GET /polls/{id}/ws and GET /codes/{code}/ws.
// Unknown polls get 404 and ended polls 410 before any upgrade. Once
// upgraded, the connection joins the poll's room and receives a snapshot.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	poll, err := h.store.Lookup(ctx, r.PathValue("id"), r.PathValue("code"))
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to look up poll for realtime", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !poll.IsActive {
		middleware.ErrorResponse(w, http.StatusGone, "Poll is no longer active")
		return
	}

	session := identity.RequestSession(r)
	if session == "" {
		session = r.URL.Query().Get("session")
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		slog.Debug("websocket upgrade failed", "poll_id", poll.ID, "error", err)
		return
	}

	c := newClient(conn, poll.ID, session, h.cfg.SendBuffer)

	// Join before the first snapshot so no write can fall between them
	h.rooms.Join(poll.ID, c)
	defer h.rooms.Leave(poll.ID, c)

	slog.Info("realtime client joined", "poll_id", poll.ID, "client_id", c.id, "room_size", h.rooms.Size(poll.ID))

	go c.writePump()
	h.sendSnapshot(ctx, c)

	c.readPump(func(data []byte) {
		h.handleMessage(ctx, c, data)
	})

	slog.Info("realtime client left", "poll_id", poll.ID, "client_id", c.id)
}

func (h *Handler) handleMessage(ctx context.Context, c *client, data []byte) {
	var msg models.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		messagesReceived.WithLabelValues("invalid").Inc()
		h.sendError(c, "Invalid message")
		return
	}

	switch msg.Type {
	case models.MessageRequestSnapshot:
		messagesReceived.WithLabelValues(msg.Type).Inc()
		h.sendSnapshot(ctx, c)

	case models.MessageToggleResults:
		messagesReceived.WithLabelValues(msg.Type).Inc()
		h.toggleResults(ctx, c, msg.Session)

	default:
		messagesReceived.WithLabelValues("unknown").Inc()
		h.sendError(c, "Unknown message type")
	}
}

// toggleResults flips visibility for the poll owner. The store broadcasts
// the new snapshot to the whole room, this client included.
func (h *Handler) toggleResults(ctx context.Context, c *client, session string) {
	if session == "" {
		session = c.session
	}

	poll, err := h.store.GetPoll(ctx, c.pollID)
	if err != nil {
		h.sendError(c, "Poll not found")
		return
	}
	if err := store.RequireOwner(poll, session); err != nil {
		h.sendError(c, "Only the poll owner can toggle results")
		return
	}

	_, err = h.store.ToggleResults(ctx, poll.ID)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrInactive):
		h.sendError(c, "Poll is no longer active")
	default:
		slog.Error("failed to toggle results", "poll_id", poll.ID, "error", err)
		h.sendError(c, "Failed to toggle results")
	}
}

// sendSnapshot queues the current snapshot for c alone. It goes through the
// store's publish lock so a concurrent broadcast cannot overtake it.
func (h *Handler) sendSnapshot(ctx context.Context, c *client) {
	err := h.store.SendSnapshot(ctx, c.pollID, func(snap models.Snapshot) {
		h.send(c, models.ServerMessage{Type: models.MessageSnapshot, Data: &snap})
	})
	if err != nil {
		slog.Error("failed to build snapshot", "poll_id", c.pollID, "error", err)
		h.sendError(c, "Failed to load poll")
	}
}

func (h *Handler) sendError(c *client, message string) {
	h.send(c, models.ServerMessage{Type: models.MessageError, Message: message})
}

func (h *Handler) send(c *client, msg models.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to encode realtime message", "error", err)
		return
	}
	if err := c.Send(data); err != nil {
		slog.Debug("realtime send failed", "client_id", c.id, "error", err)
	}
}
