// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/danielhkuo/oxpoll/cliparse"
	"github.com/danielhkuo/oxpoll/identity"
	"github.com/danielhkuo/oxpoll/middleware"
	"github.com/danielhkuo/oxpoll/models"
	"github.com/danielhkuo/oxpoll/store"
)

// sessionMaxAge keeps the owner cookie for a day; idle polls end long before
const sessionMaxAge = 24 * 60 * 60

type PollHandler struct {
	store *store.Store
	cfg   cliparse.Config
}

func NewPollHandler(s *store.Store, cfg cliparse.Config) *PollHandler {
	return &PollHandler{store: s, cfg: cfg}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Keep the caller's session if they already own polls
	session := identity.RequestSession(r)
	if session == "" {
		var err error
		session, err = identity.GenerateOwnerSession()
		if err != nil {
			slog.Error("failed to generate owner session", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
			return
		}
	}

	poll, err := h.store.CreatePoll(r.Context(), req.Text, req.Kind, session)
	if err != nil {
		writeStoreError(w, err, "create poll")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     identity.SessionCookie,
		Value:    session,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   strings.HasPrefix(h.cfg.BaseURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	})

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		PollID:       poll.ID,
		ShortCode:    poll.ShortCode,
		OwnerSession: session,
		VoteURL:      h.voteURL(poll.ShortCode),
	})
}

// GetSnapshot handles GET /polls/{id} and GET /codes/{code}.
// Ended polls are still viewable by id; by code they answer 410.
func (h *PollHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	poll, ok := lookupPoll(w, r, h.store)
	if !ok {
		return
	}

	snap, err := h.store.Snapshot(r.Context(), poll.ID)
	if err != nil {
		writeStoreError(w, err, "load snapshot")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, snap)
}

// GetShareInfo handles GET /polls/{id}/share. The owner fetching it counts
// as activity.
func (h *PollHandler) GetShareInfo(w http.ResponseWriter, r *http.Request) {
	poll, ok := lookupActivePoll(w, r, h.store)
	if !ok {
		return
	}

	if _, err := h.store.Touch(r.Context(), poll, identity.RequestSession(r)); err != nil {
		// Share info is still useful without the refresh
		slog.Warn("failed to refresh poll activity", "poll_id", poll.ID, "error", err)
	}

	middleware.JSONResponse(w, http.StatusOK, models.ShareInfoResponse{
		PollID:    poll.ID,
		ShortCode: poll.ShortCode,
		Text:      poll.Text,
		Kind:      poll.Kind,
		VoteURL:   h.voteURL(poll.ShortCode),
		SimpleURL: h.simpleURL(poll.ShortCode),
	})
}

// ToggleResults handles POST /polls/{id}/toggle-results (owner only)
func (h *PollHandler) ToggleResults(w http.ResponseWriter, r *http.Request) {
	poll, ok := lookupActivePoll(w, r, h.store)
	if !ok {
		return
	}

	if err := store.RequireOwner(poll, identity.RequestSession(r)); err != nil {
		writeStoreError(w, err, "toggle results")
		return
	}

	if _, err := h.store.ToggleResults(r.Context(), poll.ID); err != nil {
		writeStoreError(w, err, "toggle results")
		return
	}

	snap, err := h.store.Snapshot(r.Context(), poll.ID)
	if err != nil {
		writeStoreError(w, err, "load snapshot")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, snap)
}

// EndPoll handles POST /polls/{id}/end (owner only)
func (h *PollHandler) EndPoll(w http.ResponseWriter, r *http.Request) {
	poll, ok := lookupActivePoll(w, r, h.store)
	if !ok {
		return
	}

	if err := store.RequireOwner(poll, identity.RequestSession(r)); err != nil {
		writeStoreError(w, err, "end poll")
		return
	}

	if err := h.store.EndPoll(r.Context(), poll.ID); err != nil {
		writeStoreError(w, err, "end poll")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.EndPollResponse{
		Success: true,
		Message: "Poll ended",
	})
}

// voteURL is the front end's voting page for code
func (h *PollHandler) voteURL(code string) string {
	return h.cfg.BaseURL + "/" + code + "/"
}

// simpleURL is the short form people type by hand: host/code
func (h *PollHandler) simpleURL(code string) string {
	host := h.cfg.BaseURL
	if u, err := url.Parse(h.cfg.BaseURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return host + "/" + code
}
