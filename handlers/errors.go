// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/oxpoll/middleware"
	"github.com/danielhkuo/oxpoll/models"
	"github.com/danielhkuo/oxpoll/store"
)

// writeStoreError maps store errors onto HTTP statuses. Anything the store
// does not classify is logged and hidden behind a 500.
func writeStoreError(w http.ResponseWriter, err error, action string) {
	switch {
	case store.IsValidation(err):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotOwner):
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the poll owner can do this")
	case errors.Is(err, store.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
	case store.IsConflict(err):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInactive):
		middleware.ErrorResponse(w, http.StatusGone, "Poll is no longer active")
	default:
		slog.Error("failed to "+action, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

// lookupPoll resolves {id} or {code} from the route. Ended polls stay
// readable by id; a code that only matches an ended poll answers 410.
// On failure it has already written the response.
func lookupPoll(w http.ResponseWriter, r *http.Request, s *store.Store) (models.Poll, bool) {
	code := r.PathValue("code")
	poll, err := s.Lookup(r.Context(), r.PathValue("id"), code)
	if err == nil && code != "" {
		err = store.RequireActive(poll)
	}
	if err != nil {
		writeStoreError(w, err, "load poll")
		return models.Poll{}, false
	}
	return poll, true
}

// lookupActivePoll is lookupPoll plus 410 for ended polls
func lookupActivePoll(w http.ResponseWriter, r *http.Request, s *store.Store) (models.Poll, bool) {
	poll, ok := lookupPoll(w, r, s)
	if !ok {
		return models.Poll{}, false
	}
	// Already checked for code routes
	if err := store.RequireActive(poll); err != nil {
		writeStoreError(w, err, "load poll")
		return models.Poll{}, false
	}
	return poll, true
}
