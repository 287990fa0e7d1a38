// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/oxpoll/cliparse"
	"github.com/danielhkuo/oxpoll/identity"
	"github.com/danielhkuo/oxpoll/middleware"
	"github.com/danielhkuo/oxpoll/models"
	"github.com/danielhkuo/oxpoll/store"
)

type ResponseHandler struct {
	store *store.Store
	cfg   cliparse.Config
}

func NewResponseHandler(s *store.Store, cfg cliparse.Config) *ResponseHandler {
	return &ResponseHandler{store: s, cfg: cfg}
}

// SubmitResponse handles POST /polls/{id}/responses.
// Binary polls take "O" or "X"; free-text polls take up to 200 characters.
func (h *ResponseHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	poll, ok := lookupActivePoll(w, r, h.store)
	if !ok {
		return
	}

	var req models.SubmitResponseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	resp, err := h.store.SubmitResponse(r.Context(), poll, identity.RequestFingerprint(r), req.Value)
	if err != nil {
		writeStoreError(w, err, "submit response")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitResponseResponse{
		ResponseID: resp.ID,
		Message:    "Response recorded",
	})
}

// GetMyParticipation handles GET /polls/{id}/responses/mine
func (h *ResponseHandler) GetMyParticipation(w http.ResponseWriter, r *http.Request) {
	poll, ok := lookupPoll(w, r, h.store)
	if !ok {
		return
	}

	out, err := h.store.Participation(r.Context(), poll, identity.RequestFingerprint(r))
	if err != nil {
		writeStoreError(w, err, "load participation")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, out)
}
