// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/oxpoll/cliparse"
	"github.com/danielhkuo/oxpoll/gateway"
	"github.com/danielhkuo/oxpoll/handlers"
	"github.com/danielhkuo/oxpoll/middleware"
	"github.com/danielhkuo/oxpoll/rooms"
	"github.com/danielhkuo/oxpoll/store"
)

func NewRouter(s *store.Store, reg *rooms.Registry, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(s, cfg)
	responseHandler := handlers.NewResponseHandler(s, cfg)
	realtime := gateway.NewHandler(s, reg, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	// Poll creation
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.CreatePoll))

	// Submissions are limited per client IP
	limit := httprate.LimitByIP(cfg.SubmitRateLimit, time.Minute)

	// Every poll route is served by permanent id and by short code
	for _, prefix := range []string{"/polls/{id}", "/codes/{code}"} {
		mux.HandleFunc("GET "+prefix, middleware.WithLogging(pollHandler.GetSnapshot))
		mux.HandleFunc("GET "+prefix+"/share", middleware.WithLogging(pollHandler.GetShareInfo))
		mux.HandleFunc("POST "+prefix+"/toggle-results", middleware.WithLogging(pollHandler.ToggleResults))
		mux.HandleFunc("POST "+prefix+"/end", middleware.WithLogging(pollHandler.EndPoll))

		mux.Handle("POST "+prefix+"/responses", limit(middleware.WithLogging(responseHandler.SubmitResponse)))
		mux.HandleFunc("GET "+prefix+"/responses/mine", middleware.WithLogging(responseHandler.GetMyParticipation))

		// Realtime
		mux.HandleFunc("GET "+prefix+"/ws", middleware.WithLogging(realtime.Connect))
	}

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("oxpoll API v1"))
	})

	return mux
}
