// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the oxpoll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(store, registry, cfg)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics   - Prometheus exposition

Poll lifecycle:

	POST /polls                      - Create poll
	GET  /polls/{id}                 - Snapshot (also for ended polls)
	GET  /polls/{id}/share           - Share links
	POST /polls/{id}/toggle-results  - Show/hide results (owner)
	POST /polls/{id}/end             - End poll (owner)

Responses:

	POST /polls/{id}/responses       - Submit (rate limited per IP)
	GET  /polls/{id}/responses/mine  - Caller's participation

Realtime:

	GET /polls/{id}/ws               - WebSocket

Every /polls/{id}/... route is mirrored under /codes/{code}/... for
the 4-digit short code.
*/
package router
