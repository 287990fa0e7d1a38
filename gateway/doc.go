// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package gateway serves the realtime WebSocket protocol for a poll.

# Connecting

	GET /polls/{id}/ws
	GET /codes/{code}/ws

Unknown polls get 404 and ended polls 410 before the upgrade. After the
upgrade the connection joins the poll's room and is sent a snapshot, so a
client never has to race for its initial state.

# Messages

Client to server:

	{"type": "request_snapshot"}
	{"type": "toggle_results", "session": "<owner session>"}

Server to client:

	{"type": "snapshot", "data": {...}}
	{"type": "error", "message": "..."}

toggle_results is honored only for the poll owner. The session may be
carried in the message, or captured at connect time from the
X-Owner-Session header, the oxpoll_session cookie, or a ?session= query
parameter.

# Backpressure

Each connection has a bounded send buffer. A client that falls behind is
closed and pruned from its room instead of stalling the broadcast.
*/
package gateway
