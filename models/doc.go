// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, domain, and realtime wire types.

# Domain Types

  - Poll: question, kind, short code, and lifecycle flags
  - Response: one vote or short answer, keyed by client fingerprint

Owner sessions and fingerprints carry `json:"-"` so they never leave the server.

# Aggregate Types

  - BinaryTally: O/X counts and percentages
  - FreeTextTable: totals plus a frequency-ranked answer list
  - Snapshot: the only shape pushed to viewers (HTTP and realtime)

# Realtime Messages

Client to server:

	{"type": "request_snapshot"}
	{"type": "toggle_results", "session": "<owner session>"}

Server to client:

	{"type": "snapshot", "data": {...}}
	{"type": "error", "message": "..."}

# Constants

Kinds:

	KindBinary   = "binary"
	KindFreeText = "free_text"

Binary choices:

	ChoiceO = "O"
	ChoiceX = "X"
*/
package models
