// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the oxpoll API.

# Handler Types

Each handler is a struct with store and config dependencies:

  - PollHandler: poll lifecycle (create, snapshot, share info, toggle, end)
  - ResponseHandler: response submission and the caller's participation

Handlers are created via constructor functions that accept *store.Store and Config:

	pollHandler := handlers.NewPollHandler(s, cfg)

# Addressing

Every poll route exists twice, once by permanent id and once by the 4-digit
short code people type in:

	GET /polls/{id}
	GET /codes/{code}

A code route resolves the active poll holding that code and otherwise the
most recent ended one, so an ended poll answers 410 rather than 404.

# Poll Lifecycle

	POST /polls                      → CreatePoll (returns owner_session, sets cookie)
	GET  /polls/{id}/share           → GetShareInfo (vote_url, simple_url)
	POST /polls/{id}/toggle-results  → ToggleResults (owner only)
	POST /polls/{id}/end             → EndPoll (owner only)

Owner operations read the session from the X-Owner-Session header or the
oxpoll_session cookie.

# Share Links

Share info carries two links built from Config.BaseURL:

	vote_url    <BaseURL>/<code>/   (encoded into the QR code)
	simple_url  <host>/<code>       (read out or typed by hand)

BaseURL is the public address of the web front end, not of this API. The
front end serves the voting page at /<code>/ and talks to /codes/{code}
here; this server registers no bare /{code} route.

# Responses

	POST /polls/{id}/responses       → SubmitResponse
	GET  /polls/{id}/responses/mine  → GetMyParticipation

Participants are identified by a fingerprint of client IP and User-Agent.
Binary polls accept one response per fingerprint; a second one is 409.

# Status Codes

	400 invalid input
	403 not the poll owner
	404 unknown poll
	409 already responded, or no short code free
	410 poll has ended
*/
package handlers
