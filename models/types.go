// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Kind is the response shape a poll accepts. It never changes after creation.
type Kind string

const (
	KindBinary   Kind = "binary"
	KindFreeText Kind = "free_text"
)

// Valid reports whether k is a known poll kind.
func (k Kind) Valid() bool {
	return k == KindBinary || k == KindFreeText
}

// Binary choices
const (
	ChoiceO = "O"
	ChoiceX = "X"
)

// Realtime message types
const (
	MessageSnapshot        = "snapshot"
	MessageError           = "error"
	MessageRequestSnapshot = "request_snapshot"
	MessageToggleResults   = "toggle_results"
)

// Domain types

type Poll struct {
	ID           string    `json:"id"`
	ShortCode    string    `json:"short_code"`
	Text         string    `json:"text"`
	Kind         Kind      `json:"kind"`
	IsActive     bool      `json:"is_active"`
	ShowResults  bool      `json:"show_results"`
	OwnerSession string    `json:"-"` // Never expose in JSON
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}

// Response is a single vote (binary) or short answer (free text).
type Response struct {
	ID                string    `json:"id"`
	PollID            string    `json:"poll_id"`
	ClientFingerprint string    `json:"-"` // Never expose in JSON
	Value             string    `json:"value"`
	CreatedAt         time.Time `json:"created_at"`
}

// Aggregate types

type BinaryTally struct {
	TotalVotes  int     `json:"total_votes"`
	OVotes      int     `json:"o_votes"`
	XVotes      int     `json:"x_votes"`
	OPercentage float64 `json:"o_percentage"`
	XPercentage float64 `json:"x_percentage"`
}

type FrequencyEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type FreeTextTable struct {
	TotalResponses     int              `json:"total_responses"`
	UniqueParticipants int              `json:"unique_participants"`
	Frequencies        []FrequencyEntry `json:"frequencies"`
}

// Snapshot is what viewers see. It carries only aggregates, never raw responses.
type Snapshot struct {
	PollID      string         `json:"poll_id"`
	ShortCode   string         `json:"short_code"`
	Text        string         `json:"text"`
	Kind        Kind           `json:"kind"`
	IsActive    bool           `json:"is_active"`
	ShowResults bool           `json:"show_results"`
	Tally       *BinaryTally   `json:"tally,omitempty"`
	Table       *FreeTextTable `json:"table,omitempty"`
}

// Realtime wire messages

type ClientMessage struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
}

type ServerMessage struct {
	Type    string    `json:"type"`
	Data    *Snapshot `json:"data,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Request types

type CreatePollRequest struct {
	Text string `json:"text"`
	Kind Kind   `json:"kind"`
}

type SubmitResponseRequest struct {
	Value string `json:"value"`
}

// Response types

type CreatePollResponse struct {
	PollID       string `json:"poll_id"`
	ShortCode    string `json:"short_code"`
	OwnerSession string `json:"owner_session"`
	VoteURL      string `json:"vote_url"`
}

type ShareInfoResponse struct {
	PollID    string `json:"poll_id"`
	ShortCode string `json:"short_code"`
	Text      string `json:"text"`
	Kind      Kind   `json:"kind"`
	VoteURL   string `json:"vote_url"`
	SimpleURL string `json:"simple_url"`
}

type SubmitResponseResponse struct {
	ResponseID string `json:"response_id"`
	Message    string `json:"message"`
}

type MyParticipationResponse struct {
	AlreadyVoted  bool `json:"already_voted"`
	ResponseCount int  `json:"response_count"`
}

type EndPollResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
