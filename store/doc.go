// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package store persists polls and responses and computes snapshots.
//
// Every successful mutation (SubmitResponse, ToggleResults, EndPoll) commits
// first and then broadcasts a fresh snapshot through the injected
// Broadcaster. One-vote-per-client on binary polls is enforced by a unique
// constraint on (poll_id, client_fingerprint); constraint violations map to
// ErrAlreadyResponded no matter which path raced.
package store
