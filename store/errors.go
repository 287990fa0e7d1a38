// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import "errors"

// Validation errors: bad input, surfaced to the caller, never retried
var (
	ErrEmptyQuestion   = errors.New("question text is required")
	ErrInvalidKind     = errors.New("kind must be binary or free_text")
	ErrInvalidChoice   = errors.New("choice must be O or X")
	ErrInvalidResponse = errors.New("response must be 1-200 characters")
)

// Conflict errors
var (
	ErrAlreadyResponded   = errors.New("already responded to this poll")
	ErrCodeSpaceExhausted = errors.New("no free short code available")
)

// Lookup and authorization errors
var (
	ErrNotFound = errors.New("poll not found")
	ErrInactive = errors.New("poll is inactive")
	ErrNotOwner = errors.New("not the poll owner")
)

// IsValidation reports whether err is caused by invalid caller input
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyQuestion) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrInvalidChoice) ||
		errors.Is(err, ErrInvalidResponse)
}

// IsConflict reports whether err is a uniqueness conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyResponded) || errors.Is(err, ErrCodeSpaceExhausted)
}
