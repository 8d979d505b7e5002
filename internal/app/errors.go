package service

import "errors"

// Sentinel kinds for submission processing errors.
var (
	// ErrMatchNotFound means no match exists for (user, date); the whole
	// submission is rejected with no state change.
	ErrMatchNotFound = errors.New("match not found for user and date")

	// ErrProfileNotFound means the player profile expected from signup is
	// missing. Hard error, not recovered.
	ErrProfileNotFound = errors.New("player profile not found")

	// ErrQuarterResolution means a requested quarter number failed to
	// resolve after the create step. This is an invariant violation, logged
	// loudly and surfaced instead of silently dropping the entry.
	ErrQuarterResolution = errors.New("quarter failed to resolve after creation")

	// ErrNotStarted means an operation was invoked before Start.
	ErrNotStarted = errors.New("service not started")
)
