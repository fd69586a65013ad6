package services

import "errors"

// Failure kinds surfaced to callers. Handlers map these onto HTTP statuses
// with errors.Is; services wrap them with context via fmt.Errorf and %w.
var (
	// ErrInvalidInput marks malformed amounts or fields; the user corrects and retries
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a referenced user or record that does not exist
	ErrNotFound = errors.New("not found")

	// ErrCapacityExceeded marks a business-rule refusal: the funder cap is already reached
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrConflict marks a lost race for a constrained resource; the caller may retry
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized marks a missing session or a role mismatch
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTimeout marks a data-store round trip that exceeded its deadline
	ErrTimeout = errors.New("timeout")
)
