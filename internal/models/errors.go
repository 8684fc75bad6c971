package models

import "errors"

// Sentinel errors shared across services and handlers. Handlers map these
// to HTTP status codes with errors.Is.
var (
	// ErrAccessDenied indicates the user lacks the required space or
	// challenge role for the operation.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyJoined indicates a duplicate membership attempt.
	ErrAlreadyJoined = errors.New("already joined")

	// ErrUnsupportedSelection indicates a selection function was invoked
	// for an operation it does not implement.
	ErrUnsupportedSelection = errors.New("unsupported selection function")

	// ErrEmptyAggregation indicates MAX or MIN aggregation over an empty
	// value set.
	ErrEmptyAggregation = errors.New("aggregation over empty value set")

	// ErrChallengeFinished indicates a write against a finished challenge.
	ErrChallengeFinished = errors.New("challenge is finished")
)
