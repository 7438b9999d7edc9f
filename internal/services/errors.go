package services

import "errors"

// Sentinel errors for the distinct failure kinds the API surfaces.
// Services wrap them with context via fmt.Errorf("...: %w", Err...),
// handlers match with errors.Is to pick a status code.
var (
	// ErrNotFound is returned when a referenced test, session or question
	// is absent or inactive.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the actor is not the resource's owner.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState is returned when an operation is attempted outside
	// its legal state-machine transition.
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict is returned on a duplicate submission.
	ErrConflict = errors.New("conflict")
	// ErrValidation is returned on a malformed payload.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream is returned when the external question generator fails
	// or returns unparseable content.
	ErrUpstream = errors.New("upstream failure")
)
