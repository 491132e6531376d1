package registrations

import "errors"

// Workflow errors returned to the API boundary. Each one reflects a
// business-rule violation and is never retried.
var (
	// ErrNotFound means the event or registration does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a registration already exists for the (user, event) pair.
	ErrConflict = errors.New("already registered")
	// ErrEventFull means the approved count has reached the event capacity.
	ErrEventFull = errors.New("event is full")
	// ErrEventNotOpen means the event is not accepting registrations.
	ErrEventNotOpen = errors.New("event is not open for registration")
	// ErrInvalidTransition means the registration was already reviewed.
	ErrInvalidTransition = errors.New("registration already reviewed")
)
