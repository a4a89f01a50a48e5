package supervisor

import "errors"

var (
	// ErrPastDeadline is returned by RunAt/RunIn when the requested instant
	// has already passed. Late one-shots are rejected, never clamped.
	ErrPastDeadline = errors.New("the specified delay is in the past")

	// ErrNotStarted is returned when an operation needs the queue-draining
	// loop and Start has not been called.
	ErrNotStarted = errors.New("supervisor not started")
)
