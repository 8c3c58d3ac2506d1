package queue

import "errors"

// Sentinel kinds for consumer errors.
var (
	ErrStopped = errors.New("queue stopped")
)
