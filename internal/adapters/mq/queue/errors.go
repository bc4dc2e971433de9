package queue

import "errors"

// Sentinel errors for the outbox.
var (
	ErrFull   = errors.New("outbox full")
	ErrClosed = errors.New("outbox closed")
)
