package models

import "errors"

// Error kinds callers switch on with errors.Is. Store connectivity failures
// are not a sentinel: they arrive wrapped from the store client and are any
// error that is not one of these.
var (
	// ErrQueueEmpty signals there is nothing to dequeue. Control flow, not a
	// failure: workers back off instead of logging it.
	ErrQueueEmpty = errors.New("queue is empty")

	// ErrMalformedPayment marks a stored payload that cannot be decoded.
	// Never retried.
	ErrMalformedPayment = errors.New("malformed payment payload")
)
