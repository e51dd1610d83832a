package lobby

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidRequest rejects an empty batch, a blank identity or an oversized batch.
	ErrInvalidRequest = errors.New("invalid lobby request")
	// ErrUnavailable reports that tasks can no longer be dispatched. Dispatchers
	// wrap it when they have been stopped.
	ErrUnavailable = errors.New("lobby resolution unavailable")
	// ErrAbandoned marks a task the batch stopped waiting for.
	ErrAbandoned = errors.New("task abandoned by batch")
)
