package cache

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrReadDegraded marks a lookup that failed and was served as a miss.
	ErrReadDegraded = errors.New("cache read degraded")
	// ErrWriteDegraded marks a snapshot that could not be stored.
	ErrWriteDegraded = errors.New("cache write degraded")
	// ErrClosed is returned by stores used after Close.
	ErrClosed = errors.New("cache store closed")
	// ErrUnknownBackend is returned by Open for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")
)
