package parse

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptyDocument = errors.New("empty document")
	ErrMalformed     = errors.New("malformed document")
)
