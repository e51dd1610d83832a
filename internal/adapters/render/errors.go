package render

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrStatus   = errors.New("unexpected response status")
	ErrTooLarge = errors.New("document exceeds size limit")
)
