package profile

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrFetchTimeout = errors.New("profile fetch timed out")
	ErrFetch        = errors.New("profile fetch failed")
	ErrParse        = errors.New("profile parse failed")
)
