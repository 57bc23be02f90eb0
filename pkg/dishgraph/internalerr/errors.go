package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDuplicateNaturalKey = errors.New("duplicate natural key")
	ErrSourceUnavailable   = errors.New("source unavailable")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrInvalidConfig       = errors.New("invalid configuration")
)
