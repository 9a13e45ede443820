package dataset

import "errors"

var (
	// ErrNotFound is returned when the repository or file does not exist.
	ErrNotFound = errors.New("dataset file not found")
	// ErrUnauthorized is returned when the hub rejects the token.
	ErrUnauthorized = errors.New("dataset access denied")
	// ErrInvalidPath is returned for paths that cannot be cached safely.
	ErrInvalidPath = errors.New("invalid dataset path")
)
