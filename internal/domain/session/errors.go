package session

import "errors"

var (
	// ErrNoFolders indicates there is no folder set to annotate.
	ErrNoFolders = errors.New("no folder sets loaded")
	// ErrInvalidInput indicates a missing image or label id.
	ErrInvalidInput = errors.New("invalid session input")
)
