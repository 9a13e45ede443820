package annotation

import "errors"

var (
	// ErrLabelNotFound indicates no label matched the image and id.
	ErrLabelNotFound = errors.New("label not found")
	// ErrInvalidInput indicates a missing image, id or class name.
	ErrInvalidInput = errors.New("invalid label input")
)
