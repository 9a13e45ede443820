package imagery

import "errors"

var (
	// ErrEmptyRegion is returned when a box does not overlap the image.
	ErrEmptyRegion = errors.New("crop region is empty")
	// ErrInvalidScale is returned for a non-positive or non-finite scale
	// factor, or one that makes the crop larger than MaxCropPixels.
	ErrInvalidScale = errors.New("invalid scale")
)
