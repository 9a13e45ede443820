package analytics

import "errors"

// ErrLookupFailed indicates the geolocation service gave no answer.
var ErrLookupFailed = errors.New("country lookup failed")
