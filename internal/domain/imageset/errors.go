package imageset

import "errors"

var (
	// ErrNoFolders indicates a scan produced no folder with a complete triplet.
	ErrNoFolders = errors.New("no folders found with all three required image types (sr_int_full.png, -tr_line.png, -tr_int_full.png)")
)
