// Package imagery decodes annotation images and renders derived views of
// them: a single box cropped out of an image, and a preview with every label
// drawn on top.
//
// Decoded images are kept in a bounded LRU cache keyed by file path, so
// flipping between the three images of a triplet does not re-read the disk.
package imagery
