package session

import "github.com/rpggio/triplet-annotator/internal/domain/annotation"

// AnnotationRepository writes classified labels to durable storage.
type AnnotationRepository interface {
	SaveAll(labels []annotation.Label) (int, error)
	SaveAndMerge(current map[string]struct{}, labels []annotation.Label) (kept, written int, err error)
}
