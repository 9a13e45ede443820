package repository

import (
	"context"

	"github.com/rpggio/triplet-annotator/internal/domain/analytics"
	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
)

// AnnotationRepository manages the annotation file
type AnnotationRepository interface {
	Ensure() (string, error)
	Load(store *annotation.Store) (int, error)
	SaveAll(labels []annotation.Label) (int, error)
	SaveAndMerge(current map[string]struct{}, labels []annotation.Label) (kept, written int, err error)
}

// VisitRepository manages visit persistence
type VisitRepository interface {
	Record(ctx context.Context, visit *analytics.Visit) error
	Summary(ctx context.Context) (analytics.Summary, error)
	Countries(ctx context.Context) ([]analytics.Count, error)
	VisitsByDate(ctx context.Context, limit int) ([]analytics.Count, error)
	UserAgents(ctx context.Context, limit int) ([]analytics.Count, error)
}
