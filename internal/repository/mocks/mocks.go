package mocks

import (
	"context"

	"github.com/rpggio/triplet-annotator/internal/domain/analytics"
	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
	"github.com/stretchr/testify/mock"
)

// AnnotationRepository is a mock for repository.AnnotationRepository.
type AnnotationRepository struct {
	mock.Mock
}

func (m *AnnotationRepository) Ensure() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *AnnotationRepository) Load(store *annotation.Store) (int, error) {
	args := m.Called(store)
	return args.Int(0), args.Error(1)
}

func (m *AnnotationRepository) SaveAll(labels []annotation.Label) (int, error) {
	args := m.Called(labels)
	return args.Int(0), args.Error(1)
}

func (m *AnnotationRepository) SaveAndMerge(current map[string]struct{}, labels []annotation.Label) (int, int, error) {
	args := m.Called(current, labels)
	return args.Int(0), args.Int(1), args.Error(2)
}

// VisitRepository is a mock for repository.VisitRepository.
type VisitRepository struct {
	mock.Mock
}

func (m *VisitRepository) Record(ctx context.Context, visit *analytics.Visit) error {
	args := m.Called(ctx, visit)
	return args.Error(0)
}

func (m *VisitRepository) Summary(ctx context.Context) (analytics.Summary, error) {
	args := m.Called(ctx)
	if s, ok := args.Get(0).(analytics.Summary); ok {
		return s, args.Error(1)
	}
	return analytics.Summary{}, args.Error(1)
}

func (m *VisitRepository) Countries(ctx context.Context) ([]analytics.Count, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]analytics.Count); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VisitRepository) VisitsByDate(ctx context.Context, limit int) ([]analytics.Count, error) {
	args := m.Called(ctx, limit)
	if list, ok := args.Get(0).([]analytics.Count); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *VisitRepository) UserAgents(ctx context.Context, limit int) ([]analytics.Count, error) {
	args := m.Called(ctx, limit)
	if list, ok := args.Get(0).([]analytics.Count); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// GeoLocator is a mock for analytics.GeoLocator.
type GeoLocator struct {
	mock.Mock
}

func (m *GeoLocator) Country(ctx context.Context, ip string) (string, error) {
	args := m.Called(ctx, ip)
	return args.String(0), args.Error(1)
}
