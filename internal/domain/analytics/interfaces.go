package analytics

import "context"

// VisitRepository provides persistence for visits.
type VisitRepository interface {
	Record(ctx context.Context, visit *Visit) error
	Summary(ctx context.Context) (Summary, error)
	Countries(ctx context.Context) ([]Count, error)
	VisitsByDate(ctx context.Context, limit int) ([]Count, error)
	UserAgents(ctx context.Context, limit int) ([]Count, error)
}

// GeoLocator resolves the country of an IP address.
type GeoLocator interface {
	Country(ctx context.Context, ip string) (string, error)
}
