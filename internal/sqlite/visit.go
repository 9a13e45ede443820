package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/triplet-annotator/internal/domain/analytics"
	"github.com/rpggio/triplet-annotator/internal/repository"
)

var _ repository.VisitRepository = (*VisitRepository)(nil)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// VisitRepository implements repository.VisitRepository for SQLite
type VisitRepository struct {
	db *DB
}

// NewVisitRepository creates a new VisitRepository
func NewVisitRepository(db *DB) *VisitRepository {
	return &VisitRepository{db: db}
}

// Record inserts a new visit
func (r *VisitRepository) Record(ctx context.Context, visit *analytics.Visit) error {
	if visit == nil || visit.VisitorID == "" {
		return fmt.Errorf("%w: visitor id is required", repository.ErrInvalidInput)
	}
	visitedAt := visit.VisitedAt
	if visitedAt.IsZero() {
		visitedAt = time.Now()
	}
	date := visit.Date
	if date == "" {
		date = visitedAt.Format(analytics.DateLayout)
	}

	query := `
		INSERT INTO visits (
			visitor_id, ip, user_agent, country, visit_date, visited_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		visit.VisitorID,
		visit.IP,
		visit.UserAgent,
		visit.Country,
		date,
		visitedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record visit: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		visit.ID = id
	}

	visit.Date = date
	visit.VisitedAt = visitedAt

	return nil
}

// Summary returns the visit totals and the first and last visit times
func (r *VisitRepository) Summary(ctx context.Context) (analytics.Summary, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(DISTINCT visitor_id),
			COUNT(DISTINCT country),
			MIN(visited_at),
			MAX(visited_at)
		FROM visits
	`

	var summary analytics.Summary
	var first, last sql.NullString
	err := r.db.QueryRowContext(ctx, query).Scan(
		&summary.TotalVisits,
		&summary.UniqueVisitors,
		&summary.CountryCount,
		&first,
		&last,
	)
	if err != nil {
		return analytics.Summary{}, fmt.Errorf("failed to summarize visits: %w", err)
	}

	if summary.FirstVisit, err = parseTime(first); err != nil {
		return analytics.Summary{}, err
	}
	if summary.LastVisit, err = parseTime(last); err != nil {
		return analytics.Summary{}, err
	}

	return summary, nil
}

// Countries returns visit counts per country, most visits first
func (r *VisitRepository) Countries(ctx context.Context) ([]analytics.Count, error) {
	query := `
		SELECT country, COUNT(*) AS visits
		FROM visits
		GROUP BY country
		ORDER BY visits DESC, country ASC
	`
	return r.counts(ctx, query)
}

// VisitsByDate returns visit counts for the most recent days with visits
func (r *VisitRepository) VisitsByDate(ctx context.Context, limit int) ([]analytics.Count, error) {
	query := `
		SELECT visit_date, COUNT(*) AS visits
		FROM visits
		GROUP BY visit_date
		ORDER BY visit_date DESC
		LIMIT ?
	`
	return r.counts(ctx, query, limit)
}

// UserAgents returns the most common user agents
func (r *VisitRepository) UserAgents(ctx context.Context, limit int) ([]analytics.Count, error) {
	query := `
		SELECT user_agent, COUNT(*) AS visits
		FROM visits
		GROUP BY user_agent
		ORDER BY visits DESC, user_agent ASC
		LIMIT ?
	`
	return r.counts(ctx, query, limit)
}

func (r *VisitRepository) counts(ctx context.Context, query string, args ...interface{}) ([]analytics.Count, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query visit counts: %w", err)
	}
	defer rows.Close()

	counts := []analytics.Count{}
	for rows.Next() {
		var c analytics.Count
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan visit count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visit counts: %w", err)
	}

	return counts, nil
}

func parseTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, value.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse visit time %q: %w", value.String, err)
	}
	return &t, nil
}
