package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	// DateLayout is the per-day bucket format.
	DateLayout = "2006-01-02"

	statsDays       = 30
	statsUserAgents = 10
)

// Service records visits and builds the statistics view.
type Service struct {
	mu     sync.Mutex
	visits VisitRepository
	geo    GeoLocator
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a new analytics service. geo may be nil to skip
// country lookups.
func NewService(visits VisitRepository, geo GeoLocator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		visits: visits,
		geo:    geo,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// UserAgentHash returns the short digest used to tell visitors apart.
func UserAgentHash(userAgent string) string {
	sum := sha256.Sum256([]byte(userAgent))
	return hex.EncodeToString(sum[:])[:8]
}

// VisitorID identifies a visitor by address and browser.
func VisitorID(v Visitor) string {
	return v.IP + "_" + UserAgentHash(v.UserAgent)
}

// Track records one visit. The country lookup runs before the write lock is
// taken; a failed lookup records UnknownCountry.
func (s *Service) Track(ctx context.Context, v Visitor) (*Visit, error) {
	country := s.country(ctx, v.IP)
	now := s.now()

	userAgent := v.UserAgent
	if userAgent == "" {
		userAgent = "Unknown"
	}

	visit := &Visit{
		VisitorID: VisitorID(v),
		IP:        v.IP,
		UserAgent: userAgent,
		Country:   country,
		Date:      now.Format(DateLayout),
		VisitedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.visits.Record(ctx, visit); err != nil {
		return nil, fmt.Errorf("recording visit: %w", err)
	}
	s.logger.Debug("visit tracked", "visitor", visit.VisitorID, "country", country)
	return visit, nil
}

// Summary returns the headline counters only.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	summary, err := s.visits.Summary(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("loading visit summary: %w", err)
	}
	return summary, nil
}

// Stats returns the full statistics view: countries by visits, the last 30
// days with visits newest first, and the ten most common user agents.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return nil, err
	}
	countries, err := s.visits.Countries(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading countries: %w", err)
	}
	byDate, err := s.visits.VisitsByDate(ctx, statsDays)
	if err != nil {
		return nil, fmt.Errorf("loading visits by date: %w", err)
	}
	agents, err := s.visits.UserAgents(ctx, statsUserAgents)
	if err != nil {
		return nil, fmt.Errorf("loading user agents: %w", err)
	}

	return &Stats{
		Summary:      summary,
		Countries:    countries,
		VisitsByDate: byDate,
		UserAgents:   agents,
	}, nil
}

func (s *Service) country(ctx context.Context, ip string) string {
	if s.geo == nil || ip == "" {
		return UnknownCountry
	}
	country, err := s.geo.Country(ctx, ip)
	if err != nil || country == "" {
		s.logger.Debug("country lookup failed", "ip", ip, "error", err)
		return UnknownCountry
	}
	return country
}
