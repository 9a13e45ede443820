package analytics

import "time"

// UnknownCountry is recorded when the country of a visitor cannot be resolved.
const UnknownCountry = "Unknown"

// Visit is one tracked page view.
type Visit struct {
	ID        int64     `json:"id"`
	VisitorID string    `json:"visitor_id"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Country   string    `json:"country"`
	Date      string    `json:"date"`
	VisitedAt time.Time `json:"visited_at"`
}

// Visitor describes who made a request.
type Visitor struct {
	IP        string
	UserAgent string
}

// Summary holds the headline counters.
type Summary struct {
	TotalVisits    int        `json:"total_visits"`
	UniqueVisitors int        `json:"unique_visitors"`
	CountryCount   int        `json:"country_count"`
	FirstVisit     *time.Time `json:"first_visit,omitempty"`
	LastVisit      *time.Time `json:"last_visit,omitempty"`
}

// Count is a key with the number of visits attributed to it.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Stats is everything the statistics page shows.
type Stats struct {
	Summary
	Countries    []Count `json:"countries"`
	VisitsByDate []Count `json:"visits_by_date"`
	UserAgents   []Count `json:"user_agents"`
}
