package mcp

import (
	"time"

	"github.com/rpggio/triplet-annotator/internal/domain/analytics"
	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
	"github.com/rpggio/triplet-annotator/internal/domain/session"
)

type EmptyParams struct{}

type AddBoxParams struct {
	Image  string  `json:"image" jsonschema:"image path as shown in the current state"`
	TempID string  `json:"temp_id,omitempty" jsonschema:"temporary id for the new box; generated when omitted"`
	XMin   float64 `json:"x_min" jsonschema:"left edge in image pixels"`
	XMax   float64 `json:"x_max" jsonschema:"right edge in image pixels"`
	YMin   float64 `json:"y_min" jsonschema:"top edge in image pixels"`
	YMax   float64 `json:"y_max" jsonschema:"bottom edge in image pixels"`
}

type LabelBoxParams struct {
	Image string `json:"image" jsonschema:"image path the box is drawn on"`
	ID    string `json:"id" jsonschema:"temp id of an unclassified box or class id of a classified one"`
	Name  string `json:"name" jsonschema:"class name; case and surrounding spaces are ignored"`
}

type RemoveBoxParams struct {
	Image string `json:"image" jsonschema:"image path the box is drawn on"`
	ID    string `json:"id" jsonschema:"temp id or class id of the boxes to remove"`
}

type ResetParams struct {
	Scope string `json:"scope,omitempty" jsonschema:"all clears every label; anything else clears the current folder"`
}

// StateResult is the annotation state returned by every session tool.
type StateResult struct {
	Available    bool               `json:"available"`
	DatasetError string             `json:"dataset_error,omitempty"`
	Folder       string             `json:"folder,omitempty"`
	FileID       string             `json:"file_id,omitempty"`
	Images       []string           `json:"images,omitempty"`
	Head         int                `json:"head,omitempty"`
	FolderCount  int                `json:"folder_count"`
	SetIndex     int                `json:"set_index,omitempty"`
	SetCount     int                `json:"set_count,omitempty"`
	Labels       []annotation.Label `json:"labels"`
	Classes      []annotation.Class `json:"classes"`
	TempID       string             `json:"temp_id,omitempty"`
}

type ClassesResult struct {
	Classes []annotation.Class `json:"classes"`
}

type StatsResult struct {
	TotalVisits    int               `json:"total_visits"`
	UniqueVisitors int               `json:"unique_visitors"`
	CountryCount   int               `json:"country_count"`
	FirstVisit     string            `json:"first_visit,omitempty"`
	LastVisit      string            `json:"last_visit,omitempty"`
	Countries      []analytics.Count `json:"countries"`
	VisitsByDate   []analytics.Count `json:"visits_by_date"`
	UserAgents     []analytics.Count `json:"user_agents"`
}

func statsFromDomain(s *analytics.Stats) StatsResult {
	res := StatsResult{
		TotalVisits:    s.TotalVisits,
		UniqueVisitors: s.UniqueVisitors,
		CountryCount:   s.CountryCount,
		Countries:      nonNilCounts(s.Countries),
		VisitsByDate:   nonNilCounts(s.VisitsByDate),
		UserAgents:     nonNilCounts(s.UserAgents),
	}
	if s.FirstVisit != nil {
		res.FirstVisit = s.FirstVisit.UTC().Format(time.RFC3339)
	}
	if s.LastVisit != nil {
		res.LastVisit = s.LastVisit.UTC().Format(time.RFC3339)
	}
	return res
}

func nonNilCounts(c []analytics.Count) []analytics.Count {
	if c == nil {
		return []analytics.Count{}
	}
	return c
}

func stateFromView(v session.View) StateResult {
	res := StateResult{
		Available:   v.Folder != "",
		Folder:      v.Folder,
		Images:      v.Images(),
		Head:        v.Head,
		FolderCount: v.FolderCount,
		SetIndex:    v.SetIndex,
		SetCount:    v.SetCount,
		Labels:      v.Labels,
		Classes:     v.Classes,
	}
	if res.Available {
		res.FileID = v.Triplet.FileID
	}
	if res.Labels == nil {
		res.Labels = []annotation.Label{}
	}
	if res.Classes == nil {
		res.Classes = []annotation.Class{}
	}
	return res
}
