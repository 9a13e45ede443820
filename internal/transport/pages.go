package transport

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rpggio/triplet-annotator/internal/domain/analytics"
	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
	"github.com/rpggio/triplet-annotator/internal/domain/session"
	"github.com/rpggio/triplet-annotator/internal/imagery"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	tagger *template.Template
	error  *template.Template
	stats  *template.Template
	bye    *template.Template
}

var pageFuncs = template.FuncMap{
	"imageURL":  imageURL,
	"classHex":  imagery.ClassHex,
	"comma":     func(n int) string { return humanize.Comma(int64(n)) },
	"timestamp": func(t *time.Time) string { return t.UTC().Format("2006-01-02 15:04:05 UTC") },
	"ago":       func(t *time.Time) string { return humanize.Time(*t) },
	"coord":     func(f float64) string { return humanize.FtoaWithDigits(f, 1) },
	"corners": func(b annotation.Box) [4]float64 {
		xMin, yMin, xMax, yMax := b.Corners()
		return [4]float64{xMin, yMin, xMax, yMax}
	},
}

func loadPages() (*pages, error) {
	parse := func(name string) (*template.Template, error) {
		tmpl, err := template.New(name).Funcs(pageFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		return tmpl, nil
	}

	var p pages
	var err error
	if p.tagger, err = parse("tagger.html"); err != nil {
		return nil, err
	}
	if p.error, err = parse("error.html"); err != nil {
		return nil, err
	}
	if p.stats, err = parse("stats.html"); err != nil {
		return nil, err
	}
	if p.bye, err = parse("bye.html"); err != nil {
		return nil, err
	}
	return &p, nil
}

// imageURL escapes each segment of a dataset or directory relative path.
func imageURL(prefix, p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return prefix + strings.Join(parts, "/")
}

type imagePanel struct {
	Path   string
	Labels []annotation.Label
}

type taggerPage struct {
	View     session.View
	Panels   []imagePanel
	Summary  *analytics.Summary
	Autoplay bool
	Interval string
}

type errorPage struct {
	Title   string
	Message string
	Hints   []string
}

type statsPage struct {
	Stats *analytics.Stats
}

type byePage struct {
	OutPath string
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, status int, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("failed to render page", "page", tmpl.Name(), "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, status int, title, message string, hints ...string) {
	s.render(w, s.pages.error, status, errorPage{Title: title, Message: message, Hints: hints})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.track(r)
	http.Redirect(w, r, "/tagger", http.StatusFound)
}

func (s *Server) handleTagger(w http.ResponseWriter, r *http.Request) {
	s.track(r)

	view, err := s.sessions.Current()
	if errors.Is(err, session.ErrNoFolders) || (err == nil && view.Folder == "") {
		s.renderError(w, http.StatusInternalServerError, "Dataset Loading Error", s.sessions.DatasetError(),
			"Dataset not fully uploaded yet",
			"Network issues loading the dataset",
			"Dataset structure doesn't match expected format",
		)
		return
	}
	if err != nil {
		s.logger.Error("failed to load session view", "error", err)
		s.renderError(w, http.StatusInternalServerError, "Data Access Error", err.Error())
		return
	}

	page := taggerPage{View: view}
	for _, p := range view.Images() {
		page.Panels = append(page.Panels, imagePanel{Path: p, Labels: view.LabelsFor(p)})
	}
	q := r.URL.Query()
	if q.Get("autoplay") != "" && q.Get("interval") != "" {
		page.Autoplay = true
		page.Interval = q.Get("interval")
	}
	if s.visits != nil {
		summary, err := s.visits.Summary(r.Context())
		if err != nil {
			s.logger.Warn("failed to load visit summary", "error", err)
		} else {
			page.Summary = &summary
		}
	}

	s.render(w, s.pages.tagger, http.StatusOK, page)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.visits == nil {
		s.renderError(w, http.StatusNotFound, "Statistics Unavailable", "Visit tracking is disabled.")
		return
	}
	stats, err := s.visits.Stats(r.Context())
	if err != nil {
		s.logger.Error("failed to load statistics", "error", err)
		s.renderError(w, http.StatusInternalServerError, "Statistics Error", err.Error())
		return
	}
	s.render(w, s.pages.stats, http.StatusOK, statsPage{Stats: stats})
}

func (s *Server) handleBye(w http.ResponseWriter, _ *http.Request) {
	s.render(w, s.pages.bye, http.StatusOK, byePage{OutPath: s.outPath})
}
