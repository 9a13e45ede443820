package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/triplet-annotator/internal/domain/analytics"
	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
	"github.com/rpggio/triplet-annotator/internal/domain/session"
	"github.com/rpggio/triplet-annotator/internal/imagery"
)

// SessionService defines the annotation session operations the pages drive.
type SessionService interface {
	Current() (session.View, error)
	Add(image, tempID string, box annotation.Box) (session.View, error)
	Remove(image, id string) (session.View, error)
	Label(image, id, name string) (session.View, error)
	NextSet() (session.View, error)
	PrevSet() (session.View, error)
	NextFolder() (session.View, error)
	PrevFolder() (session.View, error)
	Reset(scope annotation.Scope) (session.View, error)
	SaveAndNext() (session.View, error)
	LabelsFor(image string) []annotation.Label
	DatasetError() string
}

// VisitService defines the analytics operations the pages use.
type VisitService interface {
	Track(ctx context.Context, v analytics.Visitor) (*analytics.Visit, error)
	Summary(ctx context.Context) (analytics.Summary, error)
	Stats(ctx context.Context) (*analytics.Stats, error)
}

// RemoteImages fetches dataset files into a local cache.
type RemoteImages interface {
	Fetch(ctx context.Context, path string) (string, error)
}

// Options wires the HTTP server.
type Options struct {
	Sessions SessionService
	// Visits is nil when analytics are disabled.
	Visits VisitService
	// Remote is nil when images are only read from ImagesDir.
	Remote    RemoteImages
	ImagesDir string
	OutPath   string
	Images    *imagery.ImageCache
	Renderer  *imagery.Renderer
	// MCP is mounted on /mcp when set.
	MCP     http.Handler
	MCPAuth func(http.Handler) http.Handler
	Logger  *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	sessions  SessionService
	visits    VisitService
	remote    RemoteImages
	imagesDir string
	outPath   string
	images    *imagery.ImageCache
	renderer  *imagery.Renderer
	pages     *pages
	logger    *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(opts Options) (*chi.Mux, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	images := opts.Images
	if images == nil {
		images = imagery.NewImageCache(0)
	}
	renderer := opts.Renderer
	if renderer == nil {
		var err error
		if renderer, err = imagery.NewRenderer(0); err != nil {
			return nil, err
		}
	}
	tmpl, err := loadPages()
	if err != nil {
		return nil, err
	}

	srv := &Server{
		sessions:  opts.Sessions,
		visits:    opts.Visits,
		remote:    opts.Remote,
		imagesDir: opts.ImagesDir,
		outPath:   opts.OutPath,
		images:    images,
		renderer:  renderer,
		pages:     tmpl,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/", srv.handleIndex)
	r.Get("/tagger", srv.handleTagger)
	r.Get("/add/{tempID}", srv.handleAdd)
	r.Get("/remove/{tempID}", srv.handleRemove)
	r.Get("/label/{tempID}", srv.handleLabel)
	r.Get("/next_set", srv.navigate(opts.Sessions.NextSet))
	r.Get("/prev_set", srv.navigate(opts.Sessions.PrevSet))
	r.Get("/next_folder", srv.navigate(opts.Sessions.NextFolder))
	r.Get("/prev_folder", srv.navigate(opts.Sessions.PrevFolder))
	r.Get("/save_and_next", srv.handleSaveAndNext)
	r.Get("/reset_annotations", srv.handleReset)
	r.Get("/image/*", srv.handleImage)
	r.Get("/crop/*", srv.handleCrop)
	r.Get("/preview/*", srv.handlePreview)
	r.Get("/stats", srv.handleStats)
	r.Get("/bye", srv.handleBye)
	r.Get("/health", srv.handleHealth)

	if opts.MCP != nil {
		mcpHandler := opts.MCP
		if opts.MCPAuth != nil {
			mcpHandler = opts.MCPAuth(mcpHandler)
		}
		r.Handle("/mcp", mcpHandler)
		r.Handle("/mcp/*", mcpHandler)
	}

	return r, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !logger.Enabled(r.Context(), slog.LevelDebug) {
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "bytes", ww.BytesWritten())
		})
	}
}
