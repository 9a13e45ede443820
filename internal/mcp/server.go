package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/triplet-annotator/internal/domain/analytics"
	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
	"github.com/rpggio/triplet-annotator/internal/domain/session"
)

// SessionService defines the annotation operations exposed as tools.
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
	Classes() []annotation.Class
	FolderCount() int
	DatasetError() string
}

// StatsService defines visit statistics exposed as a tool.
type StatsService interface {
	Stats(ctx context.Context) (*analytics.Stats, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Sessions SessionService
	// Stats is nil when analytics are disabled.
	Stats StatsService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "triplet-annotator",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(sessionMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Services, cfg.Logger))

	return server
}
