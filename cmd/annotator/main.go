package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/triplet-annotator/internal/config"
	"github.com/rpggio/triplet-annotator/internal/csvstore"
	"github.com/rpggio/triplet-annotator/internal/dataset"
	"github.com/rpggio/triplet-annotator/internal/domain/analytics"
	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
	"github.com/rpggio/triplet-annotator/internal/domain/imageset"
	"github.com/rpggio/triplet-annotator/internal/domain/session"
	"github.com/rpggio/triplet-annotator/internal/imagery"
	"github.com/rpggio/triplet-annotator/internal/logging"
	"github.com/rpggio/triplet-annotator/internal/mcp"
	"github.com/rpggio/triplet-annotator/internal/sqlite"
	"github.com/rpggio/triplet-annotator/internal/transport"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	stdio := cfg.MCP.Enabled && cfg.MCP.Transport == "stdio"

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if stdio {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		file, err := logging.OpenFile(cfg.Log.Path, logging.DefaultLimits)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = file
		}
	}
	logger := logging.New(logWriter, cfg.Log.Level)

	var remote *dataset.Client
	if cfg.Dataset.Enabled {
		remote = dataset.New(dataset.Options{
			Endpoint: cfg.Dataset.Endpoint,
			Repo:     cfg.Dataset.Repo,
			Revision: cfg.Dataset.Revision,
			Token:    cfg.Dataset.Token,
			CacheDir: cfg.Dataset.CacheDir,
		}, logger)
	}
	folders, datasetErr := loadFolders(cfg, remote, logger)

	csv := csvstore.New(cfg.Annotations.Out, logger)
	if _, err := csv.Ensure(); err != nil {
		logger.Error("failed to prepare annotation file", "path", cfg.Annotations.Out, "error", err)
		os.Exit(1)
	}
	store := annotation.NewStore(logger)
	if _, err := csv.Load(store); err != nil {
		logger.Error("failed to load annotation file", "path", cfg.Annotations.Out, "error", err)
		os.Exit(1)
	}

	sessions := session.NewService(session.Options{
		Folders:      folders,
		Directory:    cfg.Images.Dir,
		DatasetError: datasetErr,
	}, store, csv, logger)

	var visits *analytics.Service
	if cfg.Analytics.Enabled {
		if err := ensureDBDir(cfg.DB.Path); err != nil {
			logger.Error("failed to prepare database path", "error", err)
			os.Exit(1)
		}
		db, err := sqlite.New(cfg.DB.Path)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.RunMigrations(); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		var geo analytics.GeoLocator
		if cfg.Analytics.GeoLookup {
			geo = analytics.NewIPAPILocator(cfg.Analytics.GeoEndpoint)
		}
		visits = analytics.NewService(sqlite.NewVisitRepository(db), geo, logger)
	}

	var mcpServer *sdkmcp.Server
	if cfg.MCP.Enabled {
		services := mcp.Services{Sessions: sessions}
		if visits != nil {
			services.Stats = visits
		}
		mcpServer = mcp.NewServer(mcp.Config{Services: services, Version: version, Logger: logger})
	}

	if stdio {
		runStdioMode(logger, mcpServer)
		return
	}
	runHTTPMode(logger, cfg, httpDeps{
		sessions:  sessions,
		visits:    visits,
		remote:    remote,
		mcpServer: mcpServer,
	})
}

// loadFolders scans the configured image source. Failures leave the
// annotator running with no folders and a message for the error page.
func loadFolders(cfg config.Config, remote *dataset.Client, logger *slog.Logger) ([]imageset.FolderSet, string) {
	scanner := imageset.NewScanner(logger)

	if remote != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		logger.Info("loading dataset", "repo", remote.Repo())
		files, err := remote.ListFiles(ctx)
		if err != nil {
			logger.Error("failed to list dataset", "repo", remote.Repo(), "error", err)
			return nil, fmt.Sprintf("Failed to load dataset %s: %v", remote.Repo(), err)
		}
		folders := scanner.ScanFiles(files)
		if len(folders) == 0 {
			return nil, fmt.Sprintf("No folders with complete image sets found in dataset %s (%d files)", remote.Repo(), len(files))
		}
		return folders, ""
	}

	folders, err := scanner.ScanDirectory(cfg.Images.Dir)
	if err != nil {
		logger.Error("failed to scan image directory", "dir", cfg.Images.Dir, "error", err)
		return nil, fmt.Sprintf("Failed to scan %s: %v", cfg.Images.Dir, err)
	}
	return folders, ""
}

type httpDeps struct {
	sessions  *session.Service
	visits    *analytics.Service
	remote    *dataset.Client
	mcpServer *sdkmcp.Server
}

func runHTTPMode(logger *slog.Logger, cfg config.Config, deps httpDeps) {
	renderer, err := imagery.NewRenderer(0)
	if err != nil {
		logger.Error("failed to load preview font", "error", err)
		os.Exit(1)
	}

	opts := transport.Options{
		Sessions:  deps.sessions,
		ImagesDir: cfg.Images.Dir,
		OutPath:   cfg.Annotations.Out,
		Images:    imagery.NewImageCache(cfg.Images.CacheSize),
		Renderer:  renderer,
		Logger:    logger,
	}
	if deps.visits != nil {
		opts.Visits = deps.visits
	}
	if deps.remote != nil {
		opts.Remote = deps.remote
	}
	if deps.mcpServer != nil {
		opts.MCP = mcp.NewHTTPHandler(deps.mcpServer)
		if cfg.MCP.Token != "" {
			opts.MCPAuth = transport.AuthMiddleware(transport.StaticToken{Token: cfg.MCP.Token})
		} else if cfg.Space {
			logger.Warn("MCP endpoint is public; set ANNOTATOR_MCP_TOKEN to require a bearer token")
		}
	}

	router, err := transport.NewServer(opts)
	if err != nil {
		logger.Error("failed to build http server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Addr(), "out", cfg.Annotations.Out, "dataset", cfg.Dataset.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport")

	stdioTransport := &sdkmcp.StdioTransport{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, stdioTransport); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
