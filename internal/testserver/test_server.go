package testserver

import (
	"image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpggio/triplet-annotator/internal/csvstore"
	"github.com/rpggio/triplet-annotator/internal/domain/analytics"
	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
	"github.com/rpggio/triplet-annotator/internal/domain/imageset"
	"github.com/rpggio/triplet-annotator/internal/domain/session"
	"github.com/rpggio/triplet-annotator/internal/imagery"
	"github.com/rpggio/triplet-annotator/internal/mcp"
	"github.com/rpggio/triplet-annotator/internal/sqlite"
	"github.com/rpggio/triplet-annotator/internal/transport"
	"github.com/stretchr/testify/require"
)

// Folders lists the image sets New writes, folder by folder.
var Folders = map[string][]string{
	"f1": {"a", "b"},
	"f2": {"c"},
}

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Dir      string
	OutPath  string
	Token    string
	Sessions *session.Service
}

// New serves the full annotator stack over a temporary image directory, a
// temporary annotation file and an in-memory visit database.
func New(t *testing.T, token string) *TestServer {
	t.Helper()

	dir := t.TempDir()
	for folder, ids := range Folders {
		for _, id := range ids {
			for _, suffix := range imageset.RequiredSuffixes {
				name := id + "-" + suffix
				if suffix[0] == '-' {
					name = id + suffix
				}
				WritePNG(t, filepath.Join(dir, folder, name), 64, 48)
			}
		}
	}
	folders, err := imageset.NewScanner(nil).ScanDirectory(dir)
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "out.csv")
	csv := csvstore.New(outPath, nil)
	_, err = csv.Ensure()
	require.NoError(t, err)
	store := annotation.NewStore(nil)
	_, err = csv.Load(store)
	require.NoError(t, err)
	sessions := session.NewService(session.Options{Folders: folders, Directory: dir}, store, csv, nil)

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	visits := analytics.NewService(sqlite.NewVisitRepository(db), nil, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{Sessions: sessions, Stats: visits},
	})

	renderer, err := imagery.NewRenderer(0)
	require.NoError(t, err)
	router, err := transport.NewServer(transport.Options{
		Sessions:  sessions,
		Visits:    visits,
		ImagesDir: dir,
		OutPath:   outPath,
		Images:    imagery.NewImageCache(0),
		Renderer:  renderer,
		MCP:       mcp.NewHTTPHandler(mcpServer),
		MCPAuth:   transport.AuthMiddleware(transport.StaticToken{Token: token}),
	})
	require.NoError(t, err)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:   server,
		DB:       db,
		Dir:      dir,
		OutPath:  outPath,
		Token:    token,
		Sessions: sessions,
	}
}

// WritePNG writes a gradient test image.
func WritePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 96, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}
