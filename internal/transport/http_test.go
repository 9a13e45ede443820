package transport

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/triplet-annotator/internal/csvstore"
	"github.com/rpggio/triplet-annotator/internal/domain/analytics"
	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
	"github.com/rpggio/triplet-annotator/internal/domain/imageset"
	"github.com/rpggio/triplet-annotator/internal/domain/session"
	"github.com/stretchr/testify/require"
)

type fakeVisits struct {
	mu       sync.Mutex
	visitors []analytics.Visitor
	stats    analytics.Stats
}

func (f *fakeVisits) Track(_ context.Context, v analytics.Visitor) (*analytics.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visitors = append(f.visitors, v)
	f.stats.TotalVisits++
	return &analytics.Visit{IP: v.IP, UserAgent: v.UserAgent}, nil
}

func (f *fakeVisits) Summary(context.Context) (analytics.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats.Summary, nil
}

func (f *fakeVisits) Stats(context.Context) (*analytics.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := f.stats
	return &stats, nil
}

type fakeRemote struct {
	files map[string]string
}

func (f *fakeRemote) Fetch(_ context.Context, p string) (string, error) {
	if local, ok := f.files[p]; ok {
		return local, nil
	}
	return "", errors.New("not in dataset")
}

type fixture struct {
	router  *chi.Mux
	dir     string
	outPath string
	visits  *fakeVisits
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func newFixture(t *testing.T, withFolders bool, configure func(*Options)) *fixture {
	t.Helper()
	dir := t.TempDir()
	var folders []imageset.FolderSet
	if withFolders {
		for _, id := range []string{"a", "b"} {
			for _, suffix := range []string{"-sr_int_full.png", "-tr_line.png", "-tr_int_full.png"} {
				writePNG(t, filepath.Join(dir, "f1", id+suffix), 100, 80)
			}
		}
		var err error
		folders, err = imageset.NewScanner(nil).ScanDirectory(dir)
		require.NoError(t, err)
		require.Len(t, folders, 1)
	}

	outPath := filepath.Join(t.TempDir(), "out.csv")
	csv := csvstore.New(outPath, nil)
	_, err := csv.Ensure()
	require.NoError(t, err)
	sessions := session.NewService(session.Options{Folders: folders, Directory: dir, DatasetError: "dataset org/data is empty"},
		annotation.NewStore(nil), csv, nil)

	visits := &fakeVisits{}
	opts := Options{
		Sessions:  sessions,
		Visits:    visits,
		ImagesDir: dir,
		OutPath:   outPath,
	}
	if configure != nil {
		configure(&opts)
	}
	router, err := NewServer(opts)
	require.NoError(t, err)
	return &fixture{router: router, dir: dir, outPath: outPath, visits: visits}
}

func (f *fixture) get(t *testing.T, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHTTPServer_Health(t *testing.T) {
	f := newFixture(t, false, nil)

	rec := f.get(t, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestHTTPServer_IndexRedirectsAndTracks(t *testing.T) {
	f := newFixture(t, true, nil)

	rec := f.get(t, "/", "X-Forwarded-For", "203.0.113.7, 10.0.0.1", "User-Agent", "test-agent")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/tagger", rec.Header().Get("Location"))
	require.Equal(t, []analytics.Visitor{{IP: "203.0.113.7", UserAgent: "test-agent"}}, f.visits.visitors)
}

func TestHTTPServer_TaggerPage(t *testing.T) {
	f := newFixture(t, true, nil)

	rec := f.get(t, "/tagger")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Folder 1 / 1: f1")
	require.Contains(t, body, "Image set 1 / 2")
	require.Contains(t, body, `src="/image/f1/a-sr_int_full.png"`)
	require.Contains(t, body, `src="/image/f1/a-tr_line.png"`)
	require.Contains(t, body, `src="/image/f1/a-tr_int_full.png"`)
	require.Contains(t, body, "Visits: 1")
	require.Len(t, f.visits.visitors, 1)
}

func TestHTTPServer_TaggerWithoutFolders(t *testing.T) {
	f := newFixture(t, false, nil)

	rec := f.get(t, "/tagger")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Dataset Loading Error")
	require.Contains(t, rec.Body.String(), "dataset org/data is empty")
}

func TestHTTPServer_AnnotationFlow(t *testing.T) {
	f := newFixture(t, true, nil)
	img := "f1/a-sr_int_full.png"

	rec := f.get(t, "/add/t1?image="+img+"&xMin=10&xMax=30&yMin=20&yMax=60")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/tagger", rec.Header().Get("Location"))

	rec = f.get(t, "/tagger")
	require.Contains(t, rec.Body.String(), `action="/label/t1"`)

	rec = f.get(t, "/label/t1?image="+img+"&name=Cat")
	require.Equal(t, http.StatusFound, rec.Code)

	rec = f.get(t, "/next_set")
	require.Equal(t, http.StatusFound, rec.Code)

	data, err := os.ReadFile(f.outPath)
	require.NoError(t, err)
	require.Contains(t, string(data), img+",1,cat,20,40,20,40")

	rec = f.get(t, "/tagger")
	require.Contains(t, rec.Body.String(), "Image set 2 / 2")
}

func TestHTTPServer_RemoveAndReset(t *testing.T) {
	f := newFixture(t, true, nil)
	img := "f1/a-tr_line.png"

	f.get(t, "/add/t1?image="+img+"&xMin=0&xMax=10&yMin=0&yMax=10")
	f.get(t, "/add/t2?image="+img+"&xMin=0&xMax=20&yMin=0&yMax=20")

	rec := f.get(t, "/remove/t1?image="+img)
	require.Equal(t, http.StatusFound, rec.Code)
	body := f.get(t, "/tagger").Body.String()
	require.NotContains(t, body, `action="/label/t1"`)
	require.Contains(t, body, `action="/label/t2"`)

	rec = f.get(t, "/reset_annotations?scope=all")
	require.Equal(t, http.StatusFound, rec.Code)
	require.NotContains(t, f.get(t, "/tagger").Body.String(), `action="/label/t2"`)
}

func TestHTTPServer_BadCoordinates(t *testing.T) {
	f := newFixture(t, true, nil)

	rec := f.get(t, "/add/t1?image=f1/a-tr_line.png&xMin=abc&xMax=1&yMin=0&yMax=1")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.get(t, "/add/t1?xMin=0&xMax=1&yMin=0&yMax=1")
	require.Equal(t, http.StatusBadRequest, rec.Code, "missing image")
}

func TestHTTPServer_NavigationKeepsAutoplay(t *testing.T) {
	f := newFixture(t, true, nil)

	rec := f.get(t, "/next_set?autoplay=1&interval=500")
	require.Equal(t, "/tagger?autoplay=1&interval=500", rec.Header().Get("Location"))

	rec = f.get(t, "/prev_set?autoplay=1")
	require.Equal(t, "/tagger", rec.Header().Get("Location"))

	for _, route := range []string{"/next_folder", "/prev_folder", "/save_and_next"} {
		rec = f.get(t, route)
		require.Equal(t, http.StatusFound, rec.Code, route)
		require.Equal(t, "/tagger", rec.Header().Get("Location"), route)
	}
}

func TestHTTPServer_AutoplayPage(t *testing.T) {
	f := newFixture(t, true, nil)

	body := f.get(t, "/tagger?autoplay=1&interval=750").Body.String()
	require.Contains(t, body, "setTimeout")
	require.NotContains(t, f.get(t, "/tagger").Body.String(), "setTimeout")
}

func TestHTTPServer_Images(t *testing.T) {
	f := newFixture(t, true, nil)

	rec := f.get(t, "/image/f1/a-tr_line.png")
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := png.Decode(rec.Body)
	require.NoError(t, err)

	rec = f.get(t, "/image/f1/missing.png")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Image not found")

	rec = f.get(t, "/image/..%2F..%2Fetc%2Fpasswd")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPServer_RemoteImagesFirst(t *testing.T) {
	remoteFile := filepath.Join(t.TempDir(), "remote.png")
	writePNG(t, remoteFile, 7, 5)
	f := newFixture(t, true, func(o *Options) {
		o.Remote = &fakeRemote{files: map[string]string{"f1/a-tr_line.png": remoteFile}}
	})

	rec := f.get(t, "/image/f1/a-tr_line.png")
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	require.Equal(t, 7, img.Bounds().Dx())

	// Not in the dataset: falls back to the local directory.
	rec = f.get(t, "/image/f1/b-tr_line.png")
	require.Equal(t, http.StatusOK, rec.Code)
	img, err = png.Decode(rec.Body)
	require.NoError(t, err)
	require.Equal(t, 100, img.Bounds().Dx())
}

func TestHTTPServer_Crop(t *testing.T) {
	f := newFixture(t, true, nil)

	rec := f.get(t, "/crop/f1/a-tr_line.png?xMin=10&xMax=30&yMin=20&yMax=60")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 20, 40), img.Bounds())

	rec = f.get(t, "/crop/f1/a-tr_line.png?xMin=10&xMax=30&yMin=20&yMax=60&scale=2")
	require.Equal(t, http.StatusOK, rec.Code)
	img, err = png.Decode(rec.Body)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 40, 80), img.Bounds())

	rec = f.get(t, "/crop/f1/a-tr_line.png?xMin=500&xMax=600&yMin=500&yMax=600")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.get(t, "/crop/f1/a-tr_line.png?xMin=0&xMax=10&yMin=0&yMax=10&scale=-1")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	for _, scale := range []string{"1e8", "Inf", "NaN"} {
		rec = f.get(t, "/crop/f1/a-tr_line.png?xMin=0&xMax=2&yMin=0&yMax=2&scale="+scale)
		require.Equal(t, http.StatusBadRequest, rec.Code, "scale %s", scale)
	}

	rec = f.get(t, "/crop/f1/nothing.png?xMin=0&xMax=10&yMin=0&yMax=10")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPServer_Preview(t *testing.T) {
	f := newFixture(t, true, nil)
	f.get(t, "/add/t1?image=f1/a-tr_line.png&xMin=10&xMax=50&yMin=10&yMax=50")

	rec := f.get(t, "/preview/f1/a-tr_line.png")
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 100, 80), img.Bounds())
}

func TestHTTPServer_Stats(t *testing.T) {
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f := newFixture(t, true, nil)
	f.visits.stats = analytics.Stats{
		Summary:      analytics.Summary{TotalVisits: 1234, UniqueVisitors: 2, CountryCount: 1, FirstVisit: &first, LastVisit: &first},
		Countries:    []analytics.Count{{Key: "Germany", Count: 1234}},
		VisitsByDate: []analytics.Count{{Key: "2026-01-02", Count: 1234}},
		UserAgents:   []analytics.Count{{Key: "curl/8.0", Count: 1234}},
	}

	rec := f.get(t, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "1,234")
	require.Contains(t, body, "Germany")
	require.Contains(t, body, "2026-01-02 03:04:05 UTC")
	require.Contains(t, body, "curl/8.0")
}

func TestHTTPServer_StatsDisabled(t *testing.T) {
	f := newFixture(t, true, func(o *Options) { o.Visits = nil })

	require.Equal(t, http.StatusNotFound, f.get(t, "/stats").Code)
	require.Equal(t, http.StatusOK, f.get(t, "/tagger").Code)
}

func TestHTTPServer_Bye(t *testing.T) {
	f := newFixture(t, true, nil)

	rec := f.get(t, "/bye")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), f.outPath)
}

func TestHTTPServer_MCPMount(t *testing.T) {
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, _ := ClientFromContext(r.Context())
		_, _ = w.Write([]byte("mcp:" + client))
	})
	f := newFixture(t, false, func(o *Options) {
		o.MCP = mcp
		o.MCPAuth = AuthMiddleware(StaticToken{Token: "secret"})
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(`{}`))
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "mcp:operator", rec.Body.String())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded first entry", headers: map[string]string{"X-Forwarded-For": " 198.51.100.1 , 10.0.0.1"}, remote: "10.0.0.2:1234", want: "198.51.100.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.2"}, remote: "10.0.0.2:1234", want: "198.51.100.2"},
		{name: "remote addr", remote: "192.0.2.9:5555", want: "192.0.2.9"},
		{name: "remote without port", remote: "192.0.2.10", want: "192.0.2.10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestImageURL(t *testing.T) {
	require.Equal(t, "/image/f%201/a%23b.png", imageURL("/image/", "f 1/a#b.png"))
	require.True(t, strings.HasPrefix(imageURL("/crop/", "x.png"), "/crop/"))
}
