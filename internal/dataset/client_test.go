package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newHub(t *testing.T, downloads *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/api/datasets/org/data/tree/main", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "true", r.URL.Query().Get("recursive"))
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		if r.URL.Query().Get("cursor") == "" {
			w.Header().Set("Link", `<`+srv.URL+`/api/datasets/org/data/tree/main?recursive=true&cursor=2>; rel="next"`)
			_, _ = w.Write([]byte(`[{"type":"directory","path":"f1"},{"type":"file","path":"f1/a-sr_int_full.png"}]`))
			return
		}
		_, _ = w.Write([]byte(`[{"type":"file","path":"f1/a-tr_line.png"},{"type":"file","path":"README.md"}]`))
	})
	mux.HandleFunc("/datasets/org/data/resolve/main/f1/a-tr_line.png", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(downloads, 1)
		_, _ = w.Write([]byte("png-bytes"))
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return New(Options{
		Endpoint: srv.URL,
		Repo:     "org/data",
		Token:    "secret",
		CacheDir: t.TempDir(),
	}, nil)
}

func TestClient_ListFilesFollowsPagination(t *testing.T) {
	var downloads int32
	c := newTestClient(t, newHub(t, &downloads))

	files, err := c.ListFiles(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"f1/a-sr_int_full.png", "f1/a-tr_line.png", "README.md"}, files)
}

func TestClient_Resolve(t *testing.T) {
	var downloads int32
	c := newTestClient(t, newHub(t, &downloads))
	_, err := c.ListFiles(context.Background())
	require.NoError(t, err)

	got, ok := c.Resolve("f1/a-tr_line.png")
	require.True(t, ok)
	require.Equal(t, "f1/a-tr_line.png", got)

	got, ok = c.Resolve("a-tr_line.png")
	require.True(t, ok)
	require.Equal(t, "f1/a-tr_line.png", got)

	got, ok = c.Resolve("a-sr_int")
	require.True(t, ok)
	require.Equal(t, "f1/a-sr_int_full.png", got)

	_, ok = c.Resolve("missing.png")
	require.False(t, ok)

	_, ok = c.Resolve("")
	require.False(t, ok)
}

func TestClient_FetchCachesDownloads(t *testing.T) {
	var downloads int32
	c := newTestClient(t, newHub(t, &downloads))
	ctx := context.Background()
	_, err := c.ListFiles(ctx)
	require.NoError(t, err)

	local, err := c.Fetch(ctx, "a-tr_line.png")
	require.NoError(t, err)
	data, err := os.ReadFile(local)
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))

	again, err := c.Fetch(ctx, "f1/a-tr_line.png")
	require.NoError(t, err)
	require.Equal(t, local, again)
	require.Equal(t, int32(1), atomic.LoadInt32(&downloads))
}

func TestClient_DownloadMissing(t *testing.T) {
	var downloads int32
	c := newTestClient(t, newHub(t, &downloads))

	_, err := c.Fetch(context.Background(), "f9/nothing.png")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClient_CachePathStaysInCache(t *testing.T) {
	c := New(Options{CacheDir: "/cache"}, nil)

	p, err := c.cachePath("../../etc/passwd")
	require.NoError(t, err)
	require.Equal(t, "/cache/etc/passwd", p)

	_, err = c.cachePath("")
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestNextLink(t *testing.T) {
	require.Equal(t, "https://x/next", nextLink(`<https://x/next>; rel="next"`))
	require.Empty(t, nextLink(""))
	require.Empty(t, nextLink(`<https://x/prev>; rel="prev"`))
}

func TestClient_DownloadSurvivesFirstCallerCancel(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var downloads int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&downloads, 1) == 1 {
			close(started)
		}
		<-release
		_, _ = w.Write([]byte("png-bytes"))
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Download(first, "f1/slow.png")
		firstErr <- err
	}()
	<-started

	second := make(chan error, 1)
	go func() {
		_, err := c.Download(context.Background(), "f1/slow.png")
		second <- err
	}()

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	require.NoError(t, <-second)
	require.Equal(t, int32(1), atomic.LoadInt32(&downloads))
}
