// Package dataset lists and downloads files from a HuggingFace Hub dataset
// repository, caching downloads on local disk.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultEndpoint is the public HuggingFace Hub.
	DefaultEndpoint = "https://huggingface.co"
	// DefaultRepo is the dataset the annotator was built around.
	DefaultRepo = "0001AMA/multimodal_data_annotator_dataset"
	// DefaultRevision is the branch files are read from.
	DefaultRevision = "main"
)

// Options configures a Client.
type Options struct {
	Endpoint string
	Repo     string
	Revision string
	Token    string
	CacheDir string
	Timeout  time.Duration
}

// Client talks to one dataset repository.
type Client struct {
	endpoint string
	repo     string
	revision string
	token    string
	cacheDir string
	http     *http.Client
	logger   *slog.Logger

	downloads singleflight.Group

	mu    sync.RWMutex
	files []string
	index map[string]struct{}
}

// New creates a client. Empty options fall back to the package defaults and
// a cache directory under os.TempDir.
func New(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Repo == "" {
		opts.Repo = DefaultRepo
	}
	if opts.Revision == "" {
		opts.Revision = DefaultRevision
	}
	if opts.CacheDir == "" {
		opts.CacheDir = filepath.Join(os.TempDir(), "hf_dataset_cache")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		repo:     opts.Repo,
		revision: opts.Revision,
		token:    opts.Token,
		cacheDir: opts.CacheDir,
		http:     &http.Client{Timeout: opts.Timeout},
		logger:   logger,
	}
}

// Repo returns the dataset repository id.
func (c *Client) Repo() string {
	return c.repo
}

type treeEntry struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// ListFiles returns every file path in the repository, following pagination.
// The result is remembered for Resolve.
func (c *Client) ListFiles(ctx context.Context) ([]string, error) {
	next := fmt.Sprintf("%s/api/datasets/%s/tree/%s?recursive=true",
		c.endpoint, c.repo, url.PathEscape(c.revision))

	var files []string
	for next != "" {
		entries, link, err := c.listPage(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Type == "file" {
				files = append(files, e.Path)
			}
		}
		next = link
	}

	index := make(map[string]struct{}, len(files))
	for _, f := range files {
		index[f] = struct{}{}
	}

	c.mu.Lock()
	c.files = files
	c.index = index
	c.mu.Unlock()

	c.logger.Info("listed dataset files", "repo", c.repo, "revision", c.revision, "count", len(files))
	return files, nil
}

func (c *Client) listPage(ctx context.Context, pageURL string) ([]treeEntry, string, error) {
	resp, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, "", fmt.Errorf("listing dataset %s: %w", c.repo, err)
	}
	defer resp.Body.Close()

	var entries []treeEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, "", fmt.Errorf("decoding dataset listing: %w", err)
	}
	return entries, nextLink(resp.Header.Get("Link")), nil
}

var linkNextPattern = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="?next"?`)

func nextLink(header string) string {
	if m := linkNextPattern.FindStringSubmatch(header); m != nil {
		return m[1]
	}
	return ""
}

// Resolve maps a requested path to a listed file: an exact match first, then
// the first listed path that ends with or contains it.
func (c *Client) Resolve(requested string) (string, bool) {
	if requested == "" {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.index[requested]; ok {
		return requested, true
	}
	for _, f := range c.files {
		if strings.HasSuffix(f, requested) || strings.Contains(f, requested) {
			return f, true
		}
	}
	return "", false
}

// Fetch resolves requested against the listing and returns a local copy.
// Unlisted paths are still attempted as-is.
func (c *Client) Fetch(ctx context.Context, requested string) (string, error) {
	file, ok := c.Resolve(requested)
	if !ok {
		file = requested
	}
	return c.Download(ctx, file)
}

// Download returns the cached copy of file, downloading it first if needed.
// Concurrent requests for the same file share one download, which outlives
// any single caller's cancellation and is bounded by the client timeout.
func (c *Client) Download(ctx context.Context, file string) (string, error) {
	local, err := c.cachePath(file)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.downloads.DoChan(file, func() (interface{}, error) {
		return nil, c.download(shared, file, local)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return local, nil
	}
}

func (c *Client) download(ctx context.Context, file, local string) error {
	if _, err := os.Stat(local); err == nil {
		return nil
	}

	fileURL := fmt.Sprintf("%s/datasets/%s/resolve/%s/%s",
		c.endpoint, c.repo, url.PathEscape(c.revision), escapePath(file))
	resp, err := c.get(ctx, fileURL)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", file, err)
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(local), ".download-*")
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", file, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), local); err != nil {
		return fmt.Errorf("moving %s into cache: %w", file, err)
	}

	c.logger.Debug("downloaded dataset file", "file", file, "bytes", n)
	return nil
}

func (c *Client) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}

// cachePath maps a repository path into the cache, refusing paths that
// would escape it.
func (c *Client) cachePath(file string) (string, error) {
	clean := path.Clean("/" + file)
	if clean == "/" || !fs.ValidPath(strings.TrimPrefix(clean, "/")) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, file)
	}
	return filepath.Join(c.cacheDir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
