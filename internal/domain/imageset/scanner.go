package imageset

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Scanner groups image files into folder sets by naming convention.
type Scanner struct {
	logger *slog.Logger
}

// NewScanner creates a scanner. A nil logger discards output.
func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scanner{logger: logger}
}

// MatchSuffix returns the first required suffix the filename ends with.
func MatchSuffix(filename string) (string, bool) {
	for _, suffix := range RequiredSuffixes {
		if strings.HasSuffix(filename, suffix) {
			return suffix, true
		}
	}
	return "", false
}

// FileID returns the part of the filename before its first '-'.
func FileID(filename string) (string, bool) {
	id, _, found := strings.Cut(filename, "-")
	return id, found
}

// ScanDirectory walks root and returns the folder sets found below it.
// Files directly inside root are never grouped. Every directory is its own
// group, named by its basename, in walk order.
func (s *Scanner) ScanDirectory(root string) ([]FolderSet, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scanning %s: not a directory", root)
	}

	root = filepath.Clean(root)
	g := newGrouper()
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == root {
				return walkErr
			}
			s.logger.Warn("skipping unreadable path", "path", p, "error", walkErr)
			return nil
		}
		if d.IsDir() {
			if p != root {
				g.folder(p, filepath.Base(p))
			}
			return nil
		}

		dir := filepath.Dir(p)
		if dir == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		g.add(g.folder(dir, filepath.Base(dir)), d.Name(), filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	sets := g.build()
	s.logger.Info("scanned image directory", "root", root, "folders", len(sets))
	return sets, nil
}

// ScanFiles groups a flat list of repository-relative paths. The folder is
// the first path segment; only PNG files inside a folder are considered.
func (s *Scanner) ScanFiles(files []string) []FolderSet {
	g := newGrouper()
	for _, file := range files {
		if !strings.HasSuffix(file, ".png") {
			continue
		}
		parts := strings.Split(file, "/")
		if len(parts) < 2 {
			continue
		}
		g.add(g.folder(parts[0], parts[0]), parts[len(parts)-1], file)
	}

	sets := g.build()
	s.logger.Info("grouped dataset files", "files", len(files), "folders", len(sets))
	return sets
}

type folderGroup struct {
	name  string
	ids   []string
	files map[string]map[string]string
}

type grouper struct {
	order []*folderGroup
	byKey map[string]*folderGroup
}

func newGrouper() *grouper {
	return &grouper{byKey: make(map[string]*folderGroup)}
}

func (g *grouper) folder(key, name string) *folderGroup {
	if fg, ok := g.byKey[key]; ok {
		return fg
	}
	fg := &folderGroup{name: name, files: make(map[string]map[string]string)}
	g.byKey[key] = fg
	g.order = append(g.order, fg)
	return fg
}

func (g *grouper) add(fg *folderGroup, filename, filePath string) {
	suffix, ok := MatchSuffix(filename)
	if !ok {
		return
	}
	id, ok := FileID(path.Base(filename))
	if !ok {
		return
	}
	images, ok := fg.files[id]
	if !ok {
		images = make(map[string]string, len(RequiredSuffixes))
		fg.files[id] = images
		fg.ids = append(fg.ids, id)
	}
	images[suffix] = filePath
}

func (g *grouper) build() []FolderSet {
	sets := make([]FolderSet, 0, len(g.order))
	for _, fg := range g.order {
		var triplets []Triplet
		for _, id := range fg.ids {
			images := fg.files[id]
			if len(images) != len(RequiredSuffixes) {
				continue
			}
			triplets = append(triplets, Triplet{
				FileID:    id,
				SRIntFull: images[SuffixSRIntFull],
				TRLine:    images[SuffixTRLine],
				TRIntFull: images[SuffixTRIntFull],
			})
		}
		if len(triplets) > 0 {
			sets = append(sets, FolderSet{Folder: fg.name, ImageSets: triplets})
		}
	}
	return sets
}
