// Package csvstore persists classified labels to the annotation CSV file.
//
// The file is rewritten from scratch on every save. Rows are
// image,id,name,centerX,centerY,width,height with the box values rounded to
// integers.
package csvstore

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
	"github.com/rpggio/triplet-annotator/internal/repository"
)

var _ repository.AnnotationRepository = (*Store)(nil)

// Header is the required first line of the annotation file.
const Header = "image,id,name,centerX,centerY,width,height"

var columns = strings.Split(Header, ",")

// Store reads and writes one annotation CSV file.
type Store struct {
	path   string
	logger *slog.Logger
}

// New creates a store for path. A nil logger discards output.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{path: path, logger: logger}
}

// Path returns the file the store writes.
func (s *Store) Path() string {
	return s.path
}

// BackupPath returns where a file with an unexpected header is moved.
func BackupPath(path string) string {
	if strings.HasSuffix(path, ".csv") {
		return strings.TrimSuffix(path, ".csv") + "_backup.csv"
	}
	return path + "_backup"
}

// Ensure makes sure the file exists and starts with Header. A file with any
// other first line is renamed to BackupPath and replaced by a header-only
// file; its rows are not migrated. The backup path is returned when that
// happens.
func (s *Store) Ensure() (string, error) {
	first, err := s.firstLine()
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.write(nil); err != nil {
			return "", err
		}
		s.logger.Info("created annotation file", "path", s.path)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if first == Header {
		s.logger.Info("using existing annotation file", "path", s.path)
		return "", nil
	}

	backup := BackupPath(s.path)
	s.logger.Warn("annotation file has unexpected header", "path", s.path, "expected", Header, "found", first, "backup", backup)
	if err := os.Rename(s.path, backup); err != nil {
		return "", fmt.Errorf("backing up annotation file: %w", err)
	}
	if err := s.write(nil); err != nil {
		return "", err
	}
	return backup, nil
}

// Load appends every row of the file to store and rebuilds its class map.
// Rows with an empty id get a fresh temp id. Any other id is kept as the
// label's key: a name makes the row classified, so it is written back, and a
// row without one stays unclassified under that id. Only numeric ids feed the
// class map. Rows with unreadable box values are skipped.
func (s *Store) Load(store *annotation.Store) (int, error) {
	rows, err := s.readRows()
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, row := range rows {
		l, ok := s.parseRow(row)
		if !ok {
			continue
		}
		if l.Classified() && l.RowID == "" {
			store.Classes().Observe(l.Class.Name, l.Class.ID)
		}
		store.Append(l)
		loaded++
	}
	if loaded > 0 {
		s.logger.Info("loaded existing annotations", "path", s.path, "count", loaded, "next_class_id", store.Classes().Next())
	}
	return loaded, nil
}

// SaveAll rewrites the file with every classified label in list order.
func (s *Store) SaveAll(labels []annotation.Label) (int, error) {
	written, err := s.writeLabels(nil, labels)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("saved annotations", "path", s.path, "count", written)
	return written, nil
}

// SaveAndMerge rewrites the file keeping existing rows for images outside
// current, then appending every classified label from labels regardless of
// folder. Existing rows for images in current are dropped even when no
// in-memory label replaces them. It returns how many rows were kept and how
// many labels were written.
func (s *Store) SaveAndMerge(current map[string]struct{}, labels []annotation.Label) (kept, written int, err error) {
	rows, err := s.readRows()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, 0, err
	}

	var keptRows [][]string
	for _, row := range rows {
		if _, ok := current[row[0]]; ok {
			continue
		}
		keptRows = append(keptRows, row)
	}

	written, err = s.writeLabels(keptRows, labels)
	if err != nil {
		return 0, 0, err
	}
	s.logger.Debug("merged annotations", "path", s.path, "kept", len(keptRows), "written", written)
	return len(keptRows), written, nil
}

// Row formats a classified label as a CSV record.
func Row(l annotation.Label) []string {
	return []string{
		l.Image,
		l.Key(),
		l.Class.Name,
		formatCoord(l.Box.CenterX),
		formatCoord(l.Box.CenterY),
		formatCoord(l.Box.Width),
		formatCoord(l.Box.Height),
	}
}

// formatCoord rounds half to even, matching the files this tool has always produced.
func formatCoord(v float64) string {
	return strconv.FormatInt(int64(math.RoundToEven(v)), 10)
}

func (s *Store) parseRow(row []string) (annotation.Label, bool) {
	if len(row) < len(columns) {
		s.logger.Warn("skipping short annotation row", "row", strings.Join(row, ","))
		return annotation.Label{}, false
	}

	var coords [4]float64
	for i := range coords {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[3+i]), 64)
		if err != nil {
			s.logger.Warn("skipping annotation row with bad box value", "row", strings.Join(row, ","), "error", err)
			return annotation.Label{}, false
		}
		coords[i] = v
	}

	l := annotation.Label{
		Image: row[0],
		Box:   annotation.Box{CenterX: coords[0], CenterY: coords[1], Width: coords[2], Height: coords[3]},
	}
	rawID, name := row[1], strings.ToLower(row[2])
	switch {
	case rawID == "":
		l.TempID = uuid.NewString()
	case name == "":
		l.TempID = rawID
	default:
		if id, ok := parseClassID(rawID); ok {
			l.Class = &annotation.Class{ID: id, Name: name}
		} else {
			l.Class = &annotation.Class{Name: name}
			l.RowID = rawID
		}
	}
	return l, true
}

func parseClassID(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *Store) firstLine() (string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading annotation header: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readRows returns every record after the first line.
func (s *Store) readRows() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading annotation file: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

func (s *Store) writeLabels(rows [][]string, labels []annotation.Label) (int, error) {
	written := 0
	for _, l := range labels {
		if !l.Classified() {
			continue
		}
		rows = append(rows, Row(l))
		written++
	}
	if err := s.write(rows); err != nil {
		return 0, err
	}
	return written, nil
}

func (s *Store) write(rows [][]string) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("creating annotation file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		f.Close()
		return fmt.Errorf("writing annotation header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("writing annotations: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing annotation file: %w", err)
	}
	return nil
}
