// Package logging builds the annotator's slog logger and the size-capped
// file it can write to.
package logging

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// New returns a text logger at the named level.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// ParseLevel maps debug, info, warn and error (any case) to a slog level.
// Anything else is info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Limits bound a log File: once it passes Max bytes only the newest Keep
// bytes are kept, starting at a line boundary.
type Limits struct {
	Max  int64
	Keep int64
}

// DefaultLimits keep a log between 5 and 6 MiB.
var DefaultLimits = Limits{Max: 6 << 20, Keep: 5 << 20}

// File is an append-only log file trimmed to its Limits after every write.
// It is safe for concurrent use.
type File struct {
	limits Limits

	mu   sync.Mutex
	file *os.File
}

// OpenFile opens or creates the log at path, creating its directory, and
// trims it right away if an earlier run left it too large.
func OpenFile(path string, limits Limits) (*File, error) {
	if limits.Max <= 0 || limits.Keep <= 0 || limits.Keep > limits.Max {
		limits = DefaultLimits
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	f := &File{limits: limits, file: file}
	if err := f.trim(); err != nil {
		file.Close()
		return nil, err
	}
	return f, nil
}

func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := f.file.Write(p)
	if err != nil {
		return n, err
	}
	return n, f.trim()
}

// Close closes the underlying file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}

func (f *File) trim() error {
	info, err := f.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= f.limits.Max {
		return nil
	}

	tail := make([]byte, f.limits.Keep)
	n, err := f.file.ReadAt(tail, size-f.limits.Keep)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	tail = tail[:n]
	// Drop the partial line the cut landed in.
	if i := bytes.IndexByte(tail, '\n'); i >= 0 {
		tail = tail[i+1:]
	}

	if err := f.file.Truncate(0); err != nil {
		return err
	}
	// O_APPEND writes always land at the end, so the offset needs no reset.
	_, err = f.file.Write(tail)
	return err
}
