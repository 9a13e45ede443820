package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
	"github.com/rpggio/triplet-annotator/internal/domain/imageset"
	"github.com/rpggio/triplet-annotator/internal/domain/navigation"
)

// Service is the single annotation session: the scanned folders, the
// navigation cursor, the working set of labels and the file they are saved
// to. Every operation holds the session lock for its whole duration,
// including the file write.
type Service struct {
	mu        sync.Mutex
	folders   []imageset.FolderSet
	sizes     []int
	cursor    navigation.Cursor
	store     *annotation.Store
	persist   AnnotationRepository
	directory string
	dataErr   string
	logger    *slog.Logger
}

// NewService creates a session over already scanned folders and a store
// that has been loaded from the annotation file.
func NewService(opts Options, store *annotation.Store, persist AnnotationRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sizes := make([]int, len(opts.Folders))
	for i, f := range opts.Folders {
		sizes[i] = len(f.ImageSets)
	}
	dataErr := opts.DatasetError
	if dataErr == "" {
		dataErr = imageset.ErrNoFolders.Error()
	}
	return &Service{
		folders:   opts.Folders,
		sizes:     sizes,
		store:     store,
		persist:   persist,
		directory: opts.Directory,
		dataErr:   dataErr,
		logger:    logger,
	}
}

// DatasetError describes why no folders are available.
func (s *Service) DatasetError() string {
	return s.dataErr
}

// FolderCount returns the number of folder sets.
func (s *Service) FolderCount() int {
	return len(s.folders)
}

// Current returns the view for the active triplet, repairing the cursor
// first if it points out of range.
func (s *Service) Current() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.folders) == 0 {
		return View{}, ErrNoFolders
	}
	return s.view(), nil
}

// LabelsFor returns the labels currently drawn on one image.
func (s *Service) LabelsFor(image string) []annotation.Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ForImage(image)
}

// Classes returns the class map ordered by id.
func (s *Service) Classes() []annotation.Class {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Classes().Classes()
}

// Add draws a new unclassified box on image.
func (s *Service) Add(image, tempID string, box annotation.Box) (View, error) {
	if strings.TrimSpace(image) == "" || tempID == "" {
		return View{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Add(image, tempID, box)
	return s.view(), nil
}

// Remove deletes every box on image addressed by id.
func (s *Service) Remove(image, id string) (View, error) {
	if strings.TrimSpace(image) == "" || id == "" {
		return View{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n := s.store.Remove(image, id); n == 0 {
		s.logger.Debug("remove matched no label", "image", image, "id", id)
	}
	return s.view(), nil
}

// Label classifies the box on image addressed by id. An unknown box is a
// logged no-op.
func (s *Service) Label(image, id, name string) (View, error) {
	if strings.TrimSpace(image) == "" || id == "" {
		return View{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Classify(image, id, name); err != nil {
		switch {
		case errors.Is(err, annotation.ErrLabelNotFound):
			s.logger.Info("label matched no box", "image", image, "id", id, "class", name)
		case errors.Is(err, annotation.ErrInvalidInput):
			s.logger.Info("ignoring empty class name", "image", image, "id", id)
		default:
			return View{}, err
		}
	}
	return s.view(), nil
}

// NextSet saves every classified label, then moves to the next image set.
func (s *Service) NextSet() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveAll(); err != nil {
		return View{}, err
	}
	s.cursor.NextSet(s.sizes)
	return s.view(), nil
}

// PrevSet moves to the previous image set within the folder.
func (s *Service) PrevSet() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursor.PrevSet(s.sizes)
	return s.view(), nil
}

// NextFolder saves every classified label, then moves to the next folder.
func (s *Service) NextFolder() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveAll(); err != nil {
		return View{}, err
	}
	s.cursor.NextFolder(s.sizes)
	return s.view(), nil
}

// PrevFolder moves to the previous folder.
func (s *Service) PrevFolder() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursor.PrevFolder(s.sizes)
	return s.view(), nil
}

// Reset clears labels for the scope and saves what remains.
func (s *Service) Reset(scope annotation.Scope) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch scope {
	case annotation.ScopeAll:
		n := s.store.Reset(annotation.ScopeAll, "")
		s.logger.Info("reset all annotations", "removed", n)
	default:
		if len(s.folders) > 0 {
			s.cursor.Clamp(s.sizes)
			folder := s.folders[s.cursor.Head].Folder
			n := s.store.Reset(annotation.ScopeFolder, folder)
			s.logger.Info("reset folder annotations", "folder", folder, "removed", n)
		}
	}

	if err := s.saveAll(); err != nil {
		return View{}, err
	}
	return s.view(), nil
}

// SaveAndNext merges the current folder's labels into the annotation file,
// drops them from memory and advances to the next folder.
func (s *Service) SaveAndNext() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.folders) == 0 {
		return s.view(), nil
	}

	s.cursor.Clamp(s.sizes)
	folder := s.folders[s.cursor.Head]
	current := folder.Images()

	kept, written, err := s.persist.SaveAndMerge(current, s.store.Labels())
	if err != nil {
		return View{}, fmt.Errorf("saving folder %s: %w", folder.Folder, err)
	}
	dropped := s.store.RemoveImages(current)
	s.logger.Info("saved folder annotations", "folder", folder.Folder, "kept_rows", kept, "written", written, "released", dropped)

	s.cursor.Advance(s.sizes)
	return s.view(), nil
}

func (s *Service) saveAll() error {
	n, err := s.persist.SaveAll(s.store.Labels())
	if err != nil {
		return fmt.Errorf("saving annotations: %w", err)
	}
	s.logger.Debug("saved annotations", "count", n)
	return nil
}

// view builds the current View; callers hold s.mu.
func (s *Service) view() View {
	v := View{
		Directory: s.directory,
		Labels:    s.store.Labels(),
		Classes:   s.store.Classes().Classes(),
	}
	if len(s.folders) == 0 {
		return v
	}

	if s.cursor.Clamp(s.sizes) {
		s.logger.Debug("cursor out of range, reset", "head", s.cursor.Head, "index", s.cursor.Index)
	}
	pos := s.cursor.Position(s.sizes)
	folder := s.folders[pos.Head]

	v.Folder = folder.Folder
	v.Triplet = folder.ImageSets[pos.Index]
	v.Head = pos.Head + 1
	v.FolderCount = pos.Folders
	v.SetIndex = pos.Index + 1
	v.SetCount = pos.Sets
	v.HasPrevFolder = pos.HasPrevFolder
	v.HasNextFolder = pos.HasNextFolder
	v.HasPrevSet = pos.HasPrevSet
	v.HasNextSet = pos.HasNextSet
	return v
}
