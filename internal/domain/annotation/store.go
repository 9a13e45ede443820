package annotation

import (
	"io"
	"log/slog"
	"strings"
)

// Store is the in-memory, ordered working set of labels plus the class map.
// It is not safe for concurrent use; callers serialize access.
type Store struct {
	labels  []Label
	classes *ClassMap
	logger  *slog.Logger
}

// NewStore creates an empty store. A nil logger discards output.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{classes: NewClassMap(), logger: logger}
}

// Classes exposes the class map.
func (s *Store) Classes() *ClassMap {
	return s.classes
}

// Labels returns a copy of every label in insertion order.
func (s *Store) Labels() []Label {
	out := make([]Label, len(s.labels))
	copy(out, s.labels)
	return out
}

// Len returns the number of labels held.
func (s *Store) Len() int {
	return len(s.labels)
}

// Complete returns the classified labels in insertion order.
func (s *Store) Complete() []Label {
	var out []Label
	for _, l := range s.labels {
		if l.Classified() {
			out = append(out, l)
		}
	}
	return out
}

// ForImage returns the labels drawn on one image.
func (s *Store) ForImage(image string) []Label {
	var out []Label
	for _, l := range s.labels {
		if l.Image == image {
			out = append(out, l)
		}
	}
	return out
}

// Append adds an already-built label, as read from storage.
func (s *Store) Append(l Label) {
	s.labels = append(s.labels, l)
}

// Add appends a new unclassified label. Repeated temp ids are not merged.
func (s *Store) Add(image, tempID string, box Box) Label {
	l := Label{Image: image, Box: box, TempID: tempID}
	s.labels = append(s.labels, l)
	s.logger.Debug("label added", "image", image, "temp_id", tempID,
		"center_x", box.CenterX, "center_y", box.CenterY, "width", box.Width, "height", box.Height)
	return l
}

// Classify assigns a class to the first label on image whose key equals id.
// The class id is allocated even when no label matches.
func (s *Store) Classify(image, id, name string) (Label, error) {
	name = NormalizeName(name)
	if name == "" {
		return Label{}, ErrInvalidInput
	}

	classID, known := s.classes.Lookup(name)
	if !known {
		classID = s.classes.Assign(name)
		s.logger.Debug("class id assigned", "class", name, "class_id", classID)
	}

	for i := range s.labels {
		l := &s.labels[i]
		if l.Image != image || l.Key() != id {
			continue
		}
		l.Class = &Class{ID: classID, Name: name}
		l.TempID = ""
		l.RowID = ""
		s.logger.Debug("label classified", "image", image, "temp_id", id, "class", name, "class_id", classID)
		return *l, nil
	}

	s.logger.Debug("label not found", "image", image, "temp_id", id)
	return Label{}, ErrLabelNotFound
}

// Remove deletes every label on image whose temp id or class id equals id.
func (s *Store) Remove(image, id string) int {
	removed := s.filter(func(l Label) bool {
		return l.Image == image && (l.TempID == id || (l.Classified() && l.Key() == id))
	})
	s.logger.Debug("labels removed", "image", image, "id", id, "count", removed)
	return removed
}

// Reset clears labels. ScopeAll also forgets the class map; ScopeFolder only
// removes labels whose image lives under folder.
func (s *Store) Reset(scope Scope, folder string) int {
	if scope == ScopeAll {
		removed := len(s.labels)
		s.labels = nil
		s.classes.Reset()
		s.logger.Debug("reset all labels", "count", removed)
		return removed
	}

	prefix := folder + "/"
	removed := s.filter(func(l Label) bool {
		return strings.HasPrefix(l.Image, prefix)
	})
	s.logger.Debug("reset folder labels", "folder", folder, "count", removed)
	return removed
}

// RemoveImages drops every label whose image is in images.
func (s *Store) RemoveImages(images map[string]struct{}) int {
	return s.filter(func(l Label) bool {
		_, ok := images[l.Image]
		return ok
	})
}

func (s *Store) filter(drop func(Label) bool) int {
	kept := s.labels[:0]
	removed := 0
	for _, l := range s.labels {
		if drop(l) {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	for i := len(kept); i < len(s.labels); i++ {
		s.labels[i] = Label{}
	}
	s.labels = kept
	return removed
}
