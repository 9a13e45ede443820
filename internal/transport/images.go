package transport

import (
	"bytes"
	"errors"
	"image"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/triplet-annotator/internal/imagery"
)

// ErrImageNotFound indicates neither the dataset nor the images directory
// has the requested file.
var ErrImageNotFound = errors.New("image not found")

func imagePath(r *http.Request) string {
	p := chi.URLParam(r, "*")
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return p
}

// locate finds a local copy of an image: the remote dataset first, then the
// images directory.
func (s *Server) locate(r *http.Request, p string) (string, error) {
	if s.remote != nil {
		local, err := s.remote.Fetch(r.Context(), p)
		if err == nil {
			return local, nil
		}
		s.logger.Warn("failed to fetch dataset image", "path", p, "error", err)
	}

	if s.imagesDir != "" {
		clean := strings.TrimPrefix(path.Clean("/"+p), "/")
		if clean != "" && fs.ValidPath(clean) {
			local := filepath.Join(s.imagesDir, filepath.FromSlash(clean))
			if info, err := os.Stat(local); err == nil && !info.IsDir() {
				return local, nil
			}
		}
	}
	return "", ErrImageNotFound
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	local, err := s.locate(r, imagePath(r))
	if err != nil {
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, local)
}

func (s *Server) handleCrop(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	box, err := boxFromQuery(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	scale := 1.0
	if v := q.Get("scale"); v != "" {
		if scale, err = strconv.ParseFloat(v, 64); err != nil {
			http.Error(w, "invalid scale", http.StatusBadRequest)
			return
		}
	}

	local, err := s.locate(r, imagePath(r))
	if err != nil {
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}
	img, err := s.images.Load(local)
	if err != nil {
		s.logger.Error("failed to load image", "path", local, "error", err)
		http.Error(w, "failed to load image", http.StatusInternalServerError)
		return
	}
	cropped, err := imagery.Crop(img, box, scale)
	if err != nil {
		if errors.Is(err, imagery.ErrEmptyRegion) || errors.Is(err, imagery.ErrInvalidScale) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error("failed to crop image", "path", local, "error", err)
		http.Error(w, "failed to crop image", http.StatusInternalServerError)
		return
	}
	s.writePNG(w, cropped)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	p := imagePath(r)
	local, err := s.locate(r, p)
	if err != nil {
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}
	img, err := s.images.Load(local)
	if err != nil {
		s.logger.Error("failed to load image", "path", local, "error", err)
		http.Error(w, "failed to load image", http.StatusInternalServerError)
		return
	}
	s.writePNG(w, s.renderer.Render(img, s.sessions.LabelsFor(p)))
}

func (s *Server) writePNG(w http.ResponseWriter, img image.Image) {
	var buf bytes.Buffer
	if err := imagery.EncodePNG(&buf, img); err != nil {
		s.logger.Error("failed to encode image", "error", err)
		http.Error(w, "failed to encode image", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}
