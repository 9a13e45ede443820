package transport

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
	"github.com/rpggio/triplet-annotator/internal/domain/session"
)

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	box, err := boxFromQuery(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	_, err = s.sessions.Add(q.Get("image"), chi.URLParam(r, "tempID"), box)
	s.afterAction(w, r, err)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	_, err := s.sessions.Remove(r.URL.Query().Get("image"), chi.URLParam(r, "tempID"))
	s.afterAction(w, r, err)
}

func (s *Server) handleLabel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	_, err := s.sessions.Label(q.Get("image"), chi.URLParam(r, "tempID"), q.Get("name"))
	s.afterAction(w, r, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	_, err := s.sessions.Reset(annotation.ParseScope(r.URL.Query().Get("scope")))
	s.afterAction(w, r, err)
}

func (s *Server) handleSaveAndNext(w http.ResponseWriter, r *http.Request) {
	_, err := s.sessions.SaveAndNext()
	s.afterAction(w, r, err)
}

// navigate moves the cursor and returns to the tagger, keeping autoplay
// running when both autoplay and interval were given.
func (s *Server) navigate(move func() (session.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := move(); err != nil {
			s.actionFailed(w, err)
			return
		}
		target := "/tagger"
		q := r.URL.Query()
		if autoplay, interval := q.Get("autoplay"), q.Get("interval"); autoplay != "" && interval != "" {
			keep := url.Values{}
			keep.Set("autoplay", autoplay)
			keep.Set("interval", interval)
			target += "?" + keep.Encode()
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

func (s *Server) afterAction(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.actionFailed(w, err)
		return
	}
	http.Redirect(w, r, "/tagger", http.StatusFound)
}

func (s *Server) actionFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Error("session action failed", "error", err)
	s.renderError(w, http.StatusInternalServerError, "Annotation Error", err.Error())
}

// boxFromQuery reads the xMin, xMax, yMin and yMax corner parameters.
func boxFromQuery(q url.Values) (annotation.Box, error) {
	var corners [4]float64
	for i, key := range []string{"xMin", "xMax", "yMin", "yMax"} {
		v, err := strconv.ParseFloat(q.Get(key), 64)
		if err != nil {
			return annotation.Box{}, fmt.Errorf("invalid %s: %q", key, q.Get(key))
		}
		corners[i] = v
	}
	return annotation.BoxFromCorners(corners[0], corners[1], corners[2], corners[3]), nil
}
