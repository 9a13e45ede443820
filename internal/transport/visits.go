package transport

import (
	"net"
	"net/http"
	"strings"

	"github.com/rpggio/triplet-annotator/internal/domain/analytics"
)

// ClientIP returns the caller's address, preferring the first
// X-Forwarded-For entry, then X-Real-IP, then the connection address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// track records a page view. Failures are logged and never block the page.
func (s *Server) track(r *http.Request) {
	if s.visits == nil {
		return
	}
	visitor := analytics.Visitor{IP: ClientIP(r), UserAgent: r.UserAgent()}
	if _, err := s.visits.Track(r.Context(), visitor); err != nil {
		s.logger.Warn("failed to track visit", "ip", visitor.IP, "error", err)
	}
}
