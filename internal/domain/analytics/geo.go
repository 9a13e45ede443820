package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"
)

// DefaultGeoEndpoint is the free ip-api.com JSON endpoint.
const DefaultGeoEndpoint = "http://ip-api.com/json/"

// GeoTimeout bounds a single country lookup.
const GeoTimeout = 2 * time.Second

// IPAPILocator looks up countries with the ip-api.com JSON API.
type IPAPILocator struct {
	endpoint string
	client   *http.Client
}

// NewIPAPILocator creates a locator. An empty endpoint uses DefaultGeoEndpoint.
func NewIPAPILocator(endpoint string) *IPAPILocator {
	if endpoint == "" {
		endpoint = DefaultGeoEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return &IPAPILocator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: GeoTimeout},
	}
}

type ipAPIResponse struct {
	Status  string `json:"status"`
	Country string `json:"country"`
}

// Country returns the country name for ip. Loopback and private addresses
// are never sent to the service.
func (l *IPAPILocator) Country(ctx context.Context, ip string) (string, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "", fmt.Errorf("%w: invalid address %q", ErrLookupFailed, ip)
	}
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() {
		return UnknownCountry, nil
	}

	ctx, cancel := context.WithTimeout(ctx, GeoTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint+addr.String(), nil)
	if err != nil {
		return "", fmt.Errorf("building lookup request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}
	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrLookupFailed, err)
	}
	if body.Status != "success" || body.Country == "" {
		return UnknownCountry, nil
	}
	return body.Country, nil
}
