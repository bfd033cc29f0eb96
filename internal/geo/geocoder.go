package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrNoResult = errors.New("no address for coordinates")

// Geocoder turns device coordinates into a display address.
type Geocoder interface {
	Reverse(ctx context.Context, at domain.Coordinates) (string, error)
}

// HTTPGeocoder queries a Nominatim-compatible reverse geocoding endpoint.
type HTTPGeocoder struct {
	baseURL   string
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

func NewHTTPGeocoder(baseURL, userAgent string, client *http.Client) *HTTPGeocoder {
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &HTTPGeocoder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
		userAgent: userAgent,
		timeout:   5 * time.Second,
	}
}

func (g *HTTPGeocoder) Reverse(ctx context.Context, at domain.Coordinates) (string, error) {
	if at.Lat < -90 || at.Lat > 90 || at.Lon < -180 || at.Lon > 180 {
		return "", fmt.Errorf("coordinates out of range: %v,%v", at.Lat, at.Lon)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(at.Lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build reverse geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode failed: status %d", resp.StatusCode)
	}

	var payload struct {
		DisplayName string `json:"display_name"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode reverse geocode response: %w", err)
	}
	if payload.Error != "" || strings.TrimSpace(payload.DisplayName) == "" {
		return "", ErrNoResult
	}
	return payload.DisplayName, nil
}
