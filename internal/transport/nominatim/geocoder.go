// Package nominatim resolves place names to coordinates using a
// Nominatim-compatible geocoding API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hillwalk/munroquery/internal/domain"
	"github.com/hillwalk/munroquery/internal/domain/geo"
	"github.com/hillwalk/munroquery/internal/metrics"
)

const defaultTimeout = 6 * time.Second

// Geocoder queries a Nominatim-compatible search endpoint.
type Geocoder struct {
	baseURL   string
	userAgent string
	// bbox is south, west, north, east. Zero value disables bounding.
	bbox   [4]float64
	client *http.Client
	logger *zap.Logger
}

// Config holds the geocoder settings.
type Config struct {
	BaseURL   string
	UserAgent string
	// BBox restricts results to south, west, north, east when 4 values
	// are given.
	BBox    []float64
	Timeout time.Duration
	Logger  *zap.Logger
}

// New creates a Nominatim geocoder client.
func New(cfg *Config) *Geocoder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	g := &Geocoder{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
		logger:    cfg.Logger,
	}
	if len(cfg.BBox) == 4 {
		copy(g.bbox[:], cfg.BBox)
	}
	return g
}

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves a place name to a point. It returns
// domain.ErrLocationNotFound when the place is unknown.
func (g *Geocoder) Geocode(ctx context.Context, location string) (geo.Point, error) {
	q := url.Values{}
	q.Set("q", location)
	q.Set("format", "json")
	q.Set("limit", "1")
	if g.bounded() {
		// viewbox is lon,lat pairs of two opposite corners.
		q.Set("viewbox", fmt.Sprintf("%g,%g,%g,%g", g.bbox[1], g.bbox[0], g.bbox[3], g.bbox[2]))
		q.Set("bounded", "1")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return geo.Point{}, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		return geo.Point{}, fmt.Errorf("geocode %q: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return geo.Point{}, fmt.Errorf("geocode %q: status %d: %s", location, resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		return geo.Point{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(places) == 0 {
		metrics.GeocodeRequestsTotal.WithLabelValues("not_found").Inc()
		return geo.Point{}, fmt.Errorf("geocode %q: %w", location, domain.ErrLocationNotFound)
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLon != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		return geo.Point{}, fmt.Errorf("geocode %q: malformed coordinates", location)
	}

	pt := geo.Point{Lat: lat, Lon: lon}
	if !geo.Valid(pt.Lat, pt.Lon) {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		return geo.Point{}, fmt.Errorf("geocode %q: coordinates out of range", location)
	}

	metrics.GeocodeRequestsTotal.WithLabelValues("success").Inc()
	if g.logger != nil {
		g.logger.Debug("geocoded location",
			zap.String("location", location),
			zap.Float64("lat", pt.Lat),
			zap.Float64("lon", pt.Lon))
	}
	return pt, nil
}

func (g *Geocoder) bounded() bool {
	return g.bbox != [4]float64{}
}
