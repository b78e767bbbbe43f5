// Package geocode resolves venue queries to coordinates via the Google
// Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cartelera/cartelera/internal/pipeline"
	"github.com/cartelera/cartelera/internal/telemetry"
)

const defaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// Config controls the geocoding client.
type Config struct {
	Key string
	// CitySuffix is appended to every query to bias results toward the
	// target city, e.g. ", Buenos Aires, Argentina".
	CitySuffix string
	Region     string
	Language   string
	QPS        float64
	Timeout    time.Duration
	// Endpoint overrides the API URL in tests.
	Endpoint string
}

// Client implements pipeline.Geocoder. A nil Client (no key configured) is
// a valid no-op geocoder.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New builds a Client, or nil when no key is configured so callers can skip
// geocoding without failing records.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Key == "" {
		return nil
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.QPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.QPS), 1)
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status string `json:"status"`
}

// Geocode resolves a free-text query scoped to the configured city. A nil
// result with nil error means the query did not resolve; transport and API
// errors are returned for logging but callers treat them the same way.
func (c *Client) Geocode(ctx context.Context, query string) (*pipeline.LatLng, error) {
	if c == nil || query == "" {
		return nil, nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("geocode rate limit: %w", err)
		}
	}

	params := url.Values{}
	params.Set("address", query+c.cfg.CitySuffix)
	params.Set("key", c.cfg.Key)
	if c.cfg.Region != "" {
		params.Set("region", c.cfg.Region)
	}
	if c.cfg.Language != "" {
		params.Set("language", c.cfg.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		telemetry.ObserveGeocode("error")
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		telemetry.ObserveGeocode("error")
		return nil, fmt.Errorf("read geocode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		telemetry.ObserveGeocode("error")
		return nil, fmt.Errorf("geocode status %d", resp.StatusCode)
	}

	var parsed geocodeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		telemetry.ObserveGeocode("error")
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(parsed.Results) == 0 {
		telemetry.ObserveGeocode("miss")
		c.logger.Debug("geocode returned no results",
			zap.String("query", query), zap.String("status", parsed.Status))
		return nil, nil
	}

	telemetry.ObserveGeocode("hit")
	loc := parsed.Results[0].Geometry.Location
	return &pipeline.LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
}
