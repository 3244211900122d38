package locations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/joseph-ayodele/fra-claims/internal/common"
	"github.com/joseph-ayodele/fra-claims/internal/entity"
)

// Geocoder resolves a free-text place query to its best coordinate pair.
// A nil result with a nil error means the place is unknown.
type Geocoder interface {
	Search(ctx context.Context, query string) (*entity.Coordinates, error)
}

type NominatimConfig struct {
	URL       string // search endpoint, default the public Nominatim instance
	UserAgent string // required by the Nominatim usage policy
	Timeout   time.Duration
	CacheTTL  time.Duration
}

// NominatimGeocoder queries a Nominatim-compatible /search endpoint. Every
// network call waits on the shared Pacer; answers, including misses, are cached.
type NominatimGeocoder struct {
	cfg    NominatimConfig
	client *http.Client
	pacer  *Pacer
	cache  *cache.Cache
	logger *slog.Logger
}

type cachedResult struct {
	coords *entity.Coordinates
}

func NewNominatimGeocoder(cfg NominatimConfig, pacer *Pacer, logger *slog.Logger) *NominatimGeocoder {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URL == "" {
		cfg.URL = "https://nominatim.openstreetmap.org/search"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "fra-claims/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if pacer == nil {
		pacer = NewPacer(0, nil)
	}
	return &NominatimGeocoder{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		pacer:  pacer,
		cache:  cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger: logger,
	}
}

// NominatimConfigFromCommon converts the environment geocoder section.
func NominatimConfigFromCommon(c common.GeocoderConfig) NominatimConfig {
	return NominatimConfig{URL: c.URL, UserAgent: c.UserAgent, Timeout: c.Timeout, CacheTTL: c.CacheTTL}
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *NominatimGeocoder) Search(ctx context.Context, query string) (*entity.Coordinates, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if key == "" {
		return nil, nil
	}
	logger := common.LoggerFrom(ctx, g.logger)
	if v, ok := g.cache.Get(key); ok {
		logger.Debug("geocode.cache.hit", "query", query)
		return v.(cachedResult).coords, nil
	}

	if err := g.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	u, err := url.Parse(g.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("geocoder url: %w", err)
	}
	q := u.Query()
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		logger.Warn("geocode.request.failed", "query", query, "error", err)
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Warn("geocode.response_body_close_error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		logger.Warn("geocode.request.status", "query", query, "status", resp.StatusCode)
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode geocoder response: %w", err)
	}
	logger.Info("geocode.request.done", "query", query, "results", len(places), "elapsed_ms", time.Since(start).Milliseconds())

	var coords *entity.Coordinates
	if len(places) > 0 {
		lat, err1 := strconv.ParseFloat(places[0].Lat, 64)
		lon, err2 := strconv.ParseFloat(places[0].Lon, 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("geocoder returned non-numeric coordinates %q,%q", places[0].Lat, places[0].Lon)
		}
		coords = &entity.Coordinates{Lat: lat, Lon: lon}
	}
	g.cache.Set(key, cachedResult{coords: coords}, cache.DefaultExpiration)
	return coords, nil
}
