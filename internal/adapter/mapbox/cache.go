package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-match/internal/adapter/cache"
	"github.com/couchcryptid/quake-match/internal/domain"
	"github.com/couchcryptid/quake-match/internal/observability"
)

// CachedGeocoder wraps a Geocoder with a cache.Store. Cache failures are
// logged and fall through to the inner geocoder.
type CachedGeocoder struct {
	inner   domain.Geocoder
	store   cache.Store
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, store cache.Store, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	// Event coordinates carry 4 decimals, so the key is exact for them.
	key := fmt.Sprintf("rev:%.4f,%.4f", lat, lon)

	if result, ok := c.lookup(ctx, key); ok {
		return result, nil
	}

	result, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if result.FormattedAddress != "" {
		c.save(ctx, key, result)
	}
	return result, nil
}

func (c *CachedGeocoder) lookup(ctx context.Context, key string) (domain.GeocodingResult, bool) {
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.metrics.GeocodeCache.WithLabelValues("error").Inc()
		c.logger.Warn("geocode cache read failed", "key", key, "error", err)
		return domain.GeocodingResult{}, false
	}
	if !found {
		c.metrics.GeocodeCache.WithLabelValues("miss").Inc()
		return domain.GeocodingResult{}, false
	}

	var result domain.GeocodingResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.metrics.GeocodeCache.WithLabelValues("error").Inc()
		c.logger.Warn("geocode cache entry corrupt", "key", key, "error", err)
		return domain.GeocodingResult{}, false
	}
	c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
	return result, true
}

func (c *CachedGeocoder) save(ctx context.Context, key string, result domain.GeocodingResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("geocode cache write failed", "key", key, "error", err)
	}
}
