// Package geocache caches geocoding results in memory and in a key-value
// store, including negative results for unknown place names.
package geocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hillwalk/munroquery/internal/db"
	"github.com/hillwalk/munroquery/internal/domain"
	"github.com/hillwalk/munroquery/internal/domain/geo"
	"github.com/hillwalk/munroquery/internal/domain/text"
	"github.com/hillwalk/munroquery/internal/usecase/geosearch"
)

const cacheKeyPrefix = "munroquery:geo_cache:"

const (
	defaultPositiveTTL = 30 * 24 * time.Hour
	defaultNegativeTTL = 24 * time.Hour
)

// store is the consumer interface for the geocode cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// entry is the stored cache record. Found=false is a negative entry for a
// place name the upstream geocoder does not know.
type entry struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Found bool    `json:"found"`
}

// CachedGeocoder is a caching decorator over a geocoder. Lookups go through
// a process-local map first, then the key-value store, then upstream.
// Concurrent misses for the same place may each call upstream; the last
// write wins and all produce the same value.
type CachedGeocoder struct {
	inner geosearch.Geocoder
	store store

	mu     sync.RWMutex
	memory map[string]entry

	positiveTTL time.Duration
	negativeTTL time.Duration
	cacheTotal  *prometheus.CounterVec
	logger      *zap.Logger
}

// Options tunes cache TTLs. Zero values take defaults.
type Options struct {
	PositiveTTL time.Duration
	NegativeTTL time.Duration
}

// New creates a caching decorator.
// cacheTotal is a counter vec with labels "layer" ("memory"/"store") and
// "result" ("hit"/"miss"), passed explicitly.
func New(
	inner geosearch.Geocoder,
	s store,
	opts Options,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedGeocoder {
	if opts.PositiveTTL <= 0 {
		opts.PositiveTTL = defaultPositiveTTL
	}
	if opts.NegativeTTL <= 0 {
		opts.NegativeTTL = defaultNegativeTTL
	}
	return &CachedGeocoder{
		inner:       inner,
		store:       s,
		memory:      make(map[string]entry),
		positiveTTL: opts.PositiveTTL,
		negativeTTL: opts.NegativeTTL,
		cacheTotal:  cacheTotal,
		logger:      logger,
	}
}

// Geocode returns a cached point or calls the inner geocoder. Negative
// entries replay domain.ErrLocationNotFound without an upstream call.
func (c *CachedGeocoder) Geocode(ctx context.Context, location string) (geo.Point, error) {
	key := text.Fold(location)

	if e, ok := c.fromMemory(key); ok {
		c.incCache("memory", "hit")
		return e.point()
	}
	c.incCache("memory", "miss")

	if e, ok := c.fromStore(ctx, key); ok {
		c.incCache("store", "hit")
		c.toMemory(key, e)
		return e.point()
	}
	c.incCache("store", "miss")

	pt, err := c.inner.Geocode(ctx, location)
	switch {
	case err == nil:
		c.save(ctx, key, entry{Lat: pt.Lat, Lon: pt.Lon, Found: true}, c.positiveTTL)
		return pt, nil
	case errors.Is(err, domain.ErrLocationNotFound):
		c.save(ctx, key, entry{Found: false}, c.negativeTTL)
		return geo.Point{}, err
	default:
		// Transient upstream failures are not cached.
		return geo.Point{}, err
	}
}

func (e entry) point() (geo.Point, error) {
	if !e.Found {
		return geo.Point{}, domain.ErrLocationNotFound
	}
	return geo.Point{Lat: e.Lat, Lon: e.Lon}, nil
}

func (c *CachedGeocoder) fromMemory(key string) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.memory[key]
	return e, ok
}

func (c *CachedGeocoder) toMemory(key string, e entry) {
	c.mu.Lock()
	c.memory[key] = e
	c.mu.Unlock()
}

func (c *CachedGeocoder) fromStore(ctx context.Context, key string) (entry, bool) {
	if c.store == nil {
		return entry{}, false
	}
	data, err := c.store.Get(ctx, cacheKeyPrefix+key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) && c.logger != nil {
			c.logger.Warn("geocode cache read failed", zap.Error(err))
		}
		return entry{}, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		if c.logger != nil {
			c.logger.Warn("geocode cache entry corrupted", zap.String("key", key), zap.Error(err))
		}
		return entry{}, false
	}
	return e, true
}

// save best-effort writes to both layers. Store errors are logged, not
// returned: a failed cache write must not fail the lookup.
func (c *CachedGeocoder) save(ctx context.Context, key string, e entry, ttl time.Duration) {
	c.toMemory(key, e)
	if c.store == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := c.store.SetWithTTL(ctx, cacheKeyPrefix+key, data, ttl); err != nil && c.logger != nil {
		c.logger.Warn("geocode cache write failed",
			zap.String("key", key), zap.Error(fmt.Errorf("set: %w", err)))
	}
}

func (c *CachedGeocoder) incCache(layer, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(layer, result).Inc()
	}
}
