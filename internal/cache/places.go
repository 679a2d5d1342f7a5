package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "telegram-schedule-bot/internal/errors"
	"telegram-schedule-bot/internal/metrics"
	"telegram-schedule-bot/internal/models"
)

const defaultTTL = 6 * time.Hour

// Lister loads the faculty list from the site.
type Lister interface {
	ListFaculties(ctx context.Context) (models.Options, error)
}

// Store is an optional second level shared between bot instances.
type Store interface {
	Load(ctx context.Context) (models.Options, error)
	Store(ctx context.Context, places models.Options, ttl time.Duration) error
	Clear(ctx context.Context) error
}

type Options struct {
	TTL     time.Duration
	Shared  Store
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// PlaceCache owns the faculty list. Entries live for TTL and are reloaded on
// the first lookup after expiry; a failed reload keeps serving the old list.
// Empty lists are never stored.
type PlaceCache struct {
	mu       sync.Mutex
	src      Lister
	shared   Store
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
	places   models.Options
	loadedAt time.Time
}

func NewPlaceCache(src Lister, opts Options) *PlaceCache {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &PlaceCache{
		src:     src,
		shared:  opts.Shared,
		ttl:     opts.TTL,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		now:     time.Now,
	}
}

// Places returns the faculty list, loading it when absent or expired.
func (c *PlaceCache) Places(ctx context.Context) (models.Options, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.places) > 0 && c.now().Sub(c.loadedAt) < c.ttl {
		c.metrics.RecordCacheLookup(true)
		return c.places.Clone(), nil
	}
	c.metrics.RecordCacheLookup(false)
	return c.load(ctx, false)
}

// Refresh reloads the list from the site, bypassing both levels.
func (c *PlaceCache) Refresh(ctx context.Context) (models.Options, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx, true)
}

// Invalidate drops the local copy and the shared one.
func (c *PlaceCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.places = nil
	c.loadedAt = time.Time{}
	c.mu.Unlock()

	if c.shared == nil {
		return nil
	}
	return c.shared.Clear(ctx)
}

func (c *PlaceCache) load(ctx context.Context, force bool) (models.Options, error) {
	if !force && c.shared != nil {
		places, err := c.shared.Load(ctx)
		switch {
		case err == nil && len(places) > 0:
			c.keep(places)
			return places.Clone(), nil
		case err != nil && !errors.Is(err, appErrors.ErrCacheMiss):
			c.logger.Warn("shared place cache load failed", zap.Error(err))
		}
	}

	places, err := c.src.ListFaculties(ctx)
	if err != nil {
		if len(c.places) > 0 {
			c.logger.Warn("faculty reload failed, serving stale list",
				zap.Error(err), zap.Time("loaded_at", c.loadedAt))
			return c.places.Clone(), nil
		}
		return nil, err
	}
	if len(places) == 0 {
		return places, nil
	}

	c.keep(places)
	if c.shared != nil {
		if err := c.shared.Store(ctx, places, c.ttl); err != nil {
			c.logger.Warn("shared place cache store failed", zap.Error(err))
		}
	}
	return places.Clone(), nil
}

func (c *PlaceCache) keep(places models.Options) {
	c.places = places.Clone()
	c.loadedAt = c.now()
}
