package wyoming

import (
	"context"
	"fmt"
	"time"

	"github.com/bluele/gcache"

	"github.com/couchcryptid/pw-import/internal/domain"
	"github.com/couchcryptid/pw-import/internal/observability"
)

// CachedSource wraps a SoundingSource with an in-memory LRU cache, so a
// retried fetch only goes back to the archive for values it did not get.
type CachedSource struct {
	inner   domain.SoundingSource
	cache   gcache.Cache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator holding up to maxEntries lookups.
func NewCachedSource(inner domain.SoundingSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   gcache.New(maxEntries).LRU().Build(),
		metrics: metrics,
	}
}

// PrecipitableWater returns the cached value for station at the given
// sounding time, asking the wrapped source on a miss. Only successful
// lookups are cached.
func (c *CachedSource) PrecipitableWater(ctx context.Context, station string, at time.Time) (float64, error) {
	key := cacheKey(station, at)
	if v, err := c.cache.Get(key); err == nil {
		c.metrics.SoundingCache.WithLabelValues("hit").Inc()
		return v.(float64), nil
	}
	c.metrics.SoundingCache.WithLabelValues("miss").Inc()

	pw, err := c.inner.PrecipitableWater(ctx, station, at)
	if err != nil {
		// Failures are not cached; a "no data" page may be filled in later.
		return 0, err
	}
	// Set only fails when a serialize func is configured; none is.
	_ = c.cache.Set(key, pw)
	return pw, nil
}

func cacheKey(station string, at time.Time) string {
	return fmt.Sprintf("%s|%s", station, at.UTC().Format(time.RFC3339))
}
