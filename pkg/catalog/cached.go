package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/umputun/mediascope/pkg/cache"
	"github.com/umputun/mediascope/pkg/domain"
)

// Cached fronts a builder with the TTL cache. The cache key covers the
// catalog id and every filter, so filtered pages are cached independently.
type Cached struct {
	builder Builder
	cache   *cache.Cache[*domain.Catalog]
	ttl     time.Duration
}

// NewCached creates a cache-backed builder
func NewCached(builder Builder, ttl time.Duration) *Cached {
	if ttl == 0 {
		ttl = 30 * time.Minute
	}
	return &Cached{builder: builder, cache: cache.New[*domain.Catalog](), ttl: ttl}
}

// Build returns the cached catalog when fresh, building it otherwise
func (c *Cached) Build(ctx context.Context, catalogID string, f Filters) (*domain.Catalog, error) {
	return c.cache.GetOrBuild(ctx, cacheKey(catalogID, f), c.ttl, func(buildCtx context.Context) (*domain.Catalog, error) {
		return c.builder.Build(buildCtx, catalogID, f)
	})
}

// Invalidate drops all cached catalogs
func (c *Cached) Invalidate() {
	c.cache.Clear()
}

func cacheKey(catalogID string, f Filters) string {
	return fmt.Sprintf("%s|%s|%d|%d", catalogID, f.Genre, f.Year, f.Skip)
}
