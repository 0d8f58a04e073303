package service

import (
	"context"
	"time"

	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/okian/rangeboard/pkg/metrics"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const catalogKey = "catalog"

// CatalogReader reads the statistics option lists.
type CatalogReader interface {
	Catalog(ctx context.Context) (model.Catalog, error)
}

// CatalogCache caches the option lists for a short ttl and collapses
// concurrent misses into one remote read. A non-positive ttl disables
// caching.
type CatalogCache struct {
	reader CatalogReader
	ttl    time.Duration
	cache  *cache.Cache
	group  singleflight.Group
}

// NewCatalogCache creates a cache in front of reader.
func NewCatalogCache(reader CatalogReader, ttl time.Duration) *CatalogCache {
	c := &CatalogCache{reader: reader, ttl: ttl}
	if ttl > 0 {
		c.cache = cache.New(ttl, 2*ttl)
	}
	return c
}

// Get returns the cached catalog or reads it.
func (c *CatalogCache) Get(ctx context.Context) (model.Catalog, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(catalogKey); ok {
			metrics.RecordCatalogCacheHit()
			return v.(model.Catalog), nil
		}
	}
	metrics.RecordCatalogCacheMiss()

	v, err, _ := c.group.Do(catalogKey, func() (any, error) {
		if c.cache != nil {
			if v, ok := c.cache.Get(catalogKey); ok {
				return v, nil
			}
		}
		cat, err := c.reader.Catalog(ctx)
		if err != nil {
			return model.Catalog{}, err
		}
		if c.cache != nil {
			c.cache.SetDefault(catalogKey, cat)
		}
		return cat, nil
	})
	if err != nil {
		return model.Catalog{}, err
	}
	return v.(model.Catalog), nil
}

// Invalidate drops the cached catalog.
func (c *CatalogCache) Invalidate() {
	if c.cache != nil {
		c.cache.Delete(catalogKey)
	}
}
