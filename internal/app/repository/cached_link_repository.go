package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/symph-co/shorturl/internal/app/model"
	metrics "github.com/symph-co/shorturl/internal/infra/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL applies to every entry written by the cached repository.
const DefaultCacheTTL = 60 * time.Second

const countCacheKey = "link:count"

// Key families, used as metric labels.
const (
	familyID    = "id"
	familyPage  = "page"
	familyCount = "count"
)

func idCacheKey(id string) string {
	return "link:id:" + id
}

func pageCacheKey(page, limit int) string {
	return fmt.Sprintf("link:page:%d:limit:%d", page, limit)
}

// CachedLinkDeps groups the collaborators of the cached repository.
type CachedLinkDeps struct {
	Store  LinkRepository
	Cache  Cache
	TTL    time.Duration
	Logger *zap.Logger
}

// CachedLinkRepository puts a cache-aside layer in front of a LinkRepository.
//
// Single-link entries are written through on Save and Update and evicted on
// DeleteByID. Page and count entries expire by TTL only, so listings may lag
// behind single-link reads for up to one TTL.
//
// Cache failures never fail a call: they are logged and the store answers.
type CachedLinkRepository struct {
	store  LinkRepository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
	loads  singleflight.Group
}

// NewCachedLinkRepository wraps deps.Store with deps.Cache.
func NewCachedLinkRepository(deps CachedLinkDeps) *CachedLinkRepository {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedLinkRepository{
		store:  deps.Store,
		cache:  deps.Cache,
		ttl:    ttl,
		logger: logger.Named("link_cache"),
	}
}

func (r *CachedLinkRepository) FindByID(ctx context.Context, id string) (*model.Link, error) {
	key := idCacheKey(id)

	var cached model.Link
	if r.read(ctx, familyID, key, &cached) {
		return &cached, nil
	}

	v, err, _ := r.loads.Do(key, func() (interface{}, error) {
		link, err := r.store.FindByID(ctx, id)
		if err != nil || link == nil {
			return link, err
		}
		r.write(ctx, key, link)
		return link, nil
	})
	if err != nil {
		return nil, fmt.Errorf("find link %s: %w", id, err)
	}

	link := v.(*model.Link)
	if link == nil {
		return nil, nil
	}
	out := *link
	return &out, nil
}

// FindBySlug is not cached.
func (r *CachedLinkRepository) FindBySlug(ctx context.Context, slug string) (*model.Link, error) {
	return r.store.FindBySlug(ctx, slug)
}

func (r *CachedLinkRepository) Save(ctx context.Context, link model.Link) (*model.Link, error) {
	saved, err := r.store.Save(ctx, link)
	if err != nil {
		return nil, err
	}
	r.write(ctx, idCacheKey(saved.ID), saved)
	return saved, nil
}

func (r *CachedLinkRepository) Update(ctx context.Context, id string, patch model.LinkPatch) (*model.Link, error) {
	updated, err := r.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}
	r.write(ctx, idCacheKey(id), updated)
	return updated, nil
}

// DeleteByID evicts the id entry even when the store call fails or deletes nothing.
func (r *CachedLinkRepository) DeleteByID(ctx context.Context, id string) error {
	storeErr := r.store.DeleteByID(ctx, id)

	if err := r.cache.Delete(ctx, idCacheKey(id)); err != nil {
		metrics.CacheWriteFailures.WithLabelValues("delete").Inc()
		r.logger.Warn("cache eviction failed",
			zap.String("key", idCacheKey(id)),
			zap.Error(err),
		)
	}

	return storeErr
}

// FindAllPaginated caches non-empty pages only, so a fresh insert is never
// hidden behind a cached empty page.
func (r *CachedLinkRepository) FindAllPaginated(ctx context.Context, page, limit int) ([]model.Link, error) {
	key := pageCacheKey(page, limit)

	var cached []model.Link
	if r.read(ctx, familyPage, key, &cached) {
		return cached, nil
	}

	v, err, _ := r.loads.Do(key, func() (interface{}, error) {
		links, err := r.store.FindAllPaginated(ctx, page, limit)
		if err != nil {
			return nil, err
		}
		if len(links) > 0 {
			r.write(ctx, key, links)
		}
		return links, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list links page %d limit %d: %w", page, limit, err)
	}

	links := v.([]model.Link)
	out := make([]model.Link, len(links))
	copy(out, links)
	return out, nil
}

func (r *CachedLinkRepository) CountAll(ctx context.Context) (int64, error) {
	var cached int64
	if r.read(ctx, familyCount, countCacheKey, &cached) {
		return cached, nil
	}

	v, err, _ := r.loads.Do(countCacheKey, func() (interface{}, error) {
		n, err := r.store.CountAll(ctx)
		if err != nil {
			return int64(0), err
		}
		r.write(ctx, countCacheKey, n)
		return n, nil
	})
	if err != nil {
		return 0, fmt.Errorf("count links: %w", err)
	}
	return v.(int64), nil
}

// read decodes the entry under key into dst and reports whether it was usable.
func (r *CachedLinkRepository) read(ctx context.Context, family, key string, dst interface{}) bool {
	data, found, err := r.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues(family, metrics.CacheError).Inc()
		r.logger.Warn("cache read failed, falling back to store",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	case !found:
		metrics.CacheLookups.WithLabelValues(family, metrics.CacheMiss).Inc()
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		metrics.CacheLookups.WithLabelValues(family, metrics.CacheError).Inc()
		r.logger.Warn("discarding undecodable cache entry",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}

	metrics.CacheLookups.WithLabelValues(family, metrics.CacheHit).Inc()
	return true
}

func (r *CachedLinkRepository) write(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
		metrics.CacheWriteFailures.WithLabelValues("set").Inc()
		r.logger.Warn("cache write failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

var _ LinkRepository = (*CachedLinkRepository)(nil)
