package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/symph-co/shorturl/internal/app/model"
)

func newCachedRepo(t *testing.T) (*CachedLinkRepository, *memoryStore, *memoryCache) {
	t.Helper()
	store := newMemoryStore()
	cache := newMemoryCache()
	repo := NewCachedLinkRepository(CachedLinkDeps{Store: store, Cache: cache})
	return repo, store, cache
}

func sampleLink(slug string) model.Link {
	return model.Link{
		ID:          uuid.NewString(),
		Slug:        slug,
		OriginalURL: "https://example.com/" + slug,
		ShortURL:    "https://symph.co/" + slug,
	}
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "link:id:42", idCacheKey("42"))
	assert.Equal(t, "link:page:2:limit:5", pageCacheKey(2, 5))
	assert.Equal(t, "link:count", countCacheKey)
}

func TestCachedLinkRepository_SaveWritesThrough(t *testing.T) {
	repo, store, cache := newCachedRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, sampleLink("abc123"))
	require.NoError(t, err)

	key := idCacheKey(saved.ID)
	require.True(t, cache.has(key))
	assert.Equal(t, 60*time.Second, cache.ttls[key])

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, saved.Slug, found.Slug)
	assert.Equal(t, saved.OriginalURL, found.OriginalURL)
	assert.True(t, saved.CreatedAt.Equal(found.CreatedAt))
	assert.Equal(t, int32(0), store.FindByIDCalls.Load(), "served from cache")
}

func TestCachedLinkRepository_SaveFailureLeavesNoEntry(t *testing.T) {
	repo, store, cache := newCachedRepo(t)
	store.FailNextSave = errors.New("connection reset")

	link := sampleLink("abc123")
	_, err := repo.Save(context.Background(), link)
	require.Error(t, err)
	assert.False(t, cache.has(idCacheKey(link.ID)))
}

func TestCachedLinkRepository_SaveDuplicateSlugSurfaces(t *testing.T) {
	repo, _, _ := newCachedRepo(t)
	ctx := context.Background()

	_, err := repo.Save(ctx, sampleLink("taken1"))
	require.NoError(t, err)

	_, err = repo.Save(ctx, sampleLink("taken1"))
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}

func TestCachedLinkRepository_FindByIDReadThrough(t *testing.T) {
	repo, store, cache := newCachedRepo(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, sampleLink("abc123"))
	require.NoError(t, err)

	first, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, cache.has(idCacheKey(saved.ID)))

	second, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int32(1), store.FindByIDCalls.Load())
}

func TestCachedLinkRepository_FindByIDMissIsNotCached(t *testing.T) {
	repo, store, cache := newCachedRepo(t)
	ctx := context.Background()
	id := uuid.NewString()

	for i := 0; i < 2; i++ {
		link, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, link)
	}

	assert.False(t, cache.has(idCacheKey(id)))
	assert.Equal(t, int32(2), store.FindByIDCalls.Load())
}

func TestCachedLinkRepository_UpdateRefreshesEntry(t *testing.T) {
	repo, store, _ := newCachedRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, sampleLink("abc123"))
	require.NoError(t, err)

	// Warm the first page so the lag on listings is observable.
	page, err := repo.FindAllPaginated(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, page, 1)

	newURL := "https://example.com/X"
	updated, err := repo.Update(ctx, saved.ID, model.LinkPatch{OriginalURL: &newURL})
	require.NoError(t, err)
	require.NotNil(t, updated)

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, newURL, found.OriginalURL)
	assert.Equal(t, int32(0), store.FindByIDCalls.Load(), "fresh value must come from the written-through entry")

	page, err = repo.FindAllPaginated(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/abc123", page[0].OriginalURL, "cached page keeps the old value until TTL")
}

func TestCachedLinkRepository_UpdateMissingCreatesNoEntry(t *testing.T) {
	repo, _, cache := newCachedRepo(t)
	id := uuid.NewString()
	url := "https://example.com/none"

	updated, err := repo.Update(context.Background(), id, model.LinkPatch{OriginalURL: &url})
	require.NoError(t, err)
	assert.Nil(t, updated)
	assert.False(t, cache.has(idCacheKey(id)))
}

func TestCachedLinkRepository_DeleteEvicts(t *testing.T) {
	repo, _, cache := newCachedRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, sampleLink("abc123"))
	require.NoError(t, err)
	require.True(t, cache.has(idCacheKey(saved.ID)))

	require.NoError(t, repo.DeleteByID(ctx, saved.ID))

	assert.False(t, cache.has(idCacheKey(saved.ID)))
	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCachedLinkRepository_DeleteEvictsEvenWhenStoreFails(t *testing.T) {
	repo, store, cache := newCachedRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, sampleLink("abc123"))
	require.NoError(t, err)

	store.FailNextDelete = errors.New("statement timeout")
	err = repo.DeleteByID(ctx, saved.ID)
	require.Error(t, err)
	assert.False(t, cache.has(idCacheKey(saved.ID)))
}

func TestCachedLinkRepository_DeleteOfUnknownIDEvictsStrayEntry(t *testing.T) {
	repo, _, cache := newCachedRepo(t)
	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, cache.Set(ctx, idCacheKey(id), []byte(`{"id":"`+id+`"}`), time.Minute))

	require.NoError(t, repo.DeleteByID(ctx, id))
	assert.False(t, cache.has(idCacheKey(id)))
}

func TestCachedLinkRepository_FindAllPaginated(t *testing.T) {
	repo, store, cache := newCachedRepo(t)
	ctx := context.Background()

	var slugs []string
	for i := 0; i < 12; i++ {
		slug := fmt.Sprintf("slug%02d", i)
		slugs = append(slugs, slug)
		_, err := store.Save(ctx, sampleLink(slug))
		require.NoError(t, err)
	}

	page, err := repo.FindAllPaginated(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, page, 5)
	for i, link := range page {
		assert.Equal(t, slugs[11-i], link.Slug, "ordered by creation descending")
	}
	assert.True(t, cache.has("link:page:1:limit:5"))

	again, err := repo.FindAllPaginated(ctx, 1, 5)
	require.NoError(t, err)
	assert.Len(t, again, 5)
	assert.Equal(t, int32(1), store.PageCalls.Load())

	last, err := repo.FindAllPaginated(ctx, 3, 5)
	require.NoError(t, err)
	assert.Len(t, last, 2)
}

func TestCachedLinkRepository_EmptyPageIsNotCached(t *testing.T) {
	repo, store, cache := newCachedRepo(t)
	ctx := context.Background()

	page, err := repo.FindAllPaginated(ctx, 1, 5)
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.False(t, cache.has(pageCacheKey(1, 5)))

	_, err = store.Save(ctx, sampleLink("fresh1"))
	require.NoError(t, err)

	page, err = repo.FindAllPaginated(ctx, 1, 5)
	require.NoError(t, err)
	assert.Len(t, page, 1, "new insert must not be masked by an empty page")
}

func TestCachedLinkRepository_CountAllCachedWithinTTL(t *testing.T) {
	repo, store, cache := newCachedRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Save(ctx, sampleLink(fmt.Sprintf("cnt%03d", i)))
		require.NoError(t, err)
	}

	first, err := repo.CountAll(ctx)
	require.NoError(t, err)
	second, err := repo.CountAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), store.CountCalls.Load())
	assert.Equal(t, []byte("3"), cache.entries[countCacheKey])
}

func TestCachedLinkRepository_CountLagsWritesUntilExpiry(t *testing.T) {
	repo, _, cache := newCachedRepo(t)
	ctx := context.Background()

	n, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = repo.Save(ctx, sampleLink("late01"))
	require.NoError(t, err)

	n, err = repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "count is invalidated by TTL only")

	cache.expire()

	n, err = repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCachedLinkRepository_CacheOutageFallsThroughToStore(t *testing.T) {
	repo, store, cache := newCachedRepo(t)
	ctx := context.Background()
	cache.setDown(true)

	saved, err := repo.Save(ctx, sampleLink("abc123"))
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, saved.ID, found.ID)

	page, err := repo.FindAllPaginated(ctx, 1, 5)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	n, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.DeleteByID(ctx, saved.ID))
	assert.Equal(t, int32(1), store.DeleteCalls.Load())
}

func TestCachedLinkRepository_CorruptEntryIsIgnored(t *testing.T) {
	repo, store, cache := newCachedRepo(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, sampleLink("abc123"))
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, idCacheKey(saved.ID), []byte("not json"), time.Minute))

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "abc123", found.Slug)
}

func TestCachedLinkRepository_ConcurrentMissesShareStoreCall(t *testing.T) {
	repo, store, _ := newCachedRepo(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, sampleLink("abc123"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			link, err := repo.FindByID(ctx, saved.ID)
			assert.NoError(t, err)
			assert.NotNil(t, link)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, store.FindByIDCalls.Load(), int32(20))
	assert.GreaterOrEqual(t, store.FindByIDCalls.Load(), int32(1))
}
