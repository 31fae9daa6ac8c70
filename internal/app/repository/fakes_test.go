package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/symph-co/shorturl/internal/app/model"
)

// memoryStore is an in-memory LinkRepository with call counters.
type memoryStore struct {
	mu    sync.Mutex
	links map[string]model.Link
	clock func() time.Time

	FindByIDCalls  atomic.Int32
	SaveCalls      atomic.Int32
	UpdateCalls    atomic.Int32
	DeleteCalls    atomic.Int32
	PageCalls      atomic.Int32
	CountCalls     atomic.Int32
	FailNextSave   error
	FailNextDelete error
}

func newMemoryStore() *memoryStore {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int64
	return &memoryStore{
		links: make(map[string]model.Link),
		clock: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	}
}

func (m *memoryStore) FindByID(_ context.Context, id string) (*model.Link, error) {
	m.FindByIDCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[id]
	if !ok {
		return nil, nil
	}
	return &link, nil
}

func (m *memoryStore) FindBySlug(_ context.Context, slug string) (*model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, link := range m.links {
		if link.Slug == slug {
			l := link
			return &l, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) Save(_ context.Context, link model.Link) (*model.Link, error) {
	m.SaveCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailNextSave; err != nil {
		m.FailNextSave = nil
		return nil, err
	}
	for _, existing := range m.links {
		if existing.Slug == link.Slug {
			return nil, ErrDuplicateSlug
		}
	}
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	now := m.clock()
	link.CreatedAt = now
	link.UpdatedAt = now
	m.links[link.ID] = link
	return &link, nil
}

func (m *memoryStore) Update(_ context.Context, id string, patch model.LinkPatch) (*model.Link, error) {
	m.UpdateCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[id]
	if !ok {
		return nil, nil
	}
	link = patch.Apply(link)
	link.UpdatedAt = m.clock()
	m.links[id] = link
	return &link, nil
}

func (m *memoryStore) DeleteByID(_ context.Context, id string) error {
	m.DeleteCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailNextDelete; err != nil {
		m.FailNextDelete = nil
		return err
	}
	delete(m.links, id)
	return nil
}

func (m *memoryStore) FindAllPaginated(_ context.Context, page, limit int) ([]model.Link, error) {
	m.PageCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]model.Link, 0, len(m.links))
	for _, link := range m.links {
		all = append(all, link)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	start := (page - 1) * limit
	if start >= len(all) {
		return []model.Link{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (m *memoryStore) CountAll(context.Context) (int64, error) {
	m.CountCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.links)), nil
}

var errCacheDown = errors.New("cache unavailable")

// memoryCache is a map-backed Cache that records TTLs and can be switched off.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	down    bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return nil, false, errCacheDown
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return errCacheDown
	}
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return errCacheDown
	}
	for _, k := range keys {
		delete(c.entries, k)
		delete(c.ttls, k)
	}
	return nil
}

// expire drops every entry, as if the TTL window had passed.
func (c *memoryCache) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	c.ttls = make(map[string]time.Duration)
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func (c *memoryCache) setDown(down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down = down
}
