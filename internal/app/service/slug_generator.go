package service

import (
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
)

const (
	// GeneratedSlugLength is the length of slugs the service makes up.
	GeneratedSlugLength = 8

	// DefaultSlugGuardSize is the number of issued slugs the guard is sized for.
	DefaultSlugGuardSize = 100_000

	slugGuardFalsePositiveRate = 0.001
	maxGuardSkips              = 5
)

// SlugGenerator derives slugs from random UUIDs with the dashes removed.
//
// A bloom filter remembers slugs this process already handed out so an obvious
// repeat is skipped before it reaches the store. The store's unique index stays
// the authority; the filter only saves round trips.
type SlugGenerator struct {
	mu      sync.Mutex
	issued  *bloom.BloomFilter
	newUUID func() string
}

// NewSlugGenerator sizes the issued-slug filter for expected entries.
func NewSlugGenerator(expected uint) *SlugGenerator {
	return &SlugGenerator{
		issued:  bloom.NewWithEstimates(expected, slugGuardFalsePositiveRate),
		newUUID: uuid.NewString,
	}
}

// Next returns a fresh 8-character lowercase hex slug.
func (g *SlugGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var slug string
	for i := 0; i < maxGuardSkips; i++ {
		slug = strings.ReplaceAll(g.newUUID(), "-", "")[:GeneratedSlugLength]
		if !g.issued.TestString(slug) {
			break
		}
	}
	g.issued.AddString(slug)
	return slug
}
