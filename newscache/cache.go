package newscache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"space-video-pipeline/types"
)

// Scraper is the external collaborator that produces fresh headlines for a
// named source.
type Scraper interface {
	Headlines(ctx context.Context, source string) ([]types.HeadlineItem, error)
}

// Entry is one cached headline collection. The headline list is always
// exactly the configured page size, padded or truncated.
type Entry struct {
	Source    string               `json:"source"`
	Headlines []types.HeadlineItem `json:"headlines"`
	FetchedAt time.Time            `json:"fetched_at"`
}

type slot struct {
	mu    sync.Mutex
	entry *Entry
}

// Cache is a time-boxed per-source headline cache. Refreshes of one source
// are serialized by a per-key lock so concurrent requests cannot race each
// other's fetched_at.
type Cache struct {
	mu       sync.Mutex
	slots    map[string]*slot
	scraper  Scraper
	ttl      time.Duration
	pageSize int
	log      *slog.Logger
}

// New builds a cache over the given scraper. TTL and page size are fixed for
// the process lifetime.
func New(scraper Scraper, ttl time.Duration, pageSize int, log *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if pageSize <= 0 {
		pageSize = 5
	}
	return &Cache{
		slots:    make(map[string]*slot),
		scraper:  scraper,
		ttl:      ttl,
		pageSize: pageSize,
		log:      log,
	}
}

// Get returns the cached entry for source, scraping a fresh one when the
// entry is missing, stale, or force is set. A scrape failure becomes an
// error-placeholder headline rather than a failed request.
func (c *Cache) Get(ctx context.Context, source string, force bool) Entry {
	s := c.slot(source)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if !force && s.entry != nil && now.Sub(s.entry.FetchedAt) < c.ttl {
		return *s.entry
	}

	headlines, err := c.scraper.Headlines(ctx, source)
	if err != nil {
		c.log.Warn("scrape failed", "source", source, "err", err)
		headlines = []types.HeadlineItem{{
			Title:  fmt.Sprintf("Error: %v", err),
			Source: source,
		}}
	}

	s.entry = &Entry{
		Source:    source,
		Headlines: normalize(headlines, source, c.pageSize),
		FetchedAt: now,
	}
	return *s.entry
}

// Evict removes one source's entry, failing with *types.NotFoundError when
// none exists.
func (c *Cache) Evict(source string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[source]
	if !ok {
		return &types.NotFoundError{Key: source}
	}
	s.mu.Lock()
	populated := s.entry != nil
	s.entry = nil
	s.mu.Unlock()
	delete(c.slots, source)

	if !populated {
		return &types.NotFoundError{Key: source}
	}
	return nil
}

// EvictAll clears every entry. It never fails.
func (c *Cache) EvictAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots = make(map[string]*slot)
}

func (c *Cache) slot(source string) *slot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[source]
	if !ok {
		s = &slot{}
		c.slots[source] = s
	}
	return s
}

// normalize pads with "No data" placeholders or truncates so every entry has
// exactly size headlines.
func normalize(items []types.HeadlineItem, source string, size int) []types.HeadlineItem {
	out := make([]types.HeadlineItem, 0, size)
	out = append(out, items...)
	for len(out) < size {
		out = append(out, types.HeadlineItem{Title: "No data", Source: source})
	}
	return out[:size]
}
