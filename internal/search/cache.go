package search

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/koenighotze/search-assistant/internal/metrics"
)

const (
	DefaultCacheTTL        = time.Hour
	defaultCacheMaxEntries = 1024
)

// Cache remembers non-empty results per query for ttl, evicting the least
// recently used query once maxEntries is reached.
type Cache struct {
	next       Searcher
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
}

type cacheEntry struct {
	key       string
	results   []Result
	expiresAt time.Time
}

func NewCache(next Searcher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		next:       next,
		ttl:        ttl,
		maxEntries: defaultCacheMaxEntries,
		now:        time.Now,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func (c *Cache) Search(ctx context.Context, query string) ([]Result, error) {
	key := cacheKey(query)
	if results, ok := c.get(key, c.now()); ok {
		metrics.SearchCacheLookups.WithLabelValues("hit").Inc()
		return results, nil
	}
	metrics.SearchCacheLookups.WithLabelValues("miss").Inc()

	results, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	now := c.now()
	c.set(key, results, now.Add(c.ttl), now)
	return results, nil
}

func (c *Cache) get(key string, now time.Time) ([]Result, bool) {
	if key == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if now.After(entry.expiresAt) {
		c.removeElement(elem)
		return nil, false
	}

	c.order.MoveToFront(elem)
	return entry.results, true
}

func (c *Cache) set(key string, results []Result, expiresAt, now time.Time) {
	if key == "" || len(results) == 0 || !expiresAt.After(now) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.results = results
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{
		key:       key,
		results:   results,
		expiresAt: expiresAt,
	})

	for len(c.entries) > c.maxEntries {
		c.removeElement(c.order.Back())
	}
}

// Cleanup drops every entry that expired before now and reports how many
// were removed.
func (c *Cache) Cleanup(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*cacheEntry).expiresAt) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) removeElement(elem *list.Element) {
	delete(c.entries, elem.Value.(*cacheEntry).key)
	c.order.Remove(elem)
}
