package weather

import (
	"context"
	"math"
	"sync"

	"github.com/chrissnell/gardensim/internal/calendar"
)

// DefaultCacheEntries bounds a Cache created with a non-positive size.
const DefaultCacheEntries = 4096

type cacheKey struct {
	latTile int
	lonTile int
	day     calendar.Day
}

// Tile rounds a coordinate to the 0.1 degree grid the cache is keyed on.
func Tile(deg float64) int {
	return int(math.Round(deg * 10))
}

// Cache memoizes a Provider by 0.1 degree tile and date. Failed fetches are
// not cached. When full, the oldest entry is evicted.
type Cache struct {
	next       Provider
	maxEntries int

	mu      sync.Mutex
	entries map[cacheKey]Day
	order   []cacheKey
}

func NewCache(next Provider, maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &Cache{
		next:       next,
		maxEntries: maxEntries,
		entries:    make(map[cacheKey]Day),
	}
}

func (c *Cache) Fetch(ctx context.Context, lat, lon float64, day calendar.Day) (Day, error) {
	key := cacheKey{latTile: Tile(lat), lonTile: Tile(lon), day: day}

	c.mu.Lock()
	if w, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return w, nil
	}
	c.mu.Unlock()

	w, err := c.next.Fetch(ctx, lat, lon, day)
	if err != nil {
		return Day{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		if len(c.order) >= c.maxEntries {
			delete(c.entries, c.order[0])
			c.order = c.order[1:]
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = w
	return w, nil
}

// Len returns the number of cached days.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
