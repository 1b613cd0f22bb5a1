package occurrences

import (
	"sync"
	"time"

	"github.com/BearBump/TourBox/internal/models"
)

type entry struct {
	windowStart time.Time
	items       []models.Occurrence
}

// Cache memoizes one timeline per customer. Entries are independent, so
// concurrent callers only see per-key consistency.
type Cache struct {
	m sync.Map // customer id -> entry
}

func New() *Cache {
	return &Cache{}
}

// Get returns the cached timeline only when it was computed for windowStart.
func (c *Cache) Get(customerID string, windowStart time.Time) ([]models.Occurrence, bool) {
	v, ok := c.m.Load(customerID)
	if !ok {
		return nil, false
	}
	e := v.(entry)
	if !e.windowStart.Equal(windowStart) {
		return nil, false
	}
	return e.items, true
}

// Put stores items. Callers must not modify the slice afterwards.
func (c *Cache) Put(customerID string, windowStart time.Time, items []models.Occurrence) {
	c.m.Store(customerID, entry{windowStart: windowStart, items: items})
}

func (c *Cache) Invalidate(customerID string) {
	c.m.Delete(customerID)
}

func (c *Cache) InvalidateAll() {
	c.m.Clear()
}

func (c *Cache) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
