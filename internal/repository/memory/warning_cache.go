package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// WarningCache is an in-process fast path in front of the audit-log dedup
// lookup for expiry warnings. The audit log stays authoritative; the cache
// only saves a query when the sweeper reruns within the same day.
type WarningCache struct {
	cache *cache.Cache
}

func NewWarningCache() *WarningCache {
	// Entries live just past a day; a daily purge keeps the map small.
	c := cache.New(25*time.Hour, 1*time.Hour)
	return &WarningCache{cache: c}
}

func (w *WarningCache) key(creditId uuid.UUID, day time.Time) string {
	return fmt.Sprintf("%s:%s", creditId, day.UTC().Format("2006-01-02"))
}

func (w *WarningCache) SeenToday(creditId uuid.UUID, day time.Time) bool {
	_, found := w.cache.Get(w.key(creditId, day))
	return found
}

func (w *WarningCache) MarkSent(creditId uuid.UUID, day time.Time) {
	w.cache.Set(w.key(creditId, day), struct{}{}, cache.DefaultExpiration)
}
