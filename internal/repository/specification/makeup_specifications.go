package specification

import (
	"time"

	"gorm.io/gorm"
)

// ExpiresBefore selects credits whose deadline is strictly before T.
type ExpiresBefore struct {
	T time.Time
}

func (s ExpiresBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("expires_at < ?", s.T)
}

// ExpiresBetween selects credits with deadline in (After, Until]. The
// sweeper uses it for the warning window: still alive now, expiring soon.
type ExpiresBetween struct {
	After time.Time
	Until time.Time
}

func (s ExpiresBetween) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("expires_at > ? AND expires_at <= ?", s.After, s.Until)
}
