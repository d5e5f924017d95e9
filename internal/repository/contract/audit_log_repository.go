package contract

import (
	"context"
	"time"

	"tutorium-be/internal/entity"

	"github.com/google/uuid"
)

// AuditLogRepository is the append-only action log. Exists() is the
// daily-dedup key for the sweeper's expiry warnings.
type AuditLogRepository interface {
	Record(ctx context.Context, entry *entity.AuditEntry) error
	// Exists reports whether an entry for (entityType, entityId, action)
	// was recorded on the calendar day containing onDate (UTC).
	Exists(ctx context.Context, entityType string, entityId uuid.UUID, action string, onDate time.Time) (bool, error)
}
