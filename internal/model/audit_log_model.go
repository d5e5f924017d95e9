package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog GORM model. Append-only; never updated or deleted.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EntityType string         `gorm:"type:varchar(64);not null;index:idx_audit_entity"`
	EntityID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_audit_entity"`
	Action     string         `gorm:"type:varchar(64);not null;index"`
	Actor      string         `gorm:"type:varchar(255)"`
	Details    datatypes.JSON `gorm:"type:jsonb"`
	OccurredAt time.Time      `gorm:"not null;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
