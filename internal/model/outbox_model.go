package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationOutbox GORM model. Rows are written inside the same
// transaction as the domain change and drained by the outbox dispatcher.
type NotificationOutbox struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index"`
	TypeCode     string         `gorm:"type:varchar(64);not null;index"`
	Title        string         `gorm:"type:varchar(255);not null"`
	Message      string         `gorm:"type:text;not null"`
	Payload      datatypes.JSON `gorm:"type:jsonb"`
	Status       string         `gorm:"type:varchar(50);not null;default:'pending';index"`
	Attempts     int            `gorm:"not null;default:0"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	DispatchedAt *time.Time
	DeliveredAt  *time.Time
}

func (NotificationOutbox) TableName() string {
	return "notification_outbox"
}
