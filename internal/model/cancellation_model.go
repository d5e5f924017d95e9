package model

import (
	"time"

	"github.com/google/uuid"
)

// CancellationRequest GORM model for lesson cancellation requests.
// A partial unique index (created in cmd/migrate) enforces at most one
// pending request per (lesson, student) pair.
type CancellationRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	LessonID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	StudentID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Reason      string     `gorm:"type:text;not null"`
	Status      string     `gorm:"type:varchar(50);not null;default:'pending';index"`
	RequestedAt time.Time  `gorm:"not null"`
	ReviewedBy  *uuid.UUID `gorm:"type:uuid"`
	ReviewedAt  *time.Time `gorm:"index"`
	ReviewNotes string     `gorm:"type:text"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (CancellationRequest) TableName() string {
	return "cancellation_requests"
}
