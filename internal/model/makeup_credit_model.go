package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MakeupCredit GORM model. Notes is an append-only JSONB log of
// administrative actions (deadline extensions and the like).
type MakeupCredit struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StudentID        uuid.UUID      `gorm:"type:uuid;not null;index"`
	OriginalLessonID uuid.UUID      `gorm:"type:uuid;not null"`
	BoundLessonID    *uuid.UUID     `gorm:"type:uuid"`
	Status           string         `gorm:"type:varchar(50);not null;default:'pending';index"`
	IssuedAt         time.Time      `gorm:"not null"`
	ExpiresAt        time.Time      `gorm:"not null;index"`
	ValiditySeconds  int64          `gorm:"not null"`
	Notes            datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
}

func (MakeupCredit) TableName() string {
	return "makeup_credits"
}
