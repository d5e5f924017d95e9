package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice GORM model. Credit notes are invoices with is_credit_note set
// and negative amounts.
type Invoice struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Number            string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	StudentID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status            string          `gorm:"type:varchar(50);not null;default:'generated';index"`
	NetAmount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VatAmount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IsCreditNote      bool            `gorm:"not null;default:false"`
	CorrectsInvoiceID *uuid.UUID      `gorm:"type:uuid"`
	Notes             string          `gorm:"type:text"`
	IssuedAt          time.Time       `gorm:"not null"`
	CreatedAt         time.Time       `gorm:"autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceItem GORM model, one billed lesson line.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	LessonID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	StudentID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:text"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// SequenceCounter backs gap-free per-month document numbering
// (e.g. KOR/2024/03/7). Incremented atomically via upsert-returning.
type SequenceCounter struct {
	Prefix  string `gorm:"type:varchar(16);primaryKey"`
	Year    int    `gorm:"primaryKey"`
	Month   int    `gorm:"primaryKey"`
	Counter int64  `gorm:"not null;default:0"`
}

func (SequenceCounter) TableName() string {
	return "sequence_counters"
}
