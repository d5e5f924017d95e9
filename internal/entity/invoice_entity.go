package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the billing state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusGenerated InvoiceStatus = "generated"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCorrected InvoiceStatus = "corrected"
)

// Invoice is the monthly invoice record this core corrects. A credit note
// is a restricted invoice: IsCreditNote set, negative amounts, numbered
// from the KOR sequence and pointing at the invoice it corrects.
type Invoice struct {
	Id                uuid.UUID
	Number            string
	StudentId         uuid.UUID
	Status            InvoiceStatus
	NetAmount         decimal.Decimal
	VatAmount         decimal.Decimal
	TotalAmount       decimal.Decimal
	IsCreditNote      bool
	CorrectsInvoiceId *uuid.UUID
	Notes             string
	IssuedAt          time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsCorrectable reports whether items may still be removed from the
// invoice. Paid and already corrected invoices are immutable; they get a
// credit note instead.
func (i *Invoice) IsCorrectable() bool {
	return i.Status == InvoiceStatusGenerated || i.Status == InvoiceStatusSent
}

// InvoiceItem is a single billed lesson line.
type InvoiceItem struct {
	Id          uuid.UUID
	InvoiceId   uuid.UUID
	LessonId    uuid.UUID
	StudentId   uuid.UUID
	Description string
	LineTotal   decimal.Decimal
	CreatedAt   time.Time
}
