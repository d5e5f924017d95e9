package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type IssueCreditNoteRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Reason string          `json:"reason" validate:"required"`
}

type InvoiceResponse struct {
	Id                uuid.UUID       `json:"id"`
	Number            string          `json:"number"`
	StudentId         uuid.UUID       `json:"student_id"`
	Status            string          `json:"status"`
	NetAmount         decimal.Decimal `json:"net_amount"`
	VatAmount         decimal.Decimal `json:"vat_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	IsCreditNote      bool            `json:"is_credit_note"`
	CorrectsInvoiceId *uuid.UUID      `json:"corrects_invoice_id,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	IssuedAt          time.Time       `json:"issued_at"`
}

// ReconciliationResult reports what the reconciler changed on approval.
// Nil result means the lesson was not on any correctable invoice.
type ReconciliationResult struct {
	InvoiceId     uuid.UUID       `json:"invoice_id"`
	RemovedItemId uuid.UUID       `json:"removed_item_id"`
	RemovedAmount decimal.Decimal `json:"removed_amount"`
	NewNetAmount  decimal.Decimal `json:"new_net_amount"`
	NewVatAmount  decimal.Decimal `json:"new_vat_amount"`
	NewTotal      decimal.Decimal `json:"new_total"`
}
