package contract

import (
	"context"

	"tutorium-be/internal/entity"
	"tutorium-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceRepository defines the billing mutations the reconciler needs.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Invoice, error)
	Update(ctx context.Context, invoice *entity.Invoice) error
	// FindBilledItem returns the invoice item for (lesson, student) whose
	// invoice is still correctable (generated or sent), or nil.
	FindBilledItem(ctx context.Context, lessonId, studentId uuid.UUID) (*entity.InvoiceItem, error)
	RemoveItem(ctx context.Context, itemId uuid.UUID) error
	// SumItems totals the remaining line items of an invoice.
	SumItems(ctx context.Context, invoiceId uuid.UUID) (decimal.Decimal, error)
}

// SequenceRepository hands out gap-free, monotonically increasing document
// numbers per (prefix, year, month). Safe under concurrent issuers.
type SequenceRepository interface {
	Next(ctx context.Context, prefix string, year, month int) (int64, error)
}
