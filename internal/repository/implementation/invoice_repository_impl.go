package implementation

import (
	"context"

	"tutorium-be/internal/entity"
	"tutorium-be/internal/model"
	"tutorium-be/internal/repository/contract"
	"tutorium-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type invoiceRepositoryImpl struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository.
func NewInvoiceRepository(db *gorm.DB) contract.InvoiceRepository {
	return &invoiceRepositoryImpl{db: db}
}

func (r *invoiceRepositoryImpl) Create(ctx context.Context, invoice *entity.Invoice) error {
	return r.db.WithContext(ctx).Create(r.mapToModel(invoice)).Error
}

func (r *invoiceRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Invoice, error) {
	var m model.Invoice
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.First(&m).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.mapToEntity(&m), nil
}

func (r *invoiceRepositoryImpl) Update(ctx context.Context, invoice *entity.Invoice) error {
	return r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("id = ?", invoice.Id).
		Updates(map[string]interface{}{
			"status":       string(invoice.Status),
			"net_amount":   invoice.NetAmount,
			"vat_amount":   invoice.VatAmount,
			"total_amount": invoice.TotalAmount,
			"notes":        invoice.Notes,
		}).Error
}

// FindBilledItem joins items to their invoice and keeps only items whose
// invoice is still correctable. Paid or corrected invoices never match, so
// reconciliation is naturally idempotent.
func (r *invoiceRepositoryImpl) FindBilledItem(ctx context.Context, lessonId, studentId uuid.UUID) (*entity.InvoiceItem, error) {
	var m model.InvoiceItem
	err := r.db.WithContext(ctx).
		Joins("JOIN invoices ON invoices.id = invoice_items.invoice_id").
		Where("invoice_items.lesson_id = ? AND invoice_items.student_id = ?", lessonId, studentId).
		Where("invoices.status IN ?", []string{
			string(entity.InvoiceStatusGenerated),
			string(entity.InvoiceStatusSent),
		}).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entity.InvoiceItem{
		Id:          m.ID,
		InvoiceId:   m.InvoiceID,
		LessonId:    m.LessonID,
		StudentId:   m.StudentID,
		Description: m.Description,
		LineTotal:   m.LineTotal,
		CreatedAt:   m.CreatedAt,
	}, nil
}

func (r *invoiceRepositoryImpl) RemoveItem(ctx context.Context, itemId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", itemId).
		Delete(&model.InvoiceItem{}).Error
}

func (r *invoiceRepositoryImpl) SumItems(ctx context.Context, invoiceId uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.InvoiceItem{}).
		Select("SUM(line_total)").
		Where("invoice_id = ?", invoiceId).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *invoiceRepositoryImpl) mapToModel(i *entity.Invoice) *model.Invoice {
	return &model.Invoice{
		ID:                i.Id,
		Number:            i.Number,
		StudentID:         i.StudentId,
		Status:            string(i.Status),
		NetAmount:         i.NetAmount,
		VatAmount:         i.VatAmount,
		TotalAmount:       i.TotalAmount,
		IsCreditNote:      i.IsCreditNote,
		CorrectsInvoiceID: i.CorrectsInvoiceId,
		Notes:             i.Notes,
		IssuedAt:          i.IssuedAt,
	}
}

func (r *invoiceRepositoryImpl) mapToEntity(m *model.Invoice) *entity.Invoice {
	return &entity.Invoice{
		Id:                m.ID,
		Number:            m.Number,
		StudentId:         m.StudentID,
		Status:            entity.InvoiceStatus(m.Status),
		NetAmount:         m.NetAmount,
		VatAmount:         m.VatAmount,
		TotalAmount:       m.TotalAmount,
		IsCreditNote:      m.IsCreditNote,
		CorrectsInvoiceId: m.CorrectsInvoiceID,
		Notes:             m.Notes,
		IssuedAt:          m.IssuedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
