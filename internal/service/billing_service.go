package service

import (
	"context"
	"fmt"

	"tutorium-be/internal/config"
	"tutorium-be/internal/dto"
	"tutorium-be/internal/entity"
	"tutorium-be/internal/pkg/clock"
	"tutorium-be/internal/pkg/logger"
	"tutorium-be/internal/repository/specification"
	"tutorium-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IBillingService interface {
	// ReconcileCancellation removes the cancelled lesson's line from the
	// invoice it was billed on and recomputes the totals. Runs inside the
	// caller's unit of work so the correction commits atomically with the
	// approval. Returns nil when the lesson is not on any correctable
	// invoice.
	ReconcileCancellation(ctx context.Context, uow unitofwork.UnitOfWork, lessonId, studentId uuid.UUID) (*dto.ReconciliationResult, error)
	IssueCreditNote(ctx context.Context, originalInvoiceId uuid.UUID, req *dto.IssueCreditNoteRequest, actorId uuid.UUID) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, invoiceId uuid.UUID) (*dto.InvoiceResponse, error)
}

type billingService struct {
	factory unitofwork.RepositoryFactory
	policy  config.PolicyConfig
	clk     clock.Clock
	log     logger.ILogger
}

func NewBillingService(factory unitofwork.RepositoryFactory, policy config.PolicyConfig, clk clock.Clock, log logger.ILogger) IBillingService {
	return &billingService{factory: factory, policy: policy, clk: clk, log: log}
}

func (s *billingService) ReconcileCancellation(ctx context.Context, uow unitofwork.UnitOfWork, lessonId, studentId uuid.UUID) (*dto.ReconciliationResult, error) {
	invoices := uow.InvoiceRepository()

	item, err := invoices.FindBilledItem(ctx, lessonId, studentId)
	if err != nil {
		return nil, fmt.Errorf("failed to look up billed item: %w", err)
	}
	if item == nil {
		// Not billed yet, or the invoice already left the correctable
		// window. Either way there is nothing to reconcile.
		return nil, nil
	}

	invoice, err := invoices.FindOne(ctx, specification.ByID{ID: item.InvoiceId})
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice %s: %w", item.InvoiceId, err)
	}
	if invoice == nil {
		return nil, &NotFoundError{Kind: "invoice", Id: item.InvoiceId}
	}

	if err := invoices.RemoveItem(ctx, item.Id); err != nil {
		return nil, fmt.Errorf("failed to remove invoice item: %w", err)
	}

	net, err := invoices.SumItems(ctx, invoice.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to total invoice items: %w", err)
	}

	now := s.clk.Now()
	vat := net.Mul(s.policy.VATRate).Round(2)
	invoice.NetAmount = net
	invoice.VatAmount = vat
	invoice.TotalAmount = net.Add(vat)
	invoice.Status = entity.InvoiceStatusCorrected
	invoice.Notes = appendNoteLine(invoice.Notes, fmt.Sprintf(
		"%s corrected: removed lesson %s (%s) after approved cancellation",
		now.Format("2006-01-02"), lessonId, item.LineTotal.StringFixed(2)))

	if err := invoices.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	err = uow.AuditLogRepository().Record(ctx, &entity.AuditEntry{
		Id:         uuid.New(),
		EntityType: "invoice",
		EntityId:   invoice.Id,
		Action:     entity.AuditActionReconciled,
		Actor:      "system",
		Details: map[string]interface{}{
			"lesson_id":      lessonId.String(),
			"student_id":     studentId.String(),
			"removed_item":   item.Id.String(),
			"removed_amount": item.LineTotal.StringFixed(2),
			"new_total":      invoice.TotalAmount.StringFixed(2),
		},
		OccurredAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record reconciliation audit entry: %w", err)
	}

	return &dto.ReconciliationResult{
		InvoiceId:     invoice.Id,
		RemovedItemId: item.Id,
		RemovedAmount: item.LineTotal,
		NewNetAmount:  invoice.NetAmount,
		NewVatAmount:  invoice.VatAmount,
		NewTotal:      invoice.TotalAmount,
	}, nil
}

func (s *billingService) IssueCreditNote(ctx context.Context, originalInvoiceId uuid.UUID, req *dto.IssueCreditNoteRequest, actorId uuid.UUID) (*dto.InvoiceResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Detail: "must be a positive net amount"}
	}

	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	invoices := uow.InvoiceRepository()
	original, err := invoices.FindOne(ctx, specification.ByID{ID: originalInvoiceId})
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice %s: %w", originalInvoiceId, err)
	}
	if original == nil {
		return nil, &NotFoundError{Kind: "invoice", Id: originalInvoiceId}
	}
	if original.IsCreditNote {
		return nil, &ValidationError{Field: "invoice", Detail: "cannot issue a credit note against a credit note"}
	}
	if original.IsCorrectable() {
		return nil, &ValidationError{Field: "invoice", Detail: "invoice is still correctable; remove the line item instead"}
	}

	now := s.clk.Now()
	year, month := now.Year(), int(now.Month())
	seq, err := uow.SequenceRepository().Next(ctx, s.policy.CreditNotePrefix, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate credit note number: %w", err)
	}
	number := fmt.Sprintf("%s/%d/%02d/%d", s.policy.CreditNotePrefix, year, month, seq)

	// Amounts mirror the correction as negatives. VAT is computed on the
	// positive magnitude and then negated so rounding matches the original
	// half-up convention.
	net := req.Amount.Round(2)
	vat := net.Mul(s.policy.VATRate).Round(2)

	note := &entity.Invoice{
		Id:                uuid.New(),
		Number:            number,
		StudentId:         original.StudentId,
		Status:            entity.InvoiceStatusGenerated,
		NetAmount:         net.Neg(),
		VatAmount:         vat.Neg(),
		TotalAmount:       net.Add(vat).Neg(),
		IsCreditNote:      true,
		CorrectsInvoiceId: &original.Id,
		Notes:             req.Reason,
		IssuedAt:          now,
	}
	if err := invoices.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create credit note: %w", err)
	}

	err = uow.AuditLogRepository().Record(ctx, &entity.AuditEntry{
		Id:         uuid.New(),
		EntityType: "invoice",
		EntityId:   note.Id,
		Action:     entity.AuditActionCreditNoteIssued,
		Actor:      actorId.String(),
		Details: map[string]interface{}{
			"number":    number,
			"corrects":  original.Id.String(),
			"total":     note.TotalAmount.StringFixed(2),
			"reason":    req.Reason,
		},
		OccurredAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record credit note audit entry: %w", err)
	}

	err = uow.OutboxRepository().Enqueue(ctx, &entity.OutboxMessage{
		Id:       uuid.New(),
		UserId:   original.StudentId,
		TypeCode: entity.NotifCreditNoteIssued,
		Title:    "Credit note issued",
		Message:  fmt.Sprintf("Credit note %s was issued for invoice %s.", number, original.Number),
		Payload: map[string]interface{}{
			"credit_note_id": note.Id.String(),
			"invoice_id":     original.Id.String(),
			"total":          note.TotalAmount.StringFixed(2),
		},
		Status:    entity.OutboxStatusPending,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue notification: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit credit note: %w", err)
	}

	s.log.Info("billing", "credit note issued", map[string]interface{}{
		"number":   number,
		"corrects": original.Id.String(),
	})
	return mapInvoiceToResponse(note), nil
}

func (s *billingService) GetInvoice(ctx context.Context, invoiceId uuid.UUID) (*dto.InvoiceResponse, error) {
	uow := s.factory.NewUnitOfWork(ctx)
	invoice, err := uow.InvoiceRepository().FindOne(ctx, specification.ByID{ID: invoiceId})
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice %s: %w", invoiceId, err)
	}
	if invoice == nil {
		return nil, &NotFoundError{Kind: "invoice", Id: invoiceId}
	}
	return mapInvoiceToResponse(invoice), nil
}

func mapInvoiceToResponse(i *entity.Invoice) *dto.InvoiceResponse {
	return &dto.InvoiceResponse{
		Id:                i.Id,
		Number:            i.Number,
		StudentId:         i.StudentId,
		Status:            string(i.Status),
		NetAmount:         i.NetAmount,
		VatAmount:         i.VatAmount,
		TotalAmount:       i.TotalAmount,
		IsCreditNote:      i.IsCreditNote,
		CorrectsInvoiceId: i.CorrectsInvoiceId,
		Notes:             i.Notes,
		IssuedAt:          i.IssuedAt,
	}
}

func appendNoteLine(existing, line string) string {
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}
