package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tutorium-be/internal/dto"
	"tutorium-be/internal/entity"
	"tutorium-be/internal/pkg/clock"
	"tutorium-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBillingFixture(t *testing.T) (*fakeStore, unitofwork.RepositoryFactory, IBillingService, *clock.Fixed) {
	t.Helper()
	store := newFakeStore()
	factory := newFakeFactory(store)
	clk := clock.NewFixed(baseTime)
	svc := NewBillingService(factory, testPolicy(), clk, noopLogger{})
	return store, factory, svc, clk
}

func billedInvoice(store *fakeStore, studentId uuid.UUID, status entity.InvoiceStatus, lineTotals ...string) (*entity.Invoice, []*entity.InvoiceItem) {
	net := decimal.Zero
	invoice := &entity.Invoice{
		Id:        uuid.New(),
		Number:    "FV/2026/03/1",
		StudentId: studentId,
		Status:    status,
		IssuedAt:  baseTime,
	}
	var items []*entity.InvoiceItem
	for _, lt := range lineTotals {
		amount := decimal.RequireFromString(lt)
		item := &entity.InvoiceItem{
			Id:        uuid.New(),
			InvoiceId: invoice.Id,
			LessonId:  uuid.New(),
			StudentId: studentId,
			LineTotal: amount,
		}
		items = append(items, item)
		store.items = append(store.items, item)
		net = net.Add(amount)
	}
	invoice.NetAmount = net
	invoice.VatAmount = net.Mul(decimal.RequireFromString("0.23")).Round(2)
	invoice.TotalAmount = invoice.NetAmount.Add(invoice.VatAmount)
	store.invoices[invoice.Id] = invoice
	return invoice, items
}

func TestReconcileRemovesItemAndRecomputesVat(t *testing.T) {
	store, factory, svc, _ := newBillingFixture(t)
	studentId := uuid.New()
	invoice, items := billedInvoice(store, studentId, entity.InvoiceStatusSent, "120.00", "80.50")

	uow := factory.NewUnitOfWork(context.Background())
	require.NoError(t, uow.Begin(context.Background()))
	res, err := svc.ReconcileCancellation(context.Background(), uow, items[0].LessonId, studentId)
	require.NoError(t, err)
	require.NoError(t, uow.Commit())

	require.NotNil(t, res)
	assert.Equal(t, invoice.Id, res.InvoiceId)
	assert.True(t, res.RemovedAmount.Equal(decimal.RequireFromString("120.00")))
	// 80.50 * 0.23 = 18.515 rounds half-up to 18.52.
	assert.True(t, res.NewNetAmount.Equal(decimal.RequireFromString("80.50")), "net: %s", res.NewNetAmount)
	assert.True(t, res.NewVatAmount.Equal(decimal.RequireFromString("18.52")), "vat: %s", res.NewVatAmount)
	assert.True(t, res.NewTotal.Equal(decimal.RequireFromString("99.02")), "total: %s", res.NewTotal)

	assert.Equal(t, entity.InvoiceStatusCorrected, invoice.Status)
	assert.Contains(t, invoice.Notes, "corrected")
	require.Len(t, store.audit, 1)
	assert.Equal(t, entity.AuditActionReconciled, store.audit[0].Action)
}

func TestReconcileIsNoOpWhenNothingBilled(t *testing.T) {
	store, factory, svc, _ := newBillingFixture(t)

	uow := factory.NewUnitOfWork(context.Background())
	require.NoError(t, uow.Begin(context.Background()))
	res, err := svc.ReconcileCancellation(context.Background(), uow, uuid.New(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, uow.Commit())

	assert.Nil(t, res)
	assert.Empty(t, store.audit)
}

func TestReconcileSkipsPaidInvoices(t *testing.T) {
	store, factory, svc, _ := newBillingFixture(t)
	studentId := uuid.New()
	_, items := billedInvoice(store, studentId, entity.InvoiceStatusPaid, "120.00")

	uow := factory.NewUnitOfWork(context.Background())
	require.NoError(t, uow.Begin(context.Background()))
	res, err := svc.ReconcileCancellation(context.Background(), uow, items[0].LessonId, studentId)
	require.NoError(t, err)
	require.NoError(t, uow.Commit())

	// Paid invoices are immutable; corrections go through a credit note.
	assert.Nil(t, res)
	assert.Len(t, store.items, 1)
}

func TestReconcileIsIdempotent(t *testing.T) {
	store, factory, svc, _ := newBillingFixture(t)
	studentId := uuid.New()
	_, items := billedInvoice(store, studentId, entity.InvoiceStatusGenerated, "120.00", "80.50")

	run := func() *dto.ReconciliationResult {
		uow := factory.NewUnitOfWork(context.Background())
		require.NoError(t, uow.Begin(context.Background()))
		res, err := svc.ReconcileCancellation(context.Background(), uow, items[0].LessonId, studentId)
		require.NoError(t, err)
		require.NoError(t, uow.Commit())
		return res
	}

	require.NotNil(t, run())
	// The invoice left the correctable window with the first run, so the
	// replay changes nothing.
	assert.Nil(t, run())
	assert.Len(t, store.items, 1)
	assert.Len(t, store.audit, 1)
}

func TestIssueCreditNoteNumbersAreSequential(t *testing.T) {
	store, _, svc, _ := newBillingFixture(t)
	studentId := uuid.New()
	invoice, _ := billedInvoice(store, studentId, entity.InvoiceStatusPaid, "100.00")

	for i := 1; i <= 3; i++ {
		res, err := svc.IssueCreditNote(context.Background(), invoice.Id, &dto.IssueCreditNoteRequest{
			Amount: decimal.RequireFromString("10.00"),
			Reason: "partial refund",
		}, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("KOR/2026/03/%d", i), res.Number)
	}
}

func TestIssueCreditNoteSequenceResetsPerMonth(t *testing.T) {
	store, _, svc, clk := newBillingFixture(t)
	studentId := uuid.New()
	invoice, _ := billedInvoice(store, studentId, entity.InvoiceStatusPaid, "100.00")

	issue := func() string {
		res, err := svc.IssueCreditNote(context.Background(), invoice.Id, &dto.IssueCreditNoteRequest{
			Amount: decimal.RequireFromString("10.00"),
			Reason: "partial refund",
		}, uuid.New())
		require.NoError(t, err)
		return res.Number
	}

	assert.Equal(t, "KOR/2026/03/1", issue())
	assert.Equal(t, "KOR/2026/03/2", issue())

	clk.Advance(31 * 24 * time.Hour) // into April
	assert.Equal(t, "KOR/2026/04/1", issue())
}

func TestIssueCreditNoteNegatesAmountsAndLinksOriginal(t *testing.T) {
	store, _, svc, _ := newBillingFixture(t)
	studentId := uuid.New()
	invoice, _ := billedInvoice(store, studentId, entity.InvoiceStatusPaid, "100.00")

	res, err := svc.IssueCreditNote(context.Background(), invoice.Id, &dto.IssueCreditNoteRequest{
		Amount: decimal.RequireFromString("80.50"),
		Reason: "approved cancellation after payment",
	}, uuid.New())
	require.NoError(t, err)

	assert.True(t, res.IsCreditNote)
	require.NotNil(t, res.CorrectsInvoiceId)
	assert.Equal(t, invoice.Id, *res.CorrectsInvoiceId)
	assert.Equal(t, studentId, res.StudentId)

	// VAT is rounded on the positive magnitude, then negated.
	assert.True(t, res.NetAmount.Equal(decimal.RequireFromString("-80.50")), "net: %s", res.NetAmount)
	assert.True(t, res.VatAmount.Equal(decimal.RequireFromString("-18.52")), "vat: %s", res.VatAmount)
	assert.True(t, res.TotalAmount.Equal(decimal.RequireFromString("-99.02")), "total: %s", res.TotalAmount)

	require.Len(t, store.outboxByType(entity.NotifCreditNoteIssued), 1)
	require.Len(t, store.audit, 1)
	assert.Equal(t, entity.AuditActionCreditNoteIssued, store.audit[0].Action)
}

func TestIssueCreditNoteRejectsCorrectableInvoice(t *testing.T) {
	store, _, svc, _ := newBillingFixture(t)
	studentId := uuid.New()
	invoice, _ := billedInvoice(store, studentId, entity.InvoiceStatusSent, "100.00")

	_, err := svc.IssueCreditNote(context.Background(), invoice.Id, &dto.IssueCreditNoteRequest{
		Amount: decimal.RequireFromString("10.00"),
		Reason: "should fail",
	}, uuid.New())
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
}

func TestIssueCreditNoteRejectsNonPositiveAmount(t *testing.T) {
	_, _, svc, _ := newBillingFixture(t)

	_, err := svc.IssueCreditNote(context.Background(), uuid.New(), &dto.IssueCreditNoteRequest{
		Amount: decimal.RequireFromString("-5.00"),
		Reason: "nope",
	}, uuid.New())
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
}

func TestGetInvoiceNotFound(t *testing.T) {
	_, _, svc, _ := newBillingFixture(t)

	_, err := svc.GetInvoice(context.Background(), uuid.New())
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "invoice", notFound.Kind)
}
