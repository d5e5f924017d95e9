package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tutorium-be/internal/dto"
	"tutorium-be/internal/entity"
	"tutorium-be/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newCancellationFixture(t *testing.T) (*fakeStore, ICancellationService, *clock.Fixed) {
	t.Helper()
	store := newFakeStore()
	factory := newFakeFactory(store)
	clk := clock.NewFixed(baseTime)
	billing := NewBillingService(factory, testPolicy(), clk, noopLogger{})
	svc := NewCancellationService(factory, billing, testPolicy(), clk, noopLogger{})
	return store, svc, clk
}

func scheduledLesson(store *fakeStore, start time.Time, studentId uuid.UUID) *entity.Lesson {
	lesson := &entity.Lesson{
		Id:        uuid.New(),
		SubjectId: uuid.New(),
		TutorId:   uuid.New(),
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    entity.LessonStatusScheduled,
	}
	store.addLesson(lesson)
	store.enroll(lesson.Id, studentId)
	return lesson
}

func TestRequestCancellationSucceedsJustOutsideNoticeWindow(t *testing.T) {
	store, svc, _ := newCancellationFixture(t)
	studentId := uuid.New()
	// One second more notice than required.
	lesson := scheduledLesson(store, baseTime.Add(24*time.Hour+time.Second), studentId)

	res, err := svc.RequestCancellation(context.Background(), studentId, &dto.RequestCancellationRequest{
		LessonId: lesson.Id,
		Reason:   "sick",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", res.Status)
	assert.Equal(t, lesson.Id, res.LessonId)
	assert.Equal(t, baseTime, res.RequestedAt)

	require.Len(t, store.outboxByType(entity.NotifCancellationRequested), 1)
	assert.Equal(t, 1, store.commits)
}

func TestRequestCancellationFailsJustInsideNoticeWindow(t *testing.T) {
	store, svc, _ := newCancellationFixture(t)
	studentId := uuid.New()
	// One second short of the required notice.
	lesson := scheduledLesson(store, baseTime.Add(24*time.Hour-time.Second), studentId)

	_, err := svc.RequestCancellation(context.Background(), studentId, &dto.RequestCancellationRequest{
		LessonId: lesson.Id,
		Reason:   "sick",
	})

	var tooLate *TooLateToCancelError
	require.ErrorAs(t, err, &tooLate)
	assert.Equal(t, 0, tooLate.HoursRemaining)
	assert.Equal(t, lesson.StartTime, tooLate.LessonStart)
	assert.Empty(t, store.requests)
}

func TestRequestCancellationFailsAtExactBoundary(t *testing.T) {
	store, svc, _ := newCancellationFixture(t)
	studentId := uuid.New()
	lesson := scheduledLesson(store, baseTime.Add(24*time.Hour), studentId)

	_, err := svc.RequestCancellation(context.Background(), studentId, &dto.RequestCancellationRequest{
		LessonId: lesson.Id,
		Reason:   "sick",
	})

	var tooLate *TooLateToCancelError
	require.ErrorAs(t, err, &tooLate)
	assert.Empty(t, store.requests)
}

func TestRequestCancellationRejectsNonEnrolledStudent(t *testing.T) {
	store, svc, _ := newCancellationFixture(t)
	lesson := scheduledLesson(store, baseTime.Add(48*time.Hour), uuid.New())

	stranger := uuid.New()
	_, err := svc.RequestCancellation(context.Background(), stranger, &dto.RequestCancellationRequest{
		LessonId: lesson.Id,
		Reason:   "sick",
	})

	var notEnrolled *NotEnrolledError
	require.ErrorAs(t, err, &notEnrolled)
	assert.Equal(t, stranger, notEnrolled.StudentId)
}

func TestRequestCancellationRejectsDuplicatePending(t *testing.T) {
	store, svc, _ := newCancellationFixture(t)
	studentId := uuid.New()
	lesson := scheduledLesson(store, baseTime.Add(48*time.Hour), studentId)

	first, err := svc.RequestCancellation(context.Background(), studentId, &dto.RequestCancellationRequest{
		LessonId: lesson.Id,
		Reason:   "sick",
	})
	require.NoError(t, err)

	_, err = svc.RequestCancellation(context.Background(), studentId, &dto.RequestCancellationRequest{
		LessonId: lesson.Id,
		Reason:   "still sick",
	})

	var duplicate *DuplicateRequestError
	require.ErrorAs(t, err, &duplicate)
	assert.Equal(t, first.Id, duplicate.ExistingRequestId)
	assert.Len(t, store.requests, 1)
}

func TestRequestCancellationRejectsEmptyReason(t *testing.T) {
	store, svc, _ := newCancellationFixture(t)
	studentId := uuid.New()
	lesson := scheduledLesson(store, baseTime.Add(48*time.Hour), studentId)

	_, err := svc.RequestCancellation(context.Background(), studentId, &dto.RequestCancellationRequest{
		LessonId: lesson.Id,
		Reason:   "   ",
	})

	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "reason", invalid.Field)
}

func TestApproveRequestMintsCreditAndCancelsLesson(t *testing.T) {
	store, svc, _ := newCancellationFixture(t)
	studentId := uuid.New()
	lesson := scheduledLesson(store, baseTime.Add(72*time.Hour), studentId)

	filed, err := svc.RequestCancellation(context.Background(), studentId, &dto.RequestCancellationRequest{
		LessonId: lesson.Id,
		Reason:   "family trip",
	})
	require.NoError(t, err)

	reviewerId := uuid.New()
	res, err := svc.ApproveRequest(context.Background(), filed.Id, reviewerId, "ok")
	require.NoError(t, err)

	assert.Equal(t, "approved", res.Request.Status)
	require.NotNil(t, res.Request.ReviewedBy)
	assert.Equal(t, reviewerId, *res.Request.ReviewedBy)

	// The credit expires exactly 30 days after the approval instant.
	require.NotNil(t, res.Credit)
	assert.Equal(t, baseTime.Add(30*24*time.Hour), res.Credit.ExpiresAt)
	assert.Equal(t, "pending", res.Credit.Status)
	assert.Equal(t, lesson.Id, res.Credit.OriginalLessonId)

	assert.Equal(t, entity.LessonStatusCancelled, store.lessons[lesson.Id].Status)
	require.Len(t, store.credits, 1)
	assert.Equal(t, int64(30*24*3600), store.credits[0].ValiditySeconds)
	require.Len(t, store.outboxByType(entity.NotifCancellationApproved), 1)
}

func TestApproveRequestTwiceFails(t *testing.T) {
	store, svc, _ := newCancellationFixture(t)
	studentId := uuid.New()
	lesson := scheduledLesson(store, baseTime.Add(72*time.Hour), studentId)

	filed, err := svc.RequestCancellation(context.Background(), studentId, &dto.RequestCancellationRequest{
		LessonId: lesson.Id,
		Reason:   "sick",
	})
	require.NoError(t, err)

	_, err = svc.ApproveRequest(context.Background(), filed.Id, uuid.New(), "")
	require.NoError(t, err)

	_, err = svc.ApproveRequest(context.Background(), filed.Id, uuid.New(), "")
	var reviewed *AlreadyReviewedError
	require.ErrorAs(t, err, &reviewed)
	assert.Equal(t, "approved", reviewed.Status)
	assert.Len(t, store.credits, 1)
}

func TestApproveRequestReconcilesCorrectableInvoice(t *testing.T) {
	store, svc, _ := newCancellationFixture(t)
	studentId := uuid.New()
	lesson := scheduledLesson(store, baseTime.Add(72*time.Hour), studentId)

	invoice := &entity.Invoice{
		Id:          uuid.New(),
		Number:      "FV/2026/03/7",
		StudentId:   studentId,
		Status:      entity.InvoiceStatusSent,
		NetAmount:   decimal.RequireFromString("300.00"),
		VatAmount:   decimal.RequireFromString("69.00"),
		TotalAmount: decimal.RequireFromString("369.00"),
	}
	store.invoices[invoice.Id] = invoice
	store.items = append(store.items,
		&entity.InvoiceItem{Id: uuid.New(), InvoiceId: invoice.Id, LessonId: lesson.Id, StudentId: studentId, LineTotal: decimal.RequireFromString("100.00")},
		&entity.InvoiceItem{Id: uuid.New(), InvoiceId: invoice.Id, LessonId: uuid.New(), StudentId: studentId, LineTotal: decimal.RequireFromString("200.00")},
	)

	filed, err := svc.RequestCancellation(context.Background(), studentId, &dto.RequestCancellationRequest{
		LessonId: lesson.Id,
		Reason:   "sick",
	})
	require.NoError(t, err)

	_, err = svc.ApproveRequest(context.Background(), filed.Id, uuid.New(), "")
	require.NoError(t, err)

	assert.Equal(t, entity.InvoiceStatusCorrected, invoice.Status)
	assert.True(t, invoice.NetAmount.Equal(decimal.RequireFromString("200.00")), "net: %s", invoice.NetAmount)
	assert.True(t, invoice.VatAmount.Equal(decimal.RequireFromString("46.00")), "vat: %s", invoice.VatAmount)
	assert.True(t, invoice.TotalAmount.Equal(decimal.RequireFromString("246.00")), "total: %s", invoice.TotalAmount)
	require.Len(t, store.outboxByType(entity.NotifInvoiceCorrected), 1)
}

func TestApproveRequestSkipsBillingWhenNothingBilled(t *testing.T) {
	store, svc, _ := newCancellationFixture(t)
	studentId := uuid.New()
	lesson := scheduledLesson(store, baseTime.Add(72*time.Hour), studentId)

	filed, err := svc.RequestCancellation(context.Background(), studentId, &dto.RequestCancellationRequest{
		LessonId: lesson.Id,
		Reason:   "sick",
	})
	require.NoError(t, err)

	_, err = svc.ApproveRequest(context.Background(), filed.Id, uuid.New(), "")
	require.NoError(t, err)

	assert.Empty(t, store.outboxByType(entity.NotifInvoiceCorrected))
}

func TestRejectRequestRequiresReasonAndNotifies(t *testing.T) {
	store, svc, _ := newCancellationFixture(t)
	studentId := uuid.New()
	lesson := scheduledLesson(store, baseTime.Add(72*time.Hour), studentId)

	filed, err := svc.RequestCancellation(context.Background(), studentId, &dto.RequestCancellationRequest{
		LessonId: lesson.Id,
		Reason:   "sick",
	})
	require.NoError(t, err)

	_, err = svc.RejectRequest(context.Background(), filed.Id, uuid.New(), "")
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)

	res, err := svc.RejectRequest(context.Background(), filed.Id, uuid.New(), "too many cancellations")
	require.NoError(t, err)
	assert.Equal(t, "rejected", res.Status)
	assert.Empty(t, store.credits)
	assert.Equal(t, entity.LessonStatusScheduled, store.lessons[lesson.Id].Status)
	require.Len(t, store.outboxByType(entity.NotifCancellationRejected), 1)
}

func TestCheckMonthlyQuotaCountsApprovedInCalendarMonth(t *testing.T) {
	store, svc, _ := newCancellationFixture(t)
	studentId := uuid.New()

	reviewed := func(at time.Time, status entity.CancellationStatus) {
		reviewer := uuid.New()
		store.requests = append(store.requests, &entity.CancellationRequest{
			Id:         uuid.New(),
			LessonId:   uuid.New(),
			StudentId:  studentId,
			Status:     status,
			ReviewedBy: &reviewer,
			ReviewedAt: &at,
		})
	}
	reviewed(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), entity.CancellationStatusApproved)
	reviewed(time.Date(2026, 3, 28, 10, 0, 0, 0, time.UTC), entity.CancellationStatusApproved)
	// Rejected requests and other months never count.
	reviewed(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC), entity.CancellationStatusRejected)
	reviewed(time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC), entity.CancellationStatusApproved)

	quota, err := svc.CheckMonthlyQuota(context.Background(), studentId, baseTime)
	require.NoError(t, err)
	assert.Equal(t, "2026-03", quota.Month)
	assert.Equal(t, 2, quota.Used)
	assert.Equal(t, 2, quota.Limit)
	assert.Equal(t, 0, quota.Remaining)
	assert.False(t, quota.Enforced)
}

func TestQuotaToggleBlocksOnlyWhenEnforced(t *testing.T) {
	run := func(enforce bool) error {
		store := newFakeStore()
		factory := newFakeFactory(store)
		clk := clock.NewFixed(baseTime)
		policy := testPolicy()
		policy.EnforceQuotaAtRequestTime = enforce
		billing := NewBillingService(factory, policy, clk, noopLogger{})
		svc := NewCancellationService(factory, billing, policy, clk, noopLogger{})

		studentId := uuid.New()
		for i := 0; i < 2; i++ {
			at := baseTime.Add(-time.Duration(i+1) * time.Hour)
			reviewer := uuid.New()
			store.requests = append(store.requests, &entity.CancellationRequest{
				Id:         uuid.New(),
				LessonId:   uuid.New(),
				StudentId:  studentId,
				Status:     entity.CancellationStatusApproved,
				ReviewedBy: &reviewer,
				ReviewedAt: &at,
			})
		}

		lesson := scheduledLesson(store, baseTime.Add(48*time.Hour), studentId)
		_, err := svc.RequestCancellation(context.Background(), studentId, &dto.RequestCancellationRequest{
			LessonId: lesson.Id,
			Reason:   "third this month",
		})
		return err
	}

	var quotaErr *QuotaExceededError
	require.True(t, errors.As(run(true), &quotaErr))
	assert.Equal(t, 2, quotaErr.Used)

	assert.NoError(t, run(false))
}
