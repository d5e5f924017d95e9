package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tutorium-be/internal/config"
	"tutorium-be/internal/dto"
	"tutorium-be/internal/entity"
	"tutorium-be/internal/pkg/clock"
	"tutorium-be/internal/pkg/logger"
	"tutorium-be/internal/repository/specification"
	"tutorium-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type ICancellationService interface {
	RequestCancellation(ctx context.Context, studentId uuid.UUID, req *dto.RequestCancellationRequest) (*dto.CancellationResponse, error)
	ApproveRequest(ctx context.Context, requestId, reviewerId uuid.UUID, notes string) (*dto.ApprovalResponse, error)
	RejectRequest(ctx context.Context, requestId, reviewerId uuid.UUID, reason string) (*dto.CancellationResponse, error)
	CheckMonthlyQuota(ctx context.Context, studentId uuid.UUID, month time.Time) (*dto.QuotaResponse, error)
	ListRequests(ctx context.Context, status string, page, limit int) ([]*dto.CancellationResponse, error)
}

type cancellationService struct {
	factory unitofwork.RepositoryFactory
	billing IBillingService
	policy  config.PolicyConfig
	clk     clock.Clock
	log     logger.ILogger
}

func NewCancellationService(factory unitofwork.RepositoryFactory, billing IBillingService, policy config.PolicyConfig, clk clock.Clock, log logger.ILogger) ICancellationService {
	return &cancellationService{
		factory: factory,
		billing: billing,
		policy:  policy,
		clk:     clk,
		log:     log,
	}
}

// RequestCancellation files a cancellation request after checking the
// notice window, enrollment, the one-pending-request rule and (when the
// policy enforces it) the monthly quota.
func (s *cancellationService) RequestCancellation(ctx context.Context, studentId uuid.UUID, req *dto.RequestCancellationRequest) (*dto.CancellationResponse, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, &ValidationError{Field: "reason", Detail: "must not be empty"}
	}

	now := s.clk.Now()
	uow := s.factory.NewUnitOfWork(ctx)

	lesson, err := uow.LessonRepository().FindOne(ctx, specification.ByID{ID: req.LessonId})
	if err != nil {
		return nil, fmt.Errorf("failed to load lesson %s: %w", req.LessonId, err)
	}
	if lesson == nil {
		return nil, &NotFoundError{Kind: "lesson", Id: req.LessonId}
	}
	if lesson.Status != entity.LessonStatusScheduled {
		return nil, &ValidationError{Field: "lesson", Detail: "only scheduled lessons can be cancelled"}
	}

	// Eligibility is decided on the exact duration, not on truncated
	// hours: a request one second inside the notice window is rejected.
	notice := time.Duration(s.policy.CancellationNoticeHours) * time.Hour
	remaining := lesson.StartTime.Sub(now)
	if remaining <= notice {
		hoursLeft := int((remaining - notice).Hours())
		if hoursLeft < 0 {
			hoursLeft = 0
		}
		return nil, &TooLateToCancelError{LessonStart: lesson.StartTime, HoursRemaining: hoursLeft}
	}

	enrolled, err := uow.LessonRepository().IsEnrolled(ctx, lesson.Id, studentId)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, &NotEnrolledError{LessonId: lesson.Id, StudentId: studentId}
	}

	existing, err := uow.CancellationRepository().FindOne(ctx,
		specification.ByLessonAndStudent{LessonID: lesson.Id, StudentID: studentId},
		specification.Filter("status", entity.CancellationStatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to check for pending request: %w", err)
	}
	if existing != nil {
		return nil, &DuplicateRequestError{ExistingRequestId: existing.Id}
	}

	quota, err := s.monthlyQuota(ctx, uow, studentId, now)
	if err != nil {
		return nil, err
	}
	if s.policy.EnforceQuotaAtRequestTime && quota.Remaining == 0 {
		return nil, &QuotaExceededError{Used: quota.Used, Limit: quota.Limit}
	}

	request := &entity.CancellationRequest{
		Id:          uuid.New(),
		LessonId:    lesson.Id,
		StudentId:   studentId,
		Reason:      strings.TrimSpace(req.Reason),
		Status:      entity.CancellationStatusPending,
		RequestedAt: now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.CancellationRepository().Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create cancellation request: %w", err)
	}

	err = uow.OutboxRepository().Enqueue(ctx, &entity.OutboxMessage{
		Id:       uuid.New(),
		UserId:   studentId,
		TypeCode: entity.NotifCancellationRequested,
		Title:    "Cancellation request received",
		Message:  fmt.Sprintf("Your request to cancel the lesson on %s is awaiting review.", lesson.StartTime.Format("2 January 2006 15:04")),
		Payload: map[string]interface{}{
			"request_id": request.Id.String(),
			"lesson_id":  lesson.Id.String(),
		},
		Status:    entity.OutboxStatusPending,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue notification: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation request: %w", err)
	}

	s.log.Info("cancellation", "request filed", map[string]interface{}{
		"request_id": request.Id.String(),
		"lesson_id":  lesson.Id.String(),
		"student_id": studentId.String(),
	})
	return mapRequestToResponse(request), nil
}

// ApproveRequest applies the whole approval in one transaction: the
// request flips to approved, the lesson is cancelled, a makeup credit is
// minted and the invoice (if still correctable) is reconciled. Either all
// of it commits or none of it does.
func (s *cancellationService) ApproveRequest(ctx context.Context, requestId, reviewerId uuid.UUID, notes string) (*dto.ApprovalResponse, error) {
	now := s.clk.Now()
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	request, err := uow.CancellationRepository().FindOne(ctx, specification.ByID{ID: requestId})
	if err != nil {
		return nil, fmt.Errorf("failed to load request %s: %w", requestId, err)
	}
	if request == nil {
		return nil, &NotFoundError{Kind: "cancellation request", Id: requestId}
	}
	if !request.Review(entity.CancellationStatusApproved, reviewerId, notes, now) {
		return nil, &AlreadyReviewedError{RequestId: request.Id, Status: string(request.Status)}
	}
	if err := uow.CancellationRepository().Update(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	if err := uow.LessonRepository().UpdateStatus(ctx, request.LessonId, entity.LessonStatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel lesson: %w", err)
	}

	validity := time.Duration(s.policy.MakeupValidityDays) * 24 * time.Hour
	credit := &entity.MakeupCredit{
		Id:               uuid.New(),
		StudentId:        request.StudentId,
		OriginalLessonId: request.LessonId,
		Status:           entity.MakeupCreditStatusPending,
		IssuedAt:         now,
		ExpiresAt:        now.Add(validity),
		ValiditySeconds:  int64(validity.Seconds()),
	}
	credit.AppendNote(now, reviewerId.String(), "issued",
		fmt.Sprintf("credit issued on approval of request %s", request.Id))
	if err := uow.MakeupCreditRepository().Create(ctx, credit); err != nil {
		return nil, fmt.Errorf("failed to create makeup credit: %w", err)
	}

	reconciliation, err := s.billing.ReconcileCancellation(ctx, uow, request.LessonId, request.StudentId)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile billing: %w", err)
	}

	outbox := uow.OutboxRepository()
	err = outbox.Enqueue(ctx, &entity.OutboxMessage{
		Id:       uuid.New(),
		UserId:   request.StudentId,
		TypeCode: entity.NotifCancellationApproved,
		Title:    "Cancellation approved",
		Message:  fmt.Sprintf("Your cancellation was approved. A makeup credit valid until %s was added to your account.", credit.ExpiresAt.Format("2 January 2006")),
		Payload: map[string]interface{}{
			"request_id": request.Id.String(),
			"credit_id":  credit.Id.String(),
			"expires_at": credit.ExpiresAt.Format(time.RFC3339),
		},
		Status:    entity.OutboxStatusPending,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue notification: %w", err)
	}

	if reconciliation != nil {
		err = outbox.Enqueue(ctx, &entity.OutboxMessage{
			Id:       uuid.New(),
			UserId:   request.StudentId,
			TypeCode: entity.NotifInvoiceCorrected,
			Title:    "Invoice corrected",
			Message:  fmt.Sprintf("Your invoice was corrected; the new total is %s.", reconciliation.NewTotal.StringFixed(2)),
			Payload: map[string]interface{}{
				"invoice_id": reconciliation.InvoiceId.String(),
				"new_total":  reconciliation.NewTotal.StringFixed(2),
			},
			Status:    entity.OutboxStatusPending,
			CreatedAt: now,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to enqueue notification: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}

	s.log.Info("cancellation", "request approved", map[string]interface{}{
		"request_id": request.Id.String(),
		"credit_id":  credit.Id.String(),
		"reconciled": reconciliation != nil,
	})
	return &dto.ApprovalResponse{
		Request: mapRequestToResponse(request),
		Credit:  mapCreditToResponse(credit, nil),
	}, nil
}

func (s *cancellationService) RejectRequest(ctx context.Context, requestId, reviewerId uuid.UUID, reason string) (*dto.CancellationResponse, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Field: "reason", Detail: "a rejection must state a reason"}
	}

	now := s.clk.Now()
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	request, err := uow.CancellationRepository().FindOne(ctx, specification.ByID{ID: requestId})
	if err != nil {
		return nil, fmt.Errorf("failed to load request %s: %w", requestId, err)
	}
	if request == nil {
		return nil, &NotFoundError{Kind: "cancellation request", Id: requestId}
	}
	if !request.Review(entity.CancellationStatusRejected, reviewerId, reason, now) {
		return nil, &AlreadyReviewedError{RequestId: request.Id, Status: string(request.Status)}
	}
	if err := uow.CancellationRepository().Update(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	err = uow.OutboxRepository().Enqueue(ctx, &entity.OutboxMessage{
		Id:       uuid.New(),
		UserId:   request.StudentId,
		TypeCode: entity.NotifCancellationRejected,
		Title:    "Cancellation rejected",
		Message:  fmt.Sprintf("Your cancellation request was rejected: %s", reason),
		Payload: map[string]interface{}{
			"request_id": request.Id.String(),
			"reason":     reason,
		},
		Status:    entity.OutboxStatusPending,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue notification: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rejection: %w", err)
	}

	s.log.Info("cancellation", "request rejected", map[string]interface{}{
		"request_id": request.Id.String(),
	})
	return mapRequestToResponse(request), nil
}

// CheckMonthlyQuota counts approved cancellations reviewed inside the
// calendar month containing the given instant.
func (s *cancellationService) CheckMonthlyQuota(ctx context.Context, studentId uuid.UUID, month time.Time) (*dto.QuotaResponse, error) {
	uow := s.factory.NewUnitOfWork(ctx)
	return s.monthlyQuota(ctx, uow, studentId, month)
}

func (s *cancellationService) monthlyQuota(ctx context.Context, uow unitofwork.UnitOfWork, studentId uuid.UUID, at time.Time) (*dto.QuotaResponse, error) {
	at = at.UTC()
	monthStart := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	count, err := uow.CancellationRepository().Count(ctx,
		specification.OwnedByStudent{StudentID: studentId},
		specification.Filter("status", entity.CancellationStatusApproved),
		specification.ReviewedBetween{From: monthStart, To: nextMonth},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count approved cancellations: %w", err)
	}

	used := int(count)
	remaining := s.policy.MonthlyCancellationLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return &dto.QuotaResponse{
		Month:     monthStart.Format("2006-01"),
		Used:      used,
		Limit:     s.policy.MonthlyCancellationLimit,
		Remaining: remaining,
		Enforced:  s.policy.EnforceQuotaAtRequestTime,
	}, nil
}

func (s *cancellationService) ListRequests(ctx context.Context, status string, page, limit int) ([]*dto.CancellationResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	specs := []specification.Specification{
		specification.OrderBy{Field: "requested_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	}
	if status != "" {
		specs = append(specs, specification.Filter("status", status))
	}

	uow := s.factory.NewUnitOfWork(ctx)
	requests, err := uow.CancellationRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cancellation requests: %w", err)
	}

	responses := make([]*dto.CancellationResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, mapRequestToResponse(r))
	}
	return responses, nil
}

func mapRequestToResponse(r *entity.CancellationRequest) *dto.CancellationResponse {
	return &dto.CancellationResponse{
		Id:          r.Id,
		LessonId:    r.LessonId,
		StudentId:   r.StudentId,
		Reason:      r.Reason,
		Status:      string(r.Status),
		RequestedAt: r.RequestedAt,
		ReviewedBy:  r.ReviewedBy,
		ReviewedAt:  r.ReviewedAt,
		ReviewNotes: r.ReviewNotes,
	}
}
