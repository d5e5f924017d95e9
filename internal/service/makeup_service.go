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

// Urgency levels reported by the countdown.
const (
	UrgencyNormal  = "normal"
	UrgencyUrgent  = "urgent"
	UrgencyExpired = "expired"
)

type IMakeupService interface {
	ListCredits(ctx context.Context, studentId uuid.UUID) ([]*dto.MakeupCreditResponse, error)
	GetCountdown(ctx context.Context, creditId uuid.UUID) (*dto.CountdownResponse, error)
	FindAvailableSlots(ctx context.Context, creditId uuid.UUID, horizon time.Duration) ([]*dto.SlotResponse, error)
	ScheduleMakeup(ctx context.Context, creditId uuid.UUID, req *dto.ScheduleMakeupRequest, actorId uuid.UUID, actorRole string) (*dto.MakeupCreditResponse, error)
	ExtendDeadline(ctx context.Context, creditId uuid.UUID, req *dto.ExtendDeadlineRequest, actorId uuid.UUID, actorRole string) (*dto.MakeupCreditResponse, error)
}

type makeupService struct {
	factory unitofwork.RepositoryFactory
	policy  config.PolicyConfig
	clk     clock.Clock
	log     logger.ILogger
}

func NewMakeupService(factory unitofwork.RepositoryFactory, policy config.PolicyConfig, clk clock.Clock, log logger.ILogger) IMakeupService {
	return &makeupService{factory: factory, policy: policy, clk: clk, log: log}
}

// Countdown derives the urgency view of a credit at the given instant. The
// progress denominator is the validity window granted at issue time, so an
// extended deadline can push the fraction back up but never above 1.
func Countdown(credit *entity.MakeupCredit, now time.Time, urgentWindow time.Duration) *dto.CountdownResponse {
	remaining := credit.ExpiresAt.Sub(now)

	urgency := UrgencyNormal
	switch {
	case remaining <= 0 || credit.Status == entity.MakeupCreditStatusExpired:
		urgency = UrgencyExpired
	case remaining <= urgentWindow:
		urgency = UrgencyUrgent
	}

	remainingSeconds := int64(remaining.Seconds())
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}

	progress := 0.0
	if credit.ValiditySeconds > 0 {
		progress = float64(remainingSeconds) / float64(credit.ValiditySeconds)
	}
	if progress > 1 {
		progress = 1
	}

	return &dto.CountdownResponse{
		CreditId:         credit.Id,
		ExpiresAt:        credit.ExpiresAt,
		RemainingSeconds: remainingSeconds,
		Urgency:          urgency,
		ProgressFraction: progress,
	}
}

func (s *makeupService) urgentWindow() time.Duration {
	return time.Duration(s.policy.ExpiryWarningWindowDays) * 24 * time.Hour
}

func (s *makeupService) ListCredits(ctx context.Context, studentId uuid.UUID) ([]*dto.MakeupCreditResponse, error) {
	uow := s.factory.NewUnitOfWork(ctx)
	credits, err := uow.MakeupCreditRepository().FindAll(ctx,
		specification.OwnedByStudent{StudentID: studentId},
		specification.OrderBy{Field: "expires_at", Desc: false},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list makeup credits: %w", err)
	}

	now := s.clk.Now()
	responses := make([]*dto.MakeupCreditResponse, 0, len(credits))
	for _, c := range credits {
		responses = append(responses, mapCreditToResponse(c, Countdown(c, now, s.urgentWindow())))
	}
	return responses, nil
}

func (s *makeupService) GetCountdown(ctx context.Context, creditId uuid.UUID) (*dto.CountdownResponse, error) {
	uow := s.factory.NewUnitOfWork(ctx)
	credit, err := uow.MakeupCreditRepository().FindOne(ctx, specification.ByID{ID: creditId})
	if err != nil {
		return nil, fmt.Errorf("failed to load makeup credit %s: %w", creditId, err)
	}
	if credit == nil {
		return nil, &NotFoundError{Kind: "makeup credit", Id: creditId}
	}
	return Countdown(credit, s.clk.Now(), s.urgentWindow()), nil
}

// FindAvailableSlots lists upcoming lessons that can absorb the credit:
// same subject and tutor as the cancelled lesson, still scheduled, with a
// free seat, and not already attended by the student. Results come back
// soonest first.
func (s *makeupService) FindAvailableSlots(ctx context.Context, creditId uuid.UUID, horizon time.Duration) ([]*dto.SlotResponse, error) {
	uow := s.factory.NewUnitOfWork(ctx)

	credit, err := uow.MakeupCreditRepository().FindOne(ctx, specification.ByID{ID: creditId})
	if err != nil {
		return nil, fmt.Errorf("failed to load makeup credit %s: %w", creditId, err)
	}
	if credit == nil {
		return nil, &NotFoundError{Kind: "makeup credit", Id: creditId}
	}

	original, err := uow.LessonRepository().FindOne(ctx, specification.ByID{ID: credit.OriginalLessonId})
	if err != nil {
		return nil, fmt.Errorf("failed to load original lesson: %w", err)
	}
	if original == nil {
		return nil, &NotFoundError{Kind: "lesson", Id: credit.OriginalLessonId}
	}

	now := s.clk.Now()
	candidates, err := uow.LessonRepository().FindAll(ctx,
		specification.BySubjectAndTutor{SubjectID: original.SubjectId, TutorID: original.TutorId},
		specification.Filter("status", entity.LessonStatusScheduled),
		specification.StartingAfter{T: now},
		specification.StartingBefore{T: now.Add(horizon)},
		specification.OrderBy{Field: "start_time", Desc: false},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search replacement lessons: %w", err)
	}

	// Capacity and enrollment are filtered here rather than in SQL; the
	// authoritative check happens again under a row lock at booking time.
	slots := make([]*dto.SlotResponse, 0, s.policy.SlotSearchLimit)
	for _, lesson := range candidates {
		if len(slots) == s.policy.SlotSearchLimit {
			break
		}
		enrolled, err := uow.LessonRepository().IsEnrolled(ctx, lesson.Id, credit.StudentId)
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
		if enrolled {
			continue
		}
		roster, err := uow.LessonRepository().RosterSize(ctx, lesson.Id)
		if err != nil {
			return nil, fmt.Errorf("failed to count roster: %w", err)
		}
		if !lesson.HasCapacity(roster) {
			continue
		}

		seatsLeft := 1 - roster
		if lesson.IsGroup {
			seatsLeft = lesson.MaxParticipants - roster
		}
		slots = append(slots, &dto.SlotResponse{
			LessonId:  lesson.Id,
			StartTime: lesson.StartTime,
			EndTime:   lesson.EndTime,
			IsGroup:   lesson.IsGroup,
			SeatsLeft: seatsLeft,
		})
	}
	return slots, nil
}

// ScheduleMakeup books the credit onto a lesson. The lesson row is locked
// and capacity re-checked inside the transaction, so two students racing
// for the last seat resolve to exactly one booking and one SlotFullError.
func (s *makeupService) ScheduleMakeup(ctx context.Context, creditId uuid.UUID, req *dto.ScheduleMakeupRequest, actorId uuid.UUID, actorRole string) (*dto.MakeupCreditResponse, error) {
	now := s.clk.Now()
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	credit, err := uow.MakeupCreditRepository().FindOne(ctx, specification.ByID{ID: creditId})
	if err != nil {
		return nil, fmt.Errorf("failed to load makeup credit %s: %w", creditId, err)
	}
	if credit == nil {
		return nil, &NotFoundError{Kind: "makeup credit", Id: creditId}
	}
	if actorRole != "admin" && actorId != credit.StudentId {
		return nil, &NotAuthorizedError{Action: "schedule this makeup credit"}
	}
	if credit.Status == entity.MakeupCreditStatusExpired || !now.Before(credit.ExpiresAt) {
		return nil, &CreditExpiredError{CreditId: credit.Id, ExpiredAt: credit.ExpiresAt}
	}
	if !credit.IsOpen() {
		return nil, &AlreadyScheduledError{CreditId: credit.Id, Status: string(credit.Status)}
	}

	lesson, err := uow.LessonRepository().FindOneForUpdate(ctx, req.LessonId)
	if err != nil {
		return nil, fmt.Errorf("failed to lock lesson %s: %w", req.LessonId, err)
	}
	if lesson == nil {
		return nil, &NotFoundError{Kind: "lesson", Id: req.LessonId}
	}
	if lesson.Status != entity.LessonStatusScheduled {
		return nil, &ValidationError{Field: "lesson", Detail: "lesson is not open for booking"}
	}
	if !lesson.StartTime.After(now) {
		return nil, &ValidationError{Field: "lesson", Detail: "lesson has already started"}
	}

	enrolled, err := uow.LessonRepository().IsEnrolled(ctx, lesson.Id, credit.StudentId)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if enrolled {
		return nil, &ValidationError{Field: "lesson", Detail: "student is already on the roster"}
	}

	roster, err := uow.LessonRepository().RosterSize(ctx, lesson.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to count roster: %w", err)
	}
	if !lesson.HasCapacity(roster) {
		return nil, &SlotFullError{LessonId: lesson.Id}
	}

	if err := uow.LessonRepository().AddStudent(ctx, lesson.Id, credit.StudentId); err != nil {
		return nil, fmt.Errorf("failed to enroll student: %w", err)
	}

	credit.Bind(lesson.Id)
	credit.AppendNote(now, actorId.String(), "scheduled",
		fmt.Sprintf("booked onto lesson %s starting %s", lesson.Id, lesson.StartTime.Format(time.RFC3339)))
	if err := uow.MakeupCreditRepository().Update(ctx, credit); err != nil {
		return nil, fmt.Errorf("failed to update makeup credit: %w", err)
	}

	err = uow.OutboxRepository().Enqueue(ctx, &entity.OutboxMessage{
		Id:       uuid.New(),
		UserId:   credit.StudentId,
		TypeCode: entity.NotifMakeupScheduled,
		Title:    "Makeup lesson booked",
		Message:  fmt.Sprintf("Your makeup lesson is booked for %s.", lesson.StartTime.Format("2 January 2006 15:04")),
		Payload: map[string]interface{}{
			"credit_id": credit.Id.String(),
			"lesson_id": lesson.Id.String(),
		},
		Status:    entity.OutboxStatusPending,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue notification: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	s.log.Info("makeup", "credit scheduled", map[string]interface{}{
		"credit_id": credit.Id.String(),
		"lesson_id": lesson.Id.String(),
	})
	return mapCreditToResponse(credit, Countdown(credit, now, s.urgentWindow())), nil
}

// ExtendDeadline moves a credit's expiry to a strictly later instant.
// Admin only; the old and new deadlines land in the credit's log and the
// audit trail.
func (s *makeupService) ExtendDeadline(ctx context.Context, creditId uuid.UUID, req *dto.ExtendDeadlineRequest, actorId uuid.UUID, actorRole string) (*dto.MakeupCreditResponse, error) {
	if actorRole != "admin" {
		return nil, &NotAuthorizedError{Action: "extend a makeup deadline"}
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, &ValidationError{Field: "reason", Detail: "an extension must state a reason"}
	}

	now := s.clk.Now()
	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	credit, err := uow.MakeupCreditRepository().FindOne(ctx, specification.ByID{ID: creditId})
	if err != nil {
		return nil, fmt.Errorf("failed to load makeup credit %s: %w", creditId, err)
	}
	if credit == nil {
		return nil, &NotFoundError{Kind: "makeup credit", Id: creditId}
	}
	if credit.Status != entity.MakeupCreditStatusPending && credit.Status != entity.MakeupCreditStatusExpired {
		return nil, &AlreadyScheduledError{CreditId: credit.Id, Status: string(credit.Status)}
	}
	if !req.NewExpiresAt.After(credit.ExpiresAt) {
		return nil, &ValidationError{Field: "new_expires_at", Detail: "must be later than the current deadline"}
	}

	oldExpiresAt := credit.ExpiresAt
	credit.ExpiresAt = req.NewExpiresAt.UTC()
	// An extension revives a credit the sweeper already expired.
	credit.Status = entity.MakeupCreditStatusPending
	credit.AppendNote(now, actorId.String(), "deadline_extended",
		fmt.Sprintf("deadline moved from %s to %s: %s",
			oldExpiresAt.Format(time.RFC3339), credit.ExpiresAt.Format(time.RFC3339), req.Reason))
	if err := uow.MakeupCreditRepository().Update(ctx, credit); err != nil {
		return nil, fmt.Errorf("failed to update makeup credit: %w", err)
	}

	err = uow.AuditLogRepository().Record(ctx, &entity.AuditEntry{
		Id:         uuid.New(),
		EntityType: "makeup_credit",
		EntityId:   credit.Id,
		Action:     entity.AuditActionDeadlineExtended,
		Actor:      actorId.String(),
		Details: map[string]interface{}{
			"old_expires_at": oldExpiresAt.Format(time.RFC3339),
			"new_expires_at": credit.ExpiresAt.Format(time.RFC3339),
			"reason":         req.Reason,
		},
		OccurredAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record extension audit entry: %w", err)
	}

	err = uow.OutboxRepository().Enqueue(ctx, &entity.OutboxMessage{
		Id:       uuid.New(),
		UserId:   credit.StudentId,
		TypeCode: entity.NotifDeadlineExtended,
		Title:    "Makeup deadline extended",
		Message:  fmt.Sprintf("Your makeup credit is now valid until %s.", credit.ExpiresAt.Format("2 January 2006")),
		Payload: map[string]interface{}{
			"credit_id":  credit.Id.String(),
			"expires_at": credit.ExpiresAt.Format(time.RFC3339),
		},
		Status:    entity.OutboxStatusPending,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue notification: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit extension: %w", err)
	}

	s.log.Info("makeup", "deadline extended", map[string]interface{}{
		"credit_id":      credit.Id.String(),
		"new_expires_at": credit.ExpiresAt.Format(time.RFC3339),
	})
	return mapCreditToResponse(credit, Countdown(credit, now, s.urgentWindow())), nil
}

func mapCreditToResponse(c *entity.MakeupCredit, countdown *dto.CountdownResponse) *dto.MakeupCreditResponse {
	return &dto.MakeupCreditResponse{
		Id:               c.Id,
		StudentId:        c.StudentId,
		OriginalLessonId: c.OriginalLessonId,
		BoundLessonId:    c.BoundLessonId,
		Status:           string(c.Status),
		IssuedAt:         c.IssuedAt,
		ExpiresAt:        c.ExpiresAt,
		Countdown:        countdown,
	}
}
