package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Domain errors are expected, caller-recoverable outcomes. Each carries
// the structured context the presentation layer needs to render a precise
// message without re-deriving it. Infrastructure failures are wrapped and
// propagated separately; nothing is logged-and-swallowed inside services.

// TooLateToCancelError is returned when a request lands inside the notice
// window. HoursRemaining is floored for display; eligibility itself is
// decided on the exact duration.
type TooLateToCancelError struct {
	LessonStart    time.Time
	HoursRemaining int
}

func (e *TooLateToCancelError) Error() string {
	return fmt.Sprintf("too late to cancel: %d hour(s) left before lesson start", e.HoursRemaining)
}

// NotEnrolledError is returned when the student is not on the lesson
// roster.
type NotEnrolledError struct {
	LessonId  uuid.UUID
	StudentId uuid.UUID
}

func (e *NotEnrolledError) Error() string {
	return fmt.Sprintf("student %s is not enrolled in lesson %s", e.StudentId, e.LessonId)
}

// DuplicateRequestError is returned when a pending request already exists
// for the (lesson, student) pair.
type DuplicateRequestError struct {
	ExistingRequestId uuid.UUID
}

func (e *DuplicateRequestError) Error() string {
	return fmt.Sprintf("a pending cancellation request already exists (%s)", e.ExistingRequestId)
}

// AlreadyReviewedError is returned when approving or rejecting a request
// that left the pending state.
type AlreadyReviewedError struct {
	RequestId uuid.UUID
	Status    string
}

func (e *AlreadyReviewedError) Error() string {
	return fmt.Sprintf("request %s was already reviewed (status %s)", e.RequestId, e.Status)
}

// QuotaExceededError is returned from RequestCancellation only when quota
// enforcement is switched on.
type QuotaExceededError struct {
	Used  int
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly cancellation quota reached (%d of %d used)", e.Used, e.Limit)
}

// CreditExpiredError is returned when scheduling against a credit past its
// deadline.
type CreditExpiredError struct {
	CreditId  uuid.UUID
	ExpiredAt time.Time
}

func (e *CreditExpiredError) Error() string {
	return fmt.Sprintf("makeup credit %s expired at %s", e.CreditId, e.ExpiredAt.Format(time.RFC3339))
}

// AlreadyScheduledError is returned when the credit is already bound to a
// lesson (or otherwise closed).
type AlreadyScheduledError struct {
	CreditId uuid.UUID
	Status   string
}

func (e *AlreadyScheduledError) Error() string {
	return fmt.Sprintf("makeup credit %s is not open for scheduling (status %s)", e.CreditId, e.Status)
}

// SlotFullError is returned when the commit-time capacity check loses a
// race. Retryable: the caller should fetch a fresh slot list.
type SlotFullError struct {
	LessonId uuid.UUID
}

func (e *SlotFullError) Error() string {
	return fmt.Sprintf("lesson %s has no seats left", e.LessonId)
}

// NotAuthorizedError is returned when the actor may not perform the
// operation (e.g. extending a deadline without the admin role).
type NotAuthorizedError struct {
	Action string
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("not authorized to %s", e.Action)
}

// NotFoundError is returned when the referenced record does not exist.
type NotFoundError struct {
	Kind string
	Id   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Id)
}

// ValidationError is returned for malformed domain input (empty reason,
// non-increasing deadline and the like).
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}
