package dto

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleMakeupRequest struct {
	LessonId uuid.UUID `json:"lesson_id" validate:"required"`
}

type ExtendDeadlineRequest struct {
	NewExpiresAt time.Time `json:"new_expires_at" validate:"required"`
	Reason       string    `json:"reason" validate:"required"`
}

// CountdownResponse is the urgency view of a single credit, computed from
// the clock at request time.
type CountdownResponse struct {
	CreditId         uuid.UUID `json:"credit_id"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	// Urgency is one of "normal", "urgent", "expired".
	Urgency string `json:"urgency"`
	// ProgressFraction is remaining validity as a fraction of the window
	// granted at issue time, clamped to [0, 1].
	ProgressFraction float64 `json:"progress_fraction"`
}

type MakeupCreditResponse struct {
	Id               uuid.UUID          `json:"id"`
	StudentId        uuid.UUID          `json:"student_id"`
	OriginalLessonId uuid.UUID          `json:"original_lesson_id"`
	BoundLessonId    *uuid.UUID         `json:"bound_lesson_id,omitempty"`
	Status           string             `json:"status"`
	IssuedAt         time.Time          `json:"issued_at"`
	ExpiresAt        time.Time          `json:"expires_at"`
	Countdown        *CountdownResponse `json:"countdown,omitempty"`
}

// SlotResponse is one bookable replacement lesson.
type SlotResponse struct {
	LessonId  uuid.UUID `json:"lesson_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	IsGroup   bool      `json:"is_group"`
	SeatsLeft int       `json:"seats_left"`
}
