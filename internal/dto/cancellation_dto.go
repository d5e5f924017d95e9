package dto

import (
	"time"

	"github.com/google/uuid"
)

type RequestCancellationRequest struct {
	LessonId uuid.UUID `json:"lesson_id" validate:"required"`
	Reason   string    `json:"reason" validate:"required"`
}

type ReviewCancellationRequest struct {
	Notes string `json:"notes"`
}

type RejectCancellationRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type CancellationResponse struct {
	Id          uuid.UUID  `json:"id"`
	LessonId    uuid.UUID  `json:"lesson_id"`
	StudentId   uuid.UUID  `json:"student_id"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	ReviewedBy  *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes string     `json:"review_notes,omitempty"`
}

// ApprovalResponse carries both outcomes of an approval: the reviewed
// request and the makeup credit minted with it.
type ApprovalResponse struct {
	Request *CancellationResponse `json:"request"`
	Credit  *MakeupCreditResponse `json:"credit"`
}

type QuotaResponse struct {
	Month     string `json:"month"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Enforced  bool   `json:"enforced"`
}
