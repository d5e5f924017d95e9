package entity

import (
	"time"

	"github.com/google/uuid"
)

// CancellationStatus represents the status of a cancellation request.
type CancellationStatus string

const (
	CancellationStatusPending  CancellationStatus = "pending"
	CancellationStatusApproved CancellationStatus = "approved"
	CancellationStatusRejected CancellationStatus = "rejected"
)

// CancellationRequest is a student-initiated ask to void a scheduled
// lesson. The terminal state (approved/rejected) is set exactly once by a
// reviewer; the record is immutable afterwards.
type CancellationRequest struct {
	Id          uuid.UUID
	LessonId    uuid.UUID
	StudentId   uuid.UUID
	Reason      string
	Status      CancellationStatus
	RequestedAt time.Time
	ReviewedBy  *uuid.UUID
	ReviewedAt  *time.Time
	ReviewNotes string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r *CancellationRequest) IsPending() bool {
	return r.Status == CancellationStatusPending
}

// Review moves a pending request into its terminal state. Returns false
// when the request was already reviewed or the target state is not
// terminal.
func (r *CancellationRequest) Review(status CancellationStatus, reviewer uuid.UUID, notes string, at time.Time) bool {
	if !r.IsPending() {
		return false
	}
	if status != CancellationStatusApproved && status != CancellationStatusRejected {
		return false
	}
	r.Status = status
	r.ReviewedBy = &reviewer
	r.ReviewedAt = &at
	r.ReviewNotes = notes
	return true
}
