package entity

import (
	"time"

	"github.com/google/uuid"
)

// MakeupCreditStatus represents the lifecycle state of a makeup credit.
type MakeupCreditStatus string

const (
	MakeupCreditStatusPending   MakeupCreditStatus = "pending"
	MakeupCreditStatusScheduled MakeupCreditStatus = "scheduled"
	MakeupCreditStatusCompleted MakeupCreditStatus = "completed"
	MakeupCreditStatusExpired   MakeupCreditStatus = "expired"
)

// CreditNoteEntry is one line of a credit's administrative log. The log is
// append-only; entries are never rewritten.
type CreditNoteEntry struct {
	At     time.Time `json:"at"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Text   string    `json:"text"`
}

// MakeupCredit is the entitlement, created on cancellation approval, to
// attend a replacement lesson within a validity window.
type MakeupCredit struct {
	Id               uuid.UUID
	StudentId        uuid.UUID
	OriginalLessonId uuid.UUID
	BoundLessonId    *uuid.UUID
	Status           MakeupCreditStatus
	IssuedAt         time.Time
	ExpiresAt        time.Time
	// ValiditySeconds is fixed at creation and is the denominator of the
	// countdown progress fraction even after deadline extensions.
	ValiditySeconds int64
	Notes           []CreditNoteEntry
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c *MakeupCredit) IsOpen() bool {
	return c.Status == MakeupCreditStatusPending
}

// AppendNote adds a line to the administrative log.
func (c *MakeupCredit) AppendNote(at time.Time, actor, action, text string) {
	c.Notes = append(c.Notes, CreditNoteEntry{At: at, Actor: actor, Action: action, Text: text})
}

// Bind attaches the replacement lesson. Returns false unless the credit is
// still pending.
func (c *MakeupCredit) Bind(lessonId uuid.UUID) bool {
	if c.Status != MakeupCreditStatusPending {
		return false
	}
	c.BoundLessonId = &lessonId
	c.Status = MakeupCreditStatusScheduled
	return true
}
