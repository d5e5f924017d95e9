package entity

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the core.
const (
	AuditActionExpiryWarning    = "EXPIRY_WARNING"
	AuditActionDeadlineExtended = "DEADLINE_EXTENDED"
	AuditActionReconciled       = "INVOICE_RECONCILED"
	AuditActionCreditNoteIssued = "CREDIT_NOTE_ISSUED"
)

// AuditEntry is an immutable record of an administrative or system action.
// The sweeper uses Exists(entity, id, action, date) on this log to send at
// most one expiry warning per credit per calendar day.
type AuditEntry struct {
	Id         uuid.UUID
	EntityType string
	EntityId   uuid.UUID
	Action     string
	Actor      string
	Details    map[string]interface{}
	OccurredAt time.Time
}
