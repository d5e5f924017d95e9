package entity

import (
	"time"

	"github.com/google/uuid"
)

// Notification type codes emitted by the core. Each maps to one outbox row.
const (
	NotifCancellationRequested = "CANCELLATION_REQUESTED"
	NotifCancellationApproved  = "CANCELLATION_APPROVED"
	NotifCancellationRejected  = "CANCELLATION_REJECTED"
	NotifMakeupScheduled       = "MAKEUP_SCHEDULED"
	NotifMakeupExpired         = "MAKEUP_EXPIRED"
	NotifMakeupExpiryWarning   = "MAKEUP_EXPIRY_WARNING"
	NotifDeadlineExtended      = "MAKEUP_DEADLINE_EXTENDED"
	NotifInvoiceCorrected      = "INVOICE_CORRECTED"
	NotifCreditNoteIssued      = "CREDIT_NOTE_ISSUED"
)

// OutboxStatus tracks a notification through the outbox pipeline.
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusDispatched OutboxStatus = "dispatched"
	OutboxStatusDelivered  OutboxStatus = "delivered"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// OutboxMessage is a notification enqueued transactionally with the domain
// mutation that caused it. Delivery happens asynchronously so an
// unreachable mail server or bus can never roll back the core transaction.
type OutboxMessage struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	TypeCode     string
	Title        string
	Message      string
	Payload      map[string]interface{}
	Status       OutboxStatus
	Attempts     int
	CreatedAt    time.Time
	DispatchedAt *time.Time
	DeliveredAt  *time.Time
}
