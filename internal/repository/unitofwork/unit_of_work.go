package unitofwork

import (
	"context"

	"tutorium-be/internal/repository/contract"
)

// UnitOfWork is the transaction boundary of the cancellation core. Every
// read-then-write sequence that touches related records (approve request +
// cancel lesson + create credit + reconcile invoice; schedule makeup +
// update roster) runs between Begin and Commit so partial application is
// never observable.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	CancellationRepository() contract.CancellationRepository
	MakeupCreditRepository() contract.MakeupCreditRepository
	LessonRepository() contract.LessonRepository
	InvoiceRepository() contract.InvoiceRepository
	SequenceRepository() contract.SequenceRepository
	OutboxRepository() contract.OutboxRepository
	AuditLogRepository() contract.AuditLogRepository
	UserRepository() contract.UserRepository
}
