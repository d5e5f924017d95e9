package contract

import (
	"context"
	"time"

	"tutorium-be/internal/entity"

	"github.com/google/uuid"
)

// OutboxRepository defines operations on the notification outbox.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg *entity.OutboxMessage) error
	FindPending(ctx context.Context, limit int) ([]*entity.OutboxMessage, error)
	MarkDispatched(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error
	// MarkFailed increments the attempt counter and, past maxAttempts,
	// parks the row in the failed state.
	MarkFailed(ctx context.Context, id uuid.UUID, maxAttempts int) error
}
