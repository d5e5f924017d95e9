package implementation

import (
	"context"
	"encoding/json"
	"time"

	"tutorium-be/internal/entity"
	"tutorium-be/internal/model"
	"tutorium-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type outboxRepositoryImpl struct {
	db *gorm.DB
}

// NewOutboxRepository creates a new notification outbox repository.
func NewOutboxRepository(db *gorm.DB) contract.OutboxRepository {
	return &outboxRepositoryImpl{db: db}
}

func (r *outboxRepositoryImpl) Enqueue(ctx context.Context, msg *entity.OutboxMessage) error {
	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		return err
	}
	m := &model.NotificationOutbox{
		ID:       msg.Id,
		UserID:   msg.UserId,
		TypeCode: msg.TypeCode,
		Title:    msg.Title,
		Message:  msg.Message,
		Payload:  datatypes.JSON(payload),
		Status:   string(entity.OutboxStatusPending),
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *outboxRepositoryImpl) FindPending(ctx context.Context, limit int) ([]*entity.OutboxMessage, error) {
	var ms []*model.NotificationOutbox
	err := r.db.WithContext(ctx).
		Where("status = ?", string(entity.OutboxStatusPending)).
		Order("created_at ASC").
		Limit(limit).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	var msgs []*entity.OutboxMessage
	for _, m := range ms {
		msgs = append(msgs, r.mapToEntity(m))
	}
	return msgs, nil
}

func (r *outboxRepositoryImpl) MarkDispatched(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        string(entity.OutboxStatusDispatched),
			"dispatched_at": at,
		}).Error
}

func (r *outboxRepositoryImpl) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       string(entity.OutboxStatusDelivered),
			"delivered_at": at,
		}).Error
}

func (r *outboxRepositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, maxAttempts int) error {
	// Failed deliveries go back to pending until the attempt budget runs
	// out; the dispatcher will pick them up again.
	return r.db.WithContext(ctx).Exec(`
		UPDATE notification_outbox
		SET attempts = attempts + 1,
		    status = CASE WHEN attempts + 1 >= ? THEN 'failed' ELSE 'pending' END
		WHERE id = ?`,
		maxAttempts, id,
	).Error
}

func (r *outboxRepositoryImpl) mapToEntity(m *model.NotificationOutbox) *entity.OutboxMessage {
	var payload map[string]interface{}
	if len(m.Payload) > 0 {
		_ = json.Unmarshal(m.Payload, &payload)
	}
	return &entity.OutboxMessage{
		Id:           m.ID,
		UserId:       m.UserID,
		TypeCode:     m.TypeCode,
		Title:        m.Title,
		Message:      m.Message,
		Payload:      payload,
		Status:       entity.OutboxStatus(m.Status),
		Attempts:     m.Attempts,
		CreatedAt:    m.CreatedAt,
		DispatchedAt: m.DispatchedAt,
		DeliveredAt:  m.DeliveredAt,
	}
}
