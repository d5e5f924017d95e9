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

type auditLogRepositoryImpl struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository.
func NewAuditLogRepository(db *gorm.DB) contract.AuditLogRepository {
	return &auditLogRepositoryImpl{db: db}
}

func (r *auditLogRepositoryImpl) Record(ctx context.Context, entry *entity.AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	m := &model.AuditLog{
		ID:         entry.Id,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityId,
		Action:     entry.Action,
		Actor:      entry.Actor,
		Details:    datatypes.JSON(details),
		OccurredAt: entry.OccurredAt,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// Exists checks for an entry on the UTC calendar day containing onDate.
func (r *auditLogRepositoryImpl) Exists(ctx context.Context, entityType string, entityId uuid.UUID, action string, onDate time.Time) (bool, error) {
	day := onDate.UTC().Truncate(24 * time.Hour)
	next := day.Add(24 * time.Hour)

	var count int64
	err := r.db.WithContext(ctx).Model(&model.AuditLog{}).
		Where("entity_type = ? AND entity_id = ? AND action = ?", entityType, entityId, action).
		Where("occurred_at >= ? AND occurred_at < ?", day, next).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
