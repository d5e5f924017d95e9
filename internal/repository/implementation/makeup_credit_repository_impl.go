package implementation

import (
	"context"
	"encoding/json"

	"tutorium-be/internal/entity"
	"tutorium-be/internal/model"
	"tutorium-be/internal/repository/contract"
	"tutorium-be/internal/repository/specification"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type makeupCreditRepositoryImpl struct {
	db *gorm.DB
}

// NewMakeupCreditRepository creates a new makeup credit repository.
func NewMakeupCreditRepository(db *gorm.DB) contract.MakeupCreditRepository {
	return &makeupCreditRepositoryImpl{db: db}
}

func (r *makeupCreditRepositoryImpl) Create(ctx context.Context, credit *entity.MakeupCredit) error {
	m, err := r.mapToModel(credit)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *makeupCreditRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MakeupCredit, error) {
	var m model.MakeupCredit
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.First(&m).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.mapToEntity(&m), nil
}

func (r *makeupCreditRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MakeupCredit, error) {
	var ms []*model.MakeupCredit
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	var credits []*entity.MakeupCredit
	for _, m := range ms {
		credits = append(credits, r.mapToEntity(m))
	}
	return credits, nil
}

func (r *makeupCreditRepositoryImpl) Update(ctx context.Context, credit *entity.MakeupCredit) error {
	notes, err := json.Marshal(credit.Notes)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&model.MakeupCredit{}).
		Where("id = ?", credit.Id).
		Updates(map[string]interface{}{
			"bound_lesson_id": credit.BoundLessonId,
			"status":          string(credit.Status),
			"expires_at":      credit.ExpiresAt,
			"notes":           datatypes.JSON(notes),
		}).Error
}

func (r *makeupCreditRepositoryImpl) mapToModel(c *entity.MakeupCredit) (*model.MakeupCredit, error) {
	notes, err := json.Marshal(c.Notes)
	if err != nil {
		return nil, err
	}
	return &model.MakeupCredit{
		ID:               c.Id,
		StudentID:        c.StudentId,
		OriginalLessonID: c.OriginalLessonId,
		BoundLessonID:    c.BoundLessonId,
		Status:           string(c.Status),
		IssuedAt:         c.IssuedAt,
		ExpiresAt:        c.ExpiresAt,
		ValiditySeconds:  c.ValiditySeconds,
		Notes:            datatypes.JSON(notes),
	}, nil
}

func (r *makeupCreditRepositoryImpl) mapToEntity(m *model.MakeupCredit) *entity.MakeupCredit {
	var notes []entity.CreditNoteEntry
	if len(m.Notes) > 0 {
		// Corrupt note logs should not make the credit unreadable.
		_ = json.Unmarshal(m.Notes, &notes)
	}
	return &entity.MakeupCredit{
		Id:               m.ID,
		StudentId:        m.StudentID,
		OriginalLessonId: m.OriginalLessonID,
		BoundLessonId:    m.BoundLessonID,
		Status:           entity.MakeupCreditStatus(m.Status),
		IssuedAt:         m.IssuedAt,
		ExpiresAt:        m.ExpiresAt,
		ValiditySeconds:  m.ValiditySeconds,
		Notes:            notes,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
