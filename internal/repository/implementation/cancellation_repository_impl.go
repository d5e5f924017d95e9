package implementation

import (
	"context"

	"tutorium-be/internal/entity"
	"tutorium-be/internal/model"
	"tutorium-be/internal/repository/contract"
	"tutorium-be/internal/repository/specification"

	"gorm.io/gorm"
)

type cancellationRepositoryImpl struct {
	db *gorm.DB
}

// NewCancellationRepository creates a new cancellation request repository.
func NewCancellationRepository(db *gorm.DB) contract.CancellationRepository {
	return &cancellationRepositoryImpl{db: db}
}

func (r *cancellationRepositoryImpl) Create(ctx context.Context, request *entity.CancellationRequest) error {
	m := &model.CancellationRequest{
		ID:          request.Id,
		LessonID:    request.LessonId,
		StudentID:   request.StudentId,
		Reason:      request.Reason,
		Status:      string(request.Status),
		RequestedAt: request.RequestedAt,
		ReviewedBy:  request.ReviewedBy,
		ReviewedAt:  request.ReviewedAt,
		ReviewNotes: request.ReviewNotes,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *cancellationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CancellationRequest, error) {
	var m model.CancellationRequest
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

func (r *cancellationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CancellationRequest, error) {
	var ms []*model.CancellationRequest
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	var requests []*entity.CancellationRequest
	for _, m := range ms {
		requests = append(requests, r.mapToEntity(m))
	}
	return requests, nil
}

func (r *cancellationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.CancellationRequest{})
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *cancellationRepositoryImpl) Update(ctx context.Context, request *entity.CancellationRequest) error {
	return r.db.WithContext(ctx).Model(&model.CancellationRequest{}).
		Where("id = ?", request.Id).
		Updates(map[string]interface{}{
			"status":       string(request.Status),
			"reviewed_by":  request.ReviewedBy,
			"reviewed_at":  request.ReviewedAt,
			"review_notes": request.ReviewNotes,
		}).Error
}

func (r *cancellationRepositoryImpl) mapToEntity(m *model.CancellationRequest) *entity.CancellationRequest {
	return &entity.CancellationRequest{
		Id:          m.ID,
		LessonId:    m.LessonID,
		StudentId:   m.StudentID,
		Reason:      m.Reason,
		Status:      entity.CancellationStatus(m.Status),
		RequestedAt: m.RequestedAt,
		ReviewedBy:  m.ReviewedBy,
		ReviewedAt:  m.ReviewedAt,
		ReviewNotes: m.ReviewNotes,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
