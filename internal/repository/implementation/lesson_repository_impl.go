package implementation

import (
	"context"

	"tutorium-be/internal/entity"
	"tutorium-be/internal/model"
	"tutorium-be/internal/repository/contract"
	"tutorium-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type lessonRepositoryImpl struct {
	db *gorm.DB
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(db *gorm.DB) contract.LessonRepository {
	return &lessonRepositoryImpl{db: db}
}

func (r *lessonRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Lesson, error) {
	var m model.Lesson
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

// FindOneForUpdate takes a row lock so the capacity re-check inside
// ScheduleMakeup serializes with concurrent bookings of the same lesson.
func (r *lessonRepositoryImpl) FindOneForUpdate(ctx context.Context, id uuid.UUID) (*entity.Lesson, error) {
	var m model.Lesson
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.mapToEntity(&m), nil
}

func (r *lessonRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Lesson, error) {
	var ms []*model.Lesson
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	var lessons []*entity.Lesson
	for _, m := range ms {
		lessons = append(lessons, r.mapToEntity(m))
	}
	return lessons, nil
}

func (r *lessonRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.LessonStatus) error {
	return r.db.WithContext(ctx).Model(&model.Lesson{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
}

func (r *lessonRepositoryImpl) AddStudent(ctx context.Context, lessonId, studentId uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&model.LessonEnrollment{
		LessonID:  lessonId,
		StudentID: studentId,
	}).Error
}

func (r *lessonRepositoryImpl) RemoveStudent(ctx context.Context, lessonId, studentId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("lesson_id = ? AND student_id = ?", lessonId, studentId).
		Delete(&model.LessonEnrollment{}).Error
}

func (r *lessonRepositoryImpl) RosterSize(ctx context.Context, lessonId uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.LessonEnrollment{}).
		Where("lesson_id = ?", lessonId).
		Count(&count).Error
	return int(count), err
}

func (r *lessonRepositoryImpl) IsEnrolled(ctx context.Context, lessonId, studentId uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.LessonEnrollment{}).
		Where("lesson_id = ? AND student_id = ?", lessonId, studentId).
		Count(&count).Error
	return count > 0, err
}

func (r *lessonRepositoryImpl) mapToEntity(m *model.Lesson) *entity.Lesson {
	return &entity.Lesson{
		Id:              m.ID,
		SubjectId:       m.SubjectID,
		TutorId:         m.TutorID,
		RoomId:          m.RoomID,
		StartTime:       m.StartTime,
		EndTime:         m.EndTime,
		IsGroup:         m.IsGroup,
		MaxParticipants: m.MaxParticipants,
		Status:          entity.LessonStatus(m.Status),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
