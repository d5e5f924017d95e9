package contract

import (
	"context"

	"tutorium-be/internal/entity"
	"tutorium-be/internal/repository/specification"

	"github.com/google/uuid"
)

// LessonRepository is the contract through which the cancellation core
// touches lessons and their rosters. All writes go through here so the
// roster invariants hold (spec'd by the calendar module).
type LessonRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Lesson, error)
	// FindOneForUpdate locks the lesson row for the remainder of the
	// transaction. Used for the commit-time capacity re-check.
	FindOneForUpdate(ctx context.Context, id uuid.UUID) (*entity.Lesson, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Lesson, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.LessonStatus) error
	AddStudent(ctx context.Context, lessonId, studentId uuid.UUID) error
	RemoveStudent(ctx context.Context, lessonId, studentId uuid.UUID) error
	RosterSize(ctx context.Context, lessonId uuid.UUID) (int, error)
	IsEnrolled(ctx context.Context, lessonId, studentId uuid.UUID) (bool, error)
}
