package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByLessonAndStudent narrows to one (lesson, student) pair.
type ByLessonAndStudent struct {
	LessonID  uuid.UUID
	StudentID uuid.UUID
}

func (s ByLessonAndStudent) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("lesson_id = ? AND student_id = ?", s.LessonID, s.StudentID)
}

// OwnedByStudent filters by the requesting student.
type OwnedByStudent struct {
	StudentID uuid.UUID
}

func (s OwnedByStudent) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("student_id = ?", s.StudentID)
}

// ReviewedBetween selects requests reviewed in [From, To). Used for the
// monthly quota count over calendar-month boundaries.
type ReviewedBetween struct {
	From time.Time
	To   time.Time
}

func (s ReviewedBetween) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("reviewed_at >= ? AND reviewed_at < ?", s.From, s.To)
}
