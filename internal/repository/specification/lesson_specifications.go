package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BySubjectAndTutor matches lessons teachable as a replacement for the
// original (same subject, same tutor).
type BySubjectAndTutor struct {
	SubjectID uuid.UUID
	TutorID   uuid.UUID
}

func (s BySubjectAndTutor) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("subject_id = ? AND tutor_id = ?", s.SubjectID, s.TutorID)
}

// StartingAfter keeps lessons that start at or after T.
type StartingAfter struct {
	T time.Time
}

func (s StartingAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("start_time >= ?", s.T)
}

// StartingBefore bounds the search horizon.
type StartingBefore struct {
	T time.Time
}

func (s StartingBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("start_time < ?", s.T)
}
