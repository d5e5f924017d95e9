package model

import (
	"time"

	"github.com/google/uuid"
)

// Lesson GORM model. Owned by the calendar module; this core updates
// status and the enrollment rows only.
type Lesson struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SubjectID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_lessons_subject_tutor"`
	TutorID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_lessons_subject_tutor"`
	RoomID          *uuid.UUID `gorm:"type:uuid"`
	StartTime       time.Time  `gorm:"not null;index"`
	EndTime         time.Time  `gorm:"not null"`
	IsGroup         bool       `gorm:"not null;default:false"`
	MaxParticipants int        `gorm:"not null;default:1"`
	Status          string     `gorm:"type:varchar(50);not null;default:'scheduled';index"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// LessonEnrollment is one roster membership row.
type LessonEnrollment struct {
	LessonID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	StudentID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (LessonEnrollment) TableName() string {
	return "lesson_enrollments"
}
