package entity

import (
	"time"

	"github.com/google/uuid"
)

// LessonStatus represents the lifecycle state of a lesson.
type LessonStatus string

const (
	LessonStatusScheduled LessonStatus = "scheduled"
	LessonStatusCancelled LessonStatus = "cancelled"
	LessonStatusCompleted LessonStatus = "completed"
)

// Lesson is the minimal lesson contract this core consumes. Lesson CRUD
// (creation, room/tutor assignment) is owned by the calendar module; the
// cancellation core only flips status and mutates the roster.
type Lesson struct {
	Id              uuid.UUID
	SubjectId       uuid.UUID
	TutorId         uuid.UUID
	RoomId          *uuid.UUID
	StartTime       time.Time
	EndTime         time.Time
	IsGroup         bool
	MaxParticipants int
	Status          LessonStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasCapacity reports whether one more student fits given the current
// roster size. Individual lessons take a single student only.
func (l *Lesson) HasCapacity(rosterSize int) bool {
	if !l.IsGroup {
		return rosterSize == 0
	}
	return rosterSize < l.MaxParticipants
}
