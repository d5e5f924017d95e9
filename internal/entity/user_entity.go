package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the read-only slice of the account directory this core needs to
// address notifications. Account management lives in the user module.
type User struct {
	Id        uuid.UUID
	Email     string
	FullName  string
	Role      string
	CreatedAt time.Time
}
