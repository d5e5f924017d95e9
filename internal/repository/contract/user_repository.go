package contract

import (
	"context"

	"tutorium-be/internal/entity"
	"tutorium-be/internal/repository/specification"
)

// UserRepository is a read-only view of the account directory, used to
// resolve notification recipients. Account management is external.
type UserRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
}
