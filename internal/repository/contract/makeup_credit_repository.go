package contract

import (
	"context"

	"tutorium-be/internal/entity"
	"tutorium-be/internal/repository/specification"
)

// MakeupCreditRepository defines operations for makeup credits.
type MakeupCreditRepository interface {
	Create(ctx context.Context, credit *entity.MakeupCredit) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MakeupCredit, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MakeupCredit, error)
	Update(ctx context.Context, credit *entity.MakeupCredit) error
}
