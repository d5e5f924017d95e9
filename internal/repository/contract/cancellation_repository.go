package contract

import (
	"context"

	"tutorium-be/internal/entity"
	"tutorium-be/internal/repository/specification"
)

// CancellationRepository defines operations for lesson cancellation
// requests.
type CancellationRepository interface {
	Create(ctx context.Context, request *entity.CancellationRequest) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CancellationRequest, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CancellationRequest, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	Update(ctx context.Context, request *entity.CancellationRequest) error
}
