package implementation

import (
	"context"

	"tutorium-be/internal/repository/contract"

	"gorm.io/gorm"
)

type sequenceRepositoryImpl struct {
	db *gorm.DB
}

// NewSequenceRepository creates a new sequence counter repository.
func NewSequenceRepository(db *gorm.DB) contract.SequenceRepository {
	return &sequenceRepositoryImpl{db: db}
}

// Next returns the next number for (prefix, year, month). The upsert is a
// single statement, so the database serializes concurrent issuers and the
// sequence stays gap-free and strictly increasing.
func (r *sequenceRepositoryImpl) Next(ctx context.Context, prefix string, year, month int) (int64, error) {
	var counter int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO sequence_counters (prefix, year, month, counter)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (prefix, year, month)
		DO UPDATE SET counter = sequence_counters.counter + 1
		RETURNING counter`,
		prefix, year, month,
	).Scan(&counter).Error
	if err != nil {
		return 0, err
	}
	return counter, nil
}
