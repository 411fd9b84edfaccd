package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/gradebench/gradebench-api/internal/models"
)

// HintRepository defines data operations for AI hints.
type HintRepository interface {
	Save(ctx context.Context, hint *models.Hint) error
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.Hint, error)
}

// NewHintRepository instantiates a GORM-backed hint repository.
func NewHintRepository(db *gorm.DB) HintRepository {
	return &hintRepository{db: db}
}

type hintRepository struct {
	db *gorm.DB
}

func (r *hintRepository) Save(ctx context.Context, hint *models.Hint) error {
	return r.db.WithContext(ctx).Create(hint).Error
}

func (r *hintRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Hint, error) {
	var hints []models.Hint
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&hints).Error; err != nil {
		return nil, err
	}
	return hints, nil
}
