package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/gradebench/gradebench-api/internal/models"
)

// ResultRepository defines data operations for test case results.
type ResultRepository interface {
	Save(ctx context.Context, result *models.Result) error
	FindBySubmission(ctx context.Context, submissionID uint) ([]models.Result, error)
	DeleteBySubmission(ctx context.Context, submissionID uint) error
}

// NewResultRepository instantiates a GORM-backed result repository.
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

type resultRepository struct {
	db *gorm.DB
}

func (r *resultRepository) Save(ctx context.Context, result *models.Result) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *resultRepository) FindBySubmission(ctx context.Context, submissionID uint) ([]models.Result, error) {
	var results []models.Result
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("test_case_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteBySubmission discards stale results before a re-grade executes.
func (r *resultRepository) DeleteBySubmission(ctx context.Context, submissionID uint) error {
	return r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Delete(&models.Result{}).Error
}
