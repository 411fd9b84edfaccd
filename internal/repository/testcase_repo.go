package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/gradebench/gradebench-api/internal/models"
)

// TestCaseRepository defines persistence operations for test cases.
type TestCaseRepository interface {
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.TestCase, error)
	ListVisibleByAssignment(ctx context.Context, assignmentID uint) ([]models.TestCase, error)
	GetByID(ctx context.Context, id uint) (models.TestCase, error)
	Create(ctx context.Context, testCase *models.TestCase) error
	Update(ctx context.Context, testCase *models.TestCase) error
	Delete(ctx context.Context, id uint) error
}

// NewTestCaseRepository instantiates a GORM-backed test case repository.
func NewTestCaseRepository(db *gorm.DB) TestCaseRepository {
	return &testCaseRepository{db: db}
}

type testCaseRepository struct {
	db *gorm.DB
}

func (r *testCaseRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.TestCase, error) {
	var testCases []models.TestCase
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("sort_order ASC, id ASC").
		Find(&testCases).Error; err != nil {
		return nil, err
	}
	return testCases, nil
}

func (r *testCaseRepository) ListVisibleByAssignment(ctx context.Context, assignmentID uint) ([]models.TestCase, error) {
	var testCases []models.TestCase
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND is_visible = ?", assignmentID, true).
		Order("sort_order ASC, id ASC").
		Find(&testCases).Error; err != nil {
		return nil, err
	}
	return testCases, nil
}

func (r *testCaseRepository) GetByID(ctx context.Context, id uint) (models.TestCase, error) {
	var testCase models.TestCase
	if err := r.db.WithContext(ctx).First(&testCase, id).Error; err != nil {
		return models.TestCase{}, err
	}
	return testCase, nil
}

func (r *testCaseRepository) Create(ctx context.Context, testCase *models.TestCase) error {
	return r.db.WithContext(ctx).Create(testCase).Error
}

func (r *testCaseRepository) Update(ctx context.Context, testCase *models.TestCase) error {
	return r.db.WithContext(ctx).Save(testCase).Error
}

func (r *testCaseRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.TestCase{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
