package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gradebench/gradebench-api/internal/models"
)

// ErrVersionConflict is returned when concurrent submissions exhaust the
// retry budget for assigning the next version.
var ErrVersionConflict = errors.New("submission version conflict")

const versionRetries = 3

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	AssignmentID *uint
	StudentID    *uint
	Status       *string
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByIDForUpdate(ctx context.Context, id uint) (models.Submission, error)
	GetLatest(ctx context.Context, studentID, assignmentID uint) (models.Submission, error)
	CreateNextVersion(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
}

// NewSubmissionRepository instantiates a GORM-backed submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{})

	if filter.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *filter.AssignmentID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

// GetByIDForUpdate loads a submission under a row lock. Callers must be
// inside a transaction for the lock to outlive the query.
func (r *submissionRepository) GetByIDForUpdate(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.lockRows(r.db.WithContext(ctx)).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) GetLatest(ctx context.Context, studentID, assignmentID uint) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND assignment_id = ?", studentID, assignmentID).
		Order("version DESC").
		First(&submission).Error
	if err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

// CreateNextVersion assigns version = latest + 1 (or 1) and persists the
// submission in one transaction. Two concurrent submits for the same
// (student, assignment) pair race on the unique version index; the loser
// recomputes from a fresh read instead of reusing the stale version.
func (r *submissionRepository) CreateNextVersion(ctx context.Context, submission *models.Submission) error {
	for attempt := 0; attempt < versionRetries; attempt++ {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var latest models.Submission
			err := r.lockRows(tx).
				Where("student_id = ? AND assignment_id = ?", submission.StudentID, submission.AssignmentID).
				Order("version DESC").
				First(&latest).Error
			switch {
			case err == nil:
				submission.Version = latest.Version + 1
			case errors.Is(err, gorm.ErrRecordNotFound):
				submission.Version = 1
			default:
				return err
			}
			return tx.Create(submission).Error
		})
		if err == nil {
			return nil
		}
		if !isDuplicateKey(err) {
			return err
		}
		submission.ID = 0
	}
	return ErrVersionConflict
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

// lockRows adds FOR UPDATE on dialects that support it. SQLite, used by the
// test suite, serializes writers on its own and rejects the clause.
func (r *submissionRepository) lockRows(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
