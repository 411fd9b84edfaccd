package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repos bundles transaction-scoped repositories so a service can run a
// multi-step operation against a single database transaction.
type Repos struct {
	Users       UserRepository
	Courses     CourseRepository
	Enrollments EnrollmentRepository
	Assignments AssignmentRepository
	TestCases   TestCaseRepository
	Submissions SubmissionRepository
	Results     ResultRepository
}

// TxManager runs a function inside one database transaction. Any error
// returned by fn rolls the whole transaction back, so partial writes never
// become visible.
type TxManager interface {
	Do(ctx context.Context, fn func(r Repos) error) error
}

type gormTxManager struct {
	db *gorm.DB
}

// NewTxManager builds a GORM-backed transaction manager.
func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) Do(ctx context.Context, fn func(r Repos) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repos{
			Users:       NewUserRepository(tx),
			Courses:     NewCourseRepository(tx),
			Enrollments: NewEnrollmentRepository(tx),
			Assignments: NewAssignmentRepository(tx),
			TestCases:   NewTestCaseRepository(tx),
			Submissions: NewSubmissionRepository(tx),
			Results:     NewResultRepository(tx),
		})
	})
}
