package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gradebench/gradebench-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.Assignment{},
		&models.TestCase{},
		&models.Submission{},
		&models.Result{},
		&models.Hint{},
	))
	return db
}

func seedAssignment(t *testing.T, db *gorm.DB) (models.User, models.Assignment) {
	t.Helper()
	instructor := models.User{Name: "Prof. Ada", Email: "ada@example.com", Role: models.RoleInstructor, PasswordHash: "x"}
	require.NoError(t, db.Create(&instructor).Error)
	student := models.User{Name: "Sam Lee", Email: "sam@example.com", Role: models.RoleStudent, PasswordHash: "x"}
	require.NoError(t, db.Create(&student).Error)

	course := models.Course{InstructorID: instructor.ID, Code: "CS101", Title: "Intro"}
	require.NoError(t, db.Create(&course).Error)

	assignment := models.Assignment{CourseID: course.ID, Title: "FizzBuzz", DueDate: time.Now().Add(24 * time.Hour), MaxPoints: 100}
	require.NoError(t, db.Create(&assignment).Error)
	return student, assignment
}

func TestSubmissionRepositoryAssignsIncreasingVersions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	student, assignment := seedAssignment(t, db)

	for expected := 1; expected <= 3; expected++ {
		submission, err := models.NewSubmission(assignment.ID, student.ID, 0, models.LanguagePython, models.SubmissionStatusPending, false)
		require.NoError(t, err)
		require.NoError(t, repo.CreateNextVersion(context.Background(), &submission))
		require.Equal(t, expected, submission.Version)
	}

	latest, err := repo.GetLatest(context.Background(), student.ID, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, 3, latest.Version)
}

func TestSubmissionRepositoryVersionsAreScopedPerStudent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	student, assignment := seedAssignment(t, db)

	other := models.User{Name: "Kim Park", Email: "kim@example.com", Role: models.RoleStudent, PasswordHash: "x"}
	require.NoError(t, db.Create(&other).Error)

	first, err := models.NewSubmission(assignment.ID, student.ID, 0, models.LanguagePython, models.SubmissionStatusPending, false)
	require.NoError(t, err)
	require.NoError(t, repo.CreateNextVersion(context.Background(), &first))

	second, err := models.NewSubmission(assignment.ID, other.ID, 0, models.LanguageJava, models.SubmissionStatusPending, false)
	require.NoError(t, err)
	require.NoError(t, repo.CreateNextVersion(context.Background(), &second))

	require.Equal(t, 1, first.Version)
	require.Equal(t, 1, second.Version)
}

func TestSubmissionRepositoryRejectsDuplicateVersions(t *testing.T) {
	db := setupTestDB(t)
	student, assignment := seedAssignment(t, db)

	a := models.Submission{AssignmentID: assignment.ID, StudentID: student.ID, Version: 1, Language: models.LanguagePython, Status: models.SubmissionStatusPending}
	require.NoError(t, db.Create(&a).Error)

	b := models.Submission{AssignmentID: assignment.ID, StudentID: student.ID, Version: 1, Language: models.LanguagePython, Status: models.SubmissionStatusPending}
	err := db.Create(&b).Error
	require.Error(t, err)
	require.True(t, isDuplicateKey(err))
}

func TestSubmissionRepositoryListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	student, assignment := seedAssignment(t, db)

	pending := models.Submission{AssignmentID: assignment.ID, StudentID: student.ID, Version: 1, Language: models.LanguagePython, Status: models.SubmissionStatusPending}
	graded := models.Submission{AssignmentID: assignment.ID, StudentID: student.ID, Version: 2, Language: models.LanguagePython, Status: models.SubmissionStatusGraded}
	require.NoError(t, db.Create(&pending).Error)
	require.NoError(t, db.Create(&graded).Error)

	status := models.SubmissionStatusGraded
	listed, err := repo.List(context.Background(), SubmissionFilter{StudentID: &student.ID, Status: &status})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, 2, listed[0].Version)
}
