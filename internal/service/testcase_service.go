package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradebench/gradebench-api/internal/dto"
	"github.com/gradebench/gradebench-api/internal/models"
	"github.com/gradebench/gradebench-api/internal/repository"
)

// ErrTestCaseNotFound indicates the test case could not be located.
var ErrTestCaseNotFound = errors.New("test case not found")

// TestCaseService manages the test case set of an assignment. Every mutation
// verifies the acting instructor owns the assignment's course, and every
// payload is validated in full before any row changes.
type TestCaseService interface {
	ListForUser(ctx context.Context, assignmentID uint, role string) ([]dto.TestCaseResponse, error)
	Create(ctx context.Context, instructorID, assignmentID uint, payload dto.TestCaseCreateRequest) (dto.TestCaseResponse, error)
	Update(ctx context.Context, instructorID, id uint, payload dto.TestCaseUpdateRequest) (dto.TestCaseResponse, error)
	Delete(ctx context.Context, instructorID, id uint) error
}

type testCaseService struct {
	testCases   repository.TestCaseRepository
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewTestCaseService constructs a TestCaseService instance.
func NewTestCaseService(testCases repository.TestCaseRepository, assignments repository.AssignmentRepository, courses repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) TestCaseService {
	return &testCaseService{
		testCases:   testCases,
		assignments: assignments,
		courses:     courses,
		validator:   validate,
		logger:      logger.With().Str("component", "testcase_service").Logger(),
	}
}

// ListForUser returns the assignment's test cases filtered by role: students
// only ever see visible ones, instructors and admins see the full set.
func (s *testCaseService) ListForUser(ctx context.Context, assignmentID uint, role string) ([]dto.TestCaseResponse, error) {
	if _, err := s.assignments.GetByID(ctx, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	var (
		testCases []models.TestCase
		err       error
	)
	if role == models.RoleStudent {
		testCases, err = s.testCases.ListVisibleByAssignment(ctx, assignmentID)
	} else {
		testCases, err = s.testCases.ListByAssignment(ctx, assignmentID)
	}
	if err != nil {
		return nil, err
	}
	return dto.NewTestCaseResponseSlice(testCases), nil
}

func (s *testCaseService) Create(ctx context.Context, instructorID, assignmentID uint, payload dto.TestCaseCreateRequest) (dto.TestCaseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TestCaseResponse{}, err
	}

	if err := s.verifyAssignmentOwner(ctx, instructorID, assignmentID); err != nil {
		return dto.TestCaseResponse{}, err
	}

	testCase := models.TestCase{
		AssignmentID:  assignmentID,
		Name:          payload.Name,
		Description:   payload.Description,
		Stdin:         payload.Stdin,
		ExpectedOut:   payload.ExpectedOut,
		Points:        payload.Points,
		IsVisible:     payload.IsVisible,
		TimeoutMs:     payload.TimeoutMs,
		MemoryLimitMB: payload.MemoryLimitMB,
		SortOrder:     payload.SortOrder,
	}
	if testCase.TimeoutMs == 0 {
		testCase.TimeoutMs = 5000
	}
	if testCase.MemoryLimitMB == 0 {
		testCase.MemoryLimitMB = 256
	}

	if err := testCase.Validate(); err != nil {
		return dto.TestCaseResponse{}, err
	}

	if err := s.testCases.Create(ctx, &testCase); err != nil {
		return dto.TestCaseResponse{}, err
	}

	s.logger.Info().Uint("test_case_id", testCase.ID).Uint("assignment_id", assignmentID).Msg("test case created")
	return dto.NewTestCaseResponse(testCase), nil
}

// Update applies a partial edit. The merged record is validated before any
// write, so an invalid field rejects the whole update and leaves the stored
// test case untouched.
func (s *testCaseService) Update(ctx context.Context, instructorID, id uint, payload dto.TestCaseUpdateRequest) (dto.TestCaseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TestCaseResponse{}, err
	}

	testCase, err := s.testCases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TestCaseResponse{}, ErrTestCaseNotFound
		}
		return dto.TestCaseResponse{}, err
	}

	if err := s.verifyAssignmentOwner(ctx, instructorID, testCase.AssignmentID); err != nil {
		return dto.TestCaseResponse{}, err
	}

	if payload.Name != nil {
		testCase.Name = *payload.Name
	}
	if payload.Description != nil {
		testCase.Description = *payload.Description
	}
	if payload.Stdin != nil {
		testCase.Stdin = *payload.Stdin
	}
	if payload.ExpectedOut != nil {
		testCase.ExpectedOut = *payload.ExpectedOut
	}
	if payload.Points != nil {
		testCase.Points = *payload.Points
	}
	if payload.IsVisible != nil {
		testCase.IsVisible = *payload.IsVisible
	}
	if payload.TimeoutMs != nil {
		testCase.TimeoutMs = *payload.TimeoutMs
	}
	if payload.MemoryLimitMB != nil {
		testCase.MemoryLimitMB = *payload.MemoryLimitMB
	}
	if payload.SortOrder != nil {
		testCase.SortOrder = *payload.SortOrder
	}

	if err := testCase.Validate(); err != nil {
		return dto.TestCaseResponse{}, err
	}

	if err := s.testCases.Update(ctx, &testCase); err != nil {
		return dto.TestCaseResponse{}, err
	}
	return dto.NewTestCaseResponse(testCase), nil
}

func (s *testCaseService) Delete(ctx context.Context, instructorID, id uint) error {
	testCase, err := s.testCases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTestCaseNotFound
		}
		return err
	}

	if err := s.verifyAssignmentOwner(ctx, instructorID, testCase.AssignmentID); err != nil {
		return err
	}

	if err := s.testCases.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTestCaseNotFound
		}
		return err
	}

	s.logger.Info().Uint("test_case_id", id).Uint("instructor_id", instructorID).Msg("test case deleted")
	return nil
}

func (s *testCaseService) verifyAssignmentOwner(ctx context.Context, instructorID, assignmentID uint) error {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	course, err := s.courses.GetByID(ctx, assignment.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	if course.InstructorID != instructorID {
		return ErrNotCourseOwner
	}
	return nil
}
