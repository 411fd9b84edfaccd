package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradebench/gradebench-api/internal/dto"
	"github.com/gradebench/gradebench-api/internal/models"
	"github.com/gradebench/gradebench-api/internal/repository"
)

// ErrCourseNotFound indicates the course could not be located.
var ErrCourseNotFound = errors.New("course not found")

// ErrNotCourseOwner indicates the acting instructor does not own the course.
var ErrNotCourseOwner = errors.New("instructor does not own this course")

// ErrAlreadyEnrolled indicates a duplicate enrollment attempt.
var ErrAlreadyEnrolled = errors.New("student already enrolled")

// ErrEnrollmentNotFound indicates the enrollment could not be located.
var ErrEnrollmentNotFound = errors.New("enrollment not found")

// CourseService manages courses and enrollments.
type CourseService interface {
	Create(ctx context.Context, instructorID uint, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	List(ctx context.Context) ([]dto.CourseResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	Enroll(ctx context.Context, studentID, courseID uint) (dto.EnrollmentResponse, error)
	Drop(ctx context.Context, studentID, courseID uint) (dto.EnrollmentResponse, error)
}

type courseService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:     courses,
		enrollments: enrollments,
		validator:   validate,
		logger:      logger.With().Str("component", "course_service").Logger(),
		now:         time.Now,
	}
}

func (s *courseService) Create(ctx context.Context, instructorID uint, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		InstructorID: instructorID,
		Code:         payload.Code,
		Title:        payload.Title,
		Description:  payload.Description,
	}
	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Uint("instructor_id", instructorID).Msg("course created")
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) List(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Enroll(ctx context.Context, studentID, courseID uint) (dto.EnrollmentResponse, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrCourseNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	existing, err := s.enrollments.Get(ctx, studentID, courseID)
	switch {
	case err == nil && existing.IsActive():
		return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
	case err == nil:
		// Re-enrolling after a drop reactivates the existing record.
		existing.Status = models.EnrollmentStatusEnrolled
		existing.DroppedAt = nil
		if err := s.enrollments.Update(ctx, &existing); err != nil {
			return dto.EnrollmentResponse{}, err
		}
		return dto.NewEnrollmentResponse(existing), nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.EnrollmentResponse{}, err
	}

	enrollment := models.Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		Status:     models.EnrollmentStatusEnrolled,
		EnrolledAt: s.now(),
	}
	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	s.logger.Info().Uint("student_id", studentID).Uint("course_id", courseID).Msg("student enrolled")
	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *courseService) Drop(ctx context.Context, studentID, courseID uint) (dto.EnrollmentResponse, error) {
	enrollment, err := s.enrollments.Get(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrEnrollmentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	enrollment.Drop(s.now())
	if err := s.enrollments.Update(ctx, &enrollment); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	return dto.NewEnrollmentResponse(enrollment), nil
}
