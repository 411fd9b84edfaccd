package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradebench/gradebench-api/internal/dto"
	"github.com/gradebench/gradebench-api/internal/models"
	"github.com/gradebench/gradebench-api/internal/observability"
	"github.com/gradebench/gradebench-api/internal/repository"
)

// ErrSubmissionNotFound indicates the submission could not be located.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrNotEnrolled indicates the student has no active enrollment in the
// assignment's course. Distinct from not-found so callers can render
// "access denied" instead of "404".
var ErrNotEnrolled = errors.New("student not enrolled in course")

// ErrSubmissionForbidden indicates the caller may not view or act on the submission.
var ErrSubmissionForbidden = errors.New("forbidden")

// ErrInvalidTransition indicates a lifecycle operation that does not apply
// to the submission's current status.
var ErrInvalidTransition = errors.New("invalid submission state transition")

// ErrSourceNotText indicates the submitted source is not plain text.
var ErrSourceNotText = errors.New("submission source must be plain text")

// GradingQueuedSubject is the NATS subject grading jobs are published on.
const GradingQueuedSubject = "gradebench.grading.queued"

// GradingJob is the payload published when a submission enters the queue.
type GradingJob struct {
	SubmissionID uint      `json:"submission_id"`
	Regrade      bool      `json:"regrade"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

// SubmissionService orchestrates the submission lifecycle: create with
// version assignment and late detection, enqueue for grading, re-grade.
type SubmissionService interface {
	Submit(ctx context.Context, studentID uint, payload dto.SubmitRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint, viewerID uint, role string) (dto.SubmissionResponse, error)
	List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	EnqueueForGrading(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	Regrade(ctx context.Context, id uint, instructorID uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	txm         repository.TxManager
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	queue       *nats.Conn
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance. The NATS
// connection may be nil, in which case queued submissions wait until a
// worker polls for them.
func NewSubmissionService(txm repository.TxManager, submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, enrollments repository.EnrollmentRepository, courses repository.CourseRepository, queue *nats.Conn, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		txm:         txm,
		submissions: submissions,
		assignments: assignments,
		enrollments: enrollments,
		courses:     courses,
		queue:       queue,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// Submit creates a new pending submission. The version is assigned inside a
// transaction so concurrent submits by the same student never share one, and
// lateness is stamped exactly once against the due date in force right now.
func (s *submissionService) Submit(ctx context.Context, studentID uint, payload dto.SubmitRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !sourceIsText(payload.Source) {
		return dto.SubmissionResponse{}, ErrSourceNotText
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	enrollment, err := s.enrollments.Get(ctx, studentID, assignment.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrNotEnrolled
		}
		return dto.SubmissionResponse{}, err
	}
	if !enrollment.IsActive() {
		return dto.SubmissionResponse{}, ErrNotEnrolled
	}

	isLate := s.now().After(assignment.DueDate)

	submission, err := models.NewSubmission(assignment.ID, studentID, 0, payload.Language, models.SubmissionStatusPending, isLate)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	submission.Source = payload.Source

	if err := s.submissions.CreateNextVersion(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsCreated().WithLabelValues(submission.Language).Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("student_id", studentID).
		Int("version", submission.Version).
		Bool("is_late", submission.IsLate).
		Msg("submission created")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Get(ctx context.Context, id uint, viewerID uint, role string) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if role == models.RoleStudent && submission.StudentID != viewerID {
		return dto.SubmissionResponse{}, ErrSubmissionForbidden
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		AssignmentID: filter.AssignmentID,
		StudentID:    filter.StudentID,
		Status:       filter.Status,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

// EnqueueForGrading moves a pending submission to queued. Calling it on a
// submission that is already queued is a no-op; any other status rejects the
// transition.
func (s *submissionService) EnqueueForGrading(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	var submission models.Submission
	enqueued := false

	err := s.txm.Do(ctx, func(r repository.Repos) error {
		var err error
		submission, err = r.Submissions.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}

		switch submission.Status {
		case models.SubmissionStatusQueued:
			return nil
		case models.SubmissionStatusPending:
			submission.Status = models.SubmissionStatusQueued
			enqueued = true
			return r.Submissions.Update(ctx, &submission)
		default:
			return ErrInvalidTransition
		}
	})
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if enqueued {
		s.publishJob(submission.ID, false)
	}
	return dto.NewSubmissionResponse(submission), nil
}

// Regrade resets a graded or failed submission back to queued, clearing its
// score and grading timestamp. Version and lateness stay untouched. Only the
// instructor owning the course may request it.
func (s *submissionService) Regrade(ctx context.Context, id uint, instructorID uint) (dto.SubmissionResponse, error) {
	var submission models.Submission

	err := s.txm.Do(ctx, func(r repository.Repos) error {
		var err error
		submission, err = r.Submissions.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}

		assignment, err := r.Assignments.GetByID(ctx, submission.AssignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAssignmentNotFound
			}
			return err
		}
		course, err := r.Courses.GetByID(ctx, assignment.CourseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return err
		}
		if course.InstructorID != instructorID {
			return ErrNotCourseOwner
		}

		if !submission.CanRegrade() {
			return ErrInvalidTransition
		}

		submission.ResetForRegrade()
		return r.Submissions.Update(ctx, &submission)
	})
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	observability.RegradesRequested().Inc()
	s.publishJob(submission.ID, true)
	s.logger.Info().Uint("submission_id", submission.ID).Uint("instructor_id", instructorID).Msg("submission re-queued for grading")

	return dto.NewSubmissionResponse(submission), nil
}

func sourceIsText(source string) bool {
	for m := mimetype.Detect([]byte(source)); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func (s *submissionService) publishJob(submissionID uint, regrade bool) {
	if s.queue == nil {
		return
	}
	payload, err := json.Marshal(GradingJob{
		SubmissionID: submissionID,
		Regrade:      regrade,
		EnqueuedAt:   s.now(),
	})
	if err != nil {
		return
	}
	if err := s.queue.Publish(GradingQueuedSubject, payload); err != nil {
		s.logger.Error().Err(err).Uint("submission_id", submissionID).Msg("failed to publish grading job")
	}
}
