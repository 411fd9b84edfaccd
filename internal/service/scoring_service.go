package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/gradebench/gradebench-api/internal/dto"
	"github.com/gradebench/gradebench-api/internal/models"
	"github.com/gradebench/gradebench-api/internal/observability"
	"github.com/gradebench/gradebench-api/internal/repository"
)

// ScoringService records test case results and computes submission scores.
type ScoringService interface {
	SaveResult(ctx context.Context, result *models.Result) error
	ListResults(ctx context.Context, submissionID uint) ([]dto.ResultResponse, error)
	Score(ctx context.Context, submissionID uint) (dto.SubmissionResponse, error)
}

type scoringService struct {
	txm     repository.TxManager
	results repository.ResultRepository
	logger  zerolog.Logger
	now     func() time.Time
}

// NewScoringService constructs a ScoringService instance.
func NewScoringService(txm repository.TxManager, results repository.ResultRepository, logger zerolog.Logger) ScoringService {
	return &scoringService{
		txm:     txm,
		results: results,
		logger:  logger.With().Str("component", "scoring_service").Logger(),
		now:     time.Now,
	}
}

func (s *scoringService) SaveResult(ctx context.Context, result *models.Result) error {
	return s.results.Save(ctx, result)
}

func (s *scoringService) ListResults(ctx context.Context, submissionID uint) ([]dto.ResultResponse, error) {
	results, err := s.results.FindBySubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	return dto.NewResultResponseSlice(results), nil
}

// Score recomputes the submission's score from scratch: the sum of the
// points of every test case matched by a successful result, minus the late
// penalty when one is configured. The read of results and the final write
// happen in one transaction under a row lock, so a result inserted
// concurrently is either fully counted or left for the next re-grade.
func (s *scoringService) Score(ctx context.Context, submissionID uint) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/gradebench/gradebench-api/internal/service/scoring")
	ctx, span := tracer.Start(ctx, "scoring.compute")
	span.SetAttributes(attribute.Int64("scoring.submission_id", int64(submissionID)))
	defer span.End()

	var submission models.Submission

	err := s.txm.Do(ctx, func(r repository.Repos) error {
		var err error
		submission, err = r.Submissions.GetByIDForUpdate(ctx, submissionID)
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

		results, err := r.Results.FindBySubmission(ctx, submissionID)
		if err != nil {
			return err
		}
		testCases, err := r.TestCases.ListByAssignment(ctx, submission.AssignmentID)
		if err != nil {
			return err
		}

		total := s.sumPoints(submissionID, results, testCases)
		total = s.applyLatePenalty(total, submission, assignment)

		gradedAt := s.now()
		submission.Score = &total
		submission.Status = models.SubmissionStatusGraded
		submission.GradedAt = &gradedAt
		return r.Submissions.Update(ctx, &submission)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsScored().Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Float64("score", *submission.Score).
		Msg("submission scored")

	return dto.NewSubmissionResponse(submission), nil
}

// sumPoints adds the points of each test case matched by a successful
// result. A result whose test case was deleted after execution contributes
// zero rather than failing the whole computation.
func (s *scoringService) sumPoints(submissionID uint, results []models.Result, testCases []models.TestCase) float64 {
	pointsByID := make(map[uint]float64, len(testCases))
	for _, tc := range testCases {
		pointsByID[tc.ID] = tc.Points
	}

	var total float64
	for _, result := range results {
		if !result.IsSuccessful() {
			continue
		}
		points, ok := pointsByID[result.TestCaseID]
		if !ok {
			s.logger.Warn().
				Uint("submission_id", submissionID).
				Uint("test_case_id", result.TestCaseID).
				Msg("result references a deleted test case, counting zero")
			continue
		}
		total += points
	}
	return total
}

// applyLatePenalty deducts max_points * late_submission_penalty for late
// submissions on assignments that accept them, floored at zero.
func (s *scoringService) applyLatePenalty(total float64, submission models.Submission, assignment models.Assignment) float64 {
	if !submission.IsLate || !assignment.AllowLateSubmissions || assignment.LateSubmissionPenalty <= 0 {
		return total
	}
	total -= assignment.MaxPoints * assignment.LateSubmissionPenalty
	if total < 0 {
		return 0
	}
	return total
}
