package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gradebench/gradebench-api/internal/dto"
	"github.com/gradebench/gradebench-api/internal/models"
	"github.com/gradebench/gradebench-api/internal/observability"
	"github.com/gradebench/gradebench-api/internal/repository"
	"github.com/gradebench/gradebench-api/pkg/ai"
)

// ErrHintUnavailable indicates hint generation is not configured.
var ErrHintUnavailable = errors.New("hint generation is not available")

// ErrHintNotApplicable indicates the submission has no failures to hint on.
var ErrHintNotApplicable = errors.New("submission has no failing results")

// HintService generates AI guidance for a student's failing submission.
type HintService interface {
	GenerateHint(ctx context.Context, submissionID, studentID uint) (dto.HintResponse, error)
	ListHints(ctx context.Context, submissionID, studentID uint) ([]dto.HintResponse, error)
}

type hintService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	testCases   repository.TestCaseRepository
	results     repository.ResultRepository
	hints       repository.HintRepository
	generator   ai.HintGenerator
	logger      zerolog.Logger
}

// NewHintService constructs a HintService instance. A nil generator disables
// hint generation without affecting the rest of the API.
func NewHintService(submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, testCases repository.TestCaseRepository, results repository.ResultRepository, hints repository.HintRepository, generator ai.HintGenerator, logger zerolog.Logger) HintService {
	return &hintService{
		submissions: submissions,
		assignments: assignments,
		testCases:   testCases,
		results:     results,
		hints:       hints,
		generator:   generator,
		logger:      logger.With().Str("component", "hint_service").Logger(),
	}
}

// GenerateHint produces a hint for the student's own terminal submission.
// Hidden test case details never reach the model: failures on hidden cases
// are summarised without their names or expected output.
func (s *hintService) GenerateHint(ctx context.Context, submissionID, studentID uint) (dto.HintResponse, error) {
	if s.generator == nil {
		return dto.HintResponse{}, ErrHintUnavailable
	}

	submission, err := s.loadOwnSubmission(ctx, submissionID, studentID)
	if err != nil {
		return dto.HintResponse{}, err
	}
	if !submission.IsTerminal() {
		return dto.HintResponse{}, ErrInvalidTransition
	}

	assignment, err := s.assignments.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.HintResponse{}, ErrAssignmentNotFound
		}
		return dto.HintResponse{}, err
	}

	summary, err := s.failureSummary(ctx, submission)
	if err != nil {
		return dto.HintResponse{}, err
	}
	if summary == "" {
		return dto.HintResponse{}, ErrHintNotApplicable
	}

	generated, err := s.generator.GenerateHint(ctx, ai.HintInput{
		AssignmentTitle: assignment.Title,
		Language:        submission.Language,
		Source:          submission.Source,
		FailureSummary:  summary,
	})
	if err != nil {
		return dto.HintResponse{}, err
	}

	hint := models.Hint{
		SubmissionID: submission.ID,
		Content:      generated.Content,
		Provider:     "openai",
		Model:        generated.Model,
		Usage:        datatypes.JSONMap(generated.Usage),
	}
	if err := s.hints.Save(ctx, &hint); err != nil {
		return dto.HintResponse{}, err
	}

	observability.HintsGenerated().Inc()
	s.logger.Info().Uint("submission_id", submission.ID).Msg("hint generated")
	return dto.NewHintResponse(hint), nil
}

func (s *hintService) ListHints(ctx context.Context, submissionID, studentID uint) ([]dto.HintResponse, error) {
	if _, err := s.loadOwnSubmission(ctx, submissionID, studentID); err != nil {
		return nil, err
	}

	hints, err := s.hints.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.HintResponse, 0, len(hints))
	for _, hint := range hints {
		responses = append(responses, dto.NewHintResponse(hint))
	}
	return responses, nil
}

func (s *hintService) loadOwnSubmission(ctx context.Context, submissionID, studentID uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}
	if submission.StudentID != studentID {
		return models.Submission{}, ErrSubmissionForbidden
	}
	return submission, nil
}

func (s *hintService) failureSummary(ctx context.Context, submission models.Submission) (string, error) {
	results, err := s.results.FindBySubmission(ctx, submission.ID)
	if err != nil {
		return "", err
	}
	testCases, err := s.testCases.ListByAssignment(ctx, submission.AssignmentID)
	if err != nil {
		return "", err
	}

	byID := make(map[uint]models.TestCase, len(testCases))
	for _, tc := range testCases {
		byID[tc.ID] = tc
	}

	var b strings.Builder
	for _, result := range results {
		if result.IsSuccessful() {
			continue
		}

		tc, known := byID[result.TestCaseID]
		switch {
		case known && tc.IsVisible:
			fmt.Fprintf(&b, "Test %q failed (exit code %d).\n", tc.Name, result.ExitCode)
		default:
			fmt.Fprintf(&b, "A hidden test failed (exit code %d).\n", result.ExitCode)
		}
		if stderr := strings.TrimSpace(result.Stderr); stderr != "" {
			fmt.Fprintf(&b, "stderr: %s\n", stderr)
		}
		if result.ErrorMessage != "" {
			fmt.Fprintf(&b, "error: %s\n", result.ErrorMessage)
		}
	}
	return b.String(), nil
}
