package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradebench/gradebench-api/internal/models"
	"github.com/gradebench/gradebench-api/internal/observability"
	"github.com/gradebench/gradebench-api/internal/repository"
	"github.com/gradebench/gradebench-api/pkg/sandbox"
)

// SubmissionGradedSubject is the NATS subject grading outcomes are published on.
const SubmissionGradedSubject = "gradebench.submission.graded"

// GradedEvent is published after a grading run reaches a terminal status.
type GradedEvent struct {
	SubmissionID uint       `json:"submission_id"`
	Status       string     `json:"status"`
	Score        *float64   `json:"score,omitempty"`
	GradedAt     *time.Time `json:"graded_at,omitempty"`
}

// languageConfig maps a submission language onto a container image, the file
// name the source is written to, and the command that compiles and runs it.
// Stdin is redirected from a file placed next to the source.
type languageConfig struct {
	Image      string
	SourceFile string
	Command    string
}

var languageConfigs = map[string]languageConfig{
	models.LanguagePython: {
		Image:      "python:3.11-alpine",
		SourceFile: "main.py",
		Command:    "python3 main.py < .stdin",
	},
	models.LanguageJavaScript: {
		Image:      "node:20-alpine",
		SourceFile: "main.js",
		Command:    "node main.js < .stdin",
	},
	models.LanguageJava: {
		Image:      "eclipse-temurin:17-jdk-alpine",
		SourceFile: "Main.java",
		Command:    "javac Main.java && java Main < .stdin",
	},
	models.LanguageCpp: {
		Image:      "gcc:13",
		SourceFile: "main.cpp",
		Command:    "g++ -O2 -o main main.cpp && ./main < .stdin",
	},
}

// GradingService consumes grading jobs and runs each test case of the
// submission's assignment inside the sandbox, recording results and driving
// the submission to a terminal status.
type GradingService interface {
	Start(ctx context.Context) error
	Stop()
	GradeSubmission(ctx context.Context, submissionID uint) error
}

type gradingService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	testCases   repository.TestCaseRepository
	results     repository.ResultRepository
	scoring     ScoringService
	runner      sandbox.Runner
	queue       *nats.Conn
	sub         *nats.Subscription
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading worker.
func NewGradingService(submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, testCases repository.TestCaseRepository, results repository.ResultRepository, scoring ScoringService, runner sandbox.Runner, queue *nats.Conn, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: submissions,
		assignments: assignments,
		testCases:   testCases,
		results:     results,
		scoring:     scoring,
		runner:      runner,
		queue:       queue,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

// Start subscribes to the grading queue. Jobs are processed in the
// subscription callback; a malformed payload is dropped with a log line
// rather than poisoning the queue.
func (s *gradingService) Start(ctx context.Context) error {
	if s.queue == nil {
		return errors.New("grading worker requires a queue connection")
	}

	sub, err := s.queue.QueueSubscribe(GradingQueuedSubject, "grading-workers", func(msg *nats.Msg) {
		var job GradingJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			s.logger.Error().Err(err).Msg("dropping malformed grading job")
			return
		}
		if err := s.GradeSubmission(ctx, job.SubmissionID); err != nil {
			s.logger.Error().Err(err).Uint("submission_id", job.SubmissionID).Msg("grading job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe grading queue: %w", err)
	}

	s.sub = sub
	s.logger.Info().Str("subject", GradingQueuedSubject).Msg("grading worker started")
	return nil
}

// Stop drains the queue subscription.
func (s *gradingService) Stop() {
	if s.sub != nil {
		if err := s.sub.Drain(); err != nil {
			s.logger.Error().Err(err).Msg("failed to drain grading subscription")
		}
		s.sub = nil
	}
}

// GradeSubmission runs the full grading pipeline for one queued submission:
// mark it running, discard any stale results, execute every test case in the
// sandbox, persist the results and settle on a terminal status. A job whose
// submission is no longer queued is treated as stale and skipped.
func (s *gradingService) GradeSubmission(ctx context.Context, submissionID uint) error {
	start := s.now()

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		return err
	}
	if submission.Status != models.SubmissionStatusQueued {
		s.logger.Warn().
			Uint("submission_id", submissionID).
			Str("status", submission.Status).
			Msg("skipping stale grading job")
		return nil
	}

	submission.Status = models.SubmissionStatusRunning
	if err := s.submissions.Update(ctx, &submission); err != nil {
		return err
	}

	status, err := s.execute(ctx, &submission)
	if err != nil {
		s.markError(ctx, &submission)
		status = models.SubmissionStatusError
	}

	observability.GradingJobsProcessed().WithLabelValues(status).Inc()
	observability.GradingDuration().Observe(s.now().Sub(start).Seconds())
	s.publishGraded(submissionID, status)
	return err
}

func (s *gradingService) execute(ctx context.Context, submission *models.Submission) (string, error) {
	cfg, ok := languageConfigs[submission.Language]
	if !ok {
		return "", fmt.Errorf("no language config for %q", submission.Language)
	}

	// A re-run must never double-count: previous results go before the
	// first test case executes.
	if err := s.results.DeleteBySubmission(ctx, submission.ID); err != nil {
		return "", err
	}

	testCases, err := s.testCases.ListByAssignment(ctx, submission.AssignmentID)
	if err != nil {
		return "", err
	}
	if len(testCases) == 0 {
		// Nothing to run, the score settles at zero.
		resp, err := s.scoring.Score(ctx, submission.ID)
		if err != nil {
			return "", err
		}
		return resp.Status, nil
	}

	workspace, err := os.MkdirTemp("", "gradebench-run-*")
	if err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	if err := os.WriteFile(filepath.Join(workspace, cfg.SourceFile), []byte(submission.Source), 0o644); err != nil {
		return "", fmt.Errorf("write source: %w", err)
	}

	infraFailures := 0
	successes := 0

	for _, tc := range testCases {
		result, infra := s.runTestCase(ctx, workspace, cfg, submission, tc)
		if infra {
			infraFailures++
		}
		if result.IsSuccessful() {
			successes++
		}
		if err := s.results.Save(ctx, &result); err != nil {
			return "", err
		}
	}

	// Every test case hitting an infrastructure error means nothing about
	// the student's code was measured.
	if infraFailures == len(testCases) {
		s.markError(ctx, submission)
		return models.SubmissionStatusError, nil
	}

	if successes == 0 {
		gradedAt := s.now()
		submission.Status = models.SubmissionStatusFailed
		submission.Score = nil
		submission.GradedAt = &gradedAt
		if err := s.submissions.Update(ctx, submission); err != nil {
			return "", err
		}
		return models.SubmissionStatusFailed, nil
	}

	resp, err := s.scoring.Score(ctx, submission.ID)
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

// runTestCase executes one test case and translates the sandbox outcome into
// a result row. The second return value reports an infrastructure failure,
// one where the sandbox itself broke rather than the student's code.
func (s *gradingService) runTestCase(ctx context.Context, workspace string, cfg languageConfig, submission *models.Submission, tc models.TestCase) (models.Result, bool) {
	result := models.Result{
		SubmissionID: submission.ID,
		TestCaseID:   tc.ID,
	}

	if err := os.WriteFile(filepath.Join(workspace, ".stdin"), []byte(tc.Stdin), 0o644); err != nil {
		result.ErrorMessage = fmt.Sprintf("write stdin: %v", err)
		return result, true
	}

	timeout := time.Duration(tc.TimeoutMs) * time.Millisecond
	run, err := s.runner.Run(ctx, sandbox.RunRequest{
		Image:         cfg.Image,
		Cmd:           []string{"sh", "-c", cfg.Command},
		Timeout:       timeout,
		Workspace:     workspace,
		MemoryLimitMB: int64(tc.MemoryLimitMB),
	})

	result.Stdout = run.Stdout
	result.Stderr = run.Stderr
	result.ExitCode = run.ExitCode
	result.RuntimeMs = run.Duration.Milliseconds()
	result.MemoryKB = run.MemoryUsageBytes / 1024

	switch {
	case run.TimedOut:
		// A timeout counts against the code, not the infrastructure.
		result.ErrorMessage = fmt.Sprintf("execution timed out after %s", timeout)
		return result, false
	case err != nil:
		result.ErrorMessage = err.Error()
		return result, true
	}

	result.Passed = run.ExitCode == 0 &&
		strings.TrimSpace(run.Stdout) == strings.TrimSpace(tc.ExpectedOut)
	return result, false
}

func (s *gradingService) markError(ctx context.Context, submission *models.Submission) {
	submission.Status = models.SubmissionStatusError
	submission.Score = nil
	if err := s.submissions.Update(ctx, submission); err != nil {
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("failed to mark submission as errored")
	}
}

func (s *gradingService) publishGraded(submissionID uint, status string) {
	if s.queue == nil {
		return
	}

	event := GradedEvent{SubmissionID: submissionID, Status: status}
	if submission, err := s.submissions.GetByID(context.Background(), submissionID); err == nil {
		event.Score = submission.Score
		event.GradedAt = submission.GradedAt
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.queue.Publish(SubmissionGradedSubject, payload); err != nil {
		s.logger.Error().Err(err).Uint("submission_id", submissionID).Msg("failed to publish graded event")
	}
}
