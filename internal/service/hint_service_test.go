package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gradebench/gradebench-api/internal/models"
	"github.com/gradebench/gradebench-api/pkg/ai"
)

type stubHintGenerator struct {
	input  ai.HintInput
	result ai.HintResult
	err    error
}

func (s *stubHintGenerator) GenerateHint(ctx context.Context, input ai.HintInput) (ai.HintResult, error) {
	s.input = input
	if s.err != nil {
		return ai.HintResult{}, s.err
	}
	return s.result, nil
}

func newHintFixture(t *testing.T, generator ai.HintGenerator) (HintService, *stubSubmissionRepo, *stubAssignmentRepo, *stubTestCaseRepo, *stubResultRepo, *stubHintRepo) {
	t.Helper()

	submissions := newStubSubmissionRepo()
	assignments := newStubAssignmentRepo()
	testCases := newStubTestCaseRepo()
	results := &stubResultRepo{}
	hints := &stubHintRepo{}

	svc := NewHintService(submissions, assignments, testCases, results, hints, generator, zerolog.Nop())
	return svc, submissions, assignments, testCases, results, hints
}

func TestGenerateHintPersistsContent(t *testing.T) {
	generator := &stubHintGenerator{result: ai.HintResult{Content: "check your loop bounds", Model: "gpt-4o-mini"}}
	svc, submissions, assignments, testCases, results, hints := newHintFixture(t, generator)

	assignments.byID[1] = models.Assignment{ID: 1, Title: "fibonacci"}
	testCases.put(models.TestCase{ID: 1, AssignmentID: 1, Name: "base case", IsVisible: true})
	submissions.put(models.Submission{ID: 5, AssignmentID: 1, StudentID: 7, Language: models.LanguagePython, Status: models.SubmissionStatusFailed})
	results.results = []models.Result{{SubmissionID: 5, TestCaseID: 1, Passed: false, ExitCode: 1, Stderr: "IndexError"}}

	resp, err := svc.GenerateHint(context.Background(), 5, 7)
	require.NoError(t, err)
	require.Equal(t, "check your loop bounds", resp.Content)
	require.Equal(t, "gpt-4o-mini", resp.Model)
	require.Len(t, hints.hints, 1)

	require.Equal(t, "fibonacci", generator.input.AssignmentTitle)
	require.Contains(t, generator.input.FailureSummary, "base case")
	require.Contains(t, generator.input.FailureSummary, "IndexError")
}

func TestGenerateHintHidesHiddenTestCaseNames(t *testing.T) {
	generator := &stubHintGenerator{result: ai.HintResult{Content: "hint"}}
	svc, submissions, assignments, testCases, results, _ := newHintFixture(t, generator)

	assignments.byID[1] = models.Assignment{ID: 1, Title: "fibonacci"}
	testCases.put(models.TestCase{ID: 1, AssignmentID: 1, Name: "secret large input", IsVisible: false, ExpectedOut: "832040"})
	submissions.put(models.Submission{ID: 5, AssignmentID: 1, StudentID: 7, Language: models.LanguagePython, Status: models.SubmissionStatusFailed})
	results.results = []models.Result{{SubmissionID: 5, TestCaseID: 1, Passed: false, ExitCode: 1}}

	_, err := svc.GenerateHint(context.Background(), 5, 7)
	require.NoError(t, err)
	require.NotContains(t, generator.input.FailureSummary, "secret large input")
	require.NotContains(t, generator.input.FailureSummary, "832040")
	require.Contains(t, generator.input.FailureSummary, "hidden test")
}

func TestGenerateHintGuards(t *testing.T) {
	svc, submissions, assignments, _, results, _ := newHintFixture(t, nil)
	_, err := svc.GenerateHint(context.Background(), 5, 7)
	require.ErrorIs(t, err, ErrHintUnavailable)

	generator := &stubHintGenerator{result: ai.HintResult{Content: "hint"}}
	svc, submissions, assignments, _, results, _ = newHintFixture(t, generator)

	assignments.byID[1] = models.Assignment{ID: 1}
	submissions.put(models.Submission{ID: 5, AssignmentID: 1, StudentID: 7, Status: models.SubmissionStatusRunning})

	// Not the owner.
	_, err = svc.GenerateHint(context.Background(), 5, 8)
	require.ErrorIs(t, err, ErrSubmissionForbidden)

	// Not terminal yet.
	_, err = svc.GenerateHint(context.Background(), 5, 7)
	require.ErrorIs(t, err, ErrInvalidTransition)

	// Terminal but nothing failed.
	submissions.put(models.Submission{ID: 5, AssignmentID: 1, StudentID: 7, Status: models.SubmissionStatusGraded})
	results.results = nil
	_, err = svc.GenerateHint(context.Background(), 5, 7)
	require.ErrorIs(t, err, ErrHintNotApplicable)
}
