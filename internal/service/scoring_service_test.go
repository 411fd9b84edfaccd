package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gradebench/gradebench-api/internal/models"
	"github.com/gradebench/gradebench-api/internal/repository"
)

func newScoringFixture(t *testing.T) (*scoringService, *stubSubmissionRepo, *stubAssignmentRepo, *stubTestCaseRepo, *stubResultRepo) {
	t.Helper()

	submissions := newStubSubmissionRepo()
	assignments := newStubAssignmentRepo()
	testCases := newStubTestCaseRepo()
	results := &stubResultRepo{}

	txm := stubTxManager{repos: repository.Repos{
		Submissions: submissions,
		Assignments: assignments,
		TestCases:   testCases,
		Results:     results,
	}}

	svc := NewScoringService(txm, results, zerolog.Nop())
	return svc.(*scoringService), submissions, assignments, testCases, results
}

func TestScoreSumsOnlySuccessfulResults(t *testing.T) {
	svc, submissions, assignments, testCases, results := newScoringFixture(t)

	assignments.byID[1] = models.Assignment{ID: 1, MaxPoints: 100}
	submissions.put(models.Submission{ID: 5, AssignmentID: 1, Status: models.SubmissionStatusRunning})
	testCases.put(models.TestCase{ID: 1, AssignmentID: 1, Points: 60})
	testCases.put(models.TestCase{ID: 2, AssignmentID: 1, Points: 40})
	results.results = []models.Result{
		{SubmissionID: 5, TestCaseID: 1, Passed: true},
		{SubmissionID: 5, TestCaseID: 2, Passed: false},
	}

	resp, err := svc.Score(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, resp.Status)
	require.NotNil(t, resp.Score)
	require.InDelta(t, 60.0, *resp.Score, 0.001)
	require.NotNil(t, resp.GradedAt)
}

func TestScoreIgnoresPassedResultsWithErrors(t *testing.T) {
	svc, submissions, assignments, testCases, results := newScoringFixture(t)

	assignments.byID[1] = models.Assignment{ID: 1, MaxPoints: 100}
	submissions.put(models.Submission{ID: 5, AssignmentID: 1, Status: models.SubmissionStatusRunning})
	testCases.put(models.TestCase{ID: 1, AssignmentID: 1, Points: 50})
	results.results = []models.Result{
		{SubmissionID: 5, TestCaseID: 1, Passed: true, ErrorMessage: "container stats unavailable"},
	}

	resp, err := svc.Score(context.Background(), 5)
	require.NoError(t, err)
	require.InDelta(t, 0.0, *resp.Score, 0.001)
}

func TestScoreSkipsResultsForDeletedTestCases(t *testing.T) {
	svc, submissions, assignments, testCases, results := newScoringFixture(t)

	assignments.byID[1] = models.Assignment{ID: 1, MaxPoints: 100}
	submissions.put(models.Submission{ID: 5, AssignmentID: 1, Status: models.SubmissionStatusRunning})
	testCases.put(models.TestCase{ID: 1, AssignmentID: 1, Points: 30})
	results.results = []models.Result{
		{SubmissionID: 5, TestCaseID: 1, Passed: true},
		{SubmissionID: 5, TestCaseID: 42, Passed: true},
	}

	resp, err := svc.Score(context.Background(), 5)
	require.NoError(t, err)
	require.InDelta(t, 30.0, *resp.Score, 0.001)
}

func TestScoreAppliesLatePenalty(t *testing.T) {
	svc, submissions, assignments, testCases, results := newScoringFixture(t)

	assignments.byID[1] = models.Assignment{ID: 1, MaxPoints: 100, AllowLateSubmissions: true, LateSubmissionPenalty: 0.1}
	submissions.put(models.Submission{ID: 5, AssignmentID: 1, Status: models.SubmissionStatusRunning, IsLate: true})
	testCases.put(models.TestCase{ID: 1, AssignmentID: 1, Points: 60})
	results.results = []models.Result{{SubmissionID: 5, TestCaseID: 1, Passed: true}}

	resp, err := svc.Score(context.Background(), 5)
	require.NoError(t, err)
	require.InDelta(t, 50.0, *resp.Score, 0.001)
}

func TestScoreLatePenaltyFloorsAtZero(t *testing.T) {
	svc, submissions, assignments, testCases, results := newScoringFixture(t)

	assignments.byID[1] = models.Assignment{ID: 1, MaxPoints: 100, AllowLateSubmissions: true, LateSubmissionPenalty: 0.5}
	submissions.put(models.Submission{ID: 5, AssignmentID: 1, Status: models.SubmissionStatusRunning, IsLate: true})
	testCases.put(models.TestCase{ID: 1, AssignmentID: 1, Points: 20})
	results.results = []models.Result{{SubmissionID: 5, TestCaseID: 1, Passed: true}}

	resp, err := svc.Score(context.Background(), 5)
	require.NoError(t, err)
	require.InDelta(t, 0.0, *resp.Score, 0.001)
}

func TestScoreNoPenaltyWhenOnTime(t *testing.T) {
	svc, submissions, assignments, testCases, results := newScoringFixture(t)

	assignments.byID[1] = models.Assignment{ID: 1, MaxPoints: 100, AllowLateSubmissions: true, LateSubmissionPenalty: 0.1}
	submissions.put(models.Submission{ID: 5, AssignmentID: 1, Status: models.SubmissionStatusRunning})
	testCases.put(models.TestCase{ID: 1, AssignmentID: 1, Points: 60})
	results.results = []models.Result{{SubmissionID: 5, TestCaseID: 1, Passed: true}}

	resp, err := svc.Score(context.Background(), 5)
	require.NoError(t, err)
	require.InDelta(t, 60.0, *resp.Score, 0.001)
}

func TestScoreIsIdempotent(t *testing.T) {
	svc, submissions, assignments, testCases, results := newScoringFixture(t)

	assignments.byID[1] = models.Assignment{ID: 1, MaxPoints: 100}
	submissions.put(models.Submission{ID: 5, AssignmentID: 1, Status: models.SubmissionStatusRunning})
	testCases.put(models.TestCase{ID: 1, AssignmentID: 1, Points: 45})
	results.results = []models.Result{{SubmissionID: 5, TestCaseID: 1, Passed: true}}

	first, err := svc.Score(context.Background(), 5)
	require.NoError(t, err)
	second, err := svc.Score(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, *first.Score, *second.Score)
}

func TestScoreUnknownSubmission(t *testing.T) {
	svc, _, _, _, _ := newScoringFixture(t)

	_, err := svc.Score(context.Background(), 99)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestScoreFixedClock(t *testing.T) {
	svc, submissions, assignments, _, _ := newScoringFixture(t)

	assignments.byID[1] = models.Assignment{ID: 1, MaxPoints: 100}
	submissions.put(models.Submission{ID: 5, AssignmentID: 1, Status: models.SubmissionStatusRunning})

	gradedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return gradedAt }

	resp, err := svc.Score(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, resp.GradedAt.Equal(gradedAt))
	require.InDelta(t, 0.0, *resp.Score, 0.001)
}
