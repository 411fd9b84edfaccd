package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewSubmissionRejectsUnknownLanguage(t *testing.T) {
	_, err := NewSubmission(1, 2, 1, "ruby", SubmissionStatusPending, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid language")
}

func TestNewSubmissionRejectsUnknownStatus(t *testing.T) {
	_, err := NewSubmission(1, 2, 1, LanguagePython, "archived", false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid status")
}

func TestNewSubmissionStartsPending(t *testing.T) {
	submission, err := NewSubmission(1, 2, 1, LanguageCpp, SubmissionStatusPending, true)
	require.NoError(t, err)
	require.Equal(t, SubmissionStatusPending, submission.Status)
	require.Equal(t, 1, submission.Version)
	require.True(t, submission.IsLate)
	require.False(t, submission.IsTerminal())
}

func TestSubmissionResetForRegrade(t *testing.T) {
	score := 60.0
	gradedAt := time.Now()
	submission := Submission{
		Version:  3,
		Status:   SubmissionStatusGraded,
		Score:    &score,
		IsLate:   true,
		GradedAt: &gradedAt,
	}

	require.True(t, submission.CanRegrade())
	submission.ResetForRegrade()

	require.Equal(t, SubmissionStatusQueued, submission.Status)
	require.Nil(t, submission.Score)
	require.Nil(t, submission.GradedAt)
	require.Equal(t, 3, submission.Version)
	require.True(t, submission.IsLate)
}

func TestSubmissionCanRegradeOnlyFromTerminalGradingStates(t *testing.T) {
	for status, expected := range map[string]bool{
		SubmissionStatusPending: false,
		SubmissionStatusQueued:  false,
		SubmissionStatusRunning: false,
		SubmissionStatusGraded:  true,
		SubmissionStatusFailed:  true,
		SubmissionStatusError:   false,
	} {
		submission := Submission{Status: status}
		require.Equal(t, expected, submission.CanRegrade(), "status %s", status)
	}
}
