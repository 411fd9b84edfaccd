package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResultIsSuccessful(t *testing.T) {
	require.True(t, Result{Passed: true}.IsSuccessful())
	require.False(t, Result{Passed: false}.IsSuccessful())
	// A pass accompanied by an infrastructure error does not count.
	require.False(t, Result{Passed: true, ErrorMessage: "container vanished"}.IsSuccessful())
}

func TestTestCaseValidate(t *testing.T) {
	valid := TestCase{Name: "adds two numbers", Points: 10}
	require.NoError(t, valid.Validate())

	unnamed := TestCase{Name: "   ", Points: 10}
	require.ErrorIs(t, unnamed.Validate(), ErrTestCaseName)

	negative := TestCase{Name: "bad", Points: -1}
	require.ErrorIs(t, negative.Validate(), ErrTestCasePoints)

	zero := TestCase{Name: "smoke", Points: 0}
	require.NoError(t, zero.Validate())
}
