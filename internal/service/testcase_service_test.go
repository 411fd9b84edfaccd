package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gradebench/gradebench-api/internal/dto"
	"github.com/gradebench/gradebench-api/internal/models"
)

func newTestCaseFixture(t *testing.T) (TestCaseService, *stubTestCaseRepo, *stubAssignmentRepo, *stubCourseRepo) {
	t.Helper()

	testCases := newStubTestCaseRepo()
	assignments := newStubAssignmentRepo()
	courses := newStubCourseRepo()

	courses.byID[10] = models.Course{ID: 10, InstructorID: 3}
	assignments.byID[1] = models.Assignment{ID: 1, CourseID: 10}

	svc := NewTestCaseService(testCases, assignments, courses, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	return svc, testCases, assignments, courses
}

func TestTestCaseCreateRequiresOwnership(t *testing.T) {
	svc, testCases, _, _ := newTestCaseFixture(t)

	payload := dto.TestCaseCreateRequest{Name: "edges", Points: 10}

	_, err := svc.Create(context.Background(), 4, 1, payload)
	require.ErrorIs(t, err, ErrNotCourseOwner)
	require.Empty(t, testCases.byID)

	resp, err := svc.Create(context.Background(), 3, 1, payload)
	require.NoError(t, err)
	require.Equal(t, "edges", resp.Name)
	require.Equal(t, 5000, resp.TimeoutMs)
	require.Equal(t, 256, resp.MemoryLimitMB)
}

func TestTestCaseUpdateRejectsInvalidInFull(t *testing.T) {
	svc, testCases, _, _ := newTestCaseFixture(t)
	testCases.put(models.TestCase{ID: 1, AssignmentID: 1, Name: "edges", Points: 10})

	name := "renamed"
	badPoints := -5.0
	_, err := svc.Update(context.Background(), 3, 1, dto.TestCaseUpdateRequest{Name: &name, Points: &badPoints})
	require.Error(t, err)

	// The stored record is untouched by the rejected update.
	stored := testCases.byID[1]
	require.Equal(t, "edges", stored.Name)
	require.InDelta(t, 10.0, stored.Points, 0.001)
}

func TestTestCaseUpdateAppliesPartialEdit(t *testing.T) {
	svc, testCases, _, _ := newTestCaseFixture(t)
	testCases.put(models.TestCase{ID: 1, AssignmentID: 1, Name: "edges", Points: 10, TimeoutMs: 5000, MemoryLimitMB: 256})

	points := 25.0
	resp, err := svc.Update(context.Background(), 3, 1, dto.TestCaseUpdateRequest{Points: &points})
	require.NoError(t, err)
	require.Equal(t, "edges", resp.Name)
	require.InDelta(t, 25.0, resp.Points, 0.001)
}

func TestTestCaseDeleteRequiresOwnership(t *testing.T) {
	svc, testCases, _, _ := newTestCaseFixture(t)
	testCases.put(models.TestCase{ID: 1, AssignmentID: 1, Name: "edges"})

	require.ErrorIs(t, svc.Delete(context.Background(), 4, 1), ErrNotCourseOwner)
	require.Len(t, testCases.byID, 1)

	require.NoError(t, svc.Delete(context.Background(), 3, 1))
	require.Empty(t, testCases.byID)

	require.ErrorIs(t, svc.Delete(context.Background(), 3, 1), ErrTestCaseNotFound)
}

func TestTestCaseListingFiltersByRole(t *testing.T) {
	svc, testCases, _, _ := newTestCaseFixture(t)
	testCases.put(models.TestCase{ID: 1, AssignmentID: 1, Name: "sample", IsVisible: true})
	testCases.put(models.TestCase{ID: 2, AssignmentID: 1, Name: "hidden"})

	visible, err := svc.ListForUser(context.Background(), 1, models.RoleStudent)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, "sample", visible[0].Name)

	all, err := svc.ListForUser(context.Background(), 1, models.RoleInstructor)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
