package service

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/gradebench/gradebench-api/internal/models"
	"github.com/gradebench/gradebench-api/internal/repository"
	"github.com/gradebench/gradebench-api/pkg/sandbox"
)

// In-memory repository doubles shared across the service tests.

type stubTxManager struct {
	repos repository.Repos
	err   error
}

func (m stubTxManager) Do(ctx context.Context, fn func(r repository.Repos) error) error {
	if m.err != nil {
		return m.err
	}
	return fn(m.repos)
}

type stubSubmissionRepo struct {
	byID   map[uint]models.Submission
	nextID uint
	err    error
}

func newStubSubmissionRepo() *stubSubmissionRepo {
	return &stubSubmissionRepo{byID: map[uint]models.Submission{}}
}

func (s *stubSubmissionRepo) put(submission models.Submission) {
	if submission.ID > s.nextID {
		s.nextID = submission.ID
	}
	s.byID[submission.ID] = submission
}

func (s *stubSubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Submission
	for _, submission := range s.byID {
		if filter.AssignmentID != nil && submission.AssignmentID != *filter.AssignmentID {
			continue
		}
		if filter.StudentID != nil && submission.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		out = append(out, submission)
	}
	return out, nil
}

func (s *stubSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	if s.err != nil {
		return models.Submission{}, s.err
	}
	submission, ok := s.byID[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (s *stubSubmissionRepo) GetByIDForUpdate(ctx context.Context, id uint) (models.Submission, error) {
	return s.GetByID(ctx, id)
}

func (s *stubSubmissionRepo) GetLatest(ctx context.Context, studentID, assignmentID uint) (models.Submission, error) {
	if s.err != nil {
		return models.Submission{}, s.err
	}
	var latest models.Submission
	for _, submission := range s.byID {
		if submission.StudentID != studentID || submission.AssignmentID != assignmentID {
			continue
		}
		if submission.Version > latest.Version {
			latest = submission
		}
	}
	if latest.ID == 0 {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (s *stubSubmissionRepo) CreateNextVersion(ctx context.Context, submission *models.Submission) error {
	if s.err != nil {
		return s.err
	}
	latest, err := s.GetLatest(ctx, submission.StudentID, submission.AssignmentID)
	if err == nil {
		submission.Version = latest.Version + 1
	} else {
		submission.Version = 1
	}
	s.nextID++
	submission.ID = s.nextID
	s.byID[submission.ID] = *submission
	return nil
}

func (s *stubSubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	if s.err != nil {
		return s.err
	}
	s.byID[submission.ID] = *submission
	return nil
}

type stubAssignmentRepo struct {
	byID map[uint]models.Assignment
	err  error
}

func newStubAssignmentRepo() *stubAssignmentRepo {
	return &stubAssignmentRepo{byID: map[uint]models.Assignment{}}
}

func (s *stubAssignmentRepo) List(ctx context.Context, filter repository.AssignmentFilter) ([]models.Assignment, int64, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	var out []models.Assignment
	for _, assignment := range s.byID {
		if filter.CourseID != nil && assignment.CourseID != *filter.CourseID {
			continue
		}
		if filter.PublishedOnly && !assignment.IsPublished {
			continue
		}
		out = append(out, assignment)
	}
	return out, int64(len(out)), nil
}

func (s *stubAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	if s.err != nil {
		return models.Assignment{}, s.err
	}
	assignment, ok := s.byID[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (s *stubAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == 0 {
		assignment.ID = uint(len(s.byID) + 1)
	}
	s.byID[assignment.ID] = *assignment
	return nil
}

func (s *stubAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	s.byID[assignment.ID] = *assignment
	return nil
}

func (s *stubAssignmentRepo) Delete(ctx context.Context, id uint) error {
	delete(s.byID, id)
	return nil
}

type stubCourseRepo struct {
	byID map[uint]models.Course
	err  error
}

func newStubCourseRepo() *stubCourseRepo {
	return &stubCourseRepo{byID: map[uint]models.Course{}}
}

func (s *stubCourseRepo) List(ctx context.Context) ([]models.Course, error) {
	var out []models.Course
	for _, course := range s.byID {
		out = append(out, course)
	}
	return out, nil
}

func (s *stubCourseRepo) ListByInstructor(ctx context.Context, instructorID uint) ([]models.Course, error) {
	var out []models.Course
	for _, course := range s.byID {
		if course.InstructorID == instructorID {
			out = append(out, course)
		}
	}
	return out, nil
}

func (s *stubCourseRepo) GetByID(ctx context.Context, id uint) (models.Course, error) {
	if s.err != nil {
		return models.Course{}, s.err
	}
	course, ok := s.byID[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (s *stubCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == 0 {
		course.ID = uint(len(s.byID) + 1)
	}
	s.byID[course.ID] = *course
	return nil
}

func (s *stubCourseRepo) Update(ctx context.Context, course *models.Course) error {
	s.byID[course.ID] = *course
	return nil
}

func (s *stubCourseRepo) Delete(ctx context.Context, id uint) error {
	delete(s.byID, id)
	return nil
}

type enrollmentKey struct {
	studentID uint
	courseID  uint
}

type stubEnrollmentRepo struct {
	byKey map[enrollmentKey]models.Enrollment
	err   error
}

func newStubEnrollmentRepo() *stubEnrollmentRepo {
	return &stubEnrollmentRepo{byKey: map[enrollmentKey]models.Enrollment{}}
}

func (s *stubEnrollmentRepo) put(enrollment models.Enrollment) {
	s.byKey[enrollmentKey{enrollment.StudentID, enrollment.CourseID}] = enrollment
}

func (s *stubEnrollmentRepo) Get(ctx context.Context, studentID, courseID uint) (models.Enrollment, error) {
	if s.err != nil {
		return models.Enrollment{}, s.err
	}
	enrollment, ok := s.byKey[enrollmentKey{studentID, courseID}]
	if !ok {
		return models.Enrollment{}, gorm.ErrRecordNotFound
	}
	return enrollment, nil
}

func (s *stubEnrollmentRepo) ListByCourse(ctx context.Context, courseID uint) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for key, enrollment := range s.byKey {
		if key.courseID == courseID {
			out = append(out, enrollment)
		}
	}
	return out, nil
}

func (s *stubEnrollmentRepo) ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Enrollment
	for key, enrollment := range s.byKey {
		if key.studentID == studentID {
			out = append(out, enrollment)
		}
	}
	return out, nil
}

func (s *stubEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	s.put(*enrollment)
	return nil
}

func (s *stubEnrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	s.put(*enrollment)
	return nil
}

type stubTestCaseRepo struct {
	byID   map[uint]models.TestCase
	nextID uint
	err    error
}

func newStubTestCaseRepo() *stubTestCaseRepo {
	return &stubTestCaseRepo{byID: map[uint]models.TestCase{}}
}

func (s *stubTestCaseRepo) put(testCase models.TestCase) {
	if testCase.ID > s.nextID {
		s.nextID = testCase.ID
	}
	s.byID[testCase.ID] = testCase
}

func (s *stubTestCaseRepo) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.TestCase, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.TestCase
	for _, testCase := range s.byID {
		if testCase.AssignmentID == assignmentID {
			out = append(out, testCase)
		}
	}
	// Match the real repository's "sort_order ASC, id ASC" ordering.
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *stubTestCaseRepo) ListVisibleByAssignment(ctx context.Context, assignmentID uint) ([]models.TestCase, error) {
	all, err := s.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	var out []models.TestCase
	for _, testCase := range all {
		if testCase.IsVisible {
			out = append(out, testCase)
		}
	}
	return out, nil
}

func (s *stubTestCaseRepo) GetByID(ctx context.Context, id uint) (models.TestCase, error) {
	if s.err != nil {
		return models.TestCase{}, s.err
	}
	testCase, ok := s.byID[id]
	if !ok {
		return models.TestCase{}, gorm.ErrRecordNotFound
	}
	return testCase, nil
}

func (s *stubTestCaseRepo) Create(ctx context.Context, testCase *models.TestCase) error {
	if s.err != nil {
		return s.err
	}
	s.nextID++
	testCase.ID = s.nextID
	s.byID[testCase.ID] = *testCase
	return nil
}

func (s *stubTestCaseRepo) Update(ctx context.Context, testCase *models.TestCase) error {
	if s.err != nil {
		return s.err
	}
	s.byID[testCase.ID] = *testCase
	return nil
}

func (s *stubTestCaseRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := s.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.byID, id)
	return nil
}

type stubResultRepo struct {
	results []models.Result
	nextID  uint
	err     error
}

func (s *stubResultRepo) Save(ctx context.Context, result *models.Result) error {
	if s.err != nil {
		return s.err
	}
	s.nextID++
	result.ID = s.nextID
	s.results = append(s.results, *result)
	return nil
}

func (s *stubResultRepo) FindBySubmission(ctx context.Context, submissionID uint) ([]models.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Result
	for _, result := range s.results {
		if result.SubmissionID == submissionID {
			out = append(out, result)
		}
	}
	return out, nil
}

func (s *stubResultRepo) DeleteBySubmission(ctx context.Context, submissionID uint) error {
	if s.err != nil {
		return s.err
	}
	kept := s.results[:0]
	for _, result := range s.results {
		if result.SubmissionID != submissionID {
			kept = append(kept, result)
		}
	}
	s.results = kept
	return nil
}

type stubHintRepo struct {
	hints []models.Hint
	err   error
}

func (s *stubHintRepo) Save(ctx context.Context, hint *models.Hint) error {
	if s.err != nil {
		return s.err
	}
	hint.ID = uint(len(s.hints) + 1)
	s.hints = append(s.hints, *hint)
	return nil
}

func (s *stubHintRepo) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Hint, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Hint
	for _, hint := range s.hints {
		if hint.SubmissionID == submissionID {
			out = append(out, hint)
		}
	}
	return out, nil
}

type stubRunner struct {
	results []sandbox.RunResult
	errs    []error
	calls   int
}

func (s *stubRunner) Run(ctx context.Context, req sandbox.RunRequest) (sandbox.RunResult, error) {
	idx := s.calls
	s.calls++
	var result sandbox.RunResult
	var err error
	if idx < len(s.results) {
		result = s.results[idx]
	}
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	return result, err
}
