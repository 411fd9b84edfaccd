package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gradebench/gradebench-api/internal/dto"
	"github.com/gradebench/gradebench-api/internal/models"
	"github.com/gradebench/gradebench-api/internal/repository"
)

// DashboardService produces the per-student progress aggregation across all
// courses the student is actively enrolled in.
type DashboardService interface {
	GetStudentDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error)
}

type dashboardService struct {
	enrollments repository.EnrollmentRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewDashboardService builds the dashboard aggregator. The cache client may
// be nil, in which case every request recomputes from the database.
func NewDashboardService(enrollments repository.EnrollmentRepository, assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		enrollments: enrollments,
		assignments: assignments,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *dashboardService) GetStudentDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%d", studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	var assignments []models.Assignment
	for _, enrollment := range enrollments {
		if !enrollment.IsActive() {
			continue
		}
		courseID := enrollment.CourseID
		courseAssignments, _, err := s.assignments.List(ctx, repository.AssignmentFilter{
			CourseID:      &courseID,
			PublishedOnly: true,
		})
		if err != nil {
			return dto.StudentDashboardResponse{}, err
		}
		assignments = append(assignments, courseAssignments...)
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := s.buildResponse(assignments, submissions)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *dashboardService) buildResponse(assignments []models.Assignment, submissions []models.Submission) dto.StudentDashboardResponse {
	now := s.now()

	// Keep only the highest version per assignment.
	latestByAssignment := map[uint]models.Submission{}
	for _, submission := range submissions {
		if current, exists := latestByAssignment[submission.AssignmentID]; !exists || submission.Version > current.Version {
			latestByAssignment[submission.AssignmentID] = submission
		}
	}

	summary := dto.ProgressSummary{}
	progress := make([]dto.AssignmentProgress, 0, len(assignments))
	var scoreTotal float64
	var scoredCount int

	for _, assignment := range assignments {
		summary.TotalAssignments++
		submission, submitted := latestByAssignment[assignment.ID]

		item := dto.AssignmentProgress{
			AssignmentID: assignment.ID,
			Title:        assignment.Title,
			DueDate:      assignment.DueDate,
			Overdue:      assignment.IsPastDue(now),
			Status:       models.SubmissionStatusPending,
			UpdatedAt:    assignment.UpdatedAt,
		}

		if submitted {
			summary.Submitted++
			item.SubmissionID = &submission.ID
			item.Version = submission.Version
			item.Status = submission.Status
			item.Score = submission.Score
			item.IsLate = submission.IsLate
			item.UpdatedAt = submission.UpdatedAt
			item.GradedAt = submission.GradedAt
			item.Overdue = false

			if submission.IsGraded() {
				summary.Graded++
				if submission.Score != nil {
					scoreTotal += *submission.Score
					scoredCount++
				}
			} else {
				summary.Pending++
			}
		} else {
			summary.Pending++
		}

		progress = append(progress, item)
	}

	response := dto.StudentDashboardResponse{
		Summary:     summary,
		Assignments: progress,
		GeneratedAt: now,
	}
	if scoredCount > 0 {
		response.AverageScore = scoreTotal / float64(scoredCount)
	}
	return response
}
