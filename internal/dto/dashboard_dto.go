package dto

import "time"

// ProgressSummary aggregates submission counts for a student.
type ProgressSummary struct {
	TotalAssignments int `json:"total_assignments"`
	Submitted        int `json:"submitted"`
	Graded           int `json:"graded"`
	Pending          int `json:"pending"`
}

// AssignmentProgress reports a student's standing on a single assignment.
type AssignmentProgress struct {
	AssignmentID uint       `json:"assignment_id"`
	Title        string     `json:"title"`
	DueDate      time.Time  `json:"due_date"`
	Overdue      bool       `json:"overdue"`
	SubmissionID *uint      `json:"submission_id"`
	Version      int        `json:"version"`
	Status       string     `json:"status"`
	Score        *float64   `json:"score"`
	IsLate       bool       `json:"is_late"`
	UpdatedAt    time.Time  `json:"updated_at"`
	GradedAt     *time.Time `json:"graded_at"`
}

// StudentDashboardResponse is the cached per-student aggregation.
type StudentDashboardResponse struct {
	Summary      ProgressSummary      `json:"summary"`
	Assignments  []AssignmentProgress `json:"assignments"`
	AverageScore float64              `json:"average_score"`
	GeneratedAt  time.Time            `json:"generated_at"`
}
