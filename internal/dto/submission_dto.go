package dto

import (
	"time"

	"github.com/gradebench/gradebench-api/internal/models"
)

// SubmitRequest describes the payload for creating a submission.
type SubmitRequest struct {
	AssignmentID uint   `json:"assignment_id" validate:"required,gt=0"`
	Language     string `json:"language" validate:"required,oneof=python java cpp javascript"`
	Source       string `json:"source" validate:"required"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint   `query:"assignment_id"`
	StudentID    *uint   `query:"student_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=pending queued running graded failed error"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint       `json:"id"`
	AssignmentID uint       `json:"assignment_id"`
	StudentID    uint       `json:"student_id"`
	Version      int        `json:"version"`
	Language     string     `json:"language"`
	Status       string     `json:"status"`
	Score        *float64   `json:"score"`
	IsLate       bool       `json:"is_late"`
	GradedAt     *time.Time `json:"graded_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		Version:      model.Version,
		Language:     model.Language,
		Status:       model.Status,
		Score:        model.Score,
		IsLate:       model.IsLate,
		GradedAt:     model.GradedAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(items []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, submission := range items {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}

// ResultResponse is the API view of a single test case execution outcome.
// Hidden test case output is blanked for students before it reaches them.
type ResultResponse struct {
	ID           uint      `json:"id"`
	SubmissionID uint      `json:"submission_id"`
	TestCaseID   uint      `json:"test_case_id"`
	Passed       bool      `json:"passed"`
	Stdout       string    `json:"stdout"`
	Stderr       string    `json:"stderr"`
	RuntimeMs    int64     `json:"runtime_ms"`
	MemoryKB     int64     `json:"memory_kb"`
	ExitCode     int       `json:"exit_code"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewResultResponse converts a Result model into a DTO.
func NewResultResponse(model models.Result) ResultResponse {
	return ResultResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		TestCaseID:   model.TestCaseID,
		Passed:       model.Passed,
		Stdout:       model.Stdout,
		Stderr:       model.Stderr,
		RuntimeMs:    model.RuntimeMs,
		MemoryKB:     model.MemoryKB,
		ExitCode:     model.ExitCode,
		ErrorMessage: model.ErrorMessage,
		CreatedAt:    model.CreatedAt,
	}
}

// NewResultResponseSlice converts result models into DTOs.
func NewResultResponseSlice(items []models.Result) []ResultResponse {
	responses := make([]ResultResponse, 0, len(items))
	for _, result := range items {
		responses = append(responses, NewResultResponse(result))
	}
	return responses
}

// HintResponse serializes an AI hint for a submission.
type HintResponse struct {
	ID           uint      `json:"id"`
	SubmissionID uint      `json:"submission_id"`
	Content      string    `json:"content"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewHintResponse converts a Hint model into a DTO.
func NewHintResponse(model models.Hint) HintResponse {
	return HintResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		Content:      model.Content,
		Provider:     model.Provider,
		Model:        model.Model,
		CreatedAt:    model.CreatedAt,
	}
}
