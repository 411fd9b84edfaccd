package dto

import (
	"time"

	"github.com/gradebench/gradebench-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating an assignment.
type AssignmentCreateRequest struct {
	CourseID              uint      `json:"course_id" validate:"required,gt=0"`
	Title                 string    `json:"title" validate:"required,min=3,max=255"`
	Description           string    `json:"description"`
	ReleaseDate           time.Time `json:"release_date"`
	DueDate               time.Time `json:"due_date" validate:"required"`
	MaxPoints             float64   `json:"max_points" validate:"gte=0"`
	AllowLateSubmissions  bool      `json:"allow_late_submissions"`
	LateSubmissionPenalty float64   `json:"late_submission_penalty" validate:"gte=0,lte=1"`
}

// AssignmentUpdateRequest describes a partial assignment update.
type AssignmentUpdateRequest struct {
	Title                 *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description           *string    `json:"description"`
	DueDate               *time.Time `json:"due_date"`
	MaxPoints             *float64   `json:"max_points" validate:"omitempty,gte=0"`
	IsPublished           *bool      `json:"is_published"`
	AllowLateSubmissions  *bool      `json:"allow_late_submissions"`
	LateSubmissionPenalty *float64   `json:"late_submission_penalty" validate:"omitempty,gte=0,lte=1"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
type AssignmentResponse struct {
	ID                    uint      `json:"id"`
	CourseID              uint      `json:"course_id"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	ReleaseDate           time.Time `json:"release_date"`
	DueDate               time.Time `json:"due_date"`
	MaxPoints             float64   `json:"max_points"`
	IsPublished           bool      `json:"is_published"`
	AllowLateSubmissions  bool      `json:"allow_late_submissions"`
	LateSubmissionPenalty float64   `json:"late_submission_penalty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:                    model.ID,
		CourseID:              model.CourseID,
		Title:                 model.Title,
		Description:           model.Description,
		ReleaseDate:           model.ReleaseDate,
		DueDate:               model.DueDate,
		MaxPoints:             model.MaxPoints,
		IsPublished:           model.IsPublished,
		AllowLateSubmissions:  model.AllowLateSubmissions,
		LateSubmissionPenalty: model.LateSubmissionPenalty,
		CreatedAt:             model.CreatedAt,
		UpdatedAt:             model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(items []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(items))
	for _, assignment := range items {
		responses = append(responses, NewAssignmentResponse(assignment))
	}
	return responses
}
