package dto

import (
	"time"

	"github.com/gradebench/gradebench-api/internal/models"
)

// TestCaseCreateRequest describes the payload for creating a test case.
type TestCaseCreateRequest struct {
	Name          string  `json:"name" validate:"required,min=1,max=255"`
	Description   string  `json:"description"`
	Stdin         string  `json:"stdin"`
	ExpectedOut   string  `json:"expected_out"`
	Points        float64 `json:"points" validate:"gte=0"`
	IsVisible     bool    `json:"is_visible"`
	TimeoutMs     int     `json:"timeout_ms" validate:"omitempty,gt=0"`
	MemoryLimitMB int     `json:"memory_limit_mb" validate:"omitempty,gt=0"`
	SortOrder     int     `json:"sort_order"`
}

// TestCaseUpdateRequest describes a partial test case update. Fields left
// nil are not touched; validation failures reject the update in full.
type TestCaseUpdateRequest struct {
	Name          *string  `json:"name" validate:"omitempty,min=1,max=255"`
	Description   *string  `json:"description"`
	Stdin         *string  `json:"stdin"`
	ExpectedOut   *string  `json:"expected_out"`
	Points        *float64 `json:"points" validate:"omitempty,gte=0"`
	IsVisible     *bool    `json:"is_visible"`
	TimeoutMs     *int     `json:"timeout_ms" validate:"omitempty,gt=0"`
	MemoryLimitMB *int     `json:"memory_limit_mb" validate:"omitempty,gt=0"`
	SortOrder     *int     `json:"sort_order"`
}

// TestCaseResponse is returned to API clients when viewing test cases.
type TestCaseResponse struct {
	ID            uint      `json:"id"`
	AssignmentID  uint      `json:"assignment_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Stdin         string    `json:"stdin"`
	ExpectedOut   string    `json:"expected_out"`
	Points        float64   `json:"points"`
	IsVisible     bool      `json:"is_visible"`
	TimeoutMs     int       `json:"timeout_ms"`
	MemoryLimitMB int       `json:"memory_limit_mb"`
	SortOrder     int       `json:"sort_order"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewTestCaseResponse converts a TestCase model into a DTO.
func NewTestCaseResponse(model models.TestCase) TestCaseResponse {
	return TestCaseResponse{
		ID:            model.ID,
		AssignmentID:  model.AssignmentID,
		Name:          model.Name,
		Description:   model.Description,
		Stdin:         model.Stdin,
		ExpectedOut:   model.ExpectedOut,
		Points:        model.Points,
		IsVisible:     model.IsVisible,
		TimeoutMs:     model.TimeoutMs,
		MemoryLimitMB: model.MemoryLimitMB,
		SortOrder:     model.SortOrder,
		CreatedAt:     model.CreatedAt,
	}
}

// NewTestCaseResponseSlice converts test case models into DTOs.
func NewTestCaseResponseSlice(items []models.TestCase) []TestCaseResponse {
	responses := make([]TestCaseResponse, 0, len(items))
	for _, testCase := range items {
		responses = append(responses, NewTestCaseResponse(testCase))
	}
	return responses
}
