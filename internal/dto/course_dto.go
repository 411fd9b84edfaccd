package dto

import (
	"time"

	"github.com/gradebench/gradebench-api/internal/models"
)

// CourseCreateRequest describes the payload for creating a course.
type CourseCreateRequest struct {
	Code        string `json:"code" validate:"required,min=2,max=32"`
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description"`
}

// CourseResponse is the public view of a course.
type CourseResponse struct {
	ID           uint      `json:"id"`
	InstructorID uint      `json:"instructor_id"`
	Code         string    `json:"code"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewCourseResponse converts a Course model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:           model.ID,
		InstructorID: model.InstructorID,
		Code:         model.Code,
		Title:        model.Title,
		Description:  model.Description,
		CreatedAt:    model.CreatedAt,
	}
}

// NewCourseResponseSlice converts course models into DTOs.
func NewCourseResponseSlice(items []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(items))
	for _, course := range items {
		responses = append(responses, NewCourseResponse(course))
	}
	return responses
}

// EnrollmentResponse is the public view of an enrollment.
type EnrollmentResponse struct {
	StudentID  uint       `json:"student_id"`
	CourseID   uint       `json:"course_id"`
	Status     string     `json:"status"`
	FinalGrade *float64   `json:"final_grade"`
	EnrolledAt time.Time  `json:"enrolled_at"`
	DroppedAt  *time.Time `json:"dropped_at"`
}

// NewEnrollmentResponse converts an Enrollment model into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		StudentID:  model.StudentID,
		CourseID:   model.CourseID,
		Status:     model.Status,
		FinalGrade: model.FinalGrade,
		EnrolledAt: model.EnrolledAt,
		DroppedAt:  model.DroppedAt,
	}
}
