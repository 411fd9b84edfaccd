package models

import "time"

// Assignment is a graded task within a course.
type Assignment struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	CourseID              uint      `gorm:"not null;index" json:"course_id"`
	Title                 string    `gorm:"size:255;not null" json:"title"`
	Description           string    `gorm:"type:text" json:"description"`
	ReleaseDate           time.Time `json:"release_date"`
	DueDate               time.Time `gorm:"not null" json:"due_date"`
	MaxPoints             float64   `gorm:"not null;default:100" json:"max_points"`
	IsPublished           bool      `gorm:"not null;default:false" json:"is_published"`
	AllowLateSubmissions  bool      `gorm:"not null;default:false" json:"allow_late_submissions"`
	LateSubmissionPenalty float64   `gorm:"not null;default:0" json:"late_submission_penalty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
	Course                Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	TestCases             []TestCase
}

// IsPastDue returns true when the deadline has already passed at the reference time.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// Publish makes the assignment visible to enrolled students.
func (a *Assignment) Publish() {
	a.IsPublished = true
}

// Unpublish hides the assignment from students.
func (a *Assignment) Unpublish() {
	a.IsPublished = false
}

// ExtendDeadline moves the due date. Lateness of existing submissions is
// stamped at submit time and is never recomputed.
func (a *Assignment) ExtendDeadline(newDueDate time.Time) {
	a.DueDate = newDueDate
}
