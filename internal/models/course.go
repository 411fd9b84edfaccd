package models

import "time"

// Enrollment statuses.
const (
	EnrollmentStatusEnrolled  = "enrolled"
	EnrollmentStatusDropped   = "dropped"
	EnrollmentStatusCompleted = "completed"
)

// Course groups assignments under one instructor.
type Course struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	InstructorID uint      `gorm:"not null;index" json:"instructor_id"`
	Code         string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Instructor   User      `gorm:"foreignKey:InstructorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Assignments  []Assignment
}

// Enrollment ties a student to a course. Only students with an active
// enrollment may submit to the course's assignments.
type Enrollment struct {
	StudentID  uint       `gorm:"primaryKey" json:"student_id"`
	CourseID   uint       `gorm:"primaryKey" json:"course_id"`
	Status     string     `gorm:"size:32;not null" json:"status"`
	FinalGrade *float64   `json:"final_grade"`
	EnrolledAt time.Time  `json:"enrolled_at"`
	DroppedAt  *time.Time `json:"dropped_at"`
	Student    User       `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Course     Course     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsActive reports whether the enrollment currently grants access.
func (e Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusEnrolled
}

// Drop marks the enrollment as dropped at the given time.
func (e *Enrollment) Drop(at time.Time) {
	e.Status = EnrollmentStatusDropped
	e.DroppedAt = &at
}

// Complete closes the enrollment with a final grade.
func (e *Enrollment) Complete(grade float64) {
	e.Status = EnrollmentStatusCompleted
	e.FinalGrade = &grade
}
