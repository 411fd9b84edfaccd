package models

import (
	"fmt"
	"time"
)

// Submission statuses. pending is the initial state; queued means a grading
// job is waiting for a worker; failed and error are terminal until a re-grade.
const (
	SubmissionStatusPending = "pending"
	SubmissionStatusQueued  = "queued"
	SubmissionStatusRunning = "running"
	SubmissionStatusGraded  = "graded"
	SubmissionStatusFailed  = "failed"
	SubmissionStatusError   = "error"
)

// Languages accepted for submissions.
const (
	LanguagePython     = "python"
	LanguageJava       = "java"
	LanguageCpp        = "cpp"
	LanguageJavaScript = "javascript"
)

// Submission is one student's versioned code attempt at an assignment.
// The version is unique per (student, assignment) and assigned atomically
// on creation; is_late is stamped once at submit time and never recomputed.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"not null;uniqueIndex:idx_submission_version,priority:2" json:"assignment_id"`
	StudentID    uint       `gorm:"not null;uniqueIndex:idx_submission_version,priority:1" json:"student_id"`
	Version      int        `gorm:"not null;uniqueIndex:idx_submission_version,priority:3" json:"version"`
	Language     string     `gorm:"size:32;not null" json:"language"`
	Source       string     `gorm:"type:text" json:"source"`
	Status       string     `gorm:"size:32;not null" json:"status"`
	Score        *float64   `json:"score"`
	IsLate       bool       `gorm:"not null;default:false" json:"is_late"`
	GradedAt     *time.Time `json:"graded_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Assignment   Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student      User       `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Results      []Result
}

// ValidLanguage reports whether the language belongs to the accepted set.
func ValidLanguage(language string) bool {
	switch language {
	case LanguagePython, LanguageJava, LanguageCpp, LanguageJavaScript:
		return true
	}
	return false
}

// ValidSubmissionStatus reports whether the status belongs to the known set.
func ValidSubmissionStatus(status string) bool {
	switch status {
	case SubmissionStatusPending, SubmissionStatusQueued, SubmissionStatusRunning,
		SubmissionStatusGraded, SubmissionStatusFailed, SubmissionStatusError:
		return true
	}
	return false
}

// NewSubmission constructs a submission, enforcing the language and status
// enum invariants at construction time.
func NewSubmission(assignmentID, studentID uint, version int, language, status string, isLate bool) (Submission, error) {
	if !ValidLanguage(language) {
		return Submission{}, fmt.Errorf("invalid language %q", language)
	}
	if !ValidSubmissionStatus(status) {
		return Submission{}, fmt.Errorf("invalid status %q", status)
	}
	return Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Version:      version,
		Language:     language,
		Status:       status,
		IsLate:       isLate,
	}, nil
}

// IsGraded reports whether the submission carries a final score.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// IsTerminal reports whether the grading pipeline has finished with the
// submission, successfully or not.
func (s Submission) IsTerminal() bool {
	switch s.Status {
	case SubmissionStatusGraded, SubmissionStatusFailed, SubmissionStatusError:
		return true
	}
	return false
}

// CanRegrade reports whether a re-grade request is applicable.
func (s Submission) CanRegrade() bool {
	return s.Status == SubmissionStatusGraded || s.Status == SubmissionStatusFailed
}

// ResetForRegrade clears the grading outcome and puts the submission back in
// the queue. Version and lateness are left untouched.
func (s *Submission) ResetForRegrade() {
	s.Status = SubmissionStatusQueued
	s.Score = nil
	s.GradedAt = nil
}
