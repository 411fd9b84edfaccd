package models

import "time"

// Result records the outcome of executing one submission against one test
// case. Results are written once by the grading worker and never mutated.
type Result struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	TestCaseID   uint      `gorm:"not null;index" json:"test_case_id"`
	Passed       bool      `gorm:"not null" json:"passed"`
	Stdout       string    `gorm:"type:text" json:"stdout"`
	Stderr       string    `gorm:"type:text" json:"stderr"`
	RuntimeMs    int64     `gorm:"not null;default:0" json:"runtime_ms"`
	MemoryKB     int64     `gorm:"not null;default:0" json:"memory_kb"`
	ExitCode     int       `gorm:"not null;default:0" json:"exit_code"`
	ErrorMessage string    `gorm:"type:text" json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsSuccessful reports whether the result counts toward the score. A result
// can match the expected output yet still carry an infrastructure error, in
// which case it does not count.
func (r Result) IsSuccessful() bool {
	return r.Passed && r.ErrorMessage == ""
}
