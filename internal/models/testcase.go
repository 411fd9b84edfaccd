package models

import (
	"errors"
	"strings"
	"time"
)

// ErrTestCaseName indicates a test case without a usable name.
var ErrTestCaseName = errors.New("test case name must not be empty")

// ErrTestCasePoints indicates a negative point value.
var ErrTestCasePoints = errors.New("test case points must not be negative")

// TestCase is one stdin/expected-output check belonging to an assignment.
// Hidden test cases are withheld from students so submissions cannot be
// tailored to the exact checks.
type TestCase struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	AssignmentID  uint       `gorm:"not null;index" json:"assignment_id"`
	Name          string     `gorm:"size:255;not null" json:"name"`
	Description   string     `gorm:"type:text" json:"description"`
	Stdin         string     `gorm:"type:text" json:"stdin"`
	ExpectedOut   string     `gorm:"type:text" json:"expected_out"`
	Points        float64    `gorm:"not null;default:0" json:"points"`
	IsVisible     bool       `gorm:"not null;default:false" json:"is_visible"`
	TimeoutMs     int        `gorm:"not null;default:5000" json:"timeout_ms"`
	MemoryLimitMB int        `gorm:"not null;default:256" json:"memory_limit_mb"`
	SortOrder     int        `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Assignment    Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Validate checks the test case invariants before any persistence happens.
func (t TestCase) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrTestCaseName
	}
	if t.Points < 0 {
		return ErrTestCasePoints
	}
	return nil
}
