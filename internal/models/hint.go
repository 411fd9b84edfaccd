package models

import (
	"time"

	"gorm.io/datatypes"
)

// Hint is AI-generated guidance attached to a submission, derived from its
// failing results.
type Hint struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	SubmissionID uint              `gorm:"not null;index" json:"submission_id"`
	Content      string            `gorm:"type:text;not null" json:"content"`
	Provider     string            `gorm:"size:32" json:"provider"`
	Model        string            `gorm:"size:64" json:"model"`
	Usage        datatypes.JSONMap `json:"usage"`
	CreatedAt    time.Time         `json:"created_at"`
	Submission   Submission        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
