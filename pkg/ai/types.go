package ai

import "context"

// HintInput carries the artefacts a hint is generated from. Expected output
// of hidden test cases must not be included by callers.
type HintInput struct {
	AssignmentTitle string
	Language        string
	Source          string
	FailureSummary  string
}

// HintResult is the generated guidance for a struggling student.
type HintResult struct {
	Content string                 `json:"content"`
	Model   string                 `json:"model"`
	Usage   map[string]interface{} `json:"usage,omitempty"`
}

// HintGenerator describes an AI model capable of producing submission hints.
type HintGenerator interface {
	GenerateHint(ctx context.Context, input HintInput) (HintResult, error)
}
