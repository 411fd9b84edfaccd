package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	hintDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gradebench",
		Subsystem: "ai",
		Name:      "hint_duration_seconds",
		Help:      "Duration of AI hint requests",
	}, []string{"model"})

	hintFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gradebench",
		Subsystem: "ai",
		Name:      "hint_failures_total",
		Help:      "Number of AI hint failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI hint generator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIHintGenerator implements HintGenerator against the OpenAI chat
// completion API.
type OpenAIHintGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIHintGenerator builds a generator using the provided configuration.
func NewOpenAIHintGenerator(cfg OpenAIConfig) (*OpenAIHintGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 384
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &OpenAIHintGenerator{
		client: openai.NewClientWithConfig(openai.DefaultConfig(cfg.APIKey)),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/gradebench/gradebench-api/pkg/ai"),
		logger: logger,
	}, nil
}

// GenerateHint asks the model for guidance on the failing submission.
func (g *OpenAIHintGenerator) GenerateHint(parent context.Context, input HintInput) (HintResult, error) {
	ctx, span := g.tracer.Start(parent, "openai.hint", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: hintSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildHintPrompt(input)},
		},
	})
	hintDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		hintFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return HintResult{}, fmt.Errorf("openai hint: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		hintFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		return HintResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		err := fmt.Errorf("empty hint returned from openai")
		hintFailures.WithLabelValues(g.cfg.Model).Inc()
		return HintResult{}, err
	}

	return HintResult{
		Content: content,
		Model:   resp.Model,
		Usage: map[string]interface{}{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
	}, nil
}

const hintSystemPrompt = "You are a teaching assistant for an introductory programming course. " +
	"Given a student's code and a summary of failing checks, point the student toward the bug " +
	"without revealing the corrected code or any hidden test data. Two or three sentences, encouraging tone."

func buildHintPrompt(input HintInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assignment: %s\n", input.AssignmentTitle)
	fmt.Fprintf(&b, "Language: %s\n\n", input.Language)
	fmt.Fprintf(&b, "Student code:\n```\n%s\n```\n\n", input.Source)
	fmt.Fprintf(&b, "Failing checks:\n%s\n", input.FailureSummary)
	return b.String()
}
