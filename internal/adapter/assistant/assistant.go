package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
)

// ErrInvalidResponse marks model output that does not satisfy the response contract.
var ErrInvalidResponse = errors.New("invalid assistant response")

const (
	maxPriorityReasons = 5
	minQualityScore    = 1
	maxQualityScore    = 10
	maxPromptLength    = 3000
	deadlineLayout     = "2006-01-02"
)

// Assistant triages orders and drafts production prompts.
type Assistant interface {
	AssessPriority(ctx context.Context, order *model.Order) (*PriorityAssessment, error)
	AssessQuality(ctx context.Context, order *model.Order) (*QualityAssessment, error)
	GeneratePrompt(ctx context.Context, order *model.Order) (*PromptResult, error)
}

// PriorityAssessment is the validated urgency verdict for an order.
type PriorityAssessment struct {
	Priority          model.Priority
	Reasons           []string
	SuggestedDeadline *time.Time
}

// QualityAssessment rates how song-ready the customer's brief is.
type QualityAssessment struct {
	Score   int
	Details string
}

// PromptResult is a drafted music generation prompt.
type PromptResult struct {
	Title  string
	Style  string
	Prompt string
}

// Text renders the prompt as stored on the order.
func (p *PromptResult) Text() string {
	var b strings.Builder
	if p.Title != "" {
		fmt.Fprintf(&b, "Titel: %s\n", p.Title)
	}
	if p.Style != "" {
		fmt.Fprintf(&b, "Stil: %s\n", p.Style)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(p.Prompt)
	return b.String()
}

type priorityPayload struct {
	Priority          string   `json:"priority"`
	Reasons           []string `json:"reasons"`
	SuggestedDeadline string   `json:"suggested_deadline"`
}

func (p priorityPayload) validate(now time.Time) (*PriorityAssessment, error) {
	priority := model.Priority(strings.ToLower(strings.TrimSpace(p.Priority)))
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidResponse, p.Priority)
	}
	if len(p.Reasons) > maxPriorityReasons {
		return nil, fmt.Errorf("%w: %d reasons, at most %d allowed", ErrInvalidResponse, len(p.Reasons), maxPriorityReasons)
	}
	reasons := make([]string, 0, len(p.Reasons))
	for _, r := range p.Reasons {
		if r = strings.TrimSpace(r); r != "" {
			reasons = append(reasons, r)
		}
	}

	result := &PriorityAssessment{Priority: priority, Reasons: reasons}
	if raw := strings.TrimSpace(p.SuggestedDeadline); raw != "" {
		deadline, err := time.Parse(deadlineLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: deadline %q", ErrInvalidResponse, raw)
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if deadline.Before(today) {
			return nil, fmt.Errorf("%w: deadline %s is in the past", ErrInvalidResponse, raw)
		}
		result.SuggestedDeadline = &deadline
	}
	return result, nil
}

type qualityPayload struct {
	Score   int    `json:"score"`
	Details string `json:"details"`
}

func (p qualityPayload) validate() (*QualityAssessment, error) {
	if p.Score < minQualityScore || p.Score > maxQualityScore {
		return nil, fmt.Errorf("%w: score %d outside %d-%d", ErrInvalidResponse, p.Score, minQualityScore, maxQualityScore)
	}
	return &QualityAssessment{Score: p.Score, Details: strings.TrimSpace(p.Details)}, nil
}

type promptPayload struct {
	Title  string `json:"title"`
	Style  string `json:"style"`
	Prompt string `json:"prompt"`
}

func (p promptPayload) validate() (*PromptResult, error) {
	prompt := strings.TrimSpace(p.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: empty prompt", ErrInvalidResponse)
	}
	if len(prompt) > maxPromptLength {
		return nil, fmt.Errorf("%w: prompt exceeds %d bytes", ErrInvalidResponse, maxPromptLength)
	}
	return &PromptResult{
		Title:  strings.TrimSpace(p.Title),
		Style:  strings.TrimSpace(p.Style),
		Prompt: prompt,
	}, nil
}

// Disabled is used when no model credentials are configured.
type Disabled struct{}

func (Disabled) AssessPriority(context.Context, *model.Order) (*PriorityAssessment, error) {
	return nil, domainErrors.ErrAssistantUnavailable
}

func (Disabled) AssessQuality(context.Context, *model.Order) (*QualityAssessment, error) {
	return nil, domainErrors.ErrAssistantUnavailable
}

func (Disabled) GeneratePrompt(context.Context, *model.Order) (*PromptResult, error) {
	return nil, domainErrors.ErrAssistantUnavailable
}
