package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polkiloo/melodiemacher/internal/adapter/assistant"
	"github.com/polkiloo/melodiemacher/internal/config"
	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
	"github.com/polkiloo/melodiemacher/internal/domain/repository"
	"github.com/polkiloo/melodiemacher/internal/metrics"
)

const (
	defaultScoringBatch = 20
	scoringConcurrency  = 4
)

// PriorityResult is the outcome of priority triage. Scored is false when the
// assistant could not produce a valid answer.
type PriorityResult struct {
	OrderID           int64
	Scored            bool
	Priority          model.Priority
	Reasons           []string
	SuggestedDeadline *time.Time
	Reason            string
}

// QualityResult is the outcome of a quality assessment.
type QualityResult struct {
	OrderID int64
	Scored  bool
	Score   int
	Details string
	Reason  string
}

// PromptOutcome is the outcome of prompt generation.
type PromptOutcome struct {
	OrderID   int64
	Generated bool
	Prompt    string
	Reason    string
}

// ScoringUseCase asks the assistant for triage and persists valid answers.
// Assistant failures never surface as errors.
type ScoringUseCase struct {
	orders      repository.OrderRepository
	assistant   assistant.Assistant
	logger      *slog.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// NewScoringUseCase constructs ScoringUseCase.
func NewScoringUseCase(orders repository.OrderRepository, a assistant.Assistant, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *ScoringUseCase {
	concurrency := scoringConcurrency
	if cfg.WorkerPoolSize > concurrency {
		concurrency = cfg.WorkerPoolSize
	}
	return &ScoringUseCase{orders: orders, assistant: a, logger: logger, metrics: m, concurrency: concurrency}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domainErrors.ErrAssistantUnavailable):
		return "unavailable"
	case errors.Is(err, assistant.ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "error"
}

// ScorePriority triages one order.
func (u *ScoringUseCase) ScorePriority(ctx context.Context, id int64) (*PriorityResult, error) {
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.scorePriority(ctx, order), nil
}

func (u *ScoringUseCase) scorePriority(ctx context.Context, order *model.Order) *PriorityResult {
	result := &PriorityResult{OrderID: order.ID, Priority: model.PriorityUnscored}
	assessment, err := u.assistant.AssessPriority(ctx, order)
	if err == nil {
		err = u.orders.SavePriority(ctx, order.ID, assessment.Priority, assessment.Reasons, assessment.SuggestedDeadline)
	}
	if err != nil {
		result.Reason = failureReason(err)
		u.metrics.Assessment("priority", result.Reason)
		u.logger.Warn("priority left unscored",
			slog.String("order", order.OrderNumber),
			slog.String("error", err.Error()),
		)
		return result
	}
	u.metrics.Assessment("priority", "ok")
	result.Scored = true
	result.Priority = assessment.Priority
	result.Reasons = assessment.Reasons
	result.SuggestedDeadline = assessment.SuggestedDeadline
	return result
}

// ScoreBatch triages the given orders, or the oldest unscored ones when ids is
// empty, with bounded concurrency.
func (u *ScoringUseCase) ScoreBatch(ctx context.Context, ids []int64) ([]PriorityResult, error) {
	var orders []model.Order
	if len(ids) == 0 {
		var err error
		orders, err = u.orders.ListUnscored(ctx, defaultScoringBatch)
		if err != nil {
			return nil, err
		}
	} else {
		for _, id := range ids {
			order, err := u.orders.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			orders = append(orders, *order)
		}
	}

	results := make([]PriorityResult, len(orders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i := range orders {
		g.Go(func() error {
			results[i] = *u.scorePriority(gctx, &orders[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AssessQuality rates the brief of one order.
func (u *ScoringUseCase) AssessQuality(ctx context.Context, id int64) (*QualityResult, error) {
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := &QualityResult{OrderID: id}
	assessment, err := u.assistant.AssessQuality(ctx, order)
	if err == nil {
		err = u.orders.SaveQuality(ctx, id, assessment.Score, assessment.Details)
	}
	if err != nil {
		result.Reason = failureReason(err)
		u.metrics.Assessment("quality", result.Reason)
		u.logger.Warn("quality left unscored",
			slog.String("order", order.OrderNumber),
			slog.String("error", err.Error()),
		)
		return result, nil
	}
	u.metrics.Assessment("quality", "ok")
	result.Scored = true
	result.Score = assessment.Score
	result.Details = assessment.Details
	return result, nil
}

// GeneratePrompt drafts and stores the production prompt of one order.
func (u *ScoringUseCase) GeneratePrompt(ctx context.Context, id int64) (*PromptOutcome, error) {
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.generatePrompt(ctx, order), nil
}

func (u *ScoringUseCase) generatePrompt(ctx context.Context, order *model.Order) *PromptOutcome {
	result := &PromptOutcome{OrderID: order.ID}
	prompt, err := u.assistant.GeneratePrompt(ctx, order)
	var text string
	if err == nil {
		text = prompt.Text()
		err = u.orders.SavePrompt(ctx, order.ID, text)
	}
	if err != nil {
		result.Reason = failureReason(err)
		u.metrics.Assessment("prompt", result.Reason)
		u.logger.Warn("prompt not generated",
			slog.String("order", order.OrderNumber),
			slog.String("error", err.Error()),
		)
		return result
	}
	u.metrics.Assessment("prompt", "ok")
	result.Generated = true
	result.Prompt = text
	return result
}
