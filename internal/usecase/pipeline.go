package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/polkiloo/melodiemacher/internal/domain/model"
	"github.com/polkiloo/melodiemacher/internal/domain/repository"
	"github.com/polkiloo/melodiemacher/internal/metrics"
)

// productionClaimStale lets another worker retake an order whose claim was abandoned.
const productionClaimStale = 15 * time.Minute

// PipelineUseCase prepares paid orders for production.
type PipelineUseCase struct {
	orders  repository.OrderRepository
	scoring *ScoringUseCase
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewPipelineUseCase constructs PipelineUseCase.
func NewPipelineUseCase(orders repository.OrderRepository, scoring *ScoringUseCase, logger *slog.Logger, m *metrics.Metrics) *PipelineUseCase {
	return &PipelineUseCase{orders: orders, scoring: scoring, logger: logger, metrics: m}
}

// Claim reserves up to limit paid orders for this worker.
func (u *PipelineUseCase) Claim(ctx context.Context, limit int) ([]model.Order, error) {
	return u.orders.ClaimForProduction(ctx, limit, productionClaimStale)
}

// Produce triages the order, drafts its prompt and starts production.
// Triage problems never hold the order back.
func (u *PipelineUseCase) Produce(ctx context.Context, order *model.Order) error {
	log := u.logger.With(slog.String("order", order.OrderNumber))

	if order.Priority == model.PriorityUnscored {
		u.scoring.scorePriority(ctx, order)
	}
	if order.GeneratedPrompt == "" {
		u.scoring.generatePrompt(ctx, order)
	}
	log.Debug("cover art generation skipped")

	changed, err := u.orders.UpdateStatus(ctx, order.ID,
		[]model.OrderStatus{model.OrderStatusPaid}, model.OrderStatusInProduction)
	if err != nil {
		u.metrics.PipelineOrder("error")
		return err
	}
	if !changed {
		u.metrics.PipelineOrder("skipped")
		log.Info("order left paid state before production")
		return nil
	}
	u.metrics.PipelineOrder("advanced")
	u.metrics.Transition(string(model.OrderStatusInProduction))
	log.Info("order moved to production")
	return nil
}
