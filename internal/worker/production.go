package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/melodiemacher/internal/domain/model"
)

// PipelineFacade exposes the subset of application functionality required by the worker.
type PipelineFacade interface {
	OrdersForProduction(ctx context.Context, limit int) ([]model.Order, error)
	ProduceOrder(ctx context.Context, order *model.Order) error
}

// ProductionPipeline polls for paid orders and prepares them for production concurrently.
type ProductionPipeline struct {
	facade       PipelineFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewProductionPipeline constructs the pipeline worker pool.
func NewProductionPipeline(facade PipelineFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *ProductionPipeline {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &ProductionPipeline{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Order, batchSize*workers),
	}
}

// Start launches background processing.
func (p *ProductionPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx)
}

// Stop cancels polling and waits for in-flight orders.
func (p *ProductionPipeline) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *ProductionPipeline) dispatch(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.claimAndDispatch(ctx)
		}
	}
}

func (p *ProductionPipeline) claimAndDispatch(ctx context.Context) {
	orders, err := p.facade.OrdersForProduction(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("claim orders for production failed", slog.String("error", err.Error()))
		return
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- order:
		}
	}
}

func (p *ProductionPipeline) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-p.jobs:
			if !ok {
				return
			}
			p.handleOrder(ctx, order)
		}
	}
}

func (p *ProductionPipeline) handleOrder(ctx context.Context, order model.Order) {
	if err := p.facade.ProduceOrder(ctx, &order); err != nil {
		p.logger.Error("prepare order for production failed",
			slog.String("order", order.OrderNumber),
			slog.String("error", err.Error()),
		)
	}
}
