package test

import (
	"context"
	"sync"

	"github.com/polkiloo/melodiemacher/internal/domain/model"
)

// PipelineFacadeStub hands out queued batches and records produced orders.
type PipelineFacadeStub struct {
	Batches    [][]model.Order
	ClaimFn    func(context.Context, int) ([]model.Order, error)
	ProduceErr error

	mu       sync.Mutex
	calls    int
	produced []int64
}

// OrdersForProduction returns the next queued batch.
func (s *PipelineFacadeStub) OrdersForProduction(ctx context.Context, limit int) ([]model.Order, error) {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls < len(s.Batches) {
		batch := s.Batches[s.calls]
		s.calls++
		return batch, nil
	}
	return nil, nil
}

// ProduceOrder records the order id.
func (s *PipelineFacadeStub) ProduceOrder(_ context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.produced = append(s.produced, order.ID)
	return s.ProduceErr
}

// Produced lists ids passed to ProduceOrder.
func (s *PipelineFacadeStub) Produced() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.produced...)
}
