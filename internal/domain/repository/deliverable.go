package repository

import (
	"context"

	"github.com/polkiloo/melodiemacher/internal/domain/model"
)

// DeliverableRepository stores fulfillment artifacts of orders.
type DeliverableRepository interface {
	Add(ctx context.Context, d *model.Deliverable) (*model.Deliverable, error)
	ListByOrder(ctx context.Context, orderID int64) ([]model.Deliverable, error)
	Delete(ctx context.Context, orderID, id int64) error
}
