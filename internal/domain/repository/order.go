package repository

import (
	"context"
	"time"

	"github.com/polkiloo/melodiemacher/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetByNumber(ctx context.Context, number string) (*model.Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error)
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*model.Order, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	// UpdateStatus changes status only while the order is still in one of from.
	UpdateStatus(ctx context.Context, id int64, from []model.OrderStatus, to model.OrderStatus) (bool, error)
	MarkPaid(ctx context.Context, sessionID, paymentIntentID string) (bool, error)
	MarkDelivered(ctx context.Context, id int64, deliveryURL string, at time.Time) (bool, error)
	SavePriority(ctx context.Context, id int64, priority model.Priority, reasons []string, deadline *time.Time) error
	SaveQuality(ctx context.Context, id int64, score int, details string) error
	SavePrompt(ctx context.Context, id int64, prompt string) error
	ClaimForProduction(ctx context.Context, limit int, staleAfter time.Duration) ([]model.Order, error)
	ListUnscored(ctx context.Context, limit int) ([]model.Order, error)
	DueAnniversaries(ctx context.Context, monthDays []string, year int, limit int) ([]model.Order, error)
}
