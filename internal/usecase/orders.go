package usecase

import (
	"context"
	"strings"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
	"github.com/polkiloo/melodiemacher/internal/domain/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// OrderDetail is an order with its deliverables and what is still missing.
type OrderDetail struct {
	Order        *model.Order
	Deliverables []model.Deliverable
	Required     []model.DeliverableType
	Missing      []model.DeliverableType
}

// OrderUseCase answers read queries over orders.
type OrderUseCase struct {
	orders       repository.OrderRepository
	deliverables repository.DeliverableRepository
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, deliverables repository.DeliverableRepository) *OrderUseCase {
	return &OrderUseCase{orders: orders, deliverables: deliverables}
}

// NormalizeFilter applies defaults and bounds to an admin listing filter.
func NormalizeFilter(f model.OrderFilter) (model.OrderFilter, error) {
	var fields []domainErrors.FieldError
	for _, s := range f.Statuses {
		if !s.Valid() {
			fields = append(fields, domainErrors.FieldError{Field: "status", Rule: "oneof", Message: "Unbekannter Status."})
			break
		}
	}
	if f.Priority != model.PriorityUnscored && !f.Priority.Valid() {
		fields = append(fields, domainErrors.FieldError{Field: "priority", Rule: "oneof", Message: "Unbekannte Priorität."})
	}
	switch f.SortBy {
	case "":
		f.SortBy = model.SortByCreated
		f.Desc = true
	case model.SortByCreated, model.SortByPriority, model.SortByDeadline:
	default:
		fields = append(fields, domainErrors.FieldError{Field: "sort", Rule: "oneof", Message: "Unbekannte Sortierung."})
	}
	if len(fields) > 0 {
		return f, &domainErrors.ValidationError{Fields: fields}
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f, nil
}

// List returns orders for the admin dashboard.
func (u *OrderUseCase) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	filter, err := NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return u.orders.List(ctx, filter)
}

// Detail returns an order by id with its deliverables.
func (u *OrderUseCase) Detail(ctx context.Context, id int64) (*OrderDetail, error) {
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.detail(ctx, order)
}

// ByNumber returns the customer facing view of an order.
func (u *OrderUseCase) ByNumber(ctx context.Context, number string) (*OrderDetail, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, domainErrors.ErrNotFound
	}
	order, err := u.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return u.detail(ctx, order)
}

// Download returns a delivered order for the download page. Any other order is
// reported as not found.
func (u *OrderUseCase) Download(ctx context.Context, number string) (*OrderDetail, error) {
	detail, err := u.ByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if detail.Order.Status != model.OrderStatusDelivered {
		return nil, domainErrors.ErrNotFound
	}
	return detail, nil
}

func (u *OrderUseCase) detail(ctx context.Context, order *model.Order) (*OrderDetail, error) {
	items, err := u.deliverables.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{
		Order:        order,
		Deliverables: items,
		Required:     model.RequiredDeliverables(order),
		Missing:      model.MissingDeliverables(order, items),
	}, nil
}
