package model

// OrderStatus describes the fulfillment lifecycle.
type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "pending"
	OrderStatusPaid          OrderStatus = "paid"
	OrderStatusInProduction  OrderStatus = "in_production"
	OrderStatusQualityReview OrderStatus = "quality_review"
	OrderStatusDelivered     OrderStatus = "delivered"
	OrderStatusRefunded      OrderStatus = "refunded"
)

var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:       {OrderStatusPaid, OrderStatusRefunded},
	OrderStatusPaid:          {OrderStatusInProduction, OrderStatusRefunded},
	OrderStatusInProduction:  {OrderStatusQualityReview, OrderStatusDelivered, OrderStatusRefunded},
	OrderStatusQualityReview: {OrderStatusInProduction, OrderStatusDelivered, OrderStatusRefunded},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusInProduction,
		OrderStatusQualityReview, OrderStatusDelivered, OrderStatusRefunded:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are permitted.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusRefunded
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Predecessors lists statuses from which next can be entered.
func Predecessors(next OrderStatus) []OrderStatus {
	var result []OrderStatus
	for _, from := range []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusInProduction, OrderStatusQualityReview} {
		if from.CanTransitionTo(next) {
			result = append(result, from)
		}
	}
	return result
}
