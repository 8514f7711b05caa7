package dto

import (
	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/usecase"
)

// CheckoutRequest is the order form plus the total shown to the customer.
type CheckoutRequest struct {
	usecase.OrderForm
	ClientTotal *float64 `json:"clientTotal"`
}

// LineItemResponse is one priced component.
type LineItemResponse struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Amount      int    `json:"amount"`
}

// CheckoutResponse tells the client where to pay.
type CheckoutResponse struct {
	OrderNumber string             `json:"orderNumber"`
	SessionID   string             `json:"sessionId"`
	URL         string             `json:"url"`
	Total       int                `json:"total"`
	Items       []LineItemResponse `json:"items"`
}

// ErrorResponse carries a German user-facing message and optional details.
type ErrorResponse struct {
	Error   string                    `json:"error"`
	Fields  []domainErrors.FieldError `json:"fields,omitempty"`
	Missing []string                  `json:"missing,omitempty"`
	Totals  *TotalsComparison         `json:"totals,omitempty"`
}

// TotalsComparison reports a rejected client total.
type TotalsComparison struct {
	Client float64 `json:"client"`
	Server int     `json:"server"`
}
