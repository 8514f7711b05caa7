package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/pricing"
)

// LineItem is one receipt row of a checkout session.
type LineItem struct {
	Name        string
	Description string
	AmountMinor int64
	Quantity    int64
}

// SessionRequest describes a hosted checkout session.
type SessionRequest struct {
	OrderNumber   string
	CustomerEmail string
	Currency      string
	Items         []LineItem
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

// Session is the created payment session.
type Session struct {
	ID  string
	URL string
}

// Gateway creates checkout sessions and verifies provider webhooks.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// ItemsFromQuote turns itemised pricing into receipt rows in minor units.
func ItemsFromQuote(q pricing.Quote) []LineItem {
	items := make([]LineItem, 0, len(q.Items))
	for _, item := range q.Items {
		items = append(items, LineItem{
			Name:        item.Name,
			Description: item.Description,
			AmountMinor: pricing.MinorUnits(item.Amount),
			Quantity:    1,
		})
	}
	return items
}

// StripeGateway implements Gateway on top of the Stripe API.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	logger        *slog.Logger
}

// NewStripeGateway creates gateway with provided key. backends may be nil.
func NewStripeGateway(secretKey, webhookSecret string, backends *stripe.Backends, logger *slog.Logger) *StripeGateway {
	return &StripeGateway{
		api:           client.New(secretKey, backends),
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// CreateCheckoutSession creates a one-off payment session with one line item per priced component.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if len(req.Items) == 0 {
		return nil, errors.New("checkout session without line items")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderNumber),
		Locale:            stripe.String("de"),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{"order_number": req.OrderNumber},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for _, item := range req.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(qty),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(item.AmountMinor),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(item.Name),
					Description: stripe.String(item.Description),
				},
			},
		})
	}
	for k, v := range req.Metadata {
		if v != "" {
			params.AddMetadata(k, v)
		}
	}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		g.logger.Error("stripe checkout session failed",
			slog.String("order_number", req.OrderNumber),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrPaymentUnavailable, err)
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

// DisabledGateway is used when no payment key is configured.
type DisabledGateway struct{}

func (DisabledGateway) CreateCheckoutSession(context.Context, SessionRequest) (*Session, error) {
	return nil, domainErrors.ErrPaymentUnavailable
}

func (DisabledGateway) ParseWebhook([]byte, string) (*Event, error) {
	return nil, domainErrors.ErrPaymentUnavailable
}
