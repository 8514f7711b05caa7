package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
)

// ErrInvalidSignature is returned for webhooks that fail verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// EventType is the subset of provider events the storefront reacts to.
type EventType string

const (
	EventCheckoutCompleted     EventType = "checkout.session.completed"
	EventCheckoutExpired       EventType = "checkout.session.expired"
	EventAsyncPaymentSucceeded EventType = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed    EventType = "checkout.session.async_payment_failed"
	EventChargeRefunded        EventType = "charge.refunded"
)

// Event is a verified provider notification.
type Event struct {
	ID              string
	Type            EventType
	SessionID       string
	PaymentIntentID string
	OrderNumber     string
	Paid            bool
	// FullyRefunded is false for partial refunds.
	FullyRefunded  bool
	AmountRefunded int64
}

// ParseWebhook verifies the signature header and extracts the fields the
// fulfillment flow needs.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if g.webhookSecret == "" {
		return nil, domainErrors.ErrPaymentUnavailable
	}

	raw, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	event := &Event{ID: raw.ID, Type: EventType(raw.Type)}
	switch event.Type {
	case EventCheckoutCompleted, EventCheckoutExpired, EventAsyncPaymentSucceeded, EventAsyncPaymentFailed:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(raw.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		event.SessionID = sess.ID
		event.OrderNumber = sess.Metadata["order_number"]
		if event.OrderNumber == "" {
			event.OrderNumber = sess.ClientReferenceID
		}
		if sess.PaymentIntent != nil {
			event.PaymentIntentID = sess.PaymentIntent.ID
		}
		event.Paid = sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
	case EventChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(raw.Data.Raw, &charge); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		if charge.PaymentIntent != nil {
			event.PaymentIntentID = charge.PaymentIntent.ID
		}
		event.OrderNumber = charge.Metadata["order_number"]
		event.FullyRefunded = charge.Refunded
		event.AmountRefunded = charge.AmountRefunded
	}
	return event, nil
}
