package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.uber.org/fx"

	"github.com/polkiloo/melodiemacher/internal/adapter/filestore"
	"github.com/polkiloo/melodiemacher/internal/adapter/mailer"
	"github.com/polkiloo/melodiemacher/internal/adapter/payment"
	"github.com/polkiloo/melodiemacher/internal/config"
	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
	"github.com/polkiloo/melodiemacher/internal/domain/repository"
	"github.com/polkiloo/melodiemacher/internal/metrics"
)

// DeliverableInput describes a new deliverable, either uploaded or linked.
type DeliverableInput struct {
	OrderID  int64
	Type     model.DeliverableType
	FileName string
	FileURL  string
	Content  io.Reader
}

// TransitionResult is the per-order outcome of a batch transition.
type TransitionResult struct {
	OrderID int64
	Status  model.OrderStatus
	Err     error
}

// FulfillmentUseCase drives orders through the fulfillment state machine.
type FulfillmentUseCase struct {
	orders       repository.OrderRepository
	deliverables repository.DeliverableRepository
	files        filestore.Store
	mailer       mailer.Mailer
	referrals    *ReferralUseCase
	loyalty      *LoyaltyUseCase
	campaigns    *CampaignUseCase
	logger       *slog.Logger
	metrics      *metrics.Metrics
	baseURL      string
	now          func() time.Time
}

// FulfillmentDeps groups collaborators of FulfillmentUseCase.
type FulfillmentDeps struct {
	fx.In

	Orders       repository.OrderRepository
	Deliverables repository.DeliverableRepository
	Files        filestore.Store
	Mailer       mailer.Mailer
	Referrals    *ReferralUseCase
	Loyalty      *LoyaltyUseCase
	Campaigns    *CampaignUseCase
	Config       *config.Config
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// NewFulfillmentUseCase constructs FulfillmentUseCase.
func NewFulfillmentUseCase(d FulfillmentDeps) *FulfillmentUseCase {
	return &FulfillmentUseCase{
		orders:       d.Orders,
		deliverables: d.Deliverables,
		files:        d.Files,
		mailer:       d.Mailer,
		referrals:    d.Referrals,
		loyalty:      d.Loyalty,
		campaigns:    d.Campaigns,
		logger:       d.Logger,
		metrics:      d.Metrics,
		baseURL:      d.Config.PublicBaseURL,
		now:          time.Now,
	}
}

// HandlePaymentEvent applies a verified provider event. Events the storefront
// does not act on are acknowledged.
func (u *FulfillmentUseCase) HandlePaymentEvent(ctx context.Context, event *payment.Event) error {
	switch event.Type {
	case payment.EventCheckoutCompleted, payment.EventAsyncPaymentSucceeded:
		if !event.Paid {
			u.logger.Info("checkout completed without payment",
				slog.String("session", event.SessionID),
				slog.String("order", event.OrderNumber),
			)
			return nil
		}
		return u.MarkPaid(ctx, event.SessionID, event.PaymentIntentID)
	case payment.EventAsyncPaymentFailed:
		u.logger.Warn("delayed payment failed",
			slog.String("session", event.SessionID),
			slog.String("order", event.OrderNumber),
		)
		return nil
	case payment.EventChargeRefunded:
		if event.PaymentIntentID == "" {
			return nil
		}
		if !event.FullyRefunded {
			u.logger.Info("partial refund recorded by provider",
				slog.String("payment_intent", event.PaymentIntentID),
				slog.String("order", event.OrderNumber),
				slog.Int64("amount_refunded", event.AmountRefunded),
			)
			return nil
		}
		return u.MarkRefunded(ctx, event.PaymentIntentID)
	case payment.EventCheckoutExpired:
		u.logger.Info("checkout session expired", slog.String("order", event.OrderNumber))
		return nil
	}
	u.logger.Debug("payment event ignored", slog.String("type", string(event.Type)))
	return nil
}

// MarkPaid confirms payment of the order created for a checkout session.
// Redelivered webhooks and unknown sessions are acknowledged without effect.
func (u *FulfillmentUseCase) MarkPaid(ctx context.Context, sessionID, paymentIntentID string) error {
	changed, err := u.orders.MarkPaid(ctx, sessionID, paymentIntentID)
	if err != nil {
		return err
	}
	order, err := u.orders.GetBySessionID(ctx, sessionID)
	if errors.Is(err, domainErrors.ErrNotFound) {
		u.logger.Warn("payment for unknown checkout session", slog.String("session", sessionID))
		return nil
	}
	if err != nil {
		return err
	}
	if !changed {
		u.logger.Info("payment already recorded",
			slog.String("order", order.OrderNumber),
			slog.String("status", string(order.Status)),
		)
		return nil
	}

	u.metrics.Transition(string(model.OrderStatusPaid))
	log := u.logger.With(slog.String("order", order.OrderNumber))
	log.Info("order paid")

	if _, err := u.loyalty.RecordPurchase(ctx, order.CustomerEmail, order.OrderNumber); err != nil {
		log.Warn("record loyalty purchase", slog.String("error", err.Error()))
	}
	if err := u.referrals.Redeem(ctx, order); err != nil {
		log.Warn("redeem referral", slog.String("error", err.Error()))
	}
	if err := u.campaigns.Cancel(ctx, model.CampaignAbandonedCheckout, order.OrderNumber); err != nil {
		log.Warn("cancel abandoned checkout campaign", slog.String("error", err.Error()))
	}
	if err := u.mailer.Send(ctx, mailer.Email{
		To:       order.CustomerEmail,
		Template: mailer.TemplateOrderConfirmation,
		Data: map[string]string{
			"customer_name":  order.CustomerName,
			"recipient_name": order.RecipientName,
			"order_number":   order.OrderNumber,
			"status_url":     u.baseURL + "/bestellung/status?order=" + url.QueryEscape(order.OrderNumber),
		},
	}); err != nil {
		log.Warn("send order confirmation", slog.String("error", err.Error()))
	}
	return nil
}

// MarkRefunded records a provider side refund.
func (u *FulfillmentUseCase) MarkRefunded(ctx context.Context, paymentIntentID string) error {
	order, err := u.orders.GetByPaymentIntent(ctx, paymentIntentID)
	if errors.Is(err, domainErrors.ErrNotFound) {
		u.logger.Warn("refund for unknown payment", slog.String("payment_intent", paymentIntentID))
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := u.Transition(ctx, order.ID, model.OrderStatusRefunded); err != nil {
		if errors.Is(err, domainErrors.ErrInvalidTransition) {
			u.logger.Warn("refund ignored",
				slog.String("order", order.OrderNumber),
				slog.String("status", string(order.Status)),
			)
			return nil
		}
		return err
	}
	return nil
}

// Transition moves an order to status. Delivery is routed through Deliver.
func (u *FulfillmentUseCase) Transition(ctx context.Context, id int64, to model.OrderStatus) (*model.Order, error) {
	if !to.Valid() {
		return nil, &domainErrors.ValidationError{Fields: []domainErrors.FieldError{{
			Field: "status", Rule: "oneof", Message: "Unbekannter Status.",
		}}}
	}
	if to == model.OrderStatusDelivered {
		return u.Deliver(ctx, id)
	}

	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == to {
		return order, nil
	}
	if !order.Status.CanTransitionTo(to) {
		return nil, &domainErrors.TransitionError{From: string(order.Status), To: string(to)}
	}

	changed, err := u.orders.UpdateStatus(ctx, id, []model.OrderStatus{order.Status}, to)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, domainErrors.ErrConflict
	}

	u.metrics.Transition(string(to))
	u.logger.Info("order status changed",
		slog.String("order", order.OrderNumber),
		slog.String("from", string(order.Status)),
		slog.String("to", string(to)),
	)
	if to == model.OrderStatusRefunded {
		for _, kind := range []model.CampaignKind{model.CampaignAbandonedCheckout, model.CampaignPostDelivery} {
			if err := u.campaigns.Cancel(ctx, kind, order.OrderNumber); err != nil {
				u.logger.Warn("cancel campaign", slog.String("error", err.Error()))
			}
		}
	}
	order.Status = to
	return order, nil
}

// BatchTransition applies Transition to every id and reports each outcome.
func (u *FulfillmentUseCase) BatchTransition(ctx context.Context, ids []int64, to model.OrderStatus) []TransitionResult {
	results := make([]TransitionResult, 0, len(ids))
	for _, id := range ids {
		order, err := u.Transition(ctx, id, to)
		result := TransitionResult{OrderID: id, Err: err}
		if err == nil {
			result.Status = order.Status
		}
		results = append(results, result)
	}
	return results
}

// Deliver completes an order once every required deliverable is present,
// then notifies the customer exactly once.
func (u *FulfillmentUseCase) Deliver(ctx context.Context, id int64) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == model.OrderStatusDelivered {
		u.metrics.Delivery("duplicate")
		return nil, domainErrors.ErrAlreadyDelivered
	}
	if !order.Status.CanTransitionTo(model.OrderStatusDelivered) {
		return nil, &domainErrors.TransitionError{From: string(order.Status), To: string(model.OrderStatusDelivered)}
	}

	present, err := u.deliverables.ListByOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if missing := model.MissingDeliverables(order, present); len(missing) > 0 {
		u.metrics.Delivery("missing_deliverables")
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = string(m)
		}
		return nil, &domainErrors.MissingDeliverablesError{Missing: names}
	}

	downloadURL := u.baseURL + "/download/" + url.PathEscape(order.OrderNumber)
	at := u.now().UTC()
	claimed, err := u.orders.MarkDelivered(ctx, id, downloadURL, at)
	if err != nil {
		return nil, err
	}
	if !claimed {
		current, err := u.orders.GetByID(ctx, id)
		if err == nil && current.Status == model.OrderStatusDelivered {
			u.metrics.Delivery("duplicate")
			return nil, domainErrors.ErrAlreadyDelivered
		}
		return nil, domainErrors.ErrConflict
	}

	order.Status = model.OrderStatusDelivered
	order.DeliveryURL = downloadURL
	order.DeliveredAt = &at
	u.metrics.Delivery("delivered")
	u.metrics.Transition(string(model.OrderStatusDelivered))

	log := u.logger.With(slog.String("order", order.OrderNumber))
	log.Info("order delivered")

	if err := u.mailer.Send(ctx, mailer.Email{
		To:       order.CustomerEmail,
		Template: mailer.TemplateDelivery,
		Data: map[string]string{
			"customer_name":  order.CustomerName,
			"recipient_name": order.RecipientName,
			"order_number":   order.OrderNumber,
			"download_url":   downloadURL,
		},
	}); err != nil {
		u.metrics.Delivery("email_failed")
		log.Error("send delivery email", slog.String("error", err.Error()))
	}

	vars := map[string]string{
		"review_url":       u.baseURL + "/bewertung?order=" + url.QueryEscape(order.OrderNumber),
		"discount_percent": fmt.Sprint(ReferralDiscountPercent),
	}
	if code, err := u.referrals.Issue(ctx, order.CustomerEmail); err != nil {
		log.Warn("issue referral code", slog.String("error", err.Error()))
	} else {
		vars["referral_code"] = code.Code
	}
	if err := u.campaigns.Enroll(ctx, model.CampaignPostDelivery, order, vars); err != nil {
		log.Warn("enrol post delivery campaign", slog.String("error", err.Error()))
	}
	return order, nil
}

// AddDeliverable stores an uploaded file or registers an external URL.
func (u *FulfillmentUseCase) AddDeliverable(ctx context.Context, in DeliverableInput) (*model.Deliverable, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", domainErrors.ErrInvalidDeliverable, in.Type)
	}
	order, err := u.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order is %s", domainErrors.ErrInvalidDeliverable, order.Status)
	}

	fileName := strings.TrimSpace(in.FileName)
	fileURL := strings.TrimSpace(in.FileURL)
	stored := false
	if in.Content != nil {
		if fileName == "" {
			fileName = order.OrderNumber + "." + string(in.Type)
		}
		fileURL, err = u.files.Save(ctx, order.OrderNumber, fileName, in.Content)
		if err != nil {
			return nil, err
		}
		stored = true
	} else {
		parsed, err := url.Parse(fileURL)
		if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
			return nil, fmt.Errorf("%w: file url must be absolute", domainErrors.ErrInvalidDeliverable)
		}
		if fileName == "" {
			fileName = parsed.Path[strings.LastIndex(parsed.Path, "/")+1:]
		}
		if fileName == "" {
			fileName = order.OrderNumber + "." + string(in.Type)
		}
	}

	d, err := u.deliverables.Add(ctx, &model.Deliverable{
		OrderID:  order.ID,
		Type:     in.Type,
		FileURL:  fileURL,
		FileName: fileName,
	})
	if err != nil {
		if stored {
			if rmErr := u.files.Remove(fileURL); rmErr != nil {
				u.logger.Warn("remove orphaned upload", slog.String("error", rmErr.Error()))
			}
		}
		return nil, err
	}
	u.logger.Info("deliverable added",
		slog.String("order", order.OrderNumber),
		slog.String("type", string(d.Type)),
	)
	return d, nil
}

// RemoveDeliverable deletes a deliverable of an order that is not yet delivered.
func (u *FulfillmentUseCase) RemoveDeliverable(ctx context.Context, orderID, deliverableID int64) error {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status == model.OrderStatusDelivered {
		return fmt.Errorf("%w: order is delivered", domainErrors.ErrInvalidDeliverable)
	}
	items, err := u.deliverables.ListByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	var target *model.Deliverable
	for i := range items {
		if items[i].ID == deliverableID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return domainErrors.ErrNotFound
	}
	if err := u.deliverables.Delete(ctx, orderID, deliverableID); err != nil {
		return err
	}
	if err := u.files.Remove(target.FileURL); err != nil && !errors.Is(err, filestore.ErrOutsideStore) {
		u.logger.Warn("remove deliverable file", slog.String("error", err.Error()))
	}
	return nil
}
