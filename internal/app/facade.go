package app

import (
	"context"
	"time"

	"github.com/polkiloo/melodiemacher/internal/adapter/payment"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
	"github.com/polkiloo/melodiemacher/internal/usecase"
	"go.uber.org/fx"
)

// StorefrontFacade exposes the use cases to the HTTP layer and the worker.
type StorefrontFacade struct {
	admin       *usecase.AdminAuthUseCase
	checkout    *usecase.CheckoutUseCase
	fulfillment *usecase.FulfillmentUseCase
	orders      *usecase.OrderUseCase
	scoring     *usecase.ScoringUseCase
	pipeline    *usecase.PipelineUseCase
	referrals   *usecase.ReferralUseCase
	loyalty     *usecase.LoyaltyUseCase
	campaigns   *usecase.CampaignUseCase
	anniversary *usecase.AnniversaryUseCase
	gateway     payment.Gateway
}

// FacadeDeps groups the collaborators of StorefrontFacade.
type FacadeDeps struct {
	fx.In

	Admin       *usecase.AdminAuthUseCase
	Checkout    *usecase.CheckoutUseCase
	Fulfillment *usecase.FulfillmentUseCase
	Orders      *usecase.OrderUseCase
	Scoring     *usecase.ScoringUseCase
	Pipeline    *usecase.PipelineUseCase
	Referrals   *usecase.ReferralUseCase
	Loyalty     *usecase.LoyaltyUseCase
	Campaigns   *usecase.CampaignUseCase
	Anniversary *usecase.AnniversaryUseCase
	Gateway     payment.Gateway
}

func NewStorefrontFacade(d FacadeDeps) *StorefrontFacade {
	return &StorefrontFacade{
		admin:       d.Admin,
		checkout:    d.Checkout,
		fulfillment: d.Fulfillment,
		orders:      d.Orders,
		scoring:     d.Scoring,
		pipeline:    d.Pipeline,
		referrals:   d.Referrals,
		loyalty:     d.Loyalty,
		campaigns:   d.Campaigns,
		anniversary: d.Anniversary,
		gateway:     d.Gateway,
	}
}

func (f *StorefrontFacade) Login(email, password string) (string, error) {
	return f.admin.Login(email, password)
}

func (f *StorefrontFacade) ParseToken(token string) (string, error) {
	return f.admin.ParseToken(token)
}

func (f *StorefrontFacade) SessionTTL() time.Duration {
	return f.admin.SessionTTL()
}

func (f *StorefrontFacade) Checkout(ctx context.Context, in usecase.CheckoutInput) (*usecase.CheckoutResult, error) {
	return f.checkout.Checkout(ctx, in)
}

func (f *StorefrontFacade) OrderByNumber(ctx context.Context, number string) (*usecase.OrderDetail, error) {
	return f.orders.ByNumber(ctx, number)
}

func (f *StorefrontFacade) Download(ctx context.Context, number string) (*usecase.OrderDetail, error) {
	return f.orders.Download(ctx, number)
}

func (f *StorefrontFacade) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	return f.gateway.ParseWebhook(payload, signature)
}

func (f *StorefrontFacade) HandlePaymentEvent(ctx context.Context, event *payment.Event) error {
	return f.fulfillment.HandlePaymentEvent(ctx, event)
}

func (f *StorefrontFacade) ValidateReferral(ctx context.Context, code string) (*model.ReferralCode, error) {
	return f.referrals.Validate(ctx, code)
}

func (f *StorefrontFacade) IssueReferral(ctx context.Context, email string) (*model.ReferralCode, error) {
	return f.referrals.Issue(ctx, email)
}

func (f *StorefrontFacade) LoyaltyStatus(ctx context.Context, email string) (*usecase.LoyaltyStatus, error) {
	return f.loyalty.Status(ctx, email)
}

func (f *StorefrontFacade) RunDrip(ctx context.Context) (usecase.CronReport, error) {
	return f.campaigns.ProcessDue(ctx)
}

func (f *StorefrontFacade) RunAnniversaries(ctx context.Context) (usecase.CronReport, error) {
	return f.anniversary.ProcessDue(ctx)
}

func (f *StorefrontFacade) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	return f.orders.List(ctx, filter)
}

func (f *StorefrontFacade) OrderDetail(ctx context.Context, id int64) (*usecase.OrderDetail, error) {
	return f.orders.Detail(ctx, id)
}

func (f *StorefrontFacade) TransitionOrder(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	return f.fulfillment.Transition(ctx, id, status)
}

func (f *StorefrontFacade) BatchTransition(ctx context.Context, ids []int64, status model.OrderStatus) []usecase.TransitionResult {
	return f.fulfillment.BatchTransition(ctx, ids, status)
}

func (f *StorefrontFacade) DeliverOrder(ctx context.Context, id int64) (*model.Order, error) {
	return f.fulfillment.Deliver(ctx, id)
}

func (f *StorefrontFacade) AddDeliverable(ctx context.Context, in usecase.DeliverableInput) (*model.Deliverable, error) {
	return f.fulfillment.AddDeliverable(ctx, in)
}

func (f *StorefrontFacade) RemoveDeliverable(ctx context.Context, orderID, deliverableID int64) error {
	return f.fulfillment.RemoveDeliverable(ctx, orderID, deliverableID)
}

func (f *StorefrontFacade) ScorePriority(ctx context.Context, id int64) (*usecase.PriorityResult, error) {
	return f.scoring.ScorePriority(ctx, id)
}

func (f *StorefrontFacade) ScoreBatch(ctx context.Context, ids []int64) ([]usecase.PriorityResult, error) {
	return f.scoring.ScoreBatch(ctx, ids)
}

func (f *StorefrontFacade) AssessQuality(ctx context.Context, id int64) (*usecase.QualityResult, error) {
	return f.scoring.AssessQuality(ctx, id)
}

func (f *StorefrontFacade) GeneratePrompt(ctx context.Context, id int64) (*usecase.PromptOutcome, error) {
	return f.scoring.GeneratePrompt(ctx, id)
}

func (f *StorefrontFacade) OrdersForProduction(ctx context.Context, limit int) ([]model.Order, error) {
	return f.pipeline.Claim(ctx, limit)
}

func (f *StorefrontFacade) ProduceOrder(ctx context.Context, order *model.Order) error {
	return f.pipeline.Produce(ctx, order)
}
