// Package facade provides stubs of the application facade for HTTP tests.
package facade

import (
	"context"
	"time"

	"github.com/polkiloo/melodiemacher/internal/adapter/payment"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
	"github.com/polkiloo/melodiemacher/internal/usecase"
)

// AuthFacadeStub simulates admin authentication.
type AuthFacadeStub struct {
	LoginFn func(string, string) (string, error)
	ParseFn func(string) (string, error)
	TTL     time.Duration
}

func (s AuthFacadeStub) Login(email, password string) (string, error) {
	if s.LoginFn != nil {
		return s.LoginFn(email, password)
	}
	return "token", nil
}

func (s AuthFacadeStub) ParseToken(token string) (string, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return "admin@melodiemacher.de", nil
}

func (s AuthFacadeStub) SessionTTL() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return time.Hour
}

// CheckoutFacadeStub simulates checkout and the public order views.
type CheckoutFacadeStub struct {
	CheckoutFn func(context.Context, usecase.CheckoutInput) (*usecase.CheckoutResult, error)
	OrderFn    func(context.Context, string) (*usecase.OrderDetail, error)
	DownloadFn func(context.Context, string) (*usecase.OrderDetail, error)
}

func (s CheckoutFacadeStub) Checkout(ctx context.Context, in usecase.CheckoutInput) (*usecase.CheckoutResult, error) {
	if s.CheckoutFn != nil {
		return s.CheckoutFn(ctx, in)
	}
	return &usecase.CheckoutResult{OrderNumber: "MM-TEST-0001", SessionID: "cs_test", RedirectURL: "https://checkout.stripe.com/c/pay/cs_test", Total: 49}, nil
}

func (s CheckoutFacadeStub) OrderByNumber(ctx context.Context, number string) (*usecase.OrderDetail, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, number)
	}
	return &usecase.OrderDetail{Order: &model.Order{ID: 1, OrderNumber: number, Status: model.OrderStatusPaid, PackageType: model.PackageBasis}}, nil
}

func (s CheckoutFacadeStub) Download(ctx context.Context, number string) (*usecase.OrderDetail, error) {
	if s.DownloadFn != nil {
		return s.DownloadFn(ctx, number)
	}
	return &usecase.OrderDetail{Order: &model.Order{ID: 1, OrderNumber: number, Status: model.OrderStatusDelivered, RecipientName: "Oma Erna"}}, nil
}

// WebhookFacadeStub records applied payment events.
type WebhookFacadeStub struct {
	Event    *payment.Event
	ParseErr error
	ApplyErr error
	Applied  []*payment.Event
}

func (s *WebhookFacadeStub) ParseWebhook([]byte, string) (*payment.Event, error) {
	if s.ParseErr != nil {
		return nil, s.ParseErr
	}
	return s.Event, nil
}

func (s *WebhookFacadeStub) HandlePaymentEvent(_ context.Context, event *payment.Event) error {
	s.Applied = append(s.Applied, event)
	return s.ApplyErr
}

// MarketingFacadeStub simulates referral, loyalty and cron operations.
type MarketingFacadeStub struct {
	ValidateFn    func(context.Context, string) (*model.ReferralCode, error)
	IssueFn       func(context.Context, string) (*model.ReferralCode, error)
	LoyaltyFn     func(context.Context, string) (*usecase.LoyaltyStatus, error)
	DripFn        func(context.Context) (usecase.CronReport, error)
	AnniversaryFn func(context.Context) (usecase.CronReport, error)
}

func (s MarketingFacadeStub) ValidateReferral(ctx context.Context, code string) (*model.ReferralCode, error) {
	if s.ValidateFn != nil {
		return s.ValidateFn(ctx, code)
	}
	return &model.ReferralCode{Code: code, DiscountPercent: 10, Active: true}, nil
}

func (s MarketingFacadeStub) IssueReferral(ctx context.Context, email string) (*model.ReferralCode, error) {
	if s.IssueFn != nil {
		return s.IssueFn(ctx, email)
	}
	return &model.ReferralCode{Code: "MMABC123", OwnerEmail: email, DiscountPercent: 10, Active: true}, nil
}

func (s MarketingFacadeStub) LoyaltyStatus(ctx context.Context, email string) (*usecase.LoyaltyStatus, error) {
	if s.LoyaltyFn != nil {
		return s.LoyaltyFn(ctx, email)
	}
	return &usecase.LoyaltyStatus{Email: email, Tier: model.TierStandard, PurchasesToVIP: 3}, nil
}

func (s MarketingFacadeStub) RunDrip(ctx context.Context) (usecase.CronReport, error) {
	if s.DripFn != nil {
		return s.DripFn(ctx)
	}
	return usecase.CronReport{}, nil
}

func (s MarketingFacadeStub) RunAnniversaries(ctx context.Context) (usecase.CronReport, error) {
	if s.AnniversaryFn != nil {
		return s.AnniversaryFn(ctx)
	}
	return usecase.CronReport{}, nil
}

// AdminFacadeStub simulates the dashboard operations.
type AdminFacadeStub struct {
	ListFn       func(context.Context, model.OrderFilter) ([]model.Order, error)
	DetailFn     func(context.Context, int64) (*usecase.OrderDetail, error)
	TransitionFn func(context.Context, int64, model.OrderStatus) (*model.Order, error)
	DeliverFn    func(context.Context, int64) (*model.Order, error)
	AddFn        func(context.Context, usecase.DeliverableInput) (*model.Deliverable, error)
	RemoveFn     func(context.Context, int64, int64) error
	PriorityFn   func(context.Context, int64) (*usecase.PriorityResult, error)
	BatchScoreFn func(context.Context, []int64) ([]usecase.PriorityResult, error)
	QualityFn    func(context.Context, int64) (*usecase.QualityResult, error)
	PromptFn     func(context.Context, int64) (*usecase.PromptOutcome, error)
}

func (s AdminFacadeStub) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, filter)
	}
	return []model.Order{{ID: 1, OrderNumber: "MM-TEST-0001", Status: model.OrderStatusPaid}}, nil
}

func (s AdminFacadeStub) OrderDetail(ctx context.Context, id int64) (*usecase.OrderDetail, error) {
	if s.DetailFn != nil {
		return s.DetailFn(ctx, id)
	}
	return &usecase.OrderDetail{Order: &model.Order{ID: id, Status: model.OrderStatusPaid}}, nil
}

func (s AdminFacadeStub) TransitionOrder(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	if s.TransitionFn != nil {
		return s.TransitionFn(ctx, id, status)
	}
	return &model.Order{ID: id, Status: status}, nil
}

func (s AdminFacadeStub) BatchTransition(ctx context.Context, ids []int64, status model.OrderStatus) []usecase.TransitionResult {
	results := make([]usecase.TransitionResult, 0, len(ids))
	for _, id := range ids {
		order, err := s.TransitionOrder(ctx, id, status)
		result := usecase.TransitionResult{OrderID: id, Err: err}
		if err == nil {
			result.Status = order.Status
		}
		results = append(results, result)
	}
	return results
}

func (s AdminFacadeStub) DeliverOrder(ctx context.Context, id int64) (*model.Order, error) {
	if s.DeliverFn != nil {
		return s.DeliverFn(ctx, id)
	}
	return &model.Order{ID: id, Status: model.OrderStatusDelivered}, nil
}

func (s AdminFacadeStub) AddDeliverable(ctx context.Context, in usecase.DeliverableInput) (*model.Deliverable, error) {
	if s.AddFn != nil {
		return s.AddFn(ctx, in)
	}
	return &model.Deliverable{ID: 1, OrderID: in.OrderID, Type: in.Type, FileURL: in.FileURL, FileName: in.FileName}, nil
}

func (s AdminFacadeStub) RemoveDeliverable(ctx context.Context, orderID, deliverableID int64) error {
	if s.RemoveFn != nil {
		return s.RemoveFn(ctx, orderID, deliverableID)
	}
	return nil
}

func (s AdminFacadeStub) ScorePriority(ctx context.Context, id int64) (*usecase.PriorityResult, error) {
	if s.PriorityFn != nil {
		return s.PriorityFn(ctx, id)
	}
	return &usecase.PriorityResult{OrderID: id, Scored: true, Priority: model.PriorityNormal}, nil
}

func (s AdminFacadeStub) ScoreBatch(ctx context.Context, ids []int64) ([]usecase.PriorityResult, error) {
	if s.BatchScoreFn != nil {
		return s.BatchScoreFn(ctx, ids)
	}
	return nil, nil
}

func (s AdminFacadeStub) AssessQuality(ctx context.Context, id int64) (*usecase.QualityResult, error) {
	if s.QualityFn != nil {
		return s.QualityFn(ctx, id)
	}
	return &usecase.QualityResult{OrderID: id, Scored: true, Score: 7}, nil
}

func (s AdminFacadeStub) GeneratePrompt(ctx context.Context, id int64) (*usecase.PromptOutcome, error) {
	if s.PromptFn != nil {
		return s.PromptFn(ctx, id)
	}
	return &usecase.PromptOutcome{OrderID: id, Generated: true, Prompt: "Titel: Test"}, nil
}

// StorefrontFacadeStub aggregates facade dependencies for HTTP layer tests.
type StorefrontFacadeStub struct {
	AuthFacadeStub
	CheckoutFacadeStub
	*WebhookFacadeStub
	MarketingFacadeStub
	AdminFacadeStub
}

// NewStorefrontFacadeStub returns a stub answering every call with defaults.
func NewStorefrontFacadeStub() *StorefrontFacadeStub {
	return &StorefrontFacadeStub{WebhookFacadeStub: &WebhookFacadeStub{}}
}
