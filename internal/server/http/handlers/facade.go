package handlers

import (
	"context"
	"time"

	"github.com/polkiloo/melodiemacher/internal/adapter/payment"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
	"github.com/polkiloo/melodiemacher/internal/usecase"
)

// AuthFacade describes admin session capabilities required by handlers.
type AuthFacade interface {
	Login(email, password string) (string, error)
	ParseToken(token string) (string, error)
	SessionTTL() time.Duration
}

// CheckoutFacade covers checkout and the public order views.
type CheckoutFacade interface {
	Checkout(ctx context.Context, in usecase.CheckoutInput) (*usecase.CheckoutResult, error)
	OrderByNumber(ctx context.Context, number string) (*usecase.OrderDetail, error)
	Download(ctx context.Context, number string) (*usecase.OrderDetail, error)
}

// WebhookFacade verifies and applies payment provider events.
type WebhookFacade interface {
	ParseWebhook(payload []byte, signature string) (*payment.Event, error)
	HandlePaymentEvent(ctx context.Context, event *payment.Event) error
}

// MarketingFacade exposes referral, loyalty and scheduled campaign operations.
type MarketingFacade interface {
	ValidateReferral(ctx context.Context, code string) (*model.ReferralCode, error)
	IssueReferral(ctx context.Context, email string) (*model.ReferralCode, error)
	LoyaltyStatus(ctx context.Context, email string) (*usecase.LoyaltyStatus, error)
	RunDrip(ctx context.Context) (usecase.CronReport, error)
	RunAnniversaries(ctx context.Context) (usecase.CronReport, error)
}

// AdminFacade exposes dashboard operations over orders.
type AdminFacade interface {
	ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	OrderDetail(ctx context.Context, id int64) (*usecase.OrderDetail, error)
	TransitionOrder(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)
	BatchTransition(ctx context.Context, ids []int64, status model.OrderStatus) []usecase.TransitionResult
	DeliverOrder(ctx context.Context, id int64) (*model.Order, error)
	AddDeliverable(ctx context.Context, in usecase.DeliverableInput) (*model.Deliverable, error)
	RemoveDeliverable(ctx context.Context, orderID, deliverableID int64) error
	ScorePriority(ctx context.Context, id int64) (*usecase.PriorityResult, error)
	ScoreBatch(ctx context.Context, ids []int64) ([]usecase.PriorityResult, error)
	AssessQuality(ctx context.Context, id int64) (*usecase.QualityResult, error)
	GeneratePrompt(ctx context.Context, id int64) (*usecase.PromptOutcome, error)
}

// StorefrontFacade aggregates the full set of operations used across handlers.
type StorefrontFacade interface {
	AuthFacade
	CheckoutFacade
	WebhookFacade
	MarketingFacade
	AdminFacade
}
