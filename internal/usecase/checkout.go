package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/polkiloo/melodiemacher/internal/adapter/payment"
	"github.com/polkiloo/melodiemacher/internal/config"
	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
	"github.com/polkiloo/melodiemacher/internal/domain/repository"
	"github.com/polkiloo/melodiemacher/internal/metrics"
	"github.com/polkiloo/melodiemacher/internal/pricing"
)

const (
	orderNumberPrefix   = "MM"
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberSuffix   = 4
)

// CheckoutInput is the form plus the total displayed to the customer.
type CheckoutInput struct {
	Form        OrderForm
	ClientTotal *float64
}

// CheckoutResult tells the client where to pay.
type CheckoutResult struct {
	OrderNumber string
	SessionID   string
	RedirectURL string
	Total       int
	Items       []pricing.LineItem
}

// CheckoutUseCase turns a validated form into a payment session and pending order.
type CheckoutUseCase struct {
	orders    repository.OrderRepository
	gateway   payment.Gateway
	validator *FormValidator
	referrals *ReferralUseCase
	campaigns *CampaignUseCase
	logger    *slog.Logger
	metrics   *metrics.Metrics
	baseURL   string
	currency  string
	now       func() time.Time
}

// NewCheckoutUseCase constructs CheckoutUseCase.
func NewCheckoutUseCase(
	orders repository.OrderRepository,
	gateway payment.Gateway,
	validator *FormValidator,
	referrals *ReferralUseCase,
	campaigns *CampaignUseCase,
	cfg *config.Config,
	logger *slog.Logger,
	m *metrics.Metrics,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		orders:    orders,
		gateway:   gateway,
		validator: validator,
		referrals: referrals,
		campaigns: campaigns,
		logger:    logger,
		metrics:   m,
		baseURL:   cfg.PublicBaseURL,
		currency:  cfg.Currency,
		now:       time.Now,
	}
}

// Selection extracts the priced part of the form.
func (f *OrderForm) Selection() pricing.Selection {
	return pricing.Selection{
		Package:      model.PackageType(f.PackageType),
		Bundle:       model.Bundle(f.Bundle),
		Karaoke:      f.BumpKaraoke,
		Rush:         f.BumpRush,
		Gift:         f.BumpGift,
		CustomLyrics: f.HasCustomLyrics,
		LyricsText:   f.CustomLyrics,
	}
}

// Quote prices a selection without side effects.
func (u *CheckoutUseCase) Quote(sel pricing.Selection) (pricing.Quote, error) {
	q, err := pricing.Calculate(sel)
	if err != nil {
		return pricing.Quote{}, &domainErrors.ValidationError{Fields: []domainErrors.FieldError{{
			Field: "packageType", Rule: "oneof", Message: "Bitte wähle eine der angebotenen Optionen.",
		}}}
	}
	return q, nil
}

// Checkout validates the form, reprices it, opens a payment session and records
// the pending order.
func (u *CheckoutUseCase) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	form := in.Form
	if err := u.validator.Validate(&form); err != nil {
		u.metrics.Checkout("invalid")
		return nil, err
	}

	quote, err := u.Quote(form.Selection())
	if err != nil {
		u.metrics.Checkout("invalid")
		return nil, err
	}

	if in.ClientTotal != nil && !pricing.MatchesClientTotal(*in.ClientTotal, quote.Total) {
		u.metrics.PriceMismatch()
		u.metrics.Checkout("price_mismatch")
		u.logger.Warn("checkout price mismatch",
			slog.Float64("client_total", *in.ClientTotal),
			slog.Int("server_total", quote.Total),
			slog.String("package", string(quote.Package)),
			slog.String("bundle", string(quote.Bundle)),
		)
		return nil, &domainErrors.PriceMismatchError{ClientTotal: *in.ClientTotal, ServerTotal: quote.Total}
	}

	if form.ReferralCode != "" {
		code, err := u.referrals.Validate(ctx, form.ReferralCode)
		if err != nil {
			if errors.Is(err, domainErrors.ErrReferralInvalid) || errors.Is(err, domainErrors.ErrReferralExhausted) {
				u.metrics.Checkout("invalid")
				return nil, &domainErrors.ValidationError{Fields: []domainErrors.FieldError{{
					Field: "referralCode", Rule: "referral", Message: "Dieser Empfehlungscode ist nicht gültig.",
				}}}
			}
			return nil, err
		}
		if strings.EqualFold(strings.TrimSpace(code.OwnerEmail), strings.TrimSpace(form.CustomerEmail)) {
			u.metrics.Checkout("invalid")
			return nil, &domainErrors.ValidationError{Fields: []domainErrors.FieldError{{
				Field: "referralCode", Rule: "referral_owner", Message: "Den eigenen Empfehlungscode kannst du nicht selbst einlösen.",
			}}}
		}
	}

	number, err := u.newOrderNumber()
	if err != nil {
		return nil, err
	}

	session, err := u.gateway.CreateCheckoutSession(ctx, payment.SessionRequest{
		OrderNumber:   number,
		CustomerEmail: form.CustomerEmail,
		Currency:      u.currency,
		Items:         payment.ItemsFromQuote(quote),
		Metadata: map[string]string{
			"order_number":  number,
			"package_type":  string(quote.Package),
			"bundle":        string(quote.Bundle),
			"referral_code": form.ReferralCode,
			"utm_source":    form.UTMSource,
			"utm_medium":    form.UTMMedium,
			"utm_campaign":  form.UTMCampaign,
		},
		SuccessURL: u.baseURL + "/bestellung/erfolg?order=" + url.QueryEscape(number) + "&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  u.baseURL + "/bestellung?cancelled=" + url.QueryEscape(number),
	})
	if err != nil {
		u.metrics.Checkout("payment_error")
		u.logger.Error("create checkout session",
			slog.String("order", number),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	order := u.pendingOrder(&form, quote, number, session.ID)
	if _, err := u.orders.Create(ctx, order); err != nil {
		u.logger.Error("persist pending order",
			slog.String("order", number),
			slog.String("error", err.Error()),
		)
	} else if err := u.campaigns.Enroll(ctx, model.CampaignAbandonedCheckout, order, map[string]string{
		"resume_url": u.baseURL + "/bestellung?resume=" + url.QueryEscape(number),
	}); err != nil {
		u.logger.Warn("enrol abandoned checkout campaign",
			slog.String("order", number),
			slog.String("error", err.Error()),
		)
	}

	u.metrics.Checkout("created")
	u.logger.Info("checkout session created",
		slog.String("order", number),
		slog.Int("total", quote.Total),
	)
	return &CheckoutResult{
		OrderNumber: number,
		SessionID:   session.ID,
		RedirectURL: session.URL,
		Total:       quote.Total,
		Items:       quote.Items,
	}, nil
}

func (u *CheckoutUseCase) pendingOrder(form *OrderForm, quote pricing.Quote, number, sessionID string) *model.Order {
	order := &model.Order{
		OrderNumber:     number,
		CustomerName:    form.CustomerName,
		CustomerEmail:   form.CustomerEmail,
		PackageType:     quote.Package,
		Bundle:          quote.Bundle,
		BumpKaraoke:     form.BumpKaraoke,
		BumpRush:        form.BumpRush,
		BumpGift:        form.BumpGift,
		HasCustomLyrics: form.HasCustomLyrics && form.CustomLyrics != "",
		CustomLyrics:    form.CustomLyrics,
		BasePrice:       quote.BasePrice,
		TotalPrice:      quote.Total,
		RecipientName:   form.RecipientName,
		Occasion:        form.Occasion,
		Relationship:    form.Relationship,
		Story:           form.Story,
		Genre:           form.Genre,
		Mood:            form.Mood,
		AllowEnglish:    form.AllowEnglish,
		ReferralCode:    form.ReferralCode,
		UTMSource:       form.UTMSource,
		UTMMedium:       form.UTMMedium,
		UTMCampaign:     form.UTMCampaign,
		StripeSessionID: sessionID,
		Status:          model.OrderStatusPending,
	}
	if form.OccasionDate != "" {
		if d, err := time.Parse(time.DateOnly, form.OccasionDate); err == nil {
			order.OccasionDate = &d
		}
	}
	return order
}

// newOrderNumber builds MM-<base36 millis>-<4 random chars>.
func (u *CheckoutUseCase) newOrderNumber() (string, error) {
	var suffix strings.Builder
	limit := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := 0; i < orderNumberSuffix; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		suffix.WriteByte(orderNumberAlphabet[n.Int64()])
	}
	stamp := strings.ToUpper(strconv.FormatInt(u.now().UnixMilli(), 36))
	return orderNumberPrefix + "-" + stamp + "-" + suffix.String(), nil
}
