package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
	"github.com/polkiloo/melodiemacher/internal/domain/repository"
)

const (
	// VIPPurchaseThreshold is the number of paid orders that unlocks the VIP tier.
	VIPPurchaseThreshold = 3
	// VIPDiscountPercent is the permanent VIP discount.
	VIPDiscountPercent = 10
)

// LoyaltyStatus reports a customer's tier and progress.
type LoyaltyStatus struct {
	Email           string
	PurchaseCount   int
	Tier            model.LoyaltyTier
	DiscountPercent int
	PurchasesToVIP  int
}

// LoyaltyUseCase counts purchases and upgrades tiers.
type LoyaltyUseCase struct {
	loyalty repository.LoyaltyRepository
	logger  *slog.Logger
}

// NewLoyaltyUseCase constructs LoyaltyUseCase.
func NewLoyaltyUseCase(loyalty repository.LoyaltyRepository, logger *slog.Logger) *LoyaltyUseCase {
	return &LoyaltyUseCase{loyalty: loyalty, logger: logger}
}

// RecordPurchase counts a paid order once and upgrades the tier when due.
func (u *LoyaltyUseCase) RecordPurchase(ctx context.Context, email, orderNumber string) (*LoyaltyStatus, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	account, _, err := u.loyalty.RecordPurchase(ctx, email, orderNumber)
	if err != nil {
		return nil, err
	}
	if account.PurchaseCount >= VIPPurchaseThreshold && account.Tier.Rank() < model.TierVIP.Rank() {
		if err := u.loyalty.UpgradeTier(ctx, email, model.TierVIP, VIPDiscountPercent); err != nil {
			return nil, err
		}
		account.Tier = model.TierVIP
		account.DiscountPercent = max(account.DiscountPercent, VIPDiscountPercent)
		u.logger.Info("loyalty tier upgraded", slog.String("tier", string(model.TierVIP)))
	}
	return statusOf(account), nil
}

// Status returns the loyalty status for a customer, which may have no purchases.
func (u *LoyaltyUseCase) Status(ctx context.Context, email string) (*LoyaltyStatus, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	account, err := u.loyalty.Get(ctx, email)
	if errors.Is(err, domainErrors.ErrNotFound) {
		account = &model.LoyaltyAccount{Email: email, Tier: model.TierStandard}
	} else if err != nil {
		return nil, err
	}
	return statusOf(account), nil
}

func statusOf(a *model.LoyaltyAccount) *LoyaltyStatus {
	tier := a.Tier
	if tier == "" {
		tier = model.TierStandard
	}
	status := &LoyaltyStatus{
		Email:           a.Email,
		PurchaseCount:   a.PurchaseCount,
		Tier:            tier,
		DiscountPercent: a.DiscountPercent,
	}
	if tier.Rank() < model.TierVIP.Rank() {
		status.PurchasesToVIP = max(VIPPurchaseThreshold-a.PurchaseCount, 0)
	}
	return status
}
