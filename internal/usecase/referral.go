package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
	"github.com/polkiloo/melodiemacher/internal/domain/repository"
)

const (
	// ReferralDiscountPercent is granted to friends using a referral code.
	ReferralDiscountPercent = 10
	referralMaxUses         = 10
	referralCodeLength      = 8
	referralCodePrefix      = "MM"
	referralIssueAttempts   = 3
)

// ReferralUseCase issues, validates and redeems referral codes.
type ReferralUseCase struct {
	referrals repository.ReferralRepository
	logger    *slog.Logger
	newCode   func() string
}

// NewReferralUseCase constructs ReferralUseCase.
func NewReferralUseCase(referrals repository.ReferralRepository, logger *slog.Logger) *ReferralUseCase {
	return &ReferralUseCase{referrals: referrals, logger: logger, newCode: randomReferralCode}
}

func randomReferralCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return referralCodePrefix + raw[:referralCodeLength-len(referralCodePrefix)]
}

// NormalizeReferralCode canonicalizes user input.
func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Issue returns the customer's active code, creating one when none exists.
func (u *ReferralUseCase) Issue(ctx context.Context, email string) (*model.ReferralCode, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, &domainErrors.ValidationError{Fields: []domainErrors.FieldError{{
			Field: "email", Rule: "required", Message: "Dieses Feld ist erforderlich.",
		}}}
	}

	for attempt := 0; attempt < referralIssueAttempts; attempt++ {
		existing, err := u.referrals.GetActiveByOwner(ctx, email)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domainErrors.ErrNotFound) {
			return nil, err
		}

		maxUses := referralMaxUses
		created, err := u.referrals.Create(ctx, &model.ReferralCode{
			Code:            u.newCode(),
			OwnerEmail:      email,
			DiscountPercent: ReferralDiscountPercent,
			MaxUses:         &maxUses,
			Active:          true,
		})
		if err == nil {
			u.logger.Info("referral code issued", slog.String("code", created.Code))
			return created, nil
		}
		if !errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil, err
		}
	}
	return nil, domainErrors.ErrConflict
}

// Validate checks that a code can still be used.
func (u *ReferralUseCase) Validate(ctx context.Context, code string) (*model.ReferralCode, error) {
	code = NormalizeReferralCode(code)
	if code == "" {
		return nil, domainErrors.ErrReferralInvalid
	}
	rc, err := u.referrals.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.ErrReferralInvalid
		}
		return nil, err
	}
	if !rc.Active {
		return nil, domainErrors.ErrReferralInvalid
	}
	if rc.Exhausted() {
		return nil, domainErrors.ErrReferralExhausted
	}
	return rc, nil
}

// Redeem books the referral of a paid order. Own codes are not redeemable.
func (u *ReferralUseCase) Redeem(ctx context.Context, order *model.Order) error {
	code := NormalizeReferralCode(order.ReferralCode)
	if code == "" {
		return nil
	}
	rc, err := u.Validate(ctx, code)
	if err != nil {
		return err
	}
	if strings.EqualFold(rc.OwnerEmail, order.CustomerEmail) {
		return domainErrors.ErrReferralInvalid
	}
	redeemed, err := u.referrals.Redeem(ctx, code, order.OrderNumber, order.CustomerEmail)
	if err != nil {
		return err
	}
	if redeemed {
		u.logger.Info("referral redeemed",
			slog.String("code", code),
			slog.String("order", order.OrderNumber),
		)
	}
	return nil
}
