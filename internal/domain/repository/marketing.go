package repository

import (
	"context"
	"time"

	"github.com/polkiloo/melodiemacher/internal/domain/model"
)

// ReferralRepository manages referral codes and redemptions.
type ReferralRepository interface {
	Create(ctx context.Context, code *model.ReferralCode) (*model.ReferralCode, error)
	GetByCode(ctx context.Context, code string) (*model.ReferralCode, error)
	GetActiveByOwner(ctx context.Context, email string) (*model.ReferralCode, error)
	// Redeem records a redemption once per order and reports whether it was new.
	Redeem(ctx context.Context, code, orderNumber, email string) (bool, error)
}

// LoyaltyRepository tracks purchases per customer.
type LoyaltyRepository interface {
	Get(ctx context.Context, email string) (*model.LoyaltyAccount, error)
	// RecordPurchase counts an order once and returns the updated account.
	RecordPurchase(ctx context.Context, email, orderNumber string) (*model.LoyaltyAccount, bool, error)
	UpgradeTier(ctx context.Context, email string, tier model.LoyaltyTier, discount int) error
}

// CampaignRepository stores drip campaign enrolments.
type CampaignRepository interface {
	Enroll(ctx context.Context, e *model.CampaignEnrollment) (*model.CampaignEnrollment, error)
	Cancel(ctx context.Context, campaign model.CampaignKind, orderNumber string) (int64, error)
	ClaimDue(ctx context.Context, now time.Time, limit int, staleAfter time.Duration) ([]model.CampaignEnrollment, error)
	Advance(ctx context.Context, id int64, step int, next time.Time) error
	Complete(ctx context.Context, id int64, status model.EnrollmentStatus, lastError string) error
	Retry(ctx context.Context, id int64, attempts int, next time.Time, lastError string) error
}

// ReminderRepository stores anniversary reminders.
type ReminderRepository interface {
	// Claim inserts a reminder row and reports false when one already exists.
	Claim(ctx context.Context, orderID int64, year int) (*model.AnniversaryReminder, bool, error)
	SetStatus(ctx context.Context, id int64, status model.ReminderStatus) error
}
