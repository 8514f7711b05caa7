package model

import "time"

// ReferralCode is a customer's shareable discount code.
type ReferralCode struct {
	ID              int64
	Code            string
	OwnerEmail      string
	DiscountPercent int
	Uses            int
	MaxUses         *int
	Active          bool
	CreatedAt       time.Time
}

// Exhausted reports whether the code reached its usage limit.
func (r *ReferralCode) Exhausted() bool {
	return r.MaxUses != nil && r.Uses >= *r.MaxUses
}

// LoyaltyTier is a customer's loyalty level.
type LoyaltyTier string

const (
	TierStandard LoyaltyTier = "standard"
	TierVIP      LoyaltyTier = "vip"
)

// Rank orders tiers so upgrades can be checked.
func (t LoyaltyTier) Rank() int {
	if t == TierVIP {
		return 1
	}
	return 0
}

// LoyaltyAccount aggregates purchases of one customer.
type LoyaltyAccount struct {
	Email           string
	PurchaseCount   int
	Tier            LoyaltyTier
	DiscountPercent int
	UpdatedAt       time.Time
}

// CampaignKind identifies a drip email sequence.
type CampaignKind string

const (
	CampaignAbandonedCheckout CampaignKind = "abandoned_checkout"
	CampaignPostDelivery      CampaignKind = "post_delivery"
)

// EnrollmentStatus describes a drip enrolment lifecycle.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
	EnrollmentFailed    EnrollmentStatus = "failed"
)

// CampaignEnrollment tracks one customer's progress through a campaign.
type CampaignEnrollment struct {
	ID          int64
	Campaign    CampaignKind
	Email       string
	Name        string
	OrderNumber string
	Step        int
	NextSendAt  time.Time
	Status      EnrollmentStatus
	Attempts    int
	LastError   string
	Vars        map[string]string
	CreatedAt   time.Time
}

// ReminderStatus describes an anniversary reminder outcome.
type ReminderStatus string

const (
	ReminderClaimed ReminderStatus = "claimed"
	ReminderSent    ReminderStatus = "sent"
	ReminderFailed  ReminderStatus = "failed"
)

// AnniversaryReminder records a reminder for one order in one year.
type AnniversaryReminder struct {
	ID      int64
	OrderID int64
	Year    int
	Status  ReminderStatus
}
