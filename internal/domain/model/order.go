package model

import "time"

// PackageType is the purchased song package.
type PackageType string

const (
	PackageBasis   PackageType = "basis"
	PackagePlus    PackageType = "plus"
	PackagePremium PackageType = "premium"
)

// Valid reports whether p is a known package.
func (p PackageType) Valid() bool {
	switch p {
	case PackageBasis, PackagePlus, PackagePremium:
		return true
	}
	return false
}

// Bundle is a discounted preset of package and add-ons.
type Bundle string

const (
	BundleNone       Bundle = "none"
	BundleHochzeits  Bundle = "hochzeits-bundle"
	BundlePerfekt    Bundle = "perfekt-bundle"
	bundleUnselected Bundle = ""
)

// Valid reports whether b is a known bundle. The empty value means none.
func (b Bundle) Valid() bool {
	switch b {
	case BundleNone, BundleHochzeits, BundlePerfekt, bundleUnselected:
		return true
	}
	return false
}

// Selected reports whether an actual bundle was chosen.
func (b Bundle) Selected() bool {
	return b == BundleHochzeits || b == BundlePerfekt
}

// Normalize maps the empty bundle to BundleNone.
func (b Bundle) Normalize() Bundle {
	if b == bundleUnselected {
		return BundleNone
	}
	return b
}

// Bump is a paid add-on.
type Bump string

const (
	BumpKaraoke Bump = "karaoke"
	BumpRush    Bump = "rush"
	BumpGift    Bump = "gift"
)

// Supersedes lists the add-ons already contained in the bundle.
func (b Bundle) Supersedes() []Bump {
	switch b {
	case BundleHochzeits:
		return []Bump{BumpKaraoke, BumpGift}
	case BundlePerfekt:
		return []Bump{BumpKaraoke, BumpRush, BumpGift}
	}
	return nil
}

// Includes reports whether the bundle contains the add-on.
func (b Bundle) Includes(bump Bump) bool {
	for _, s := range b.Supersedes() {
		if s == bump {
			return true
		}
	}
	return false
}

// ForcedPackage returns the package a bundle enforces, if any.
func (b Bundle) ForcedPackage() (PackageType, bool) {
	if b == BundleHochzeits {
		return PackagePlus, true
	}
	return "", false
}

// Priority is the production urgency assigned by triage.
type Priority string

const (
	PriorityUnscored Priority = ""
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityUrgent   Priority = "urgent"
)

// Valid reports whether p is a scored priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities for sorting, higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Order is a customer song order.
type Order struct {
	ID          int64
	OrderNumber string

	CustomerName  string
	CustomerEmail string

	PackageType     PackageType
	Bundle          Bundle
	BumpKaraoke     bool
	BumpRush        bool
	BumpGift        bool
	HasCustomLyrics bool
	CustomLyrics    string
	BasePrice       int
	TotalPrice      int

	RecipientName string
	Occasion      string
	OccasionDate  *time.Time
	Relationship  string
	Story         string
	Genre         string
	Mood          int
	AllowEnglish  bool

	ReferralCode string
	UTMSource    string
	UTMMedium    string
	UTMCampaign  string

	StripeSessionID       string
	StripePaymentIntentID string

	Status      OrderStatus
	DeliveryURL string
	DeliveredAt *time.Time

	Priority          Priority
	PriorityReasons   []string
	SuggestedDeadline *time.Time
	QualityScore      *int
	QualityDetails    string
	GeneratedPrompt   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasKaraoke reports whether the karaoke version was purchased, individually or via bundle.
func (o *Order) HasKaraoke() bool {
	return o.BumpKaraoke || o.Bundle.Includes(BumpKaraoke)
}

// HasRush reports whether rush delivery was purchased, individually or via bundle.
func (o *Order) HasRush() bool {
	return o.BumpRush || o.Bundle.Includes(BumpRush)
}

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	Statuses []OrderStatus
	Priority Priority
	SortBy   string
	Desc     bool
	Limit    int
	Offset   int
}

const (
	SortByCreated  = "created"
	SortByPriority = "priority"
	SortByDeadline = "deadline"
)
