package dto

import "time"

// DeliverableResponse describes one fulfillment artifact.
type DeliverableResponse struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	FileURL   string    `json:"fileUrl"`
	FileName  string    `json:"fileName"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublicOrderResponse is the customer facing order status.
type PublicOrderResponse struct {
	OrderNumber   string                `json:"orderNumber"`
	Status        string                `json:"status"`
	PackageType   string                `json:"packageType"`
	Bundle        string                `json:"bundle,omitempty"`
	RecipientName string                `json:"recipientName"`
	Occasion      string                `json:"occasion"`
	TotalPrice    int                   `json:"totalPrice"`
	DeliveryURL   string                `json:"deliveryUrl,omitempty"`
	DeliveredAt   *time.Time            `json:"deliveredAt,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
	Deliverables  []DeliverableResponse `json:"deliverables"`
}

// AdminOrderResponse is the full order as shown on the dashboard.
type AdminOrderResponse struct {
	ID                int64      `json:"id"`
	OrderNumber       string     `json:"orderNumber"`
	Status            string     `json:"status"`
	CustomerName      string     `json:"customerName"`
	CustomerEmail     string     `json:"customerEmail"`
	PackageType       string     `json:"packageType"`
	Bundle            string     `json:"bundle,omitempty"`
	BumpKaraoke       bool       `json:"bumpKaraoke"`
	BumpRush          bool       `json:"bumpRush"`
	BumpGift          bool       `json:"bumpGift"`
	HasCustomLyrics   bool       `json:"hasCustomLyrics"`
	CustomLyrics      string     `json:"customLyrics,omitempty"`
	BasePrice         int        `json:"basePrice"`
	TotalPrice        int        `json:"totalPrice"`
	RecipientName     string     `json:"recipientName"`
	Occasion          string     `json:"occasion"`
	OccasionDate      string     `json:"occasionDate,omitempty"`
	Relationship      string     `json:"relationship"`
	Story             string     `json:"story"`
	Genre             string     `json:"genre"`
	Mood              int        `json:"mood"`
	AllowEnglish      bool       `json:"allowEnglish"`
	ReferralCode      string     `json:"referralCode,omitempty"`
	UTMSource         string     `json:"utmSource,omitempty"`
	UTMMedium         string     `json:"utmMedium,omitempty"`
	UTMCampaign       string     `json:"utmCampaign,omitempty"`
	Priority          string     `json:"priority,omitempty"`
	PriorityReasons   []string   `json:"priorityReasons,omitempty"`
	SuggestedDeadline string     `json:"suggestedDeadline,omitempty"`
	QualityScore      *int       `json:"qualityScore,omitempty"`
	QualityDetails    string     `json:"qualityDetails,omitempty"`
	GeneratedPrompt   string     `json:"generatedPrompt,omitempty"`
	DeliveryURL       string     `json:"deliveryUrl,omitempty"`
	DeliveredAt       *time.Time `json:"deliveredAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// AdminOrderDetailResponse adds deliverables and their completeness.
type AdminOrderDetailResponse struct {
	Order        AdminOrderResponse    `json:"order"`
	Deliverables []DeliverableResponse `json:"deliverables"`
	Required     []string              `json:"required"`
	Missing      []string              `json:"missing"`
}
