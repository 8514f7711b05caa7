package dto

// EmailRequest names a customer.
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ReferralValidateRequest carries a code entered at checkout.
type ReferralValidateRequest struct {
	Code string `json:"code" binding:"required"`
}

// ReferralResponse describes a referral code.
type ReferralResponse struct {
	Valid           bool   `json:"valid"`
	Code            string `json:"code,omitempty"`
	DiscountPercent int    `json:"discountPercent,omitempty"`
	Message         string `json:"message,omitempty"`
}

// LoyaltyResponse reports a customer's tier.
type LoyaltyResponse struct {
	Email           string `json:"email"`
	PurchaseCount   int    `json:"purchaseCount"`
	Tier            string `json:"tier"`
	DiscountPercent int    `json:"discountPercent"`
	PurchasesToVIP  int    `json:"purchasesToVip"`
}
