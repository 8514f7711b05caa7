package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Orders() OrderRepository
	Deliverables() DeliverableRepository
	Referrals() ReferralRepository
	Loyalty() LoyaltyRepository
	Campaigns() CampaignRepository
	Reminders() ReminderRepository
}
