package usecase

import "go.uber.org/fx"

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewFormValidator,
	NewAdminAuthUseCase,
	NewReferralUseCase,
	NewLoyaltyUseCase,
	NewCampaignUseCase,
	NewAnniversaryUseCase,
	NewCheckoutUseCase,
	NewFulfillmentUseCase,
	NewOrderUseCase,
	NewScoringUseCase,
	NewPipelineUseCase,
)
