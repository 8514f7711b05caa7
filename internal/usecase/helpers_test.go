package usecase

import (
	"io"
	"log/slog"
	"time"

	"github.com/polkiloo/melodiemacher/internal/config"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
	testhelpers "github.com/polkiloo/melodiemacher/internal/test"
)

var fixedNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		PublicBaseURL:       "https://melodiemacher.de",
		Currency:            "eur",
		CronBatchSize:       50,
		AnniversaryLeadDays: 14,
		WorkerPoolSize:      2,
		AdminEmail:          "admin@melodiemacher.de",
		SessionTTL:          time.Hour,
	}
}

type fixture struct {
	repos     *testhelpers.RepositoryFactoryStub
	mailer    *testhelpers.MailerStub
	gateway   *testhelpers.GatewayStub
	files     *testhelpers.FileStoreStub
	assistant *testhelpers.AssistantStub

	referrals   *ReferralUseCase
	loyalty     *LoyaltyUseCase
	campaigns   *CampaignUseCase
	anniversary *AnniversaryUseCase
	checkout    *CheckoutUseCase
	fulfillment *FulfillmentUseCase
	queries     *OrderUseCase
	scoring     *ScoringUseCase
	pipeline    *PipelineUseCase
}

func newFixture(orders ...model.Order) *fixture {
	cfg := testConfig()
	logger := discardLogger()
	f := &fixture{
		repos:     testhelpers.NewRepositoryFactoryStub(),
		mailer:    &testhelpers.MailerStub{},
		gateway:   &testhelpers.GatewayStub{},
		files:     testhelpers.NewFileStoreStub(),
		assistant: &testhelpers.AssistantStub{},
	}
	f.repos.OrderRepo = testhelpers.NewOrderRepositoryStub(orders...)
	f.repos.OrderRepo.Reminders = f.repos.ReminderRepo
	now := func() time.Time { return fixedNow }

	f.referrals = NewReferralUseCase(f.repos.ReferralRepo, logger)
	f.loyalty = NewLoyaltyUseCase(f.repos.LoyaltyRepo, logger)
	f.campaigns = NewCampaignUseCase(f.repos.CampaignRepo, f.mailer, cfg, logger, nil)
	f.campaigns.now = now
	f.anniversary = NewAnniversaryUseCase(f.repos.OrderRepo, f.repos.ReminderRepo, f.mailer, cfg, logger, nil)
	f.anniversary.now = now
	f.checkout = NewCheckoutUseCase(f.repos.OrderRepo, f.gateway, NewFormValidator(), f.referrals, f.campaigns, cfg, logger, nil)
	f.checkout.now = now
	f.fulfillment = NewFulfillmentUseCase(FulfillmentDeps{
		Orders:       f.repos.OrderRepo,
		Deliverables: f.repos.DeliverableRepo,
		Files:        f.files,
		Mailer:       f.mailer,
		Referrals:    f.referrals,
		Loyalty:      f.loyalty,
		Campaigns:    f.campaigns,
		Config:       cfg,
		Logger:       logger,
	})
	f.fulfillment.now = now
	f.queries = NewOrderUseCase(f.repos.OrderRepo, f.repos.DeliverableRepo)
	f.scoring = NewScoringUseCase(f.repos.OrderRepo, f.assistant, cfg, logger, nil)
	f.pipeline = NewPipelineUseCase(f.repos.OrderRepo, f.scoring, logger, nil)
	return f
}

func basisOrder(id int64, status model.OrderStatus) model.Order {
	return model.Order{
		ID:              id,
		OrderNumber:     "MM-TEST-000" + string(rune('0'+id)),
		CustomerName:    "Anna",
		CustomerEmail:   "anna@example.de",
		PackageType:     model.PackageBasis,
		Bundle:          model.BundleNone,
		RecipientName:   "Oma Erna",
		Occasion:        "Geburtstag",
		Status:          status,
		StripeSessionID: "cs_" + string(rune('0'+id)),
	}
}
