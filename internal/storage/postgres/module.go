package postgres

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/melodiemacher/internal/config"
	"github.com/polkiloo/melodiemacher/internal/domain/repository"
)

// Module wires PostgreSQL storage and repository adapters.
var Module = fx.Options(
	fx.Provide(newStorage),
	fx.Provide(
		func(s *Storage) repository.OrderRepository { return s.Orders() },
		func(s *Storage) repository.DeliverableRepository { return s.Deliverables() },
		func(s *Storage) repository.ReferralRepository { return s.Referrals() },
		func(s *Storage) repository.LoyaltyRepository { return s.Loyalty() },
		func(s *Storage) repository.CampaignRepository { return s.Campaigns() },
		func(s *Storage) repository.ReminderRepository { return s.Reminders() },
	),
	fx.Invoke(registerLifecycle),
)

type storageParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

func newStorage(p storageParams) (*Storage, error) {
	return New(p.Ctx, p.Config.DatabaseURI, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, storage *Storage) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			storage.Close()
			return nil
		},
	})
}
