package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/polkiloo/melodiemacher/internal/adapter/mailer"
	"github.com/polkiloo/melodiemacher/internal/config"
	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
	"github.com/polkiloo/melodiemacher/internal/domain/repository"
	"github.com/polkiloo/melodiemacher/internal/metrics"
)

const (
	maxDripAttempts  = 3
	dripRetryDelay   = 15 * time.Minute
	cronClaimStale   = 10 * time.Minute
	cronJobDrip      = "drip"
	cronJobReminders = "anniversary"
)

type campaignStep struct {
	After    time.Duration
	Template string
}

// campaignSteps offsets are measured from enrolment.
var campaignSteps = map[model.CampaignKind][]campaignStep{
	model.CampaignAbandonedCheckout: {
		{After: 2 * time.Hour, Template: mailer.TemplateAbandonedCheckout1},
		{After: 24 * time.Hour, Template: mailer.TemplateAbandonedCheckout2},
	},
	model.CampaignPostDelivery: {
		{After: 3 * 24 * time.Hour, Template: mailer.TemplateReviewRequest},
		{After: 14 * 24 * time.Hour, Template: mailer.TemplateReferralInvite},
	},
}

// CronReport summarizes one cron invocation.
type CronReport struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// CampaignUseCase enrols customers into drip campaigns and sends due steps.
type CampaignUseCase struct {
	campaigns repository.CampaignRepository
	mailer    mailer.Mailer
	logger    *slog.Logger
	metrics   *metrics.Metrics
	batchSize int
	now       func() time.Time
}

// NewCampaignUseCase constructs CampaignUseCase.
func NewCampaignUseCase(campaigns repository.CampaignRepository, m mailer.Mailer, cfg *config.Config, logger *slog.Logger, mt *metrics.Metrics) *CampaignUseCase {
	return &CampaignUseCase{
		campaigns: campaigns,
		mailer:    m,
		logger:    logger,
		metrics:   mt,
		batchSize: cfg.CronBatchSize,
		now:       time.Now,
	}
}

// Enroll starts a campaign for an order. Repeated enrolment is a no-op.
func (u *CampaignUseCase) Enroll(ctx context.Context, kind model.CampaignKind, order *model.Order, vars map[string]string) error {
	steps, ok := campaignSteps[kind]
	if !ok {
		return fmt.Errorf("unknown campaign %q", kind)
	}
	_, err := u.campaigns.Enroll(ctx, &model.CampaignEnrollment{
		Campaign:    kind,
		Email:       order.CustomerEmail,
		Name:        order.CustomerName,
		OrderNumber: order.OrderNumber,
		NextSendAt:  u.now().Add(steps[0].After),
		Vars:        vars,
	})
	if errors.Is(err, domainErrors.ErrAlreadyExists) {
		return nil
	}
	return err
}

// Cancel stops a campaign for an order.
func (u *CampaignUseCase) Cancel(ctx context.Context, kind model.CampaignKind, orderNumber string) error {
	n, err := u.campaigns.Cancel(ctx, kind, orderNumber)
	if err != nil {
		return err
	}
	if n > 0 {
		u.logger.Info("campaign cancelled",
			slog.String("campaign", string(kind)),
			slog.String("order", orderNumber),
		)
	}
	return nil
}

// ProcessDue sends every due campaign step claimed by this invocation.
func (u *CampaignUseCase) ProcessDue(ctx context.Context) (CronReport, error) {
	var report CronReport
	now := u.now()
	due, err := u.campaigns.ClaimDue(ctx, now, u.batchSize, cronClaimStale)
	if err != nil {
		return report, err
	}

	for _, e := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++
		result := u.sendStep(ctx, e, now)
		u.metrics.CronItem(cronJobDrip, result)
		switch result {
		case "sent":
			report.Sent++
		case "failed", "retry":
			report.Failed++
		default:
			report.Skipped++
		}
	}
	return report, nil
}

func (u *CampaignUseCase) sendStep(ctx context.Context, e model.CampaignEnrollment, now time.Time) string {
	log := u.logger.With(slog.Int64("enrollment", e.ID), slog.String("campaign", string(e.Campaign)))
	steps := campaignSteps[e.Campaign]
	if e.Step < 0 || e.Step >= len(steps) {
		if err := u.campaigns.Complete(ctx, e.ID, model.EnrollmentCompleted, ""); err != nil {
			log.Error("complete enrollment", slog.String("error", err.Error()))
		}
		return "skipped"
	}

	step := steps[e.Step]
	data := make(map[string]string, len(e.Vars)+2)
	for k, v := range e.Vars {
		data[k] = v
	}
	data["customer_name"] = e.Name
	data["order_number"] = e.OrderNumber

	sendErr := u.mailer.Send(ctx, mailer.Email{To: e.Email, Template: step.Template, Data: data})
	if sendErr != nil {
		attempts := e.Attempts + 1
		log.Warn("drip email failed",
			slog.Int("attempt", attempts),
			slog.String("error", sendErr.Error()),
		)
		if attempts >= maxDripAttempts {
			if err := u.campaigns.Complete(ctx, e.ID, model.EnrollmentFailed, sendErr.Error()); err != nil {
				log.Error("mark enrollment failed", slog.String("error", err.Error()))
			}
			return "failed"
		}
		if err := u.campaigns.Retry(ctx, e.ID, attempts, now.Add(time.Duration(attempts)*dripRetryDelay), sendErr.Error()); err != nil {
			log.Error("schedule retry", slog.String("error", err.Error()))
		}
		return "retry"
	}

	next := e.Step + 1
	var err error
	if next < len(steps) {
		err = u.campaigns.Advance(ctx, e.ID, next, now.Add(steps[next].After-step.After))
	} else {
		err = u.campaigns.Complete(ctx, e.ID, model.EnrollmentCompleted, "")
	}
	if err != nil {
		log.Error("record drip progress", slog.String("error", err.Error()))
	}
	return "sent"
}
