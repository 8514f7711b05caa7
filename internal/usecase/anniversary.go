package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/polkiloo/melodiemacher/internal/adapter/mailer"
	"github.com/polkiloo/melodiemacher/internal/config"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
	"github.com/polkiloo/melodiemacher/internal/domain/repository"
	"github.com/polkiloo/melodiemacher/internal/metrics"
)

// AnniversaryUseCase reminds customers ahead of a recurring occasion.
type AnniversaryUseCase struct {
	orders    repository.OrderRepository
	reminders repository.ReminderRepository
	mailer    mailer.Mailer
	logger    *slog.Logger
	metrics   *metrics.Metrics
	baseURL   string
	leadDays  int
	batchSize int
	now       func() time.Time
}

// NewAnniversaryUseCase constructs AnniversaryUseCase.
func NewAnniversaryUseCase(orders repository.OrderRepository, reminders repository.ReminderRepository, m mailer.Mailer, cfg *config.Config, logger *slog.Logger, mt *metrics.Metrics) *AnniversaryUseCase {
	return &AnniversaryUseCase{
		orders:    orders,
		reminders: reminders,
		mailer:    m,
		logger:    logger,
		metrics:   mt,
		baseURL:   cfg.PublicBaseURL,
		leadDays:  cfg.AnniversaryLeadDays,
		batchSize: cfg.CronBatchSize,
		now:       time.Now,
	}
}

// windowByYear returns the MM-DD keys from today through today+lead, grouped by
// the year in which each day falls.
func windowByYear(today time.Time, lead int) map[int][]string {
	result := make(map[int][]string)
	for d := 0; d <= lead; d++ {
		day := today.AddDate(0, 0, d)
		result[day.Year()] = append(result[day.Year()], day.Format("01-02"))
		if day.Month() == time.February && day.Day() == 28 && !isLeap(day.Year()) {
			result[day.Year()] = append(result[day.Year()], "02-29")
		}
	}
	return result
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// ProcessDue sends reminders for occasions recurring within the lead window.
func (u *AnniversaryUseCase) ProcessDue(ctx context.Context) (CronReport, error) {
	var report CronReport
	now := u.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	window := windowByYear(today, u.leadDays)
	years := make([]int, 0, len(window))
	for y := range window {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, year := range years {
		remaining := u.batchSize - report.Processed
		if remaining <= 0 {
			break
		}
		orders, err := u.orders.DueAnniversaries(ctx, window[year], year, remaining)
		if err != nil {
			return report, err
		}
		for i := range orders {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Processed++
			result := u.remind(ctx, &orders[i], year)
			u.metrics.CronItem(cronJobReminders, result)
			switch result {
			case "sent":
				report.Sent++
			case "failed":
				report.Failed++
			default:
				report.Skipped++
			}
		}
	}
	return report, nil
}

func (u *AnniversaryUseCase) remind(ctx context.Context, order *model.Order, year int) string {
	log := u.logger.With(slog.String("order", order.OrderNumber), slog.Int("year", year))
	reminder, claimed, err := u.reminders.Claim(ctx, order.ID, year)
	if err != nil {
		log.Error("claim reminder", slog.String("error", err.Error()))
		return "failed"
	}
	if !claimed {
		return "skipped"
	}

	occasion := *order.OccasionDate
	next := time.Date(year, occasion.Month(), occasion.Day(), 0, 0, 0, 0, time.UTC)
	err = u.mailer.Send(ctx, mailer.Email{
		To:       order.CustomerEmail,
		Template: mailer.TemplateAnniversary,
		Data: map[string]string{
			"customer_name":  order.CustomerName,
			"recipient_name": order.RecipientName,
			"occasion":       order.Occasion,
			"occasion_date":  next.Format("02.01.2006"),
			"years":          fmt.Sprint(year - occasion.Year()),
			"order_url":      u.baseURL + "/bestellung?utm_source=email&utm_campaign=anniversary",
		},
	})

	status := model.ReminderSent
	if err != nil {
		log.Warn("anniversary email failed", slog.String("error", err.Error()))
		status = model.ReminderFailed
	}
	if err := u.reminders.SetStatus(ctx, reminder.ID, status); err != nil {
		log.Error("record reminder status", slog.String("error", err.Error()))
	}
	if status == model.ReminderFailed {
		return "failed"
	}
	return "sent"
}
