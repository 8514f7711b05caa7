package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
)

const orderColumns = `id, order_number, customer_name, customer_email,
    package_type, selected_bundle, bump_karaoke, bump_rush, bump_gift, has_custom_lyrics, custom_lyrics,
    base_price, total_price,
    recipient_name, occasion, occasion_date, relationship, story, genre, mood, allow_english,
    referral_code, utm_source, utm_medium, utm_campaign,
    COALESCE(stripe_session_id, ''), COALESCE(stripe_payment_intent_id, ''),
    status, delivery_url, delivered_at,
    priority, priority_reasons, suggested_deadline, quality_score, quality_details, generated_prompt,
    created_at, updated_at`

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerName, &o.CustomerEmail,
		&o.PackageType, &o.Bundle, &o.BumpKaraoke, &o.BumpRush, &o.BumpGift, &o.HasCustomLyrics, &o.CustomLyrics,
		&o.BasePrice, &o.TotalPrice,
		&o.RecipientName, &o.Occasion, &o.OccasionDate, &o.Relationship, &o.Story, &o.Genre, &o.Mood, &o.AllowEnglish,
		&o.ReferralCode, &o.UTMSource, &o.UTMMedium, &o.UTMCampaign,
		&o.StripeSessionID, &o.StripePaymentIntentID,
		&o.Status, &o.DeliveryURL, &o.DeliveredAt,
		&o.Priority, &o.PriorityReasons, &o.SuggestedDeadline, &o.QualityScore, &o.QualityDetails, &o.GeneratedPrompt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func statusStrings(statuses []model.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *orderRepository) Create(ctx context.Context, o *model.Order) (*model.Order, error) {
	const query = `INSERT INTO orders (
            order_number, customer_name, customer_email,
            package_type, selected_bundle, bump_karaoke, bump_rush, bump_gift, has_custom_lyrics, custom_lyrics,
            base_price, total_price,
            recipient_name, occasion, occasion_date, relationship, story, genre, mood, allow_english,
            referral_code, utm_source, utm_medium, utm_campaign,
            stripe_session_id, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
        RETURNING id, created_at, updated_at`

	created := *o
	if created.Status == "" {
		created.Status = model.OrderStatusPending
	}
	created.Bundle = created.Bundle.Normalize()

	err := r.storage.pool.QueryRow(ctx, query,
		created.OrderNumber, created.CustomerName, created.CustomerEmail,
		string(created.PackageType), string(created.Bundle), created.BumpKaraoke, created.BumpRush, created.BumpGift,
		created.HasCustomLyrics, created.CustomLyrics,
		created.BasePrice, created.TotalPrice,
		created.RecipientName, created.Occasion, created.OccasionDate, created.Relationship, created.Story,
		created.Genre, created.Mood, created.AllowEnglish,
		created.ReferralCode, created.UTMSource, created.UTMMedium, created.UTMCampaign,
		nullIfEmpty(created.StripeSessionID), string(created.Status),
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &created, nil
}

func (r *orderRepository) getBy(ctx context.Context, column string, value any) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + column + `=$1`
	o, err := scanOrder(r.storage.pool.QueryRow(ctx, query, value))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	return r.getBy(ctx, "id", id)
}

func (r *orderRepository) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	return r.getBy(ctx, "order_number", number)
}

func (r *orderRepository) GetBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	return r.getBy(ctx, "stripe_session_id", sessionID)
}

func (r *orderRepository) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*model.Order, error) {
	return r.getBy(ctx, "stripe_payment_intent_id", paymentIntentID)
}

const priorityRankSQL = `CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'normal' THEN 2 WHEN 'low' THEN 1 ELSE 0 END`

func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	query, args := buildListQuery(filter)
	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func buildListQuery(filter model.OrderFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if len(filter.Statuses) > 0 {
		args = append(args, statusStrings(filter.Statuses))
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.Priority != model.PriorityUnscored {
		args = append(args, string(filter.Priority))
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT " + orderColumns + " FROM orders")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	dir := "ASC"
	if filter.Desc {
		dir = "DESC"
	}
	switch filter.SortBy {
	case model.SortByPriority:
		b.WriteString(" ORDER BY " + priorityRankSQL + " " + dir + ", created_at ASC")
	case model.SortByDeadline:
		b.WriteString(" ORDER BY suggested_deadline " + dir + " NULLS LAST, created_at ASC")
	default:
		b.WriteString(" ORDER BY created_at " + dir)
	}

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, from []model.OrderStatus, to model.OrderStatus) (bool, error) {
	const query = `UPDATE orders SET status=$1, updated_at=NOW() WHERE id=$2 AND status = ANY($3)`
	tag, err := r.storage.pool.Exec(ctx, query, string(to), id, statusStrings(from))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, sessionID, paymentIntentID string) (bool, error) {
	const query = `UPDATE orders
                   SET status='paid', stripe_payment_intent_id=COALESCE($2, stripe_payment_intent_id), updated_at=NOW()
                   WHERE stripe_session_id=$1 AND status='pending'`
	tag, err := r.storage.pool.Exec(ctx, query, sessionID, nullIfEmpty(paymentIntentID))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) MarkDelivered(ctx context.Context, id int64, deliveryURL string, at time.Time) (bool, error) {
	const query = `UPDATE orders
                   SET status='delivered', delivery_url=$2, delivered_at=$3, updated_at=NOW()
                   WHERE id=$1 AND status IN ('in_production', 'quality_review')`
	tag, err := r.storage.pool.Exec(ctx, query, id, deliveryURL, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *orderRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.storage.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) SavePriority(ctx context.Context, id int64, priority model.Priority, reasons []string, deadline *time.Time) error {
	const query = `UPDATE orders SET priority=$2, priority_reasons=$3, suggested_deadline=$4, updated_at=NOW() WHERE id=$1`
	return r.exec(ctx, query, id, string(priority), reasons, deadline)
}

func (r *orderRepository) SaveQuality(ctx context.Context, id int64, score int, details string) error {
	const query = `UPDATE orders SET quality_score=$2, quality_details=$3, updated_at=NOW() WHERE id=$1`
	return r.exec(ctx, query, id, score, details)
}

func (r *orderRepository) SavePrompt(ctx context.Context, id int64, prompt string) error {
	const query = `UPDATE orders SET generated_prompt=$2, updated_at=NOW() WHERE id=$1`
	return r.exec(ctx, query, id, prompt)
}

// ClaimForProduction locks a batch of paid orders and stamps them so concurrent
// pollers skip them until the claim goes stale.
func (r *orderRepository) ClaimForProduction(ctx context.Context, limit int, staleAfter time.Duration) ([]model.Order, error) {
	const selectQuery = `SELECT ` + orderColumns + `
                         FROM orders
                         WHERE status='paid'
                           AND (production_claimed_at IS NULL OR production_claimed_at < NOW() - make_interval(secs => $2))
                         ORDER BY created_at
                         LIMIT $1
                         FOR UPDATE SKIP LOCKED`
	const claimQuery = `UPDATE orders SET production_claimed_at=NOW() WHERE id = ANY($1)`

	var orders []model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, limit, staleAfter.Seconds())
		if err != nil {
			return err
		}
		orders, err = collectOrders(rows)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			return nil
		}

		ids := make([]int64, len(orders))
		for i, o := range orders {
			ids[i] = o.ID
		}
		_, err = tx.Exec(ctx, claimQuery, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListUnscored(ctx context.Context, limit int) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + `
                   FROM orders
                   WHERE priority='' AND status IN ('paid', 'in_production', 'quality_review')
                   ORDER BY created_at
                   LIMIT $1`
	rows, err := r.storage.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// DueAnniversaries lists delivered orders whose occasion recurs on one of monthDays
// ("MM-DD") in year and which have no reminder for that year yet.
func (r *orderRepository) DueAnniversaries(ctx context.Context, monthDays []string, year int, limit int) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + `
                   FROM orders o
                   WHERE status='delivered'
                     AND occasion_date IS NOT NULL
                     AND to_char(occasion_date, 'MM-DD') = ANY($1)
                     AND EXTRACT(YEAR FROM occasion_date) < $2
                     AND NOT EXISTS (SELECT 1 FROM anniversary_reminders ar WHERE ar.order_id = o.id AND ar.year = $2)
                   ORDER BY id
                   LIMIT $3`
	rows, err := r.storage.pool.Query(ctx, query, monthDays, year, limit)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}
