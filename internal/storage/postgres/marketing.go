package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
)

// --- ReferralRepository implementation ---

const referralColumns = `id, code, owner_email, discount_percent, uses, max_uses, active, created_at`

func scanReferral(row rowScanner) (*model.ReferralCode, error) {
	var c model.ReferralCode
	if err := row.Scan(&c.ID, &c.Code, &c.OwnerEmail, &c.DiscountPercent, &c.Uses, &c.MaxUses, &c.Active, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *referralRepository) Create(ctx context.Context, code *model.ReferralCode) (*model.ReferralCode, error) {
	const query = `INSERT INTO referral_codes (code, owner_email, discount_percent, max_uses, active)
                   VALUES ($1, $2, $3, $4, TRUE)
                   RETURNING id, created_at`
	created := *code
	created.Active = true
	err := r.storage.pool.QueryRow(ctx, query, code.Code, code.OwnerEmail, code.DiscountPercent, code.MaxUses).
		Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &created, nil
}

func (r *referralRepository) GetByCode(ctx context.Context, code string) (*model.ReferralCode, error) {
	const query = `SELECT ` + referralColumns + ` FROM referral_codes WHERE code=$1`
	c, err := scanReferral(r.storage.pool.QueryRow(ctx, query, code))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *referralRepository) GetActiveByOwner(ctx context.Context, email string) (*model.ReferralCode, error) {
	const query = `SELECT ` + referralColumns + ` FROM referral_codes WHERE owner_email=$1 AND active`
	c, err := scanReferral(r.storage.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// Redeem books one use of code for orderNumber. Repeated calls for the same order
// report false without consuming another use.
func (r *referralRepository) Redeem(ctx context.Context, code, orderNumber, email string) (bool, error) {
	const insertRedemption = `INSERT INTO referral_redemptions (order_number, code, email)
                              VALUES ($1, $2, $3)
                              ON CONFLICT (order_number) DO NOTHING`
	const consumeUse = `UPDATE referral_codes SET uses = uses + 1
                        WHERE code=$1 AND active AND (max_uses IS NULL OR uses < max_uses)`

	redeemed := false
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, insertRedemption, orderNumber, code, email)
		if err != nil {
			if pgCode(err) == codeForeignKeyViolation {
				return domainErrors.ErrReferralInvalid
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		tag, err = tx.Exec(ctx, consumeUse, code)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrReferralExhausted
		}
		redeemed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return redeemed, nil
}

// --- LoyaltyRepository implementation ---

const loyaltyColumns = `email, purchase_count, tier, discount_percent, updated_at`

func scanLoyalty(row rowScanner) (*model.LoyaltyAccount, error) {
	var a model.LoyaltyAccount
	if err := row.Scan(&a.Email, &a.PurchaseCount, &a.Tier, &a.DiscountPercent, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *loyaltyRepository) Get(ctx context.Context, email string) (*model.LoyaltyAccount, error) {
	const query = `SELECT ` + loyaltyColumns + ` FROM loyalty_accounts WHERE email=$1`
	a, err := scanLoyalty(r.storage.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *loyaltyRepository) RecordPurchase(ctx context.Context, email, orderNumber string) (*model.LoyaltyAccount, bool, error) {
	const insertPurchase = `INSERT INTO loyalty_purchases (order_number, email)
                            VALUES ($1, $2)
                            ON CONFLICT (order_number) DO NOTHING`
	const upsertAccount = `INSERT INTO loyalty_accounts (email, purchase_count, tier, discount_percent)
                           VALUES ($1, 1, 'standard', 0)
                           ON CONFLICT (email) DO UPDATE
                           SET purchase_count = loyalty_accounts.purchase_count + 1, updated_at = NOW()
                           RETURNING ` + loyaltyColumns
	const selectAccount = `SELECT ` + loyaltyColumns + ` FROM loyalty_accounts WHERE email=$1`

	var (
		account *model.LoyaltyAccount
		counted bool
	)
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, insertPurchase, orderNumber, email)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			account, err = scanLoyalty(tx.QueryRow(ctx, selectAccount, email))
			return notFound(err)
		}
		account, err = scanLoyalty(tx.QueryRow(ctx, upsertAccount, email))
		counted = err == nil
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return account, counted, nil
}

// UpgradeTier only ever raises the tier and discount.
func (r *loyaltyRepository) UpgradeTier(ctx context.Context, email string, tier model.LoyaltyTier, discount int) error {
	const query = `UPDATE loyalty_accounts
                   SET tier=$2, discount_percent=GREATEST(discount_percent, $3), updated_at=NOW()
                   WHERE email=$1 AND (CASE tier WHEN 'vip' THEN 1 ELSE 0 END) < $4`
	_, err := r.storage.pool.Exec(ctx, query, email, string(tier), discount, tier.Rank())
	return err
}

// --- CampaignRepository implementation ---

const enrollmentColumns = `id, campaign, email, name, order_number, step, next_send_at, status, attempts, last_error, vars, created_at`

func scanEnrollment(row rowScanner) (*model.CampaignEnrollment, error) {
	var e model.CampaignEnrollment
	err := row.Scan(&e.ID, &e.Campaign, &e.Email, &e.Name, &e.OrderNumber, &e.Step, &e.NextSendAt,
		&e.Status, &e.Attempts, &e.LastError, &e.Vars, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *campaignRepository) Enroll(ctx context.Context, e *model.CampaignEnrollment) (*model.CampaignEnrollment, error) {
	const query = `INSERT INTO campaign_enrollments (campaign, email, name, order_number, step, next_send_at, status, vars)
                   VALUES ($1, $2, $3, $4, 0, $5, 'active', $6)
                   ON CONFLICT (campaign, order_number) DO NOTHING
                   RETURNING id, created_at`
	created := *e
	created.Status = model.EnrollmentActive
	created.Step = 0
	if created.Vars == nil {
		created.Vars = map[string]string{}
	}
	err := r.storage.pool.QueryRow(ctx, query, string(e.Campaign), e.Email, e.Name, e.OrderNumber, e.NextSendAt, created.Vars).
		Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &created, nil
}

func (r *campaignRepository) Cancel(ctx context.Context, campaign model.CampaignKind, orderNumber string) (int64, error) {
	const query = `UPDATE campaign_enrollments SET status='cancelled', claimed_at=NULL
                   WHERE campaign=$1 AND order_number=$2 AND status='active'`
	tag, err := r.storage.pool.Exec(ctx, query, string(campaign), orderNumber)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ClaimDue stamps claimed_at on due enrolments in one statement so overlapping
// cron runs never pick the same row.
func (r *campaignRepository) ClaimDue(ctx context.Context, now time.Time, limit int, staleAfter time.Duration) ([]model.CampaignEnrollment, error) {
	const query = `UPDATE campaign_enrollments SET claimed_at=$1
                   WHERE id IN (
                       SELECT id FROM campaign_enrollments
                       WHERE status='active' AND next_send_at <= $1
                         AND (claimed_at IS NULL OR claimed_at < $1 - make_interval(secs => $3))
                       ORDER BY next_send_at
                       LIMIT $2
                       FOR UPDATE SKIP LOCKED
                   )
                   RETURNING ` + enrollmentColumns
	rows, err := r.storage.pool.Query(ctx, query, now, limit, staleAfter.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.CampaignEnrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *campaignRepository) Advance(ctx context.Context, id int64, step int, next time.Time) error {
	const query = `UPDATE campaign_enrollments
                   SET step=$2, next_send_at=$3, attempts=0, last_error='', claimed_at=NULL
                   WHERE id=$1`
	_, err := r.storage.pool.Exec(ctx, query, id, step, next)
	return err
}

func (r *campaignRepository) Complete(ctx context.Context, id int64, status model.EnrollmentStatus, lastError string) error {
	const query = `UPDATE campaign_enrollments SET status=$2, last_error=$3, claimed_at=NULL WHERE id=$1`
	_, err := r.storage.pool.Exec(ctx, query, id, string(status), lastError)
	return err
}

func (r *campaignRepository) Retry(ctx context.Context, id int64, attempts int, next time.Time, lastError string) error {
	const query = `UPDATE campaign_enrollments
                   SET attempts=$2, next_send_at=$3, last_error=$4, claimed_at=NULL
                   WHERE id=$1`
	_, err := r.storage.pool.Exec(ctx, query, id, attempts, next, lastError)
	return err
}

// --- ReminderRepository implementation ---

func (r *reminderRepository) Claim(ctx context.Context, orderID int64, year int) (*model.AnniversaryReminder, bool, error) {
	const query = `INSERT INTO anniversary_reminders (order_id, year, status)
                   VALUES ($1, $2, 'claimed')
                   ON CONFLICT (order_id, year) DO NOTHING
                   RETURNING id`
	reminder := &model.AnniversaryReminder{OrderID: orderID, Year: year, Status: model.ReminderClaimed}
	if err := r.storage.pool.QueryRow(ctx, query, orderID, year).Scan(&reminder.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return reminder, true, nil
}

func (r *reminderRepository) SetStatus(ctx context.Context, id int64, status model.ReminderStatus) error {
	const query = `UPDATE anniversary_reminders SET status=$2 WHERE id=$1`
	_, err := r.storage.pool.Exec(ctx, query, id, string(status))
	return err
}
