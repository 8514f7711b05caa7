package postgres

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
)

var orderColumnNames = []string{
	"id", "order_number", "customer_name", "customer_email",
	"package_type", "selected_bundle", "bump_karaoke", "bump_rush", "bump_gift", "has_custom_lyrics", "custom_lyrics",
	"base_price", "total_price",
	"recipient_name", "occasion", "occasion_date", "relationship", "story", "genre", "mood", "allow_english",
	"referral_code", "utm_source", "utm_medium", "utm_campaign",
	"stripe_session_id", "stripe_payment_intent_id",
	"status", "delivery_url", "delivered_at",
	"priority", "priority_reasons", "suggested_deadline", "quality_score", "quality_details", "generated_prompt",
	"created_at", "updated_at",
}

func orderValues(o model.Order) []any {
	return []any{
		o.ID, o.OrderNumber, o.CustomerName, o.CustomerEmail,
		o.PackageType, o.Bundle, o.BumpKaraoke, o.BumpRush, o.BumpGift, o.HasCustomLyrics, o.CustomLyrics,
		o.BasePrice, o.TotalPrice,
		o.RecipientName, o.Occasion, o.OccasionDate, o.Relationship, o.Story, o.Genre, o.Mood, o.AllowEnglish,
		o.ReferralCode, o.UTMSource, o.UTMMedium, o.UTMCampaign,
		o.StripeSessionID, o.StripePaymentIntentID,
		o.Status, o.DeliveryURL, o.DeliveredAt,
		o.Priority, o.PriorityReasons, o.SuggestedDeadline, o.QualityScore, o.QualityDetails, o.GeneratedPrompt,
		o.CreatedAt, o.UpdatedAt,
	}
}

func sampleOrder(id int64, number string, status model.OrderStatus) model.Order {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return model.Order{
		ID:            id,
		OrderNumber:   number,
		CustomerName:  "Anna",
		CustomerEmail: "anna@example.de",
		PackageType:   model.PackagePlus,
		Bundle:        model.BundleNone,
		BumpKaraoke:   true,
		BasePrice:     79,
		TotalPrice:    108,
		RecipientName: "Tom",
		Occasion:      "Hochzeit",
		Story:         "Wir haben uns im Urlaub kennengelernt.",
		Genre:         "pop",
		Mood:          4,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func orderRows(orders ...model.Order) *pgxmockv3.Rows {
	rows := pgxmockv3.NewRows(orderColumnNames)
	for _, o := range orders {
		rows.AddRow(orderValues(o)...)
	}
	return rows
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmockv3.AnyArg()
	}
	return args
}

func TestOrderRepositoryCreate(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	input := sampleOrder(0, "MM-ABC-1234", "")
	input.Bundle = ""
	input.StripeSessionID = "cs_test_1"
	createdAt := time.Now()

	mock.ExpectQuery("INSERT INTO orders").WithArgs(anyArgs(26)...).WillReturnRows(
		pgxmockv3.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), createdAt, createdAt))
	order, err := repo.Create(context.Background(), &input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != 7 || order.Status != model.OrderStatusPending || order.Bundle != model.BundleNone {
		t.Fatalf("unexpected order: %+v", order)
	}
	if input.ID != 0 {
		t.Fatal("input must not be mutated")
	}

	mock.ExpectQuery("INSERT INTO orders").WithArgs(anyArgs(26)...).WillReturnError(&pgconn.PgError{Code: "23505"})
	if _, err := repo.Create(context.Background(), &input); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}

	mock.ExpectQuery("INSERT INTO orders").WithArgs(anyArgs(26)...).WillReturnError(errors.New("insert"))
	if _, err := repo.Create(context.Background(), &input); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryGet(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	want := sampleOrder(1, "MM-1", model.OrderStatusPaid)
	mock.ExpectQuery("FROM orders WHERE order_number=").WithArgs("MM-1").WillReturnRows(orderRows(want))
	got, err := repo.GetByNumber(context.Background(), "MM-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Fatalf("expected %+v, got %+v", want, *got)
	}

	mock.ExpectQuery("FROM orders WHERE order_number=").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByNumber(context.Background(), "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("FROM orders WHERE id=").WithArgs(int64(1)).WillReturnRows(orderRows(want))
	if _, err := repo.GetByID(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectQuery("FROM orders WHERE stripe_session_id=").WithArgs("cs_1").WillReturnError(errors.New("fail"))
	if _, err := repo.GetBySessionID(context.Background(), "cs_1"); err == nil || errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected raw error, got %v", err)
	}

	mock.ExpectQuery("FROM orders WHERE stripe_payment_intent_id=").WithArgs("pi_1").WillReturnRows(orderRows(want))
	if _, err := repo.GetByPaymentIntent(context.Background(), "pi_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestBuildListQuery(t *testing.T) {
	query, args := buildListQuery(model.OrderFilter{
		Statuses: []model.OrderStatus{model.OrderStatusPaid, model.OrderStatusInProduction},
		Priority: model.PriorityHigh,
		SortBy:   model.SortByPriority,
		Desc:     true,
		Limit:    20,
		Offset:   40,
	})

	for _, fragment := range []string{"status = ANY($1)", "priority = $2", "ORDER BY CASE priority", "END DESC", "LIMIT $3", "OFFSET $4"} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected %q in %s", fragment, query)
		}
	}
	wantArgs := []any{[]string{"paid", "in_production"}, "high", 20, 40}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Fatalf("expected args %v, got %v", wantArgs, args)
	}

	query, args = buildListQuery(model.OrderFilter{SortBy: model.SortByDeadline})
	if strings.Contains(query, "WHERE") || !strings.Contains(query, "suggested_deadline ASC NULLS LAST") || len(args) != 0 {
		t.Fatalf("unexpected deadline query %s %v", query, args)
	}

	query, _ = buildListQuery(model.OrderFilter{})
	if !strings.HasSuffix(query, "ORDER BY created_at ASC") {
		t.Fatalf("unexpected default ordering: %s", query)
	}
}

func TestOrderRepositoryList(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}

	mock.ExpectQuery("FROM orders WHERE status").WithArgs([]string{"paid"}, 10).WillReturnRows(
		orderRows(sampleOrder(1, "MM-1", model.OrderStatusPaid), sampleOrder(2, "MM-2", model.OrderStatusPaid)))
	orders, err := repo.List(context.Background(), model.OrderFilter{Statuses: []model.OrderStatus{model.OrderStatusPaid}, Limit: 10})
	if err != nil || len(orders) != 2 {
		t.Fatalf("unexpected result: %v err=%v", orders, err)
	}

	mock.ExpectQuery("FROM orders").WillReturnError(errors.New("query"))
	if _, err := repo.List(context.Background(), model.OrderFilter{}); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryConditionalUpdates(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	ctx := context.Background()

	mock.ExpectExec("UPDATE orders SET status=").
		WithArgs("in_production", int64(1), []string{"paid"}).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	ok, err := repo.UpdateStatus(ctx, 1, []model.OrderStatus{model.OrderStatusPaid}, model.OrderStatusInProduction)
	if err != nil || !ok {
		t.Fatalf("expected applied update, ok=%v err=%v", ok, err)
	}

	mock.ExpectExec("UPDATE orders SET status=").
		WithArgs("in_production", int64(1), []string{"paid"}).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	ok, err = repo.UpdateStatus(ctx, 1, []model.OrderStatus{model.OrderStatusPaid}, model.OrderStatusInProduction)
	if err != nil || ok {
		t.Fatalf("expected lost race, ok=%v err=%v", ok, err)
	}

	mock.ExpectExec("SET status='paid'").WithArgs("cs_1", pgxmockv3.AnyArg()).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if ok, err := repo.MarkPaid(ctx, "cs_1", "pi_1"); err != nil || !ok {
		t.Fatalf("expected paid, ok=%v err=%v", ok, err)
	}

	mock.ExpectExec("SET status='paid'").WithArgs("cs_1", pgxmockv3.AnyArg()).WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	if ok, err := repo.MarkPaid(ctx, "cs_1", ""); err != nil || ok {
		t.Fatalf("expected idempotent no-op, ok=%v err=%v", ok, err)
	}

	at := time.Now()
	mock.ExpectExec("SET status='delivered'").WithArgs(int64(3), "https://x/download/MM-3", at).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if ok, err := repo.MarkDelivered(ctx, 3, "https://x/download/MM-3", at); err != nil || !ok {
		t.Fatalf("expected delivered, ok=%v err=%v", ok, err)
	}

	mock.ExpectExec("SET status='delivered'").WithArgs(int64(3), "u", at).WillReturnError(errors.New("fail"))
	if _, err := repo.MarkDelivered(ctx, 3, "u", at); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryAssessments(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	ctx := context.Background()

	deadline := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	reasons := []string{"Hochzeit in 5 Tagen"}
	mock.ExpectExec("UPDATE orders SET priority=").WithArgs(int64(1), "urgent", reasons, &deadline).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := repo.SavePriority(ctx, 1, model.PriorityUrgent, reasons, &deadline); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("UPDATE orders SET quality_score=").WithArgs(int64(2), 8, "gut").WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	if err := repo.SaveQuality(ctx, 2, 8, "gut"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectExec("UPDATE orders SET generated_prompt=").WithArgs(int64(3), "pop ballad").WillReturnError(errors.New("fail"))
	if err := repo.SavePrompt(ctx, 3, "pop ballad"); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryClaimForProduction(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE SKIP LOCKED").WithArgs(5, float64(600)).WillReturnRows(
		orderRows(sampleOrder(1, "MM-1", model.OrderStatusPaid), sampleOrder(2, "MM-2", model.OrderStatusPaid)))
	mock.ExpectExec("UPDATE orders SET production_claimed_at").WithArgs([]int64{1, 2}).WillReturnResult(pgxmockv3.NewResult("UPDATE", 2))
	mock.ExpectCommit()

	orders, err := repo.ClaimForProduction(ctx, 5, 10*time.Minute)
	if err != nil || len(orders) != 2 {
		t.Fatalf("unexpected result: %v err=%v", orders, err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE SKIP LOCKED").WithArgs(5, float64(600)).WillReturnRows(orderRows())
	mock.ExpectCommit()
	orders, err = repo.ClaimForProduction(ctx, 5, 10*time.Minute)
	if err != nil || len(orders) != 0 {
		t.Fatalf("expected empty batch, got %v err=%v", orders, err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE SKIP LOCKED").WithArgs(5, float64(600)).WillReturnRows(orderRows(sampleOrder(1, "MM-1", model.OrderStatusPaid)))
	mock.ExpectExec("UPDATE orders SET production_claimed_at").WithArgs([]int64{1}).WillReturnError(errors.New("claim"))
	mock.ExpectRollback()
	if _, err := repo.ClaimForProduction(ctx, 5, 10*time.Minute); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryBatchQueries(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	ctx := context.Background()

	mock.ExpectQuery("WHERE priority=''").WithArgs(25).WillReturnRows(orderRows(sampleOrder(1, "MM-1", model.OrderStatusPaid)))
	if orders, err := repo.ListUnscored(ctx, 25); err != nil || len(orders) != 1 {
		t.Fatalf("unexpected result: %v err=%v", orders, err)
	}

	days := []string{"03-14", "03-15"}
	delivered := sampleOrder(4, "MM-4", model.OrderStatusDelivered)
	mock.ExpectQuery("anniversary_reminders").WithArgs(days, 2027, 50).WillReturnRows(orderRows(delivered))
	orders, err := repo.DueAnniversaries(ctx, days, 2027, 50)
	if err != nil || len(orders) != 1 || orders[0].ID != 4 {
		t.Fatalf("unexpected result: %v err=%v", orders, err)
	}

	mock.ExpectQuery("anniversary_reminders").WithArgs(days, 2027, 50).WillReturnError(errors.New("fail"))
	if _, err := repo.DueAnniversaries(ctx, days, 2027, 50); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
