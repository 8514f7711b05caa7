package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/polkiloo/melodiemacher/internal/adapter/mailer"
	"github.com/polkiloo/melodiemacher/internal/adapter/payment"
	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
)

func TestMarkPaidIsIdempotent(t *testing.T) {
	order := basisOrder(1, model.OrderStatusPending)
	order.ReferralCode = "MMFRIEND"
	f := newFixture(order)
	maxUses := 5
	if _, err := f.repos.ReferralRepo.Create(context.Background(), &model.ReferralCode{
		Code: "MMFRIEND", OwnerEmail: "friend@example.de", DiscountPercent: 10, MaxUses: &maxUses,
	}); err != nil {
		t.Fatalf("seed referral: %v", err)
	}
	if err := f.campaigns.Enroll(context.Background(), model.CampaignAbandonedCheckout, &order, nil); err != nil {
		t.Fatalf("enrol: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := f.fulfillment.MarkPaid(context.Background(), "cs_1", "pi_1"); err != nil {
			t.Fatalf("mark paid #%d: %v", i, err)
		}
	}

	stored := f.repos.OrderRepo.Get(1)
	if stored.Status != model.OrderStatusPaid || stored.StripePaymentIntentID != "pi_1" {
		t.Fatalf("unexpected order %+v", stored)
	}
	if got := f.mailer.Templates(); len(got) != 1 || got[0] != mailer.TemplateOrderConfirmation {
		t.Fatalf("expected a single confirmation email, got %v", got)
	}
	account, err := f.repos.LoyaltyRepo.Get(context.Background(), "anna@example.de")
	if err != nil || account.PurchaseCount != 1 {
		t.Fatalf("expected one counted purchase, got %+v %v", account, err)
	}
	code, _ := f.repos.ReferralRepo.GetByCode(context.Background(), "MMFRIEND")
	if code.Uses != 1 {
		t.Fatalf("expected one referral use, got %d", code.Uses)
	}
	enrollment, _ := f.repos.CampaignRepo.Find(model.CampaignAbandonedCheckout, order.OrderNumber)
	if enrollment.Status != model.EnrollmentCancelled {
		t.Fatalf("expected abandoned checkout campaign cancelled, got %s", enrollment.Status)
	}
}

func TestMarkPaidUnknownSessionIsAcknowledged(t *testing.T) {
	f := newFixture()
	if err := f.fulfillment.MarkPaid(context.Background(), "cs_missing", "pi_x"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if len(f.mailer.Sent) != 0 {
		t.Fatal("no email expected")
	}
}

func TestMarkRefunded(t *testing.T) {
	paid := basisOrder(1, model.OrderStatusPaid)
	paid.StripePaymentIntentID = "pi_1"
	delivered := basisOrder(2, model.OrderStatusDelivered)
	delivered.StripePaymentIntentID = "pi_2"
	f := newFixture(paid, delivered)

	if err := f.fulfillment.MarkRefunded(context.Background(), "pi_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.repos.OrderRepo.Get(1).Status != model.OrderStatusRefunded {
		t.Fatal("expected refunded order")
	}
	if err := f.fulfillment.MarkRefunded(context.Background(), "pi_1"); err != nil {
		t.Fatalf("repeated refund must be accepted: %v", err)
	}
	if err := f.fulfillment.MarkRefunded(context.Background(), "pi_2"); err != nil {
		t.Fatalf("refund of delivered order is ignored, got %v", err)
	}
	if f.repos.OrderRepo.Get(2).Status != model.OrderStatusDelivered {
		t.Fatal("delivered order must stay delivered")
	}
}

func TestTransitionFollowsStateMachine(t *testing.T) {
	f := newFixture(basisOrder(1, model.OrderStatusPaid))
	ctx := context.Background()

	if _, err := f.fulfillment.Transition(ctx, 1, model.OrderStatusQualityReview); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	order, err := f.fulfillment.Transition(ctx, 1, model.OrderStatusInProduction)
	if err != nil || order.Status != model.OrderStatusInProduction {
		t.Fatalf("unexpected result %v %v", order, err)
	}
	if _, err := f.fulfillment.Transition(ctx, 1, model.OrderStatusQualityReview); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.fulfillment.Transition(ctx, 1, model.OrderStatusRefunded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.fulfillment.Transition(ctx, 1, model.OrderStatusInProduction); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("refunded must be terminal, got %v", err)
	}
	if _, err := f.fulfillment.Transition(ctx, 1, model.OrderStatus("shipped")); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBatchTransitionReportsPerOrder(t *testing.T) {
	f := newFixture(basisOrder(1, model.OrderStatusPaid), basisOrder(2, model.OrderStatusPending))
	results := f.fulfillment.BatchTransition(context.Background(), []int64{1, 2, 3}, model.OrderStatusInProduction)

	if len(results) != 3 {
		t.Fatalf("expected three results, got %d", len(results))
	}
	if results[0].Err != nil || results[0].Status != model.OrderStatusInProduction {
		t.Fatalf("unexpected first result %+v", results[0])
	}
	if !errors.Is(results[1].Err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", results[1].Err)
	}
	if !errors.Is(results[2].Err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", results[2].Err)
	}
}

func TestDeliverRequiresDeliverables(t *testing.T) {
	f := newFixture(basisOrder(1, model.OrderStatusInProduction))
	ctx := context.Background()

	mp3, err := f.fulfillment.AddDeliverable(ctx, DeliverableInput{OrderID: 1, Type: model.DeliverableMP3, FileName: "song.mp3", Content: strings.NewReader("audio")})
	if err != nil {
		t.Fatalf("add deliverable: %v", err)
	}
	if err := f.fulfillment.RemoveDeliverable(ctx, 1, mp3.ID); err != nil {
		t.Fatalf("remove deliverable: %v", err)
	}
	if len(f.files.Removed) != 1 {
		t.Fatal("expected stored file to be removed")
	}

	_, err = f.fulfillment.Deliver(ctx, 1)
	var missing *domainErrors.MissingDeliverablesError
	if !errors.As(err, &missing) || len(missing.Missing) != 1 || missing.Missing[0] != "mp3" {
		t.Fatalf("expected missing mp3, got %v", err)
	}
	if len(f.mailer.Sent) != 0 {
		t.Fatal("no email expected before delivery")
	}

	if _, err := f.fulfillment.AddDeliverable(ctx, DeliverableInput{OrderID: 1, Type: model.DeliverableMP3, FileURL: "https://cdn.example.com/final.mp3"}); err != nil {
		t.Fatalf("add linked deliverable: %v", err)
	}
	order, err := f.fulfillment.Deliver(ctx, 1)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if order.Status != model.OrderStatusDelivered || order.DeliveryURL != "https://melodiemacher.de/download/MM-TEST-0001" {
		t.Fatalf("unexpected delivered order %+v", order)
	}
	if got := f.mailer.Templates(); len(got) != 1 || got[0] != mailer.TemplateDelivery {
		t.Fatalf("expected delivery email, got %v", got)
	}
	if f.mailer.Sent[0].Data["download_url"] != order.DeliveryURL {
		t.Fatalf("unexpected email data %v", f.mailer.Sent[0].Data)
	}

	enrollment, ok := f.repos.CampaignRepo.Find(model.CampaignPostDelivery, "MM-TEST-0001")
	if !ok || enrollment.Vars["referral_code"] == "" {
		t.Fatalf("expected post delivery enrolment with referral code, got %+v", enrollment)
	}
}

func TestDeliverTwiceSendsOneEmail(t *testing.T) {
	f := newFixture(basisOrder(1, model.OrderStatusQualityReview))
	f.repos.DeliverableRepo.Add(context.Background(), &model.Deliverable{OrderID: 1, Type: model.DeliverableMP3, FileURL: "https://cdn.example.com/a.mp3"})

	if _, err := f.fulfillment.Deliver(context.Background(), 1); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if _, err := f.fulfillment.Deliver(context.Background(), 1); !errors.Is(err, domainErrors.ErrAlreadyDelivered) {
		t.Fatalf("expected already delivered, got %v", err)
	}
	if _, err := f.fulfillment.Transition(context.Background(), 1, model.OrderStatusDelivered); !errors.Is(err, domainErrors.ErrAlreadyDelivered) {
		t.Fatalf("expected already delivered via transition, got %v", err)
	}
	if len(f.mailer.Sent) != 1 {
		t.Fatalf("expected exactly one email, got %d", len(f.mailer.Sent))
	}
}

func TestDeliverRejectsUnpaidOrders(t *testing.T) {
	f := newFixture(basisOrder(1, model.OrderStatusPaid))
	if _, err := f.fulfillment.Deliver(context.Background(), 1); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestDeliverSurvivesEmailFailure(t *testing.T) {
	f := newFixture(basisOrder(1, model.OrderStatusInProduction))
	f.mailer.Err = errors.New("smtp down")
	f.repos.DeliverableRepo.Add(context.Background(), &model.Deliverable{OrderID: 1, Type: model.DeliverableMP3, FileURL: "https://cdn.example.com/a.mp3"})

	if _, err := f.fulfillment.Deliver(context.Background(), 1); err != nil {
		t.Fatalf("email failure must not fail delivery: %v", err)
	}
	if f.repos.OrderRepo.Get(1).Status != model.OrderStatusDelivered {
		t.Fatal("expected delivered order")
	}
}

func TestPremiumKaraokeRequirements(t *testing.T) {
	order := basisOrder(1, model.OrderStatusInProduction)
	order.PackageType = model.PackagePlus
	order.BumpKaraoke = true
	f := newFixture(order)
	ctx := context.Background()

	for _, typ := range []model.DeliverableType{model.DeliverableMP3, model.DeliverablePDF, model.DeliverablePNG} {
		if _, err := f.fulfillment.AddDeliverable(ctx, DeliverableInput{OrderID: 1, Type: typ, FileURL: "https://cdn.example.com/x." + string(typ)}); err != nil {
			t.Fatalf("add %s: %v", typ, err)
		}
	}
	_, err := f.fulfillment.Deliver(ctx, 1)
	var missing *domainErrors.MissingDeliverablesError
	if !errors.As(err, &missing) || len(missing.Missing) != 1 || missing.Missing[0] != "wav" {
		t.Fatalf("expected missing wav, got %v", err)
	}
}

func TestAddDeliverableValidation(t *testing.T) {
	f := newFixture(basisOrder(1, model.OrderStatusPaid), basisOrder(2, model.OrderStatusDelivered))
	ctx := context.Background()

	cases := []struct {
		name  string
		input DeliverableInput
		want  error
	}{
		{"unknown type", DeliverableInput{OrderID: 1, Type: "zip", FileURL: "https://x.de/a.zip"}, domainErrors.ErrInvalidDeliverable},
		{"relative url", DeliverableInput{OrderID: 1, Type: model.DeliverableMP3, FileURL: "/a.mp3"}, domainErrors.ErrInvalidDeliverable},
		{"delivered order", DeliverableInput{OrderID: 2, Type: model.DeliverableMP3, FileURL: "https://x.de/a.mp3"}, domainErrors.ErrInvalidDeliverable},
		{"missing order", DeliverableInput{OrderID: 9, Type: model.DeliverableMP3, FileURL: "https://x.de/a.mp3"}, domainErrors.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.fulfillment.AddDeliverable(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRemoveDeliverableOfOtherOrder(t *testing.T) {
	f := newFixture(basisOrder(1, model.OrderStatusPaid), basisOrder(2, model.OrderStatusPaid))
	d, _ := f.repos.DeliverableRepo.Add(context.Background(), &model.Deliverable{OrderID: 2, Type: model.DeliverableMP3, FileURL: "https://x.de/a.mp3"})

	if err := f.fulfillment.RemoveDeliverable(context.Background(), 1, d.ID); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHandlePaymentEvent(t *testing.T) {
	paid := basisOrder(1, model.OrderStatusPending)
	f := newFixture(paid, basisOrder(2, model.OrderStatusPending))
	ctx := context.Background()

	events := []*payment.Event{
		{Type: payment.EventCheckoutCompleted, SessionID: "cs_2", Paid: false},
		{Type: payment.EventCheckoutCompleted, SessionID: "cs_1", PaymentIntentID: "pi_1", Paid: true},
		{Type: payment.EventCheckoutExpired, SessionID: "cs_2"},
		{Type: payment.EventType("customer.created")},
	}
	for _, e := range events {
		if err := f.fulfillment.HandlePaymentEvent(ctx, e); err != nil {
			t.Fatalf("event %s: %v", e.Type, err)
		}
	}
	if f.repos.OrderRepo.Get(1).Status != model.OrderStatusPaid {
		t.Fatal("expected paid order")
	}
	if f.repos.OrderRepo.Get(2).Status != model.OrderStatusPending {
		t.Fatal("unpaid session must leave the order pending")
	}

	refund := &payment.Event{Type: payment.EventChargeRefunded, PaymentIntentID: "pi_1", FullyRefunded: true}
	if err := f.fulfillment.HandlePaymentEvent(ctx, refund); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if f.repos.OrderRepo.Get(1).Status != model.OrderStatusRefunded {
		t.Fatal("expected refunded order")
	}
}

func TestHandleDelayedPaymentMethods(t *testing.T) {
	order := basisOrder(1, model.OrderStatusPending)
	f := newFixture(order, basisOrder(2, model.OrderStatusPending))
	ctx := context.Background()
	if err := f.campaigns.Enroll(ctx, model.CampaignAbandonedCheckout, &order, nil); err != nil {
		t.Fatalf("enrol: %v", err)
	}

	steps := []struct {
		event *payment.Event
		want  model.OrderStatus
	}{
		{&payment.Event{Type: payment.EventCheckoutCompleted, SessionID: "cs_1", PaymentIntentID: "pi_1", Paid: false}, model.OrderStatusPending},
		{&payment.Event{Type: payment.EventAsyncPaymentSucceeded, SessionID: "cs_1", PaymentIntentID: "pi_1", Paid: true}, model.OrderStatusPaid},
		{&payment.Event{Type: payment.EventAsyncPaymentSucceeded, SessionID: "cs_1", PaymentIntentID: "pi_1", Paid: true}, model.OrderStatusPaid},
	}
	for i, step := range steps {
		if err := f.fulfillment.HandlePaymentEvent(ctx, step.event); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got := f.repos.OrderRepo.Get(1).Status; got != step.want {
			t.Fatalf("step %d: expected %s, got %s", i, step.want, got)
		}
	}
	if got := f.mailer.Templates(); len(got) != 1 || got[0] != mailer.TemplateOrderConfirmation {
		t.Fatalf("expected one confirmation email, got %v", got)
	}
	enrollment, _ := f.repos.CampaignRepo.Find(model.CampaignAbandonedCheckout, order.OrderNumber)
	if enrollment.Status != model.EnrollmentCancelled {
		t.Fatalf("expected abandoned checkout campaign cancelled, got %s", enrollment.Status)
	}

	failed := &payment.Event{Type: payment.EventAsyncPaymentFailed, SessionID: "cs_2", OrderNumber: "MM-TEST-0002"}
	if err := f.fulfillment.HandlePaymentEvent(ctx, failed); err != nil {
		t.Fatalf("failed payment: %v", err)
	}
	if f.repos.OrderRepo.Get(2).Status != model.OrderStatusPending {
		t.Fatal("failed delayed payment must leave the order pending")
	}
}

func TestPartialRefundKeepsOrderInProduction(t *testing.T) {
	order := basisOrder(1, model.OrderStatusInProduction)
	order.StripePaymentIntentID = "pi_1"
	f := newFixture(order)
	ctx := context.Background()

	partial := &payment.Event{Type: payment.EventChargeRefunded, PaymentIntentID: "pi_1", AmountRefunded: 1900}
	if err := f.fulfillment.HandlePaymentEvent(ctx, partial); err != nil {
		t.Fatalf("partial refund: %v", err)
	}
	if got := f.repos.OrderRepo.Get(1).Status; got != model.OrderStatusInProduction {
		t.Fatalf("partial refund must not end the order, got %s", got)
	}

	full := &payment.Event{Type: payment.EventChargeRefunded, PaymentIntentID: "pi_1", AmountRefunded: 4900, FullyRefunded: true}
	if err := f.fulfillment.HandlePaymentEvent(ctx, full); err != nil {
		t.Fatalf("full refund: %v", err)
	}
	if got := f.repos.OrderRepo.Get(1).Status; got != model.OrderStatusRefunded {
		t.Fatalf("expected refunded, got %s", got)
	}
}

func TestAddDeliverableNamesDirectoryURLs(t *testing.T) {
	f := newFixture(basisOrder(1, model.OrderStatusInProduction))
	ctx := context.Background()

	cases := []struct {
		url  string
		want string
	}{
		{"https://cdn.example.com/songs/final.mp3", "final.mp3"},
		{"https://cdn.example.com/songs/", "MM-TEST-0001.mp3"},
		{"https://cdn.example.com", "MM-TEST-0001.mp3"},
	}
	for _, tc := range cases {
		t.Run(tc.url, func(t *testing.T) {
			d, err := f.fulfillment.AddDeliverable(ctx, DeliverableInput{OrderID: 1, Type: model.DeliverableMP3, FileURL: tc.url})
			if err != nil {
				t.Fatalf("add: %v", err)
			}
			if d.FileName != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, d.FileName)
			}
		})
	}
}
