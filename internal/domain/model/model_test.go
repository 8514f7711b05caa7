package model

import (
	"reflect"
	"testing"
)

func TestOrderStatusValues(t *testing.T) {
	cases := []struct {
		name  string
		got   OrderStatus
		value string
	}{
		{"pending", OrderStatusPending, "pending"},
		{"paid", OrderStatusPaid, "paid"},
		{"in production", OrderStatusInProduction, "in_production"},
		{"quality review", OrderStatusQualityReview, "quality_review"},
		{"delivered", OrderStatusDelivered, "delivered"},
		{"refunded", OrderStatusRefunded, "refunded"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if string(tc.got) != tc.value {
				t.Fatalf("expected %s, got %s", tc.value, tc.got)
			}
			if !tc.got.Valid() {
				t.Fatalf("expected %s to be valid", tc.got)
			}
		})
	}
	if OrderStatus("shipped").Valid() {
		t.Fatal("unexpected valid status")
	}
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusInProduction, false},
		{OrderStatusPaid, OrderStatusInProduction, true},
		{OrderStatusPaid, OrderStatusDelivered, false},
		{OrderStatusInProduction, OrderStatusQualityReview, true},
		{OrderStatusInProduction, OrderStatusDelivered, true},
		{OrderStatusQualityReview, OrderStatusDelivered, true},
		{OrderStatusQualityReview, OrderStatusInProduction, true},
		{OrderStatusDelivered, OrderStatusRefunded, false},
		{OrderStatusDelivered, OrderStatusPaid, false},
		{OrderStatusRefunded, OrderStatusPaid, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
				t.Fatalf("expected %v, got %v", tc.allowed, got)
			}
		})
	}
}

func TestRefundReachableFromEveryNonTerminalState(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusInProduction, OrderStatusQualityReview} {
		if s.Terminal() {
			t.Fatalf("%s must not be terminal", s)
		}
		if !s.CanTransitionTo(OrderStatusRefunded) {
			t.Fatalf("expected refund from %s", s)
		}
	}
	if !OrderStatusDelivered.Terminal() || !OrderStatusRefunded.Terminal() {
		t.Fatal("expected delivered and refunded to be terminal")
	}
}

func TestPredecessors(t *testing.T) {
	got := Predecessors(OrderStatusDelivered)
	want := []OrderStatus{OrderStatusInProduction, OrderStatusQualityReview}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRequiredDeliverables(t *testing.T) {
	cases := []struct {
		name  string
		order Order
		want  []DeliverableType
	}{
		{"basis", Order{PackageType: PackageBasis}, []DeliverableType{DeliverableMP3}},
		{"plus", Order{PackageType: PackagePlus}, []DeliverableType{DeliverableMP3, DeliverablePDF, DeliverablePNG}},
		{"premium", Order{PackageType: PackagePremium}, []DeliverableType{DeliverableMP3, DeliverablePDF, DeliverablePNG, DeliverableMP4, DeliverableWAV}},
		{"plus with karaoke", Order{PackageType: PackagePlus, BumpKaraoke: true}, []DeliverableType{DeliverableMP3, DeliverablePDF, DeliverablePNG, DeliverableWAV}},
		{"basis with karaoke", Order{PackageType: PackageBasis, BumpKaraoke: true}, []DeliverableType{DeliverableMP3, DeliverableWAV}},
		{"hochzeits bundle includes karaoke", Order{PackageType: PackagePlus, Bundle: BundleHochzeits}, []DeliverableType{DeliverableMP3, DeliverablePDF, DeliverablePNG, DeliverableWAV}},
		{"premium with karaoke", Order{PackageType: PackagePremium, BumpKaraoke: true}, []DeliverableType{DeliverableMP3, DeliverablePDF, DeliverablePNG, DeliverableMP4, DeliverableWAV}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RequiredDeliverables(&tc.order)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMissingDeliverables(t *testing.T) {
	order := &Order{PackageType: PackageBasis}
	if missing := MissingDeliverables(order, nil); len(missing) != 1 || missing[0] != DeliverableMP3 {
		t.Fatalf("expected mp3 missing, got %v", missing)
	}
	present := []Deliverable{{Type: DeliverableMP3}}
	if missing := MissingDeliverables(order, present); len(missing) != 0 {
		t.Fatalf("expected nothing missing, got %v", missing)
	}

	plus := &Order{PackageType: PackagePlus, BumpKaraoke: true}
	missing := MissingDeliverables(plus, []Deliverable{{Type: DeliverableMP3}, {Type: DeliverablePNG}})
	want := []DeliverableType{DeliverablePDF, DeliverableWAV}
	if !reflect.DeepEqual(missing, want) {
		t.Fatalf("expected %v, got %v", want, missing)
	}
}

func TestBundleRules(t *testing.T) {
	if !BundleHochzeits.Includes(BumpKaraoke) || !BundleHochzeits.Includes(BumpGift) || BundleHochzeits.Includes(BumpRush) {
		t.Fatal("unexpected hochzeits bundle contents")
	}
	if len(BundlePerfekt.Supersedes()) != 3 {
		t.Fatal("expected perfekt bundle to supersede all add-ons")
	}
	if pkg, ok := BundleHochzeits.ForcedPackage(); !ok || pkg != PackagePlus {
		t.Fatal("expected hochzeits bundle to force plus")
	}
	if _, ok := BundlePerfekt.ForcedPackage(); ok {
		t.Fatal("perfekt bundle must not force a package")
	}
	if Bundle("").Normalize() != BundleNone || Bundle("").Selected() {
		t.Fatal("expected empty bundle to normalize to none")
	}
	order := Order{Bundle: BundlePerfekt}
	if !order.HasKaraoke() || !order.HasRush() {
		t.Fatal("expected perfekt bundle to include karaoke and rush")
	}
}

func TestPriorityRankAndTier(t *testing.T) {
	if PriorityUrgent.Rank() <= PriorityHigh.Rank() || PriorityLow.Rank() <= PriorityUnscored.Rank() {
		t.Fatal("unexpected priority ordering")
	}
	if PriorityUnscored.Valid() {
		t.Fatal("unscored must not be valid")
	}
	if TierVIP.Rank() <= TierStandard.Rank() {
		t.Fatal("vip must rank above standard")
	}
	max := 2
	code := ReferralCode{Uses: 2, MaxUses: &max}
	if !code.Exhausted() {
		t.Fatal("expected exhausted code")
	}
}
