package test

import (
	"context"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/melodiemacher/internal/domain/errors"
	"github.com/polkiloo/melodiemacher/internal/domain/model"
	"github.com/polkiloo/melodiemacher/internal/domain/repository"
)

// OrderRepositoryStub stores orders in-memory and applies the same conditional
// updates as the database implementation.
type OrderRepositoryStub struct {
	mu     sync.Mutex
	Orders map[int64]*model.Order
	Next   int64
	Err    error

	CreateFn func(context.Context, *model.Order) (*model.Order, error)
	ListFn   func(context.Context, model.OrderFilter) ([]model.Order, error)

	Claimed map[int64]bool
	// Reminders, when set, hides orders already reminded in a year from DueAnniversaries.
	Reminders *ReminderRepositoryStub
}

// NewOrderRepositoryStub constructs an empty order store.
func NewOrderRepositoryStub(orders ...model.Order) *OrderRepositoryStub {
	s := &OrderRepositoryStub{Orders: make(map[int64]*model.Order), Next: 1, Claimed: make(map[int64]bool)}
	for _, o := range orders {
		order := o
		if order.ID == 0 {
			order.ID = s.Next
		}
		if order.ID >= s.Next {
			s.Next = order.ID + 1
		}
		s.Orders[order.ID] = &order
	}
	return s
}

// Get returns a copy of the stored order for assertions.
func (s *OrderRepositoryStub) Get(id int64) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.Orders[id]; ok {
		return *o
	}
	return model.Order{}
}

func (s *OrderRepositoryStub) find(match func(*model.Order) bool) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, o := range s.Orders {
		if match(o) {
			order := *o
			return &order, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *OrderRepositoryStub) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, order)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, o := range s.Orders {
		if o.OrderNumber == order.OrderNumber {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	created := *order
	created.ID = s.Next
	s.Next++
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	s.Orders[created.ID] = &created
	result := created
	return &result, nil
}

func (s *OrderRepositoryStub) GetByID(_ context.Context, id int64) (*model.Order, error) {
	return s.find(func(o *model.Order) bool { return o.ID == id })
}

func (s *OrderRepositoryStub) GetByNumber(_ context.Context, number string) (*model.Order, error) {
	return s.find(func(o *model.Order) bool { return o.OrderNumber == number })
}

func (s *OrderRepositoryStub) GetBySessionID(_ context.Context, sessionID string) (*model.Order, error) {
	return s.find(func(o *model.Order) bool { return o.StripeSessionID == sessionID })
}

func (s *OrderRepositoryStub) GetByPaymentIntent(_ context.Context, paymentIntentID string) (*model.Order, error) {
	return s.find(func(o *model.Order) bool { return o.StripePaymentIntentID == paymentIntentID })
}

// List filters by status and priority and orders by id.
func (s *OrderRepositoryStub) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, filter)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.Order
	for _, o := range s.Orders {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, o.Status) {
			continue
		}
		if filter.Priority != "" && o.Priority != filter.Priority {
			continue
		}
		result = append(result, *o)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *OrderRepositoryStub) UpdateStatus(_ context.Context, id int64, from []model.OrderStatus, to model.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	o, ok := s.Orders[id]
	if !ok || !containsStatus(from, o.Status) {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (s *OrderRepositoryStub) MarkPaid(_ context.Context, sessionID, paymentIntentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	for _, o := range s.Orders {
		if o.StripeSessionID == sessionID && o.Status == model.OrderStatusPending {
			o.Status = model.OrderStatusPaid
			o.StripePaymentIntentID = paymentIntentID
			return true, nil
		}
	}
	return false, nil
}

func (s *OrderRepositoryStub) MarkDelivered(_ context.Context, id int64, deliveryURL string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	o, ok := s.Orders[id]
	if !ok || !containsStatus(model.Predecessors(model.OrderStatusDelivered), o.Status) {
		return false, nil
	}
	o.Status = model.OrderStatusDelivered
	o.DeliveryURL = deliveryURL
	delivered := at
	o.DeliveredAt = &delivered
	return true, nil
}

func (s *OrderRepositoryStub) update(id int64, apply func(*model.Order)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	o, ok := s.Orders[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	apply(o)
	return nil
}

func (s *OrderRepositoryStub) SavePriority(_ context.Context, id int64, priority model.Priority, reasons []string, deadline *time.Time) error {
	return s.update(id, func(o *model.Order) {
		o.Priority = priority
		o.PriorityReasons = reasons
		o.SuggestedDeadline = deadline
	})
}

func (s *OrderRepositoryStub) SaveQuality(_ context.Context, id int64, score int, details string) error {
	return s.update(id, func(o *model.Order) {
		o.QualityScore = &score
		o.QualityDetails = details
	})
}

func (s *OrderRepositoryStub) SavePrompt(_ context.Context, id int64, prompt string) error {
	return s.update(id, func(o *model.Order) { o.GeneratedPrompt = prompt })
}

// ClaimForProduction hands out each paid order once.
func (s *OrderRepositoryStub) ClaimForProduction(_ context.Context, limit int, _ time.Duration) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	ids := make([]int64, 0, len(s.Orders))
	for id, o := range s.Orders {
		if o.Status == model.OrderStatusPaid && !s.Claimed[id] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var result []model.Order
	for _, id := range ids {
		if len(result) == limit {
			break
		}
		s.Claimed[id] = true
		result = append(result, *s.Orders[id])
	}
	return result, nil
}

func (s *OrderRepositoryStub) ListUnscored(_ context.Context, limit int) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.Order
	for _, o := range s.Orders {
		if o.Priority == model.PriorityUnscored && (o.Status == model.OrderStatusPaid || o.Status == model.OrderStatusInProduction || o.Status == model.OrderStatusQualityReview) {
			result = append(result, *o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *OrderRepositoryStub) DueAnniversaries(_ context.Context, monthDays []string, year int, limit int) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.Order
	for _, o := range s.Orders {
		if o.Status != model.OrderStatusDelivered || o.OccasionDate == nil || o.OccasionDate.Year() >= year {
			continue
		}
		if s.Reminders != nil && s.Reminders.Has(o.ID, year) {
			continue
		}
		md := o.OccasionDate.Format("01-02")
		for _, want := range monthDays {
			if md == want {
				result = append(result, *o)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DeliverableRepositoryStub keeps deliverables in-memory.
type DeliverableRepositoryStub struct {
	mu    sync.Mutex
	Items map[int64]*model.Deliverable
	Next  int64
	Err   error
}

// NewDeliverableRepositoryStub creates a store seeded with items.
func NewDeliverableRepositoryStub(items ...model.Deliverable) *DeliverableRepositoryStub {
	s := &DeliverableRepositoryStub{Items: make(map[int64]*model.Deliverable), Next: 1}
	for _, d := range items {
		item := d
		if item.ID == 0 {
			item.ID = s.Next
		}
		if item.ID >= s.Next {
			s.Next = item.ID + 1
		}
		s.Items[item.ID] = &item
	}
	return s
}

func (s *DeliverableRepositoryStub) Add(_ context.Context, d *model.Deliverable) (*model.Deliverable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	created := *d
	created.ID = s.Next
	s.Next++
	created.CreatedAt = time.Now()
	s.Items[created.ID] = &created
	result := created
	return &result, nil
}

func (s *DeliverableRepositoryStub) ListByOrder(_ context.Context, orderID int64) ([]model.Deliverable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.Deliverable
	for _, d := range s.Items {
		if d.OrderID == orderID {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *DeliverableRepositoryStub) Delete(_ context.Context, orderID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	d, ok := s.Items[id]
	if !ok || d.OrderID != orderID {
		return domainErrors.ErrNotFound
	}
	delete(s.Items, id)
	return nil
}

// ReferralRepositoryStub keeps referral codes and redemptions in-memory.
type ReferralRepositoryStub struct {
	mu          sync.Mutex
	Codes       map[string]*model.ReferralCode
	Redemptions map[string]string
	Next        int64
	Err         error
}

// NewReferralRepositoryStub creates a store seeded with codes.
func NewReferralRepositoryStub(codes ...model.ReferralCode) *ReferralRepositoryStub {
	s := &ReferralRepositoryStub{Codes: make(map[string]*model.ReferralCode), Redemptions: make(map[string]string), Next: 1}
	for _, c := range codes {
		code := c
		s.Codes[code.Code] = &code
	}
	return s
}

func (s *ReferralRepositoryStub) Create(_ context.Context, code *model.ReferralCode) (*model.ReferralCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if _, exists := s.Codes[code.Code]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	for _, c := range s.Codes {
		if c.Active && c.OwnerEmail == code.OwnerEmail {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	created := *code
	created.ID = s.Next
	s.Next++
	created.Active = true
	s.Codes[created.Code] = &created
	result := created
	return &result, nil
}

func (s *ReferralRepositoryStub) GetByCode(_ context.Context, code string) (*model.ReferralCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if c, ok := s.Codes[code]; ok {
		result := *c
		return &result, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *ReferralRepositoryStub) GetActiveByOwner(_ context.Context, email string) (*model.ReferralCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, c := range s.Codes {
		if c.Active && c.OwnerEmail == email {
			result := *c
			return &result, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *ReferralRepositoryStub) Redeem(_ context.Context, code, orderNumber, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	c, ok := s.Codes[code]
	if !ok {
		return false, domainErrors.ErrReferralInvalid
	}
	if _, done := s.Redemptions[orderNumber]; done {
		return false, nil
	}
	if !c.Active || c.Exhausted() {
		return false, domainErrors.ErrReferralExhausted
	}
	c.Uses++
	s.Redemptions[orderNumber] = code
	return true, nil
}

// LoyaltyRepositoryStub keeps loyalty accounts in-memory.
type LoyaltyRepositoryStub struct {
	mu        sync.Mutex
	Accounts  map[string]*model.LoyaltyAccount
	Purchases map[string]string
	Err       error
}

// NewLoyaltyRepositoryStub creates an empty loyalty store.
func NewLoyaltyRepositoryStub() *LoyaltyRepositoryStub {
	return &LoyaltyRepositoryStub{Accounts: make(map[string]*model.LoyaltyAccount), Purchases: make(map[string]string)}
}

func (s *LoyaltyRepositoryStub) Get(_ context.Context, email string) (*model.LoyaltyAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if a, ok := s.Accounts[email]; ok {
		result := *a
		return &result, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *LoyaltyRepositoryStub) RecordPurchase(_ context.Context, email, orderNumber string) (*model.LoyaltyAccount, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, false, s.Err
	}
	account, ok := s.Accounts[email]
	if _, counted := s.Purchases[orderNumber]; counted {
		if !ok {
			return nil, false, domainErrors.ErrNotFound
		}
		result := *account
		return &result, false, nil
	}
	if !ok {
		account = &model.LoyaltyAccount{Email: email, Tier: model.TierStandard}
		s.Accounts[email] = account
	}
	account.PurchaseCount++
	s.Purchases[orderNumber] = email
	result := *account
	return &result, true, nil
}

func (s *LoyaltyRepositoryStub) UpgradeTier(_ context.Context, email string, tier model.LoyaltyTier, discount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	a, ok := s.Accounts[email]
	if !ok || a.Tier.Rank() >= tier.Rank() {
		return nil
	}
	a.Tier = tier
	if discount > a.DiscountPercent {
		a.DiscountPercent = discount
	}
	return nil
}

// CampaignRepositoryStub keeps enrolments in-memory.
type CampaignRepositoryStub struct {
	mu          sync.Mutex
	Enrollments map[int64]*model.CampaignEnrollment
	Next        int64
	Err         error
}

// NewCampaignRepositoryStub creates an empty campaign store.
func NewCampaignRepositoryStub() *CampaignRepositoryStub {
	return &CampaignRepositoryStub{Enrollments: make(map[int64]*model.CampaignEnrollment), Next: 1}
}

// Find returns the enrolment of an order in a campaign.
func (s *CampaignRepositoryStub) Find(campaign model.CampaignKind, orderNumber string) (model.CampaignEnrollment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.Enrollments {
		if e.Campaign == campaign && e.OrderNumber == orderNumber {
			return *e, true
		}
	}
	return model.CampaignEnrollment{}, false
}

func (s *CampaignRepositoryStub) Enroll(_ context.Context, e *model.CampaignEnrollment) (*model.CampaignEnrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, existing := range s.Enrollments {
		if existing.Campaign == e.Campaign && existing.OrderNumber == e.OrderNumber {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	created := *e
	created.ID = s.Next
	s.Next++
	if created.Status == "" {
		created.Status = model.EnrollmentActive
	}
	s.Enrollments[created.ID] = &created
	result := created
	return &result, nil
}

func (s *CampaignRepositoryStub) Cancel(_ context.Context, campaign model.CampaignKind, orderNumber string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for _, e := range s.Enrollments {
		if e.Campaign == campaign && e.OrderNumber == orderNumber && e.Status == model.EnrollmentActive {
			e.Status = model.EnrollmentCancelled
			n++
		}
	}
	return n, nil
}

// ClaimDue returns due active enrolments ordered by id.
func (s *CampaignRepositoryStub) ClaimDue(_ context.Context, now time.Time, limit int, _ time.Duration) ([]model.CampaignEnrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.CampaignEnrollment
	for _, e := range s.Enrollments {
		if e.Status == model.EnrollmentActive && !e.NextSendAt.After(now) {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *CampaignRepositoryStub) apply(id int64, fn func(*model.CampaignEnrollment)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	e, ok := s.Enrollments[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	fn(e)
	return nil
}

func (s *CampaignRepositoryStub) Advance(_ context.Context, id int64, step int, next time.Time) error {
	return s.apply(id, func(e *model.CampaignEnrollment) {
		e.Step = step
		e.NextSendAt = next
		e.Attempts = 0
		e.LastError = ""
	})
}

func (s *CampaignRepositoryStub) Complete(_ context.Context, id int64, status model.EnrollmentStatus, lastError string) error {
	return s.apply(id, func(e *model.CampaignEnrollment) {
		e.Status = status
		e.LastError = lastError
	})
}

func (s *CampaignRepositoryStub) Retry(_ context.Context, id int64, attempts int, next time.Time, lastError string) error {
	return s.apply(id, func(e *model.CampaignEnrollment) {
		e.Attempts = attempts
		e.NextSendAt = next
		e.LastError = lastError
	})
}

// ReminderRepositoryStub keeps anniversary reminders in-memory.
type ReminderRepositoryStub struct {
	mu        sync.Mutex
	Reminders map[int64]*model.AnniversaryReminder
	Next      int64
	Err       error
}

// NewReminderRepositoryStub creates an empty reminder store.
func NewReminderRepositoryStub() *ReminderRepositoryStub {
	return &ReminderRepositoryStub{Reminders: make(map[int64]*model.AnniversaryReminder), Next: 1}
}

func (s *ReminderRepositoryStub) Claim(_ context.Context, orderID int64, year int) (*model.AnniversaryReminder, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, false, s.Err
	}
	for _, r := range s.Reminders {
		if r.OrderID == orderID && r.Year == year {
			return nil, false, nil
		}
	}
	r := &model.AnniversaryReminder{ID: s.Next, OrderID: orderID, Year: year, Status: model.ReminderClaimed}
	s.Next++
	s.Reminders[r.ID] = r
	result := *r
	return &result, true, nil
}

func (s *ReminderRepositoryStub) SetStatus(_ context.Context, id int64, status model.ReminderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	r, ok := s.Reminders[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	r.Status = status
	return nil
}

// Has reports whether a reminder exists for the order in year.
func (s *ReminderRepositoryStub) Has(orderID int64, year int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.Reminders {
		if r.OrderID == orderID && r.Year == year {
			return true
		}
	}
	return false
}

// Statuses lists reminder statuses for assertions.
func (s *ReminderRepositoryStub) Statuses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []string
	for _, r := range s.Reminders {
		result = append(result, string(r.Status))
	}
	sort.Strings(result)
	return result
}

func containsStatus(list []model.OrderStatus, s model.OrderStatus) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

// RepositoryFactoryStub bundles the in-memory repositories.
type RepositoryFactoryStub struct {
	OrderRepo       *OrderRepositoryStub
	DeliverableRepo *DeliverableRepositoryStub
	ReferralRepo    *ReferralRepositoryStub
	LoyaltyRepo     *LoyaltyRepositoryStub
	CampaignRepo    *CampaignRepositoryStub
	ReminderRepo    *ReminderRepositoryStub
}

// NewRepositoryFactoryStub creates empty in-memory repositories.
func NewRepositoryFactoryStub() *RepositoryFactoryStub {
	return &RepositoryFactoryStub{
		OrderRepo:       NewOrderRepositoryStub(),
		DeliverableRepo: NewDeliverableRepositoryStub(),
		ReferralRepo:    NewReferralRepositoryStub(),
		LoyaltyRepo:     NewLoyaltyRepositoryStub(),
		CampaignRepo:    NewCampaignRepositoryStub(),
		ReminderRepo:    NewReminderRepositoryStub(),
	}
}

func (f *RepositoryFactoryStub) Orders() repository.OrderRepository { return f.OrderRepo }
func (f *RepositoryFactoryStub) Deliverables() repository.DeliverableRepository {
	return f.DeliverableRepo
}
func (f *RepositoryFactoryStub) Referrals() repository.ReferralRepository { return f.ReferralRepo }
func (f *RepositoryFactoryStub) Loyalty() repository.LoyaltyRepository    { return f.LoyaltyRepo }
func (f *RepositoryFactoryStub) Campaigns() repository.CampaignRepository { return f.CampaignRepo }
func (f *RepositoryFactoryStub) Reminders() repository.ReminderRepository { return f.ReminderRepo }

var (
	_ repository.OrderRepository       = (*OrderRepositoryStub)(nil)
	_ repository.DeliverableRepository = (*DeliverableRepositoryStub)(nil)
	_ repository.ReferralRepository    = (*ReferralRepositoryStub)(nil)
	_ repository.LoyaltyRepository     = (*LoyaltyRepositoryStub)(nil)
	_ repository.CampaignRepository    = (*CampaignRepositoryStub)(nil)
	_ repository.ReminderRepository    = (*ReminderRepositoryStub)(nil)
	_ repository.Factory               = (*RepositoryFactoryStub)(nil)
)
