package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sauna-booking/internal/data/entity"
	"sauna-booking/internal/usecase"
	"sauna-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func testConfig() *utils.Config {
	return &utils.Config{
		Stripe: utils.StripeConfig{Currency: "dkk"},
		Booking: utils.BookingConfig{
			PendingTTLMinutes:  30,
			MaxSpotsPerBooking: 10,
			ReleasePoints:      150,
			PointsWindowHours:  3,
			HostPoints:         150,
		},
		Outbox: utils.OutboxConfig{PollSeconds: 1, BatchSize: 20, MaxAttempts: 5},
	}
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// =============================================================================
// IN-MEMORY REPOSITORY FAKES
//
// Each fake applies the same conditional-update guards as the SQL it stands
// in for, under a mutex, so the ledger semantics under test match production.
// =============================================================================

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*entity.Session)}
}

func (f *fakeSessionRepo) Create(_ context.Context, s *entity.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionRepo) FindUpcoming(_ context.Context, limit, offset int) ([]*entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Session
	for _, s := range f.sessions {
		if s.StartTime.After(time.Now()) {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) CountUpcoming(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.sessions {
		if s.StartTime.After(time.Now()) {
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionRepo) Update(_ context.Context, s *entity.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.sessions[s.ID]
	if !ok {
		return fmt.Errorf("session %s not found", s.ID)
	}
	reserved := stored.Reserved
	copied := *s
	copied.Reserved = reserved
	f.sessions[s.ID] = &copied
	return nil
}

func (f *fakeSessionRepo) FindRecentlyStarted(_ context.Context, since, until time.Time) ([]*entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Session
	for _, s := range f.sessions {
		if !s.StartTime.Before(since) && !s.StartTime.After(until) {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) ReserveSpots(_ context.Context, id uuid.UUID, spots int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return false, nil
	}
	if s.Reserved+spots > s.Capacity {
		return false, nil
	}
	s.Reserved += spots
	return true, nil
}

func (f *fakeSessionRepo) ReservePrivate(_ context.Context, id uuid.UUID, spots int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return false, nil
	}
	if s.Reserved != 0 {
		return false, nil
	}
	s.Reserved += spots
	return true, nil
}

func (f *fakeSessionRepo) ReleaseSpots(_ context.Context, id uuid.UUID, spots int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	s.Reserved -= spots
	if s.Reserved < 0 {
		s.Reserved = 0
	}
	return nil
}

func (f *fakeSessionRepo) reserved(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[id].Reserved
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*entity.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*entity.Booking)}
}

func (f *fakeBookingRepo) Create(_ context.Context, b *entity.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *b
	f.bookings[b.ID] = &copied
	return nil
}

func (f *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingRepo) FindByPaymentIntentID(_ context.Context, intentID string) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.PaymentIntentID != nil && *b.PaymentIntentID == intentID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeBookingRepo) FindByMemberID(_ context.Context, memberID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Booking
	for _, b := range f.bookings {
		if b.MemberID == memberID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) CountByMemberID(_ context.Context, memberID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, b := range f.bookings {
		if b.MemberID == memberID {
			n++
		}
	}
	return n, nil
}

func (f *fakeBookingRepo) FindExpiredPending(_ context.Context, olderThan time.Time) ([]*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Booking
	for _, b := range f.bookings {
		if b.Status == entity.BookingStatusPending &&
			b.PaymentStatus == entity.PaymentStatusPending &&
			b.CreatedAt.Before(olderThan) {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

// backdate shifts a booking's creation time, for expiry tests.
func (f *fakeBookingRepo) backdate(id uuid.UUID, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bookings[id]; ok {
		b.CreatedAt = b.CreatedAt.Add(-d)
	}
}

func (f *fakeBookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.bookings, id)
	return nil
}

func (f *fakeBookingRepo) SetConfirmedPaid(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.PaymentStatus == entity.PaymentStatusPaid || b.Status == entity.BookingStatusCancelled {
		return false, nil
	}
	b.Status = entity.BookingStatusConfirmed
	b.PaymentStatus = entity.PaymentStatusPaid
	now := time.Now()
	b.PaidAt = &now
	return true, nil
}

func (f *fakeBookingRepo) SetFailedCancelled(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != entity.BookingStatusPending || b.PaymentStatus != entity.PaymentStatusPending {
		return false, nil
	}
	b.Status = entity.BookingStatusCancelled
	b.PaymentStatus = entity.PaymentStatusFailed
	return true, nil
}

func (f *fakeBookingRepo) SetRefundedCancelled(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.PaymentStatus != entity.PaymentStatusPaid {
		return false, nil
	}
	b.Status = entity.BookingStatusCancelled
	b.PaymentStatus = entity.PaymentStatusRefunded
	return true, nil
}

func (f *fakeBookingRepo) CancelIfConfirmed(_ context.Context, id uuid.UUID, by *uuid.UUID, reason *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != entity.BookingStatusConfirmed {
		return false, nil
	}
	b.Status = entity.BookingStatusCancelled
	b.ChangedBy = by
	b.ChangeReason = reason
	now := time.Now()
	b.ChangedAt = &now
	return true, nil
}

func (f *fakeBookingRepo) CancelIfPending(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != entity.BookingStatusPending {
		return false, nil
	}
	b.Status = entity.BookingStatusCancelled
	return true, nil
}

func (f *fakeBookingRepo) AddSpots(_ context.Context, id uuid.UUID, extraSpots int, extraAmount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s not found", id)
	}
	b.Spots += extraSpots
	b.Amount += extraAmount
	return nil
}

func (f *fakeBookingRepo) RemoveSpots(_ context.Context, id uuid.UUID, spots int, amount int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != entity.BookingStatusConfirmed || b.Spots-spots < 1 {
		return false, nil
	}
	b.Spots -= spots
	b.Amount -= amount
	return true, nil
}

func (f *fakeBookingRepo) UpdateSessionRef(_ context.Context, id, newSessionID uuid.UUID, by uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s not found", id)
	}
	b.SessionID = newSessionID
	b.ChangedBy = &by
	b.ChangeReason = &reason
	now := time.Now()
	b.ChangedAt = &now
	return nil
}

type fakeBookingPaymentRepo struct {
	mu       sync.Mutex
	payments []*entity.BookingPayment
}

func newFakeBookingPaymentRepo() *fakeBookingPaymentRepo {
	return &fakeBookingPaymentRepo{}
}

func (f *fakeBookingPaymentRepo) CreateIfAbsent(_ context.Context, p *entity.BookingPayment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.payments {
		if existing.PaymentIntentID == p.PaymentIntentID {
			return false, nil
		}
	}
	copied := *p
	f.payments = append(f.payments, &copied)
	return true, nil
}

func (f *fakeBookingPaymentRepo) ReduceSpots(_ context.Context, id uuid.UUID, spots int, amount int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.ID == id && p.Spots >= spots {
			p.Spots -= spots
			p.Amount -= amount
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookingPaymentRepo) FindByIntentID(_ context.Context, intentID string) (*entity.BookingPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.PaymentIntentID == intentID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeBookingPaymentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.BookingPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.BookingPayment
	for _, p := range f.payments {
		if p.BookingID == bookingID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakePunchCardRepo struct {
	mu      sync.Mutex
	cards   map[uuid.UUID]*entity.PunchCard
	entries []*entity.PunchCardUsageEntry
}

func newFakePunchCardRepo() *fakePunchCardRepo {
	return &fakePunchCardRepo{cards: make(map[uuid.UUID]*entity.PunchCard)}
}

func (f *fakePunchCardRepo) Create(_ context.Context, c *entity.PunchCard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *c
	f.cards[c.ID] = &copied
	return nil
}

func (f *fakePunchCardRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.PunchCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (f *fakePunchCardRepo) FindActiveByOwner(_ context.Context, ownerID uuid.UUID) ([]*entity.PunchCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.PunchCard
	for _, c := range f.cards {
		if c.OwnerID == ownerID && c.Status == entity.PunchCardStatusActive && c.RemainingUses > 0 {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakePunchCardRepo) FindByPurchaseRef(_ context.Context, ref string) (*entity.PunchCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cards {
		if c.PurchaseRef != nil && *c.PurchaseRef == ref {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakePunchCardRepo) FindUsageByCause(_ context.Context, cardID, bookingID uuid.UUID, kind entity.UsageKind, reason string) (*entity.PunchCardUsageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.CardID == cardID && e.BookingID != nil && *e.BookingID == bookingID && e.Kind == kind &&
			(reason == "" || e.Reason == reason) {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakePunchCardRepo) ListUsage(_ context.Context, cardID uuid.UUID) ([]*entity.PunchCardUsageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.PunchCardUsageEntry
	for _, e := range f.entries {
		if e.CardID == cardID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakePunchCardRepo) DebitWithEntry(_ context.Context, cardID uuid.UUID, uses int, entry *entity.PunchCardUsageEntry) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[cardID]
	if !ok || c.Status != entity.PunchCardStatusActive || c.RemainingUses < uses {
		return false, nil
	}
	c.RemainingUses -= uses
	if c.RemainingUses == 0 {
		c.Status = entity.PunchCardStatusExhausted
	}
	entry.BalanceAfter = c.RemainingUses
	copied := *entry
	f.entries = append(f.entries, &copied)
	return true, nil
}

func (f *fakePunchCardRepo) CreditWithEntry(_ context.Context, cardID uuid.UUID, uses int, entry *entity.PunchCardUsageEntry) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[cardID]
	if !ok {
		return false, nil
	}
	c.RemainingUses += uses
	if c.RemainingUses > c.TotalUses {
		c.RemainingUses = c.TotalUses
	}
	if c.Status == entity.PunchCardStatusExhausted {
		c.Status = entity.PunchCardStatusActive
	}
	entry.BalanceAfter = c.RemainingUses
	copied := *entry
	f.entries = append(f.entries, &copied)
	return true, nil
}

func (f *fakePunchCardRepo) remaining(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cards[id].RemainingUses
}

type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*entity.PunchCardTemplate
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: make(map[uuid.UUID]*entity.PunchCardTemplate)}
}

func (f *fakeTemplateRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.PunchCardTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.templates[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTemplateRepo) FindAllActive(_ context.Context) ([]*entity.PunchCardTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.PunchCardTemplate
	for _, t := range f.templates {
		if t.IsActive {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeThemeRepo struct {
	mu     sync.Mutex
	themes map[uuid.UUID]*entity.Theme
}

func newFakeThemeRepo() *fakeThemeRepo {
	return &fakeThemeRepo{themes: make(map[uuid.UUID]*entity.Theme)}
}

func (f *fakeThemeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Theme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.themes[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (f *fakeThemeRepo) FindAllActive(_ context.Context) ([]*entity.Theme, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Theme
	for _, t := range f.themes {
		if t.IsActive {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices []*entity.Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{}
}

func (f *fakeInvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *inv
	f.invoices = append(f.invoices, &copied)
	return nil
}

func (f *fakeInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invoices {
		if inv.ID == id {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeInvoiceRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range f.invoices {
		if inv.BookingID == bookingID {
			copied := *inv
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeInvoiceRepo) MarkPaidByBookingID(_ context.Context, bookingID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invoices {
		if inv.BookingID == bookingID && inv.PaymentStatus == entity.PaymentStatusPending {
			inv.PaymentStatus = entity.PaymentStatusPaid
			now := time.Now()
			inv.PaidAt = &now
		}
	}
	return nil
}

func (f *fakeInvoiceRepo) MarkRefundedByID(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invoices {
		if inv.ID == id && inv.PaymentStatus == entity.PaymentStatusPaid {
			inv.PaymentStatus = entity.PaymentStatusRefunded
		}
	}
	return nil
}

func (f *fakeInvoiceRepo) MarkRefundedByBookingID(_ context.Context, bookingID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invoices {
		if inv.BookingID == bookingID && inv.PaymentStatus == entity.PaymentStatusPaid {
			inv.PaymentStatus = entity.PaymentStatusRefunded
		}
	}
	return nil
}

type fakeGuestSpotRepo struct {
	mu    sync.Mutex
	spots map[uuid.UUID]*entity.GuestSpot
	held  []*entity.HeldSpot
}

func newFakeGuestSpotRepo() *fakeGuestSpotRepo {
	return &fakeGuestSpotRepo{spots: make(map[uuid.UUID]*entity.GuestSpot)}
}

func (f *fakeGuestSpotRepo) Create(_ context.Context, s *entity.GuestSpot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *s
	f.spots[s.ID] = &copied
	return nil
}

func (f *fakeGuestSpotRepo) FindHeldSpots(_ context.Context) ([]*entity.HeldSpot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.HeldSpot
	for _, h := range f.held {
		if spot, ok := f.spots[h.SpotID]; ok && spot.Status == entity.GuestSpotStatusHeld {
			copied := *h
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeGuestSpotRepo) ReleaseIfHeld(_ context.Context, spotID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.spots[spotID]
	if !ok || s.Status != entity.GuestSpotStatusHeld {
		return false, nil
	}
	s.Status = entity.GuestSpotStatusReleased
	return true, nil
}

// holdSpot seeds a held guest spot plus its scheduler view.
func (f *fakeGuestSpotRepo) holdSpot(spot *entity.GuestSpot, view *entity.HeldSpot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spots[spot.ID] = spot
	f.held = append(f.held, view)
}

type pointsAward struct {
	EmployeeID uuid.UUID
	Points     int
	Reason     string
	SessionID  *uuid.UUID
}

type fakeEmployeeRepo struct {
	mu        sync.Mutex
	employees map[uuid.UUID]*entity.Employee
	awards    []pointsAward
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{employees: make(map[uuid.UUID]*entity.Employee)}
}

func (f *fakeEmployeeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.employees[id]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (f *fakeEmployeeRepo) AwardPoints(_ context.Context, employeeID uuid.UUID, points int, reason string, sessionID *uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.awards {
		if a.EmployeeID == employeeID && a.Reason == reason && uuidPtrEqual(a.SessionID, sessionID) {
			return false, nil
		}
	}
	f.awards = append(f.awards, pointsAward{EmployeeID: employeeID, Points: points, Reason: reason, SessionID: sessionID})
	if e, ok := f.employees[employeeID]; ok {
		e.Points += points
	}
	return true, nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type fakeOutboxRepo struct {
	mu   sync.Mutex
	jobs []*entity.OutboxJob
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{}
}

func (f *fakeOutboxRepo) Enqueue(_ context.Context, job *entity.OutboxJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *job
	f.jobs = append(f.jobs, &copied)
	return nil
}

func (f *fakeOutboxRepo) FetchPending(_ context.Context, limit int) ([]*entity.OutboxJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.OutboxJob
	for _, j := range f.jobs {
		if j.Status == entity.OutboxStatusPending && len(out) < limit {
			copied := *j
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeOutboxRepo) MarkSent(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id {
			j.Status = entity.OutboxStatusSent
			now := time.Now()
			j.SentAt = &now
		}
	}
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, errMsg string, maxAttempts int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id {
			j.Attempts++
			j.LastError = &errMsg
			if j.Attempts >= maxAttempts {
				j.Status = entity.OutboxStatusFailed
			}
		}
	}
	return nil
}

func (f *fakeOutboxRepo) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, j := range f.jobs {
		out = append(out, j.Kind)
	}
	return out
}

// =============================================================================
// FAKE PAYMENT GATEWAY
// =============================================================================

// refundCall records one gateway refund; a nil amount is a full refund.
type refundCall struct {
	intentID string
	amount   *int64
}

type fakeGateway struct {
	mu        sync.Mutex
	intents   map[string]*usecase.PaymentIntentRef
	refunds   []refundCall
	createErr error

	// verifyEvent and verifyErr script VerifyWebhook.
	verifyEvent *usecase.WebhookEvent
	verifyErr   error

	nextIntent int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: make(map[string]*usecase.PaymentIntentRef)}
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (*usecase.PaymentIntentRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextIntent++
	intent := &usecase.PaymentIntentRef{
		ID:           fmt.Sprintf("pi_test_%d", g.nextIntent),
		ClientSecret: fmt.Sprintf("pi_test_%d_secret", g.nextIntent),
		Status:       "requires_payment_method",
		Amount:       amount,
		Metadata:     metadata,
	}
	g.intents[intent.ID] = intent
	return intent, nil
}

func (g *fakeGateway) RetrieveIntent(_ context.Context, intentID string) (*usecase.PaymentIntentRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[intentID]
	if !ok {
		return nil, errors.New("no such payment intent")
	}
	copied := *intent
	return &copied, nil
}

func (g *fakeGateway) Refund(_ context.Context, intentID string, amount *int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds = append(g.refunds, refundCall{intentID: intentID, amount: amount})
	return nil
}

func (g *fakeGateway) VerifyWebhook(_ []byte, _ string) (*usecase.WebhookEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.verifyEvent, nil
}

// succeed flips a created intent to succeeded, as the gateway would after
// the member pays.
func (g *fakeGateway) succeed(intentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if intent, ok := g.intents[intentID]; ok {
		intent.Status = "succeeded"
	}
}

// =============================================================================
// WIRED TEST ENVIRONMENT
// =============================================================================

type testEnv struct {
	sessions  *fakeSessionRepo
	bookings  *fakeBookingRepo
	payments  *fakeBookingPaymentRepo
	cards     *fakePunchCardRepo
	templates *fakeTemplateRepo
	themes    *fakeThemeRepo
	invoices  *fakeInvoiceRepo
	spots     *fakeGuestSpotRepo
	employees *fakeEmployeeRepo
	outbox    *fakeOutboxRepo
	gateway   *fakeGateway

	capacity   usecase.CapacityLedger
	cardLedger usecase.PunchCardLedger
	booking    usecase.BookingService
	settlement usecase.SettlementService
	release    usecase.ReleaseService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		sessions:  newFakeSessionRepo(),
		bookings:  newFakeBookingRepo(),
		payments:  newFakeBookingPaymentRepo(),
		cards:     newFakePunchCardRepo(),
		templates: newFakeTemplateRepo(),
		themes:    newFakeThemeRepo(),
		invoices:  newFakeInvoiceRepo(),
		spots:     newFakeGuestSpotRepo(),
		employees: newFakeEmployeeRepo(),
		outbox:    newFakeOutboxRepo(),
		gateway:   newFakeGateway(),
	}

	log := testLogger()
	cfg := testConfig()

	env.capacity = usecase.NewCapacityLedger(env.sessions, log)
	env.cardLedger = usecase.NewPunchCardLedger(env.cards, log)
	env.booking = usecase.NewBookingService(
		env.bookings, env.payments, env.sessions, env.themes, env.invoices,
		env.outbox, env.capacity, env.cardLedger, env.cards, env.gateway, cfg, log,
	)
	env.settlement = usecase.NewSettlementService(
		env.gateway, env.bookings, env.cards, env.templates, env.outbox, env.booking, log,
	)
	env.release = usecase.NewReleaseService(
		env.spots, env.sessions, env.employees, env.outbox, env.capacity, env.booking,
		cfg.Booking.ReleasePoints, cfg.Booking.PointsWindowHours, cfg.Booking.HostPoints, log,
	)

	return env
}

func (env *testEnv) addSession(capacity int, price int64, startIn time.Duration, private bool) *entity.Session {
	now := time.Now()
	session := &entity.Session{
		Base:            entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:            "Morning Sauna",
		Location:        "Harbor Bath",
		StartTime:       now.Add(startIn),
		DurationMinutes: 60,
		Capacity:        capacity,
		PricePerSpot:    price,
		IsPrivate:       private,
	}
	env.sessions.Create(context.Background(), session)
	return session
}

func (env *testEnv) addTheme(pricePerSeat int64, minimumSeats int) *entity.Theme {
	now := time.Now()
	theme := &entity.Theme{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:         "Vinterbader",
		PricePerSeat: pricePerSeat,
		MinimumSeats: minimumSeats,
		IsActive:     true,
	}
	env.themes.themes[theme.ID] = theme
	return theme
}

func (env *testEnv) addCard(ownerID uuid.UUID, totalUses, remainingUses int) *entity.PunchCard {
	now := time.Now()
	card := &entity.PunchCard{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		OwnerID:       ownerID,
		Name:          "10-klip",
		TotalUses:     totalUses,
		RemainingUses: remainingUses,
		Status:        entity.PunchCardStatusActive,
	}
	if remainingUses == 0 {
		card.Status = entity.PunchCardStatusExhausted
	}
	env.cards.Create(context.Background(), card)
	return card
}
