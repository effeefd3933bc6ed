package usecase

import (
	"context"
	"fmt"
	"time"

	"sauna-booking/internal/data/entity"
	"sauna-booking/internal/data/repository"
	"sauna-booking/internal/dto/request"
	"sauna-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	cancelReasonExpired       = "payment_window_expired"
	cancelReasonPaymentFailed = "payment_failed"
	compensationReason        = "Kompensation - aflyst booking"
)

// CreateBookingResult carries the new booking plus, for the card path, the
// client secret the frontend needs to finish the charge.
type CreateBookingResult struct {
	Booking      *entity.Booking
	ClientSecret string
}

// AddSeatsResult references the payment intent scoped to the extra seats.
type AddSeatsResult struct {
	PaymentIntentID string
	ClientSecret    string
	ExtraSpots      int
	Amount          int64
}

// CancelOptions come from the cancel request. By and Reason are set for
// staff-initiated cancellations and recorded on the booking.
type CancelOptions struct {
	Reason       string
	Refund       bool
	Compensation bool
	By           *uuid.UUID
}

// BookingService is the booking state machine. Every transition is a
// conditional update keyed on the current state, so webhook replays and
// double-submits degrade to no-ops; capacity and punch card balances only
// move through their ledgers.
type BookingService interface {
	CreateBooking(ctx context.Context, memberID uuid.UUID, req *request.CreateBookingRequest) (*CreateBookingResult, error)
	GetBookingByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	GetMemberBookings(ctx context.Context, memberID uuid.UUID, page, limit int) ([]*entity.Booking, int64, error)

	// Settlement-driven transitions, called from the webhook path.
	ConfirmPayment(ctx context.Context, bookingID uuid.UUID, intentID string, amount int64) error
	FailPayment(ctx context.Context, bookingID uuid.UUID) error
	RefundPayment(ctx context.Context, bookingID uuid.UUID) error

	AddSeats(ctx context.Context, memberID, bookingID uuid.UUID, extraSpots int) (*AddSeatsResult, error)
	CompleteAddSeats(ctx context.Context, memberID, bookingID uuid.UUID, intentID string) (*entity.Booking, error)
	// RemoveSeats takes previously added seats off a booking again, refunding
	// the card charges that paid for them.
	RemoveSeats(ctx context.Context, memberID, bookingID uuid.UUID, removeSpots int) (*entity.Booking, error)

	CancelBooking(ctx context.Context, memberID, bookingID uuid.UUID, opts CancelOptions) error
	MoveBooking(ctx context.Context, staffID, bookingID, newSessionID uuid.UUID, reason string) error

	// ExpirePendingBookings cancels card bookings whose payment window ran
	// out and returns their seats. Reports how many were expired.
	ExpirePendingBookings(ctx context.Context, now time.Time) (int, error)
}

type bookingService struct {
	bookings  repository.BookingRepository
	payments  repository.BookingPaymentRepository
	sessions  repository.SessionRepository
	themes    repository.ThemeRepository
	invoices  repository.InvoiceRepository
	outbox    repository.OutboxRepository
	capacity  CapacityLedger
	punchCard PunchCardLedger
	cards     repository.PunchCardRepository
	gateway   PaymentGateway
	cfg       *utils.Config
	log       *zap.Logger
}

func NewBookingService(
	bookings repository.BookingRepository,
	payments repository.BookingPaymentRepository,
	sessions repository.SessionRepository,
	themes repository.ThemeRepository,
	invoices repository.InvoiceRepository,
	outbox repository.OutboxRepository,
	capacity CapacityLedger,
	punchCard PunchCardLedger,
	cards repository.PunchCardRepository,
	gateway PaymentGateway,
	cfg *utils.Config,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		bookings:  bookings,
		payments:  payments,
		sessions:  sessions,
		themes:    themes,
		invoices:  invoices,
		outbox:    outbox,
		capacity:  capacity,
		punchCard: punchCard,
		cards:     cards,
		gateway:   gateway,
		cfg:       cfg,
		log:       log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, memberID uuid.UUID, req *request.CreateBookingRequest) (*CreateBookingResult, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id: %w", err)
	}

	method, err := ParsePaymentMethod(req.PaymentMethod, req.PunchCardID)
	if err != nil {
		return nil, err
	}

	if req.Spots < 1 {
		return nil, fmt.Errorf("spots must be at least 1")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !session.StartTime.After(time.Now()) {
		return nil, fmt.Errorf("session %s already started", sessionID)
	}
	// Private sessions are booked whole, so the per-booking cap does not
	// apply to them.
	if !session.IsPrivate && req.Spots > s.cfg.Booking.MaxSpotsPerBooking {
		return nil, fmt.Errorf("spots must be between 1 and %d", s.cfg.Booking.MaxSpotsPerBooking)
	}

	unitPrice, minimumSeats := s.sessionPricing(ctx, session)
	billedSpots := req.Spots
	if billedSpots < minimumSeats {
		billedSpots = minimumSeats
	}
	amount := unitPrice * int64(billedSpots)

	// Capacity first. Everything after this point either settles the booking
	// or releases the seats again.
	if err := s.capacity.Reserve(ctx, sessionID, req.Spots); err != nil {
		return nil, err
	}

	now := time.Now()
	booking := &entity.Booking{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		BookingNumber: utils.GenerateBookingNumber(),
		MemberID:      memberID,
		SessionID:     sessionID,
		Spots:         req.Spots,
		Amount:        amount,
		Status:        entity.BookingStatusPending,
		PaymentStatus: entity.PaymentStatusPending,
		PaymentMethod: method.Kind(),
		ThemeID:       session.ThemeID,
	}

	var clientSecret string

	switch m := method.(type) {
	case PunchCardPayment:
		booking.PunchCardID = &m.CardID
		if err := s.settleWithPunchCard(ctx, booking, session, m.CardID, unitPrice, billedSpots); err != nil {
			s.releaseAfterFailure(ctx, sessionID, req.Spots)
			return nil, err
		}

	case CardPayment:
		intent, err := s.gateway.CreateIntent(ctx, amount, s.cfg.Stripe.Currency, map[string]string{
			MetaBookingID:   booking.ID.String(),
			MetaSessionID:   sessionID.String(),
			MetaMemberID:    memberID.String(),
			MetaPaymentType: entity.PaymentTypeInitial,
			MetaSpots:       fmt.Sprintf("%d", req.Spots),
		})
		if err != nil {
			s.releaseAfterFailure(ctx, sessionID, req.Spots)
			return nil, fmt.Errorf("create payment intent: %w", err)
		}
		booking.PaymentIntentID = &intent.ID
		clientSecret = intent.ClientSecret

		if err := s.bookings.Create(ctx, booking); err != nil {
			s.releaseAfterFailure(ctx, sessionID, req.Spots)
			return nil, err
		}

	case ManualPayment:
		// Staff booking settled outside the system; confirmed immediately,
		// money tracked as pending on the invoice.
		booking.Status = entity.BookingStatusConfirmed
		if err := s.bookings.Create(ctx, booking); err != nil {
			s.releaseAfterFailure(ctx, sessionID, req.Spots)
			return nil, err
		}
		s.composeAndStoreInvoice(ctx, booking, session, unitPrice, billedSpots, false, nil)
		EnqueueJob(ctx, s.outbox, s.log, JobBookingConfirmation, bookingJobPayload(booking))
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("booking_number", booking.BookingNumber),
		zap.String("session_id", sessionID.String()),
		zap.String("payment_method", string(method.Kind())),
		zap.Int("spots", req.Spots),
		zap.Int64("amount", amount),
	)

	return &CreateBookingResult{Booking: booking, ClientSecret: clientSecret}, nil
}

// settleWithPunchCard runs the punch-card path: validate the card, persist
// the pending booking, debit, then confirm. A debit failure cancels the
// booking again; the caller releases capacity.
func (s *bookingService) settleWithPunchCard(ctx context.Context, booking *entity.Booking, session *entity.Session, cardID uuid.UUID, unitPrice int64, billedSpots int) error {
	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return err
	}
	if card == nil {
		return ErrPunchCardNotFound
	}
	if card.OwnerID != booking.MemberID {
		return ErrNotBookingOwner
	}
	if card.ExpiresAt != nil && card.ExpiresAt.Before(time.Now()) {
		return ErrInsufficientBalance
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return err
	}

	if err := s.punchCard.Debit(ctx, cardID, booking.Spots, booking.ID); err != nil {
		if _, cancelErr := s.bookings.CancelIfPending(ctx, booking.ID); cancelErr != nil {
			s.log.Error("Failed to cancel booking after debit failure",
				zap.Error(cancelErr), zap.String("booking_id", booking.ID.String()))
		}
		return err
	}

	if _, err := s.bookings.SetConfirmedPaid(ctx, booking.ID); err != nil {
		return err
	}
	booking.Status = entity.BookingStatusConfirmed
	booking.PaymentStatus = entity.PaymentStatusPaid
	paidAt := time.Now()
	booking.PaidAt = &paidAt

	s.composeAndStoreInvoice(ctx, booking, session, unitPrice, billedSpots, false, &paidAt)
	EnqueueJob(ctx, s.outbox, s.log, JobBookingConfirmation, bookingJobPayload(booking))
	return nil
}

func (s *bookingService) GetBookingByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (s *bookingService) GetMemberBookings(ctx context.Context, memberID uuid.UUID, page, limit int) ([]*entity.Booking, int64, error) {
	offset := utils.CalculateOffset(page, limit)
	bookings, err := s.bookings.FindByMemberID(ctx, memberID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.bookings.CountByMemberID(ctx, memberID)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (s *bookingService) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, intentID string, amount int64) error {
	transitioned, err := s.bookings.SetConfirmedPaid(ctx, bookingID)
	if err != nil {
		return err
	}
	if !transitioned {
		s.log.Debug("Duplicate payment confirmation ignored",
			zap.String("booking_id", bookingID.String()),
			zap.String("payment_intent_id", intentID))
		return nil
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return ErrBookingNotFound
	}

	payment := &entity.BookingPayment{
		BaseSimple:      entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		BookingID:       bookingID,
		PaymentIntentID: intentID,
		Amount:          amount,
		Spots:           booking.Spots,
		PaymentType:     entity.PaymentTypeInitial,
	}
	if _, err := s.payments.CreateIfAbsent(ctx, payment); err != nil {
		return err
	}

	session, err := s.sessions.FindByID(ctx, booking.SessionID)
	if err != nil {
		return err
	}
	if session != nil {
		unitPrice, _ := s.sessionPricing(ctx, session)
		// A themed minimum can bill more seats than were booked; recover the
		// billed count from the settled amount.
		qty := booking.Spots
		if unitPrice > 0 && booking.Amount%unitPrice == 0 {
			qty = int(booking.Amount / unitPrice)
		}
		s.composeAndStoreInvoice(ctx, booking, session, unitPrice, qty, false, booking.PaidAt)
	}

	EnqueueJob(ctx, s.outbox, s.log, JobBookingConfirmation, bookingJobPayload(booking))

	s.log.Info("Booking payment confirmed",
		zap.String("booking_id", bookingID.String()),
		zap.String("payment_intent_id", intentID),
		zap.Int64("amount", amount),
	)
	return nil
}

func (s *bookingService) FailPayment(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return ErrBookingNotFound
	}

	transitioned, err := s.bookings.SetFailedCancelled(ctx, bookingID)
	if err != nil {
		return err
	}
	if !transitioned {
		s.log.Debug("Duplicate payment failure ignored", zap.String("booking_id", bookingID.String()))
		return nil
	}

	if err := s.capacity.Release(ctx, booking.SessionID, booking.Spots); err != nil {
		return err
	}

	s.log.Info("Booking cancelled after failed payment",
		zap.String("booking_id", bookingID.String()),
		zap.String("reason", cancelReasonPaymentFailed),
	)
	return nil
}

func (s *bookingService) RefundPayment(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return ErrBookingNotFound
	}
	// The status flip is the release ticket: whoever moves the booking out of
	// confirmed returns the seats, so a refund racing a cancellation cannot
	// release the same capacity twice.
	wasActive, err := s.bookings.CancelIfConfirmed(ctx, bookingID, nil, nil)
	if err != nil {
		return err
	}

	transitioned, err := s.bookings.SetRefundedCancelled(ctx, bookingID)
	if err != nil {
		return err
	}
	if !transitioned && !wasActive {
		s.log.Debug("Duplicate refund ignored", zap.String("booking_id", bookingID.String()))
		return nil
	}

	if wasActive {
		if err := s.capacity.Release(ctx, booking.SessionID, booking.Spots); err != nil {
			return err
		}
	}

	if err := s.invoices.MarkRefundedByBookingID(ctx, bookingID); err != nil {
		s.log.Error("Failed to mark invoice refunded", zap.Error(err), zap.String("booking_id", bookingID.String()))
	}

	EnqueueJob(ctx, s.outbox, s.log, JobBookingCancelled, bookingJobPayload(booking))

	s.log.Info("Booking refunded", zap.String("booking_id", bookingID.String()))
	return nil
}

func (s *bookingService) AddSeats(ctx context.Context, memberID, bookingID uuid.UUID, extraSpots int) (*AddSeatsResult, error) {
	if extraSpots < 1 {
		return nil, fmt.Errorf("extra spots must be >= 1, got %d", extraSpots)
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.MemberID != memberID {
		return nil, ErrNotBookingOwner
	}
	if booking.Status != entity.BookingStatusConfirmed || booking.PaymentStatus != entity.PaymentStatusPaid {
		return nil, fmt.Errorf("booking %s is not confirmed and paid", bookingID)
	}

	session, err := s.sessions.FindByID(ctx, booking.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !session.StartTime.After(time.Now()) {
		return nil, fmt.Errorf("session %s already started", session.ID)
	}
	if !session.IsPrivate && booking.Spots+extraSpots > s.cfg.Booking.MaxSpotsPerBooking {
		return nil, fmt.Errorf("booking would exceed %d spots", s.cfg.Booking.MaxSpotsPerBooking)
	}
	// An occupied private session is closed to new reservations but its own
	// booking may still grow, so the check is against numeric room, not
	// Available().
	if session.Capacity-session.Reserved < extraSpots {
		return nil, ErrInsufficientCapacity
	}

	// The intent covers only the extra seats. The seats themselves are
	// reserved at completion, once the charge has settled.
	unitPrice, _ := s.sessionPricing(ctx, session)
	amount := unitPrice * int64(extraSpots)
	intent, err := s.gateway.CreateIntent(ctx, amount, s.cfg.Stripe.Currency, map[string]string{
		MetaBookingID:   bookingID.String(),
		MetaSessionID:   session.ID.String(),
		MetaMemberID:    memberID.String(),
		MetaPaymentType: entity.PaymentTypeAdditionalSeats,
		MetaSpots:       fmt.Sprintf("%d", extraSpots),
	})
	if err != nil {
		return nil, fmt.Errorf("create add-seats intent: %w", err)
	}

	s.log.Info("Add-seats intent created",
		zap.String("booking_id", bookingID.String()),
		zap.String("payment_intent_id", intent.ID),
		zap.Int("extra_spots", extraSpots),
		zap.Int64("amount", amount),
	)

	return &AddSeatsResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		ExtraSpots:      extraSpots,
		Amount:          amount,
	}, nil
}

func (s *bookingService) CompleteAddSeats(ctx context.Context, memberID, bookingID uuid.UUID, intentID string) (*entity.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.MemberID != memberID {
		return nil, ErrNotBookingOwner
	}

	// Replay guard: an intent that already settled a seat addition is done.
	existing, err := s.payments.FindByIntentID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.log.Debug("Duplicate add-seats completion ignored",
			zap.String("booking_id", bookingID.String()),
			zap.String("payment_intent_id", intentID))
		return booking, nil
	}

	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("retrieve intent %s: %w", intentID, err)
	}
	if intent.Status != "succeeded" {
		return nil, ErrPaymentNotCompleted
	}
	if intent.Metadata[MetaBookingID] != bookingID.String() ||
		intent.Metadata[MetaPaymentType] != entity.PaymentTypeAdditionalSeats {
		return nil, fmt.Errorf("intent %s does not belong to booking %s", intentID, bookingID)
	}

	extraSpots := utils.ParseInt(intent.Metadata[MetaSpots], 0)
	if extraSpots < 1 {
		return nil, fmt.Errorf("intent %s carries no spot count", intentID)
	}

	session, err := s.sessions.FindByID(ctx, booking.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	// Grow, not Reserve: a private session stays closed to others while the
	// booking that occupies it takes more of the numeric room.
	if err := s.capacity.Grow(ctx, booking.SessionID, extraSpots); err != nil {
		return nil, err
	}

	paidAt := time.Now()
	unitPrice, _ := s.sessionPricing(ctx, session)
	// Supplementary invoice over the extra seats; the original invoice is
	// never touched.
	invoice := s.buildInvoice(ctx, booking, session, unitPrice, extraSpots, true, &paidAt)

	// The payment row is the settlement guard. Of two racing completions for
	// the same intent only one inserts; the loser hands its seats back.
	payment := &entity.BookingPayment{
		BaseSimple:      entity.BaseSimple{ID: uuid.New(), CreatedAt: paidAt},
		BookingID:       bookingID,
		PaymentIntentID: intentID,
		Amount:          intent.Amount,
		Spots:           extraSpots,
		PaymentType:     entity.PaymentTypeAdditionalSeats,
		InvoiceID:       &invoice.ID,
	}
	inserted, err := s.payments.CreateIfAbsent(ctx, payment)
	if err != nil {
		s.releaseAfterFailure(ctx, booking.SessionID, extraSpots)
		return nil, err
	}
	if !inserted {
		s.releaseAfterFailure(ctx, booking.SessionID, extraSpots)
		s.log.Debug("Duplicate add-seats completion ignored",
			zap.String("booking_id", bookingID.String()),
			zap.String("payment_intent_id", intentID))
		return s.GetBookingByID(ctx, bookingID)
	}

	if err := s.bookings.AddSpots(ctx, bookingID, extraSpots, intent.Amount); err != nil {
		s.releaseAfterFailure(ctx, booking.SessionID, extraSpots)
		return nil, err
	}

	booking.Spots += extraSpots
	booking.Amount += intent.Amount

	s.storeInvoice(ctx, booking, invoice)

	EnqueueJob(ctx, s.outbox, s.log, JobBookingConfirmation, bookingJobPayload(booking))

	s.log.Info("Seats added to booking",
		zap.String("booking_id", bookingID.String()),
		zap.String("payment_intent_id", intentID),
		zap.Int("extra_spots", extraSpots),
		zap.Int("total_spots", booking.Spots),
	)

	return booking, nil
}

// RemoveSeats walks the seat-addition payments newest first, reversing each
// one with a partial gateway refund. Only seats that were added on top of the
// original booking can be removed; the reduction of the payment row is the
// idempotency guard, so a replay never refunds the same seats twice.
func (s *bookingService) RemoveSeats(ctx context.Context, memberID, bookingID uuid.UUID, removeSpots int) (*entity.Booking, error) {
	if removeSpots < 1 {
		return nil, fmt.Errorf("remove spots must be >= 1, got %d", removeSpots)
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.MemberID != memberID {
		return nil, ErrNotBookingOwner
	}
	if booking.Status != entity.BookingStatusConfirmed || booking.PaymentStatus != entity.PaymentStatusPaid {
		return nil, fmt.Errorf("booking %s is not confirmed and paid", bookingID)
	}

	session, err := s.sessions.FindByID(ctx, booking.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !session.StartTime.After(time.Now()) {
		return nil, fmt.Errorf("session %s already started", session.ID)
	}

	payments, err := s.payments.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	removable := 0
	for _, p := range payments {
		if p.PaymentType == entity.PaymentTypeAdditionalSeats {
			removable += p.Spots
		}
	}
	if removeSpots > removable {
		return nil, fmt.Errorf("only %d added seat(s) can be removed", removable)
	}

	remaining := removeSpots
	var refunded int64
	for i := len(payments) - 1; i >= 0 && remaining > 0; i-- {
		p := payments[i]
		if p.PaymentType != entity.PaymentTypeAdditionalSeats || p.Spots < 1 {
			continue
		}
		take := remaining
		if take > p.Spots {
			take = p.Spots
		}
		amount := p.Amount / int64(p.Spots) * int64(take)

		reduced, err := s.payments.ReduceSpots(ctx, p.ID, take, amount)
		if err != nil {
			return nil, err
		}
		if !reduced {
			continue
		}
		if err := s.gateway.Refund(ctx, p.PaymentIntentID, &amount); err != nil {
			return nil, fmt.Errorf("refund intent %s: %w", p.PaymentIntentID, err)
		}
		if p.InvoiceID != nil && take == p.Spots {
			if err := s.invoices.MarkRefundedByID(ctx, *p.InvoiceID); err != nil {
				s.log.Error("Failed to mark invoice refunded",
					zap.Error(err), zap.String("invoice_id", p.InvoiceID.String()))
			}
		}
		refunded += amount
		remaining -= take
	}

	shrunk, err := s.bookings.RemoveSpots(ctx, bookingID, removeSpots, refunded)
	if err != nil {
		return nil, err
	}
	if !shrunk {
		return nil, fmt.Errorf("booking %s cannot shrink by %d spot(s)", bookingID, removeSpots)
	}

	if err := s.capacity.Release(ctx, booking.SessionID, removeSpots); err != nil {
		return nil, err
	}

	booking.Spots -= removeSpots
	booking.Amount -= refunded

	EnqueueJob(ctx, s.outbox, s.log, JobSeatsRemoved, map[string]string{
		"booking_id":     bookingID.String(),
		"booking_number": booking.BookingNumber,
		"member_id":      booking.MemberID.String(),
		"removed_spots":  fmt.Sprintf("%d", removeSpots),
		"refunded":       fmt.Sprintf("%d", refunded),
	})

	s.log.Info("Seats removed from booking",
		zap.String("booking_id", bookingID.String()),
		zap.Int("removed_spots", removeSpots),
		zap.Int64("refunded", refunded),
		zap.Int("total_spots", booking.Spots),
	)

	return booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, memberID, bookingID uuid.UUID, opts CancelOptions) error {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return ErrBookingNotFound
	}
	if opts.By == nil && booking.MemberID != memberID {
		return ErrNotBookingOwner
	}

	if booking.Status == entity.BookingStatusPending {
		transitioned, err := s.bookings.CancelIfPending(ctx, bookingID)
		if err != nil {
			return err
		}
		if transitioned {
			if err := s.capacity.Release(ctx, booking.SessionID, booking.Spots); err != nil {
				return err
			}
		}
		return nil
	}

	var reason *string
	if opts.Reason != "" {
		reason = &opts.Reason
	}

	transitioned, err := s.bookings.CancelIfConfirmed(ctx, bookingID, opts.By, reason)
	if err != nil {
		return err
	}
	if !transitioned {
		s.log.Debug("Duplicate cancellation ignored", zap.String("booking_id", bookingID.String()))
		return nil
	}

	if err := s.capacity.Release(ctx, booking.SessionID, booking.Spots); err != nil {
		return err
	}

	if err := s.compensate(ctx, booking, opts); err != nil {
		// The cancellation itself stands; compensation is reported but the
		// seats stay released.
		s.log.Error("Compensation failed",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return err
	}

	EnqueueJob(ctx, s.outbox, s.log, JobBookingCancelled, bookingJobPayload(booking))

	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID.String()),
		zap.String("payment_method", string(booking.PaymentMethod)),
		zap.Bool("refund", opts.Refund),
		zap.Bool("compensation", opts.Compensation),
	)
	return nil
}

// compensate returns value for a cancelled, settled booking by payment
// method: punch card bookings get their uses back on the original card, card
// bookings get a gateway refund when asked for one, otherwise a compensation
// punch card when one was offered. Card-paid seat additions are refunded
// separately in either money path; their charges never touched the card.
func (s *bookingService) compensate(ctx context.Context, booking *entity.Booking, opts CancelOptions) error {
	switch {
	case booking.PaymentMethod == entity.PaymentMethodPunchCard && booking.PunchCardID != nil:
		// Credit only the uses the booking debited. Spots may have grown
		// since through card-paid additions, and those get money back, not
		// punches.
		uses := booking.Spots
		if entry, err := s.cards.FindUsageByCause(ctx, *booking.PunchCardID, booking.ID, entity.UsageKindDebit, ""); err == nil && entry != nil {
			uses = entry.Uses
		}
		if err := s.punchCard.Credit(ctx, *booking.PunchCardID, uses, creditReasonCancellation, booking.ID); err != nil {
			return err
		}
		return s.refundSeatAdditions(ctx, booking)

	case opts.Refund && booking.PaymentStatus == entity.PaymentStatusPaid && booking.PaymentIntentID != nil:
		if err := s.gateway.Refund(ctx, *booking.PaymentIntentID, nil); err != nil {
			return fmt.Errorf("refund intent %s: %w", *booking.PaymentIntentID, err)
		}
		if _, err := s.bookings.SetRefundedCancelled(ctx, booking.ID); err != nil {
			return err
		}
		if err := s.invoices.MarkRefundedByBookingID(ctx, booking.ID); err != nil {
			s.log.Error("Failed to mark invoice refunded", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		}
		return s.refundSeatAdditions(ctx, booking)

	case opts.Compensation:
		_, err := s.punchCard.IssueCompensationCard(ctx, booking.MemberID, booking.Spots, compensationReason, booking.ID)
		return err
	}

	return nil
}

// refundSeatAdditions reverses the card charges behind added seats on a
// cancelled booking. Reducing the payment row first makes each refund
// at-most-once even when the cancellation is replayed.
func (s *bookingService) refundSeatAdditions(ctx context.Context, booking *entity.Booking) error {
	payments, err := s.payments.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return err
	}

	for _, p := range payments {
		if p.PaymentType != entity.PaymentTypeAdditionalSeats || p.Spots < 1 {
			continue
		}
		reduced, err := s.payments.ReduceSpots(ctx, p.ID, p.Spots, p.Amount)
		if err != nil {
			return err
		}
		if !reduced {
			continue
		}
		amount := p.Amount
		if err := s.gateway.Refund(ctx, p.PaymentIntentID, &amount); err != nil {
			return fmt.Errorf("refund intent %s: %w", p.PaymentIntentID, err)
		}
		if p.InvoiceID != nil {
			if err := s.invoices.MarkRefundedByID(ctx, *p.InvoiceID); err != nil {
				s.log.Error("Failed to mark invoice refunded",
					zap.Error(err), zap.String("invoice_id", p.InvoiceID.String()))
			}
		}

		s.log.Info("Seat addition refunded",
			zap.String("booking_id", booking.ID.String()),
			zap.String("payment_intent_id", p.PaymentIntentID),
			zap.Int64("amount", p.Amount),
		)
	}

	return nil
}

func (s *bookingService) MoveBooking(ctx context.Context, staffID, bookingID, newSessionID uuid.UUID, reason string) error {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return ErrBookingNotFound
	}
	if booking.Status != entity.BookingStatusConfirmed {
		return fmt.Errorf("booking %s is not confirmed", bookingID)
	}

	newSession, err := s.sessions.FindByID(ctx, newSessionID)
	if err != nil {
		return err
	}
	if newSession == nil {
		return ErrSessionNotFound
	}
	if !newSession.StartTime.After(time.Now()) {
		return fmt.Errorf("session %s already started", newSessionID)
	}

	if err := s.capacity.Move(ctx, booking.SessionID, newSessionID, booking.Spots); err != nil {
		return err
	}

	if err := s.bookings.UpdateSessionRef(ctx, bookingID, newSessionID, staffID, reason); err != nil {
		return err
	}

	EnqueueJob(ctx, s.outbox, s.log, JobBookingMoved, map[string]string{
		"booking_id":     bookingID.String(),
		"booking_number": booking.BookingNumber,
		"member_id":      booking.MemberID.String(),
		"new_session_id": newSessionID.String(),
		"reason":         reason,
	})

	s.log.Info("Booking moved",
		zap.String("booking_id", bookingID.String()),
		zap.String("from_session", booking.SessionID.String()),
		zap.String("to_session", newSessionID.String()),
		zap.String("staff_id", staffID.String()),
	)
	return nil
}

func (s *bookingService) ExpirePendingBookings(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-time.Duration(s.cfg.Booking.PendingTTLMinutes) * time.Minute)

	stale, err := s.bookings.FindExpiredPending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, booking := range stale {
		transitioned, err := s.bookings.CancelIfPending(ctx, booking.ID)
		if err != nil {
			s.log.Error("Failed to expire booking", zap.Error(err), zap.String("booking_id", booking.ID.String()))
			continue
		}
		if !transitioned {
			continue
		}
		if err := s.capacity.Release(ctx, booking.SessionID, booking.Spots); err != nil {
			s.log.Error("Failed to release expired booking seats",
				zap.Error(err), zap.String("booking_id", booking.ID.String()))
			continue
		}
		expired++

		s.log.Info("Pending booking expired",
			zap.String("booking_id", booking.ID.String()),
			zap.String("reason", cancelReasonExpired),
		)
	}

	return expired, nil
}

// releaseAfterFailure gives reserved seats back on a failed create path. A
// release failure here leaks capacity until reconciled, so it is logged loud.
func (s *bookingService) releaseAfterFailure(ctx context.Context, sessionID uuid.UUID, spots int) {
	if err := s.capacity.Release(ctx, sessionID, spots); err != nil {
		s.log.Error("Failed to release capacity after booking failure",
			zap.Error(err),
			zap.String("session_id", sessionID.String()),
			zap.Int("spots", spots),
		)
	}
}

// sessionPricing resolves the per-seat price and billing floor for a
// session. A theme's price overrides the session price; on private sessions
// the theme's minimum seat count is the smallest billable party.
func (s *bookingService) sessionPricing(ctx context.Context, session *entity.Session) (unitPrice int64, minimumSeats int) {
	unitPrice = session.PricePerSpot
	minimumSeats = 1
	if session.ThemeID == nil {
		return unitPrice, minimumSeats
	}

	theme, err := s.themes.FindByID(ctx, *session.ThemeID)
	if err != nil || theme == nil {
		return unitPrice, minimumSeats
	}
	if theme.PricePerSeat > 0 {
		unitPrice = theme.PricePerSeat
	}
	if session.IsPrivate && theme.MinimumSeats > minimumSeats {
		minimumSeats = theme.MinimumSeats
	}
	return unitPrice, minimumSeats
}

// buildInvoice composes the invoice without storing it, for flows that need
// its identity before their settlement guard commits.
func (s *bookingService) buildInvoice(ctx context.Context, booking *entity.Booking, session *entity.Session, unitPrice int64, qty int, supplementary bool, paidAt *time.Time) *entity.Invoice {
	themeName := ""
	if booking.ThemeID != nil {
		theme, err := s.themes.FindByID(ctx, *booking.ThemeID)
		if err == nil && theme != nil {
			themeName = theme.Name
		}
	}

	return ComposeInvoice(InvoiceFacts{
		BookingID:     booking.ID,
		MemberID:      booking.MemberID,
		SessionName:   session.Name,
		SessionStart:  session.StartTime,
		Location:      session.Location,
		ThemeName:     themeName,
		Spots:         qty,
		UnitPrice:     unitPrice,
		Currency:      s.cfg.Stripe.Currency,
		PaymentMethod: booking.PaymentMethod,
		PaidAt:        paidAt,
		Supplementary: supplementary,
	})
}

func (s *bookingService) storeInvoice(ctx context.Context, booking *entity.Booking, invoice *entity.Invoice) {
	if err := s.invoices.Create(ctx, invoice); err != nil {
		s.log.Error("Failed to store invoice",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		return
	}

	EnqueueJob(ctx, s.outbox, s.log, JobInvoiceReady, map[string]string{
		"invoice_id":     invoice.ID.String(),
		"invoice_number": invoice.InvoiceNumber,
		"booking_id":     booking.ID.String(),
		"member_id":      booking.MemberID.String(),
	})
}

func (s *bookingService) composeAndStoreInvoice(ctx context.Context, booking *entity.Booking, session *entity.Session, unitPrice int64, qty int, supplementary bool, paidAt *time.Time) {
	invoice := s.buildInvoice(ctx, booking, session, unitPrice, qty, supplementary, paidAt)
	s.storeInvoice(ctx, booking, invoice)
}

func bookingJobPayload(booking *entity.Booking) map[string]string {
	return map[string]string{
		"booking_id":     booking.ID.String(),
		"booking_number": booking.BookingNumber,
		"member_id":      booking.MemberID.String(),
		"session_id":     booking.SessionID.String(),
	}
}
