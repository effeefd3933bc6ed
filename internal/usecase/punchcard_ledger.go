package usecase

import (
	"context"
	"fmt"
	"time"

	"sauna-booking/internal/data/entity"
	"sauna-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	creditReasonCancellation = "booking_cancelled"
	compensationRefPrefix    = "compensation:"
)

// PunchCardLedger owns punch card balances. Every delta is tagged with the
// causal booking id, making debits at-most-once and credits idempotent per
// (booking, reason) even when the same cancellation or webhook is processed
// twice.
type PunchCardLedger interface {
	Debit(ctx context.Context, cardID uuid.UUID, uses int, causalBookingID uuid.UUID) error
	Credit(ctx context.Context, cardID uuid.UUID, uses int, reason string, causalBookingID uuid.UUID) error
	// IssueCompensationCard mints a fresh card when no existing card is
	// eligible for a credit (the booking was paid by card). Idempotent on
	// the causal booking id; a replay returns the card minted earlier.
	IssueCompensationCard(ctx context.Context, ownerID uuid.UUID, uses int, reason string, causalBookingID uuid.UUID) (*entity.PunchCard, error)
}

type punchCardLedger struct {
	cards repository.PunchCardRepository
	log   *zap.Logger
}

func NewPunchCardLedger(cards repository.PunchCardRepository, log *zap.Logger) PunchCardLedger {
	return &punchCardLedger{
		cards: cards,
		log:   log.With(zap.String("ledger", "punch_card")),
	}
}

func (l *punchCardLedger) Debit(ctx context.Context, cardID uuid.UUID, uses int, causalBookingID uuid.UUID) error {
	if uses < 1 {
		return fmt.Errorf("debit uses must be >= 1, got %d", uses)
	}

	// Idempotency guard: a prior debit for the same booking means this is a
	// replayed event, not a second purchase.
	existing, err := l.cards.FindUsageByCause(ctx, cardID, causalBookingID, entity.UsageKindDebit, "")
	if err != nil {
		return err
	}
	if existing != nil {
		l.log.Debug("Duplicate punch card debit ignored",
			zap.String("card_id", cardID.String()),
			zap.String("booking_id", causalBookingID.String()))
		return ErrAlreadyDebited
	}

	bookingID := causalBookingID
	entry := &entity.PunchCardUsageEntry{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		CardID:     cardID,
		BookingID:  &bookingID,
		Kind:       entity.UsageKindDebit,
		Uses:       uses,
		Reason:     "booking",
	}

	ok, err := l.cards.DebitWithEntry(ctx, cardID, uses, entry)
	if err != nil {
		return err
	}
	if !ok {
		card, findErr := l.cards.FindByID(ctx, cardID)
		if findErr != nil {
			return findErr
		}
		if card == nil {
			return ErrPunchCardNotFound
		}
		return ErrInsufficientBalance
	}

	l.log.Info("Punch card debited",
		zap.String("card_id", cardID.String()),
		zap.String("booking_id", causalBookingID.String()),
		zap.Int("uses", uses),
		zap.Int("balance_after", entry.BalanceAfter),
	)
	return nil
}

func (l *punchCardLedger) Credit(ctx context.Context, cardID uuid.UUID, uses int, reason string, causalBookingID uuid.UUID) error {
	if uses < 1 {
		return fmt.Errorf("credit uses must be >= 1, got %d", uses)
	}

	existing, err := l.cards.FindUsageByCause(ctx, cardID, causalBookingID, entity.UsageKindCredit, reason)
	if err != nil {
		return err
	}
	if existing != nil {
		// Second credit for the same cancellation: return the earlier result.
		l.log.Debug("Duplicate punch card credit ignored",
			zap.String("card_id", cardID.String()),
			zap.String("booking_id", causalBookingID.String()),
			zap.String("reason", reason))
		return nil
	}

	bookingID := causalBookingID
	entry := &entity.PunchCardUsageEntry{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		CardID:     cardID,
		BookingID:  &bookingID,
		Kind:       entity.UsageKindCredit,
		Uses:       uses,
		Reason:     reason,
	}

	ok, err := l.cards.CreditWithEntry(ctx, cardID, uses, entry)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPunchCardNotFound
	}

	l.log.Info("Punch card credited",
		zap.String("card_id", cardID.String()),
		zap.String("booking_id", causalBookingID.String()),
		zap.Int("uses", uses),
		zap.Int("balance_after", entry.BalanceAfter),
	)
	return nil
}

func (l *punchCardLedger) IssueCompensationCard(ctx context.Context, ownerID uuid.UUID, uses int, reason string, causalBookingID uuid.UUID) (*entity.PunchCard, error) {
	if uses < 1 {
		return nil, fmt.Errorf("compensation uses must be >= 1, got %d", uses)
	}

	ref := compensationRefPrefix + causalBookingID.String()

	existing, err := l.cards.FindByPurchaseRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		l.log.Debug("Compensation card already issued",
			zap.String("card_id", existing.ID.String()),
			zap.String("booking_id", causalBookingID.String()))
		return existing, nil
	}

	now := time.Now()
	card := &entity.PunchCard{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OwnerID:       ownerID,
		Name:          reason,
		TotalUses:     uses,
		RemainingUses: uses,
		Status:        entity.PunchCardStatusActive,
		PurchaseRef:   &ref,
	}

	if err := l.cards.Create(ctx, card); err != nil {
		return nil, err
	}

	l.log.Info("Compensation punch card issued",
		zap.String("card_id", card.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.String("booking_id", causalBookingID.String()),
		zap.Int("uses", uses),
	)
	return card, nil
}
