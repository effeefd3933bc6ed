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

// SettlementService translates verified gateway events into booking state
// transitions. Verification comes first, unconditionally; an unverified
// payload changes nothing. Dispatch is idempotent because every transition
// downstream is guarded on the booking's current payment status.
type SettlementService interface {
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

type settlementService struct {
	gateway   PaymentGateway
	bookings  repository.BookingRepository
	cards     repository.PunchCardRepository
	templates repository.PunchCardTemplateRepository
	outbox    repository.OutboxRepository
	booking   BookingService
	log       *zap.Logger
}

func NewSettlementService(
	gateway PaymentGateway,
	bookings repository.BookingRepository,
	cards repository.PunchCardRepository,
	templates repository.PunchCardTemplateRepository,
	outbox repository.OutboxRepository,
	booking BookingService,
	log *zap.Logger,
) SettlementService {
	return &settlementService{
		gateway:   gateway,
		bookings:  bookings,
		cards:     cards,
		templates: templates,
		outbox:    outbox,
		booking:   booking,
		log:       log.With(zap.String("service", "settlement")),
	}
}

func (s *settlementService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.gateway.VerifyWebhook(payload, sigHeader)
	if err != nil {
		s.log.Warn("Rejected webhook with bad signature", zap.Error(err))
		return ErrUnverifiedWebhook
	}

	switch event.Type {
	case EventPaymentSucceeded:
		return s.handleSucceeded(ctx, event)
	case EventPaymentFailed:
		return s.handleFailed(ctx, event)
	case EventChargeRefunded:
		return s.handleRefunded(ctx, event)
	default:
		s.log.Debug("Ignoring webhook event", zap.String("type", event.Type))
		return nil
	}
}

func (s *settlementService) handleSucceeded(ctx context.Context, event *WebhookEvent) error {
	if event.Metadata[MetaPaymentType] == PaymentTypeShopPunchCard {
		return s.handleShopPurchase(ctx, event)
	}

	// Seat additions settle through the explicit completion call, where the
	// intent is re-verified against the gateway; the webhook is informational
	// for those.
	if event.Metadata[MetaPaymentType] == entity.PaymentTypeAdditionalSeats {
		s.log.Debug("Skipping add-seats intent, settled on completion",
			zap.String("payment_intent_id", event.IntentID))
		return nil
	}

	booking, err := s.bookings.FindByPaymentIntentID(ctx, event.IntentID)
	if err != nil {
		return err
	}
	if booking == nil {
		s.log.Warn("Succeeded intent references no booking",
			zap.String("payment_intent_id", event.IntentID))
		return nil
	}

	return s.booking.ConfirmPayment(ctx, booking.ID, event.IntentID, event.Amount)
}

func (s *settlementService) handleFailed(ctx context.Context, event *WebhookEvent) error {
	booking, err := s.bookings.FindByPaymentIntentID(ctx, event.IntentID)
	if err != nil {
		return err
	}
	if booking == nil {
		s.log.Debug("Failed intent references no booking",
			zap.String("payment_intent_id", event.IntentID))
		return nil
	}

	return s.booking.FailPayment(ctx, booking.ID)
}

func (s *settlementService) handleRefunded(ctx context.Context, event *WebhookEvent) error {
	booking, err := s.bookings.FindByPaymentIntentID(ctx, event.IntentID)
	if err != nil {
		return err
	}
	if booking == nil {
		s.log.Debug("Refunded intent references no booking",
			zap.String("payment_intent_id", event.IntentID))
		return nil
	}

	return s.booking.RefundPayment(ctx, booking.ID)
}

// handleShopPurchase mints a punch card bought in the shop. The intent id is
// the card's purchase_ref, so a redelivered webhook finds the card it minted
// the first time and stops.
func (s *settlementService) handleShopPurchase(ctx context.Context, event *WebhookEvent) error {
	existing, err := s.cards.FindByPurchaseRef(ctx, event.IntentID)
	if err != nil {
		return err
	}
	if existing != nil {
		s.log.Debug("Duplicate shop purchase ignored",
			zap.String("payment_intent_id", event.IntentID),
			zap.String("card_id", existing.ID.String()))
		return nil
	}

	templateID, err := uuid.Parse(event.Metadata[MetaTemplateID])
	if err != nil {
		return fmt.Errorf("shop purchase %s carries invalid template id: %w", event.IntentID, err)
	}
	ownerID, err := uuid.Parse(event.Metadata[MetaMemberID])
	if err != nil {
		return fmt.Errorf("shop purchase %s carries invalid member id: %w", event.IntentID, err)
	}

	template, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return err
	}
	if template == nil {
		return fmt.Errorf("shop purchase %s references unknown template %s", event.IntentID, templateID)
	}

	now := time.Now()
	var expiresAt *time.Time
	if template.ValidityMonths != nil {
		t := now.AddDate(0, *template.ValidityMonths, 0)
		expiresAt = &t
	}

	ref := event.IntentID
	card := &entity.PunchCard{
		Base:              entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		OwnerID:           ownerID,
		Name:              template.Name,
		TotalUses:         template.TotalUses,
		RemainingUses:     template.TotalUses,
		Price:             template.Price,
		ExpiresAt:         expiresAt,
		ValidSessionTypes: template.ValidSessionTypes,
		Status:            entity.PunchCardStatusActive,
		PurchaseRef:       &ref,
	}

	if err := s.cards.Create(ctx, card); err != nil {
		return err
	}

	EnqueueJob(ctx, s.outbox, s.log, JobPunchCardPurchased, map[string]string{
		"card_id":  card.ID.String(),
		"owner_id": ownerID.String(),
		"name":     card.Name,
	})

	s.log.Info("Punch card purchased",
		zap.String("card_id", card.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.String("payment_intent_id", event.IntentID),
	)
	return nil
}
