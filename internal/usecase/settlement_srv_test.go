package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"sauna-booking/internal/data/entity"
	"sauna-booking/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlementService_HandleWebhook_BadSignature_NothingApplied(t *testing.T) {
	// GIVEN: A pending card booking and a payload the gateway cannot verify
	// WHEN: The webhook is handled
	// THEN: It is rejected and the booking has not moved

	env := newTestEnv()
	ctx := context.Background()
	member := uuid.New()
	session := env.addSession(8, 10000, 24*time.Hour, false)

	result, err := env.booking.CreateBooking(ctx, member, cardBookingRequest(session.ID, 2))
	require.NoError(t, err)

	env.gateway.verifyErr = errors.New("signature mismatch")

	err = env.settlement.HandleWebhook(ctx, []byte(`{}`), "t=1,v1=bogus")
	assert.ErrorIs(t, err, usecase.ErrUnverifiedWebhook)

	booking, _ := env.booking.GetBookingByID(ctx, result.Booking.ID)
	assert.Equal(t, entity.BookingStatusPending, booking.Status)
	assert.Equal(t, entity.PaymentStatusPending, booking.PaymentStatus)
}

func TestSettlementService_HandleWebhook_Succeeded_ConfirmsBooking(t *testing.T) {
	// GIVEN: A pending card booking awaiting its intent
	// WHEN: The succeeded event for that intent arrives
	// THEN: The booking confirms, a payment row and an invoice appear

	env := newTestEnv()
	ctx := context.Background()
	member := uuid.New()
	session := env.addSession(8, 10000, 24*time.Hour, false)

	result, err := env.booking.CreateBooking(ctx, member, cardBookingRequest(session.ID, 2))
	require.NoError(t, err)
	intentID := *result.Booking.PaymentIntentID

	env.gateway.verifyEvent = &usecase.WebhookEvent{
		Type:     usecase.EventPaymentSucceeded,
		IntentID: intentID,
		Amount:   20000,
	}

	require.NoError(t, env.settlement.HandleWebhook(ctx, []byte(`{}`), "t=1,v1=ok"))

	booking, _ := env.booking.GetBookingByID(ctx, result.Booking.ID)
	assert.Equal(t, entity.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, entity.PaymentStatusPaid, booking.PaymentStatus)

	payments, _ := env.payments.FindByBookingID(ctx, booking.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, intentID, payments[0].PaymentIntentID)

	invoices, _ := env.invoices.FindByBookingID(ctx, booking.ID)
	assert.Len(t, invoices, 1)
}

func TestSettlementService_HandleWebhook_RedeliveredSucceeded_NoOp(t *testing.T) {
	// GIVEN: A booking already confirmed by the first delivery
	// WHEN: Stripe redelivers the same succeeded event
	// THEN: No second payment row or invoice is written

	env := newTestEnv()
	ctx := context.Background()
	member := uuid.New()
	session := env.addSession(8, 10000, 24*time.Hour, false)

	result, err := env.booking.CreateBooking(ctx, member, cardBookingRequest(session.ID, 2))
	require.NoError(t, err)
	intentID := *result.Booking.PaymentIntentID

	env.gateway.verifyEvent = &usecase.WebhookEvent{
		Type:     usecase.EventPaymentSucceeded,
		IntentID: intentID,
		Amount:   20000,
	}

	require.NoError(t, env.settlement.HandleWebhook(ctx, []byte(`{}`), "t=1,v1=ok"))
	require.NoError(t, env.settlement.HandleWebhook(ctx, []byte(`{}`), "t=1,v1=ok"))

	payments, _ := env.payments.FindByBookingID(ctx, result.Booking.ID)
	assert.Len(t, payments, 1)

	invoices, _ := env.invoices.FindByBookingID(ctx, result.Booking.ID)
	assert.Len(t, invoices, 1)

	assert.Equal(t, 2, env.sessions.reserved(session.ID))
}

func TestSettlementService_HandleWebhook_Failed_ReleasesSeats(t *testing.T) {
	// GIVEN: A pending card booking holding 2 spots
	// WHEN: The failed event for its intent arrives
	// THEN: The booking cancels and the seats come back

	env := newTestEnv()
	ctx := context.Background()
	member := uuid.New()
	session := env.addSession(8, 10000, 24*time.Hour, false)

	result, err := env.booking.CreateBooking(ctx, member, cardBookingRequest(session.ID, 2))
	require.NoError(t, err)

	env.gateway.verifyEvent = &usecase.WebhookEvent{
		Type:     usecase.EventPaymentFailed,
		IntentID: *result.Booking.PaymentIntentID,
	}

	require.NoError(t, env.settlement.HandleWebhook(ctx, []byte(`{}`), "t=1,v1=ok"))

	booking, _ := env.booking.GetBookingByID(ctx, result.Booking.ID)
	assert.Equal(t, entity.BookingStatusCancelled, booking.Status)
	assert.Equal(t, entity.PaymentStatusFailed, booking.PaymentStatus)
	assert.Equal(t, 0, env.sessions.reserved(session.ID))
}

func TestSettlementService_HandleWebhook_ChargeRefunded_GatewayInitiated(t *testing.T) {
	// GIVEN: A paid booking refunded from the Stripe dashboard
	// WHEN: The charge.refunded event arrives
	// THEN: The booking reads refunded and its seats are released

	env := newTestEnv()
	ctx := context.Background()
	member := uuid.New()
	session := env.addSession(8, 10000, 24*time.Hour, false)

	result, err := env.booking.CreateBooking(ctx, member, cardBookingRequest(session.ID, 2))
	require.NoError(t, err)
	intentID := *result.Booking.PaymentIntentID
	require.NoError(t, env.booking.ConfirmPayment(ctx, result.Booking.ID, intentID, 20000))

	env.gateway.verifyEvent = &usecase.WebhookEvent{
		Type:     usecase.EventChargeRefunded,
		IntentID: intentID,
		Amount:   20000,
	}

	require.NoError(t, env.settlement.HandleWebhook(ctx, []byte(`{}`), "t=1,v1=ok"))

	booking, _ := env.booking.GetBookingByID(ctx, result.Booking.ID)
	assert.Equal(t, entity.BookingStatusCancelled, booking.Status)
	assert.Equal(t, entity.PaymentStatusRefunded, booking.PaymentStatus)
	assert.Equal(t, 0, env.sessions.reserved(session.ID))

	invoices, _ := env.invoices.FindByBookingID(ctx, result.Booking.ID)
	require.Len(t, invoices, 1)
	assert.Equal(t, entity.PaymentStatusRefunded, invoices[0].PaymentStatus)
}

func TestSettlementService_HandleWebhook_UnknownIntent_AcknowledgedQuietly(t *testing.T) {
	// GIVEN: A succeeded event for an intent no booking references
	// WHEN: The webhook is handled
	// THEN: It is acknowledged without error so Stripe stops retrying

	env := newTestEnv()
	ctx := context.Background()

	env.gateway.verifyEvent = &usecase.WebhookEvent{
		Type:     usecase.EventPaymentSucceeded,
		IntentID: "pi_stranger",
		Amount:   5000,
	}

	assert.NoError(t, env.settlement.HandleWebhook(ctx, []byte(`{}`), "t=1,v1=ok"))
}

func TestSettlementService_HandleWebhook_UnhandledEventType_Ignored(t *testing.T) {
	// GIVEN: An event type the engine does not settle on
	// WHEN: The webhook is handled
	// THEN: It is acknowledged and nothing happens

	env := newTestEnv()

	env.gateway.verifyEvent = &usecase.WebhookEvent{
		Type:     "payment_intent.created",
		IntentID: "pi_whatever",
	}

	assert.NoError(t, env.settlement.HandleWebhook(context.Background(), []byte(`{}`), "t=1,v1=ok"))
	assert.Empty(t, env.outbox.kinds())
}

func TestSettlementService_ShopPurchase_MintsCardFromTemplate(t *testing.T) {
	// GIVEN: An active 10-use shop template with 12 months validity
	// WHEN: The succeeded shop purchase event arrives
	// THEN: The member holds a fresh card minted from the template

	env := newTestEnv()
	ctx := context.Background()
	buyer := uuid.New()

	validity := 12
	template := &entity.PunchCardTemplate{
		Base:           entity.Base{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Name:           "10-klip",
		TotalUses:      10,
		Price:          80000,
		ValidityMonths: &validity,
		IsActive:       true,
	}
	env.templates.templates[template.ID] = template

	env.gateway.verifyEvent = &usecase.WebhookEvent{
		Type:     usecase.EventPaymentSucceeded,
		IntentID: "pi_shop_1",
		Amount:   80000,
		Metadata: map[string]string{
			usecase.MetaPaymentType: usecase.PaymentTypeShopPunchCard,
			usecase.MetaTemplateID:  template.ID.String(),
			usecase.MetaMemberID:    buyer.String(),
		},
	}

	require.NoError(t, env.settlement.HandleWebhook(ctx, []byte(`{}`), "t=1,v1=ok"))

	cards, _ := env.cards.FindActiveByOwner(ctx, buyer)
	require.Len(t, cards, 1)
	assert.Equal(t, "10-klip", cards[0].Name)
	assert.Equal(t, 10, cards[0].RemainingUses)
	require.NotNil(t, cards[0].PurchaseRef)
	assert.Equal(t, "pi_shop_1", *cards[0].PurchaseRef)
	require.NotNil(t, cards[0].ExpiresAt)

	assert.Contains(t, env.outbox.kinds(), "punch_card_purchased")
}

func TestSettlementService_ShopPurchase_Redelivered_MintsOnce(t *testing.T) {
	// GIVEN: A shop purchase already settled once
	// WHEN: Stripe redelivers the same event
	// THEN: The member still holds exactly one card

	env := newTestEnv()
	ctx := context.Background()
	buyer := uuid.New()

	template := &entity.PunchCardTemplate{
		Base:      entity.Base{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Name:      "5-klip",
		TotalUses: 5,
		Price:     45000,
		IsActive:  true,
	}
	env.templates.templates[template.ID] = template

	env.gateway.verifyEvent = &usecase.WebhookEvent{
		Type:     usecase.EventPaymentSucceeded,
		IntentID: "pi_shop_2",
		Amount:   45000,
		Metadata: map[string]string{
			usecase.MetaPaymentType: usecase.PaymentTypeShopPunchCard,
			usecase.MetaTemplateID:  template.ID.String(),
			usecase.MetaMemberID:    buyer.String(),
		},
	}

	require.NoError(t, env.settlement.HandleWebhook(ctx, []byte(`{}`), "t=1,v1=ok"))
	require.NoError(t, env.settlement.HandleWebhook(ctx, []byte(`{}`), "t=1,v1=ok"))

	cards, _ := env.cards.FindActiveByOwner(ctx, buyer)
	assert.Len(t, cards, 1)
}

func TestSettlementService_AddSeatsIntent_WebhookIsInformational(t *testing.T) {
	// GIVEN: An add-seats intent that succeeded gateway-side
	// WHEN: Its webhook arrives before the member calls completion
	// THEN: Nothing settles; seats are only held at completion

	env := newTestEnv()
	ctx := context.Background()
	member := uuid.New()
	session := env.addSession(10, 10000, 24*time.Hour, false)

	result, err := env.booking.CreateBooking(ctx, member, cardBookingRequest(session.ID, 2))
	require.NoError(t, err)
	require.NoError(t, env.booking.ConfirmPayment(ctx, result.Booking.ID, *result.Booking.PaymentIntentID, 20000))

	addResult, err := env.booking.AddSeats(ctx, member, result.Booking.ID, 3)
	require.NoError(t, err)

	env.gateway.verifyEvent = &usecase.WebhookEvent{
		Type:     usecase.EventPaymentSucceeded,
		IntentID: addResult.PaymentIntentID,
		Amount:   addResult.Amount,
		Metadata: map[string]string{
			usecase.MetaBookingID:   result.Booking.ID.String(),
			usecase.MetaPaymentType: entity.PaymentTypeAdditionalSeats,
			usecase.MetaSpots:       "3",
		},
	}

	require.NoError(t, env.settlement.HandleWebhook(ctx, []byte(`{}`), "t=1,v1=ok"))

	booking, _ := env.booking.GetBookingByID(ctx, result.Booking.ID)
	assert.Equal(t, 2, booking.Spots)
	assert.Equal(t, 2, env.sessions.reserved(session.ID))
}
