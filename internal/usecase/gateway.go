package usecase

import "context"

// PaymentIntentRef is the slice of a gateway payment intent the booking flow
// cares about. Amount is in minor units.
type PaymentIntentRef struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Metadata     map[string]string
}

// WebhookEvent is a verified gateway event.
type WebhookEvent struct {
	Type     string
	IntentID string
	Amount   int64
	Metadata map[string]string
}

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded   = "charge.refunded"
)

// Intent metadata keys, mirrored by the gateway implementation.
const (
	MetaBookingID   = "booking_id"
	MetaSessionID   = "session_id"
	MetaPaymentType = "payment_type"
	MetaSpots       = "spots"
	MetaTemplateID  = "template_id"
	MetaMemberID    = "member_id"
)

const PaymentTypeShopPunchCard = "shop_punch_card"

// PaymentGateway abstracts the card processor. VerifyWebhook must reject
// payloads whose signature does not check out before anything is applied.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntentRef, error)
	RetrieveIntent(ctx context.Context, intentID string) (*PaymentIntentRef, error)
	// Refund reverses a settled intent. A nil amount means the whole charge;
	// a set amount is a partial refund in minor units.
	Refund(ctx context.Context, intentID string, amount *int64) error
	VerifyWebhook(payload []byte, sigHeader string) (*WebhookEvent, error)
}
