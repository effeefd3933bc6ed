package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"sauna-booking/internal/usecase"
	"sauna-booking/pkg/utils"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/paymentintent"
	"github.com/stripe/stripe-go/v78/refund"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"
)

// StripeGateway implements the payment gateway against Stripe's API.
type StripeGateway struct {
	webhookSecret string
	log           *zap.Logger
}

var _ usecase.PaymentGateway = (*StripeGateway)(nil)

func NewStripeGateway(cfg *utils.Config, log *zap.Logger) *StripeGateway {
	stripe.Key = cfg.Stripe.SecretKey
	return &StripeGateway{
		webhookSecret: cfg.Stripe.WebhookSecret,
		log:           log.With(zap.String("gateway", "stripe")),
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*usecase.PaymentIntentRef, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		g.log.Error("Failed to create payment intent", zap.Error(err), zap.Int64("amount", amount))
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return intentRef(intent), nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*usecase.PaymentIntentRef, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := paymentintent.Get(intentID, params)
	if err != nil {
		g.log.Error("Failed to retrieve payment intent", zap.Error(err), zap.String("payment_intent_id", intentID))
		return nil, fmt.Errorf("retrieve payment intent %s: %w", intentID, err)
	}

	return intentRef(intent), nil
}

// Refund reverses a settled intent. A nil amount refunds the whole charge;
// a set amount issues a partial refund in minor units.
func (g *StripeGateway) Refund(ctx context.Context, intentID string, amount *int64) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
	}
	if amount != nil {
		params.Amount = stripe.Int64(*amount)
	}
	params.Context = ctx

	if _, err := refund.New(params); err != nil {
		g.log.Error("Failed to refund payment intent", zap.Error(err), zap.String("payment_intent_id", intentID))
		return fmt.Errorf("refund payment intent %s: %w", intentID, err)
	}

	return nil
}

func (g *StripeGateway) VerifyWebhook(payload []byte, sigHeader string) (*usecase.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}

	out := &usecase.WebhookEvent{Type: string(event.Type)}

	switch string(event.Type) {
	case usecase.EventPaymentSucceeded, usecase.EventPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("decode payment intent event: %w", err)
		}
		out.IntentID = intent.ID
		out.Amount = intent.Amount
		out.Metadata = intent.Metadata

	case usecase.EventChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return nil, fmt.Errorf("decode charge event: %w", err)
		}
		if charge.PaymentIntent != nil {
			out.IntentID = charge.PaymentIntent.ID
		}
		out.Amount = charge.AmountRefunded
		out.Metadata = charge.Metadata
	}

	return out, nil
}

// intentRef maps Stripe's intent onto the slice the booking flow consumes.
func intentRef(intent *stripe.PaymentIntent) *usecase.PaymentIntentRef {
	return &usecase.PaymentIntentRef{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
		Amount:       intent.Amount,
		Metadata:     intent.Metadata,
	}
}
