package usecase

import (
	"fmt"

	"sauna-booking/internal/data/entity"

	"github.com/google/uuid"
)

// PaymentMethod is the tagged variant the state machine dispatches on. Each
// variant carries the reference its settlement path needs, so there is no
// string-tag branching downstream of request parsing.
type PaymentMethod interface {
	Kind() entity.PaymentMethodKind
}

// CardPayment settles asynchronously through the payment gateway.
type CardPayment struct{}

func (CardPayment) Kind() entity.PaymentMethodKind { return entity.PaymentMethodCard }

// PunchCardPayment settles immediately by debiting the referenced card.
type PunchCardPayment struct {
	CardID uuid.UUID
}

func (PunchCardPayment) Kind() entity.PaymentMethodKind { return entity.PaymentMethodPunchCard }

// ManualPayment is invoiced and collected outside the system.
type ManualPayment struct{}

func (ManualPayment) Kind() entity.PaymentMethodKind { return entity.PaymentMethodManual }

// ParsePaymentMethod maps a request's method tag and optional card reference
// to a variant.
func ParsePaymentMethod(kind string, punchCardID string) (PaymentMethod, error) {
	switch entity.PaymentMethodKind(kind) {
	case entity.PaymentMethodCard:
		return CardPayment{}, nil
	case entity.PaymentMethodPunchCard:
		cardID, err := uuid.Parse(punchCardID)
		if err != nil {
			return nil, fmt.Errorf("invalid punch card ID format %s: %w", punchCardID, err)
		}
		return PunchCardPayment{CardID: cardID}, nil
	case entity.PaymentMethodManual:
		return ManualPayment{}, nil
	default:
		return nil, fmt.Errorf("unknown payment method %q", kind)
	}
}
