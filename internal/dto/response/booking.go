package response

import (
	"time"

	"sauna-booking/internal/data/entity"

	"github.com/shopspring/decimal"
)

type BookingResponse struct {
	ID            string                   `json:"id"`
	BookingNumber string                   `json:"booking_number"`
	SessionID     string                   `json:"session_id"`
	Spots         int                      `json:"spots"`
	Amount        int64                    `json:"amount"`
	AmountDKK     string                   `json:"amount_dkk"`
	Status        entity.BookingStatus     `json:"status"`
	PaymentStatus entity.PaymentStatus     `json:"payment_status"`
	PaymentMethod entity.PaymentMethodKind `json:"payment_method"`
	PunchCardID   *string                  `json:"punch_card_id,omitempty"`
	ClientSecret  string                   `json:"client_secret,omitempty"`
	PaidAt        *time.Time               `json:"paid_at,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

type AddSeatsResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	ExtraSpots      int    `json:"extra_spots"`
	Amount          int64  `json:"amount"`
	AmountDKK       string `json:"amount_dkk"`
}

// DisplayDKK renders minor units for humans, e.g. 20000 -> "200.00".
func DisplayDKK(minor int64) string {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)).StringFixed(2)
}

func BookingToResponse(b *entity.Booking, clientSecret string) BookingResponse {
	var cardID *string
	if b.PunchCardID != nil {
		s := b.PunchCardID.String()
		cardID = &s
	}

	return BookingResponse{
		ID:            b.ID.String(),
		BookingNumber: b.BookingNumber,
		SessionID:     b.SessionID.String(),
		Spots:         b.Spots,
		Amount:        b.Amount,
		AmountDKK:     DisplayDKK(b.Amount),
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		PaymentMethod: b.PaymentMethod,
		PunchCardID:   cardID,
		ClientSecret:  clientSecret,
		PaidAt:        b.PaidAt,
		CreatedAt:     b.CreatedAt,
	}
}

func BookingsToResponse(bookings []*entity.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, BookingToResponse(b, ""))
	}
	return out
}
