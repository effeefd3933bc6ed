package response

import (
	"time"

	"sauna-booking/internal/data/entity"
)

type PunchCardResponse struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	TotalUses     int                    `json:"total_uses"`
	RemainingUses int                    `json:"remaining_uses"`
	Status        entity.PunchCardStatus `json:"status"`
	ExpiresAt     *time.Time             `json:"expires_at,omitempty"`
}

type UsageEntryResponse struct {
	ID           string           `json:"id"`
	BookingID    *string          `json:"booking_id,omitempty"`
	Kind         entity.UsageKind `json:"kind"`
	Uses         int              `json:"uses"`
	BalanceAfter int              `json:"balance_after"`
	Reason       string           `json:"reason"`
	CreatedAt    time.Time        `json:"created_at"`
}

type TemplateResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TotalUses int    `json:"total_uses"`
	Price     int64  `json:"price"`
	PriceDKK  string `json:"price_dkk"`
}

func PunchCardToResponse(c *entity.PunchCard) PunchCardResponse {
	return PunchCardResponse{
		ID:            c.ID.String(),
		Name:          c.Name,
		TotalUses:     c.TotalUses,
		RemainingUses: c.RemainingUses,
		Status:        c.Status,
		ExpiresAt:     c.ExpiresAt,
	}
}

func PunchCardsToResponse(cards []*entity.PunchCard) []PunchCardResponse {
	out := make([]PunchCardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, PunchCardToResponse(c))
	}
	return out
}

func UsageEntriesToResponse(entries []*entity.PunchCardUsageEntry) []UsageEntryResponse {
	out := make([]UsageEntryResponse, 0, len(entries))
	for _, e := range entries {
		var bookingID *string
		if e.BookingID != nil {
			id := e.BookingID.String()
			bookingID = &id
		}
		out = append(out, UsageEntryResponse{
			ID:           e.ID.String(),
			BookingID:    bookingID,
			Kind:         e.Kind,
			Uses:         e.Uses,
			BalanceAfter: e.BalanceAfter,
			Reason:       e.Reason,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out
}

func TemplatesToResponse(templates []*entity.PunchCardTemplate) []TemplateResponse {
	out := make([]TemplateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, TemplateResponse{
			ID:        t.ID.String(),
			Name:      t.Name,
			TotalUses: t.TotalUses,
			Price:     t.Price,
			PriceDKK:  DisplayDKK(t.Price),
		})
	}
	return out
}
