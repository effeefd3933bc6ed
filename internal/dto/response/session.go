package response

import (
	"time"

	"sauna-booking/internal/data/entity"
)

type SessionResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Location        string    `json:"location"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Capacity        int       `json:"capacity"`
	Available       int       `json:"available"`
	PricePerSpot    int64     `json:"price_per_spot"`
	PriceDKK        string    `json:"price_dkk"`
	IsPrivate       bool      `json:"is_private"`
	ThemeID         *string   `json:"theme_id,omitempty"`
}

func SessionToResponse(s *entity.Session) SessionResponse {
	var themeID *string
	if s.ThemeID != nil {
		id := s.ThemeID.String()
		themeID = &id
	}

	return SessionResponse{
		ID:              s.ID.String(),
		Name:            s.Name,
		Location:        s.Location,
		StartTime:       s.StartTime,
		DurationMinutes: s.DurationMinutes,
		Capacity:        s.Capacity,
		Available:       s.Available(),
		PricePerSpot:    s.PricePerSpot,
		PriceDKK:        DisplayDKK(s.PricePerSpot),
		IsPrivate:       s.IsPrivate,
		ThemeID:         themeID,
	}
}

func SessionsToResponse(sessions []*entity.Session) []SessionResponse {
	out := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionToResponse(s))
	}
	return out
}
