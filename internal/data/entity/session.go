package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is a bookable sauna time slot.
//
// Reserved counts the spots held by confirmed and pending bookings and is
// mutated only through the capacity ledger's conditional updates. For private
// sessions any reservation closes the whole session regardless of the
// numeric capacity.
type Session struct {
	Base
	Name            string     `db:"name"`
	Location        string     `db:"location"`
	StartTime       time.Time  `db:"start_time"`
	DurationMinutes int        `db:"duration_minutes"`
	Capacity        int        `db:"capacity"`
	Reserved        int        `db:"reserved"`
	PricePerSpot    int64      `db:"price_per_spot"` // minor units (ore)
	IsPrivate       bool       `db:"is_private"`
	ThemeID         *uuid.UUID `db:"theme_id"`
	HostEmployeeID  *uuid.UUID `db:"host_employee_id"`
}

// Available returns the number of open spots. Zero for an occupied private
// session even when capacity would nominally allow more.
func (s *Session) Available() int {
	if s.IsPrivate && s.Reserved > 0 {
		return 0
	}
	return s.Capacity - s.Reserved
}
