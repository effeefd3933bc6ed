package entity

// Theme is a private-event package with its own per-seat pricing.
type Theme struct {
	Base
	Name         string `db:"name"`
	Description  string `db:"description"`
	PricePerSeat int64  `db:"price_per_seat"` // minor units (ore)
	MinimumSeats int    `db:"minimum_seats"`
	IsActive     bool   `db:"is_active"`
}
