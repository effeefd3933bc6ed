package entity

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceLineItem is one line on an invoice. Amounts are integer minor
// units; UnitPrice * Quantity always equals Total exactly.
type InvoiceLineItem struct {
	Description string `json:"description"`
	SessionName string `json:"session_name"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Total       int64  `json:"total"`
}

// Invoice records money collected for one settlement event. Seat additions
// get a fresh invoice referencing the same booking; an existing invoice is
// never forked or rewritten, only its payment status moves (paid -> refunded).
type Invoice struct {
	Base
	InvoiceNumber string            `db:"invoice_number"`
	BookingID     uuid.UUID         `db:"booking_id"`
	MemberID      uuid.UUID         `db:"member_id"`
	Amount        int64             `db:"amount"` // minor units (ore)
	Currency      string            `db:"currency"`
	PaymentMethod PaymentMethodKind `db:"payment_method"`
	PaymentStatus PaymentStatus     `db:"payment_status"`
	LineItems     []InvoiceLineItem `db:"line_items"` // jsonb
	PaidAt        *time.Time        `db:"paid_at"`
}
