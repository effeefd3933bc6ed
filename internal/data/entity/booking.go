package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type PaymentMethodKind string

const (
	PaymentMethodCard      PaymentMethodKind = "card"
	PaymentMethodPunchCard PaymentMethodKind = "punch_card"
	PaymentMethodManual    PaymentMethodKind = "manual"
)

// Booking is a member's reservation against one session. Its spots
// contribution is reflected in exactly one session's reserved counter at a
// time; all status flips go through conditional updates so replayed events
// are no-ops.
type Booking struct {
	Base
	BookingNumber   string            `db:"booking_number"`
	MemberID        uuid.UUID         `db:"member_id"`
	SessionID       uuid.UUID         `db:"session_id"`
	Spots           int               `db:"spots"`
	Amount          int64             `db:"amount"` // minor units (ore)
	Status          BookingStatus     `db:"status"`
	PaymentStatus   PaymentStatus     `db:"payment_status"`
	PaymentMethod   PaymentMethodKind `db:"payment_method"`
	PunchCardID     *uuid.UUID        `db:"punch_card_id"`
	PaymentIntentID *string           `db:"payment_intent_id"`
	ThemeID         *uuid.UUID        `db:"theme_id"`
	PaidAt          *time.Time        `db:"paid_at"`

	// Staff audit trail, set on admin cancel/move.
	ChangedBy    *uuid.UUID `db:"changed_by"`
	ChangeReason *string    `db:"change_reason"`
	ChangedAt    *time.Time `db:"changed_at"`
}

const (
	PaymentTypeInitial         = "initial"
	PaymentTypeAdditionalSeats = "additional_seats"
)

// BookingPayment tracks one settled gateway charge against a booking. The
// initial charge and every seat addition get their own row, keyed by the
// payment intent so replays are detectable.
type BookingPayment struct {
	BaseSimple
	BookingID       uuid.UUID  `db:"booking_id"`
	PaymentIntentID string     `db:"payment_intent_id"`
	Amount          int64      `db:"amount"`
	Spots           int        `db:"spots"`
	PaymentType     string     `db:"payment_type"` // initial | additional_seats
	InvoiceID       *uuid.UUID `db:"invoice_id"`
}
