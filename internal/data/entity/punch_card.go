package entity

import (
	"time"

	"github.com/google/uuid"
)

type PunchCardStatus string

const (
	PunchCardStatusActive    PunchCardStatus = "active"
	PunchCardStatusExhausted PunchCardStatus = "exhausted"
	PunchCardStatusExpired   PunchCardStatus = "expired"
)

// PunchCard is a prepaid bundle of uses. RemainingUses is mutated only
// through the punch card ledger via signed deltas, each tagged with a causal
// booking reference.
type PunchCard struct {
	Base
	OwnerID           uuid.UUID       `db:"owner_id"`
	Name              string          `db:"name"`
	TotalUses         int             `db:"total_uses"`
	RemainingUses     int             `db:"remaining_uses"`
	Price             int64           `db:"price"` // minor units (ore)
	ExpiresAt         *time.Time      `db:"expires_at"`
	ValidSessionTypes []string        `db:"valid_session_types"`
	Status            PunchCardStatus `db:"status"`
	// PurchaseRef is the payment intent id for shop-bought cards; webhook
	// replays that carry the same intent find the card instead of minting
	// another one.
	PurchaseRef *string `db:"purchase_ref"`
}

// PunchCardTemplate is the shop catalogue item a purchased card is minted
// from.
type PunchCardTemplate struct {
	Base
	Name              string   `db:"name"`
	TotalUses         int      `db:"total_uses"`
	Price             int64    `db:"price"`
	ValidityMonths    *int     `db:"validity_months"`
	ValidSessionTypes []string `db:"valid_session_types"`
	IsActive          bool     `db:"is_active"`
}

type UsageKind string

const (
	UsageKindDebit      UsageKind = "debit"
	UsageKindCredit     UsageKind = "credit"
	UsageKindAdjustment UsageKind = "adjustment"
)

// PunchCardUsageEntry is the append-only audit record of one ledger delta.
// Never updated or deleted; the (card, booking, kind, reason) tuple is the
// idempotency guard for replayed events.
type PunchCardUsageEntry struct {
	BaseSimple
	CardID       uuid.UUID  `db:"card_id"`
	BookingID    *uuid.UUID `db:"booking_id"`
	Kind         UsageKind  `db:"kind"`
	Uses         int        `db:"uses"`
	BalanceAfter int        `db:"balance_after"`
	Reason       string     `db:"reason"`
}
