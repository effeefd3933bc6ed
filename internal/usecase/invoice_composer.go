package usecase

import (
	"fmt"
	"time"

	"sauna-booking/internal/data/entity"
	"sauna-booking/pkg/utils"

	"github.com/google/uuid"
)

// InvoiceFacts is everything the composer needs about a settled charge.
// Amounts are integer minor units; the composer never touches the gateway
// or the database.
type InvoiceFacts struct {
	BookingID     uuid.UUID
	MemberID      uuid.UUID
	SessionName   string
	SessionStart  time.Time
	Location      string
	ThemeName     string
	Spots         int
	UnitPrice     int64
	Currency      string
	PaymentMethod entity.PaymentMethodKind
	PaidAt        *time.Time
	// Supplementary marks a seat-addition charge; the description says so
	// and the original invoice stays untouched.
	Supplementary bool
}

// ComposeInvoice builds an invoice from settled facts. Line item totals are
// exact integer products, and the invoice amount is their sum; nothing is
// rounded.
func ComposeInvoice(facts InvoiceFacts) *entity.Invoice {
	description := fmt.Sprintf("Sauna booking - %d spot(s)", facts.Spots)
	if facts.Supplementary {
		description = fmt.Sprintf("Additional seats - %d spot(s)", facts.Spots)
	}
	if facts.ThemeName != "" {
		description += " (" + facts.ThemeName + ")"
	}

	line := entity.InvoiceLineItem{
		Description: description,
		SessionName: facts.SessionName,
		Date:        facts.SessionStart.Format("2006-01-02 15:04"),
		Location:    facts.Location,
		Quantity:    facts.Spots,
		UnitPrice:   facts.UnitPrice,
		Total:       facts.UnitPrice * int64(facts.Spots),
	}

	status := entity.PaymentStatusPending
	if facts.PaidAt != nil {
		status = entity.PaymentStatusPaid
	}

	now := time.Now()
	return &entity.Invoice{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		InvoiceNumber: utils.GenerateInvoiceNumber(),
		BookingID:     facts.BookingID,
		MemberID:      facts.MemberID,
		Amount:        line.Total,
		Currency:      facts.Currency,
		PaymentMethod: facts.PaymentMethod,
		PaymentStatus: status,
		LineItems:     []entity.InvoiceLineItem{line},
		PaidAt:        facts.PaidAt,
	}
}
