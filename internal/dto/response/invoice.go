package response

import (
	"time"

	"sauna-booking/internal/data/entity"
)

type InvoiceLineItemResponse struct {
	Description string `json:"description"`
	SessionName string `json:"session_name"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	UnitDKK     string `json:"unit_dkk"`
	Total       int64  `json:"total"`
	TotalDKK    string `json:"total_dkk"`
}

type InvoiceResponse struct {
	ID            string                    `json:"id"`
	InvoiceNumber string                    `json:"invoice_number"`
	BookingID     string                    `json:"booking_id"`
	Amount        int64                     `json:"amount"`
	AmountDKK     string                    `json:"amount_dkk"`
	Currency      string                    `json:"currency"`
	PaymentMethod entity.PaymentMethodKind  `json:"payment_method"`
	PaymentStatus entity.PaymentStatus      `json:"payment_status"`
	LineItems     []InvoiceLineItemResponse `json:"line_items"`
	PaidAt        *time.Time                `json:"paid_at,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
}

func InvoiceToResponse(inv *entity.Invoice) InvoiceResponse {
	items := make([]InvoiceLineItemResponse, 0, len(inv.LineItems))
	for _, li := range inv.LineItems {
		items = append(items, InvoiceLineItemResponse{
			Description: li.Description,
			SessionName: li.SessionName,
			Date:        li.Date,
			Location:    li.Location,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			UnitDKK:     DisplayDKK(li.UnitPrice),
			Total:       li.Total,
			TotalDKK:    DisplayDKK(li.Total),
		})
	}

	return InvoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		BookingID:     inv.BookingID.String(),
		Amount:        inv.Amount,
		AmountDKK:     DisplayDKK(inv.Amount),
		Currency:      inv.Currency,
		PaymentMethod: inv.PaymentMethod,
		PaymentStatus: inv.PaymentStatus,
		LineItems:     items,
		PaidAt:        inv.PaidAt,
		CreatedAt:     inv.CreatedAt,
	}
}

func InvoicesToResponse(invoices []*entity.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, InvoiceToResponse(inv))
	}
	return out
}
