package usecase

import (
	"context"

	"sauna-booking/internal/data/entity"
	"sauna-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceService is the member-facing read side of invoices.
type InvoiceService interface {
	GetBookingInvoices(ctx context.Context, memberID, bookingID uuid.UUID) ([]*entity.Invoice, error)
}

type invoiceService struct {
	invoices repository.InvoiceRepository
	log      *zap.Logger
}

func NewInvoiceService(invoices repository.InvoiceRepository, log *zap.Logger) InvoiceService {
	return &invoiceService{
		invoices: invoices,
		log:      log.With(zap.String("service", "invoice")),
	}
}

func (s *invoiceService) GetBookingInvoices(ctx context.Context, memberID, bookingID uuid.UUID) ([]*entity.Invoice, error) {
	all, err := s.invoices.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var owned []*entity.Invoice
	for _, inv := range all {
		if inv.MemberID == memberID {
			owned = append(owned, inv)
		}
	}
	return owned, nil
}
