package repository

import (
	"sauna-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Session           SessionRepository
	Theme             ThemeRepository
	Booking           BookingRepository
	BookingPayment    BookingPaymentRepository
	PunchCard         PunchCardRepository
	PunchCardTemplate PunchCardTemplateRepository
	Invoice           InvoiceRepository
	GuestSpot         GuestSpotRepository
	Employee          EmployeeRepository
	Outbox            OutboxRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Session:           NewSessionRepository(db, log),
		Theme:             NewThemeRepository(db, log),
		Booking:           NewBookingRepository(db, log),
		BookingPayment:    NewBookingPaymentRepository(db, log),
		PunchCard:         NewPunchCardRepository(db, log),
		PunchCardTemplate: NewPunchCardTemplateRepository(db, log),
		Invoice:           NewInvoiceRepository(db, log),
		GuestSpot:         NewGuestSpotRepository(db, log),
		Employee:          NewEmployeeRepository(db, log),
		Outbox:            NewOutboxRepository(db, log),
	}
}
