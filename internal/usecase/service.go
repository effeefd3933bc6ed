package usecase

import (
	"time"

	"sauna-booking/internal/data/repository"
	"sauna-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Session    SessionService
	Booking    BookingService
	Settlement SettlementService
	PunchCard  PunchCardService
	Release    ReleaseService
	Invoice    InvoiceService
	Dispatcher *OutboxDispatcher
}

func NewService(repo *repository.Repository, gateway PaymentGateway, config *utils.Config, log *zap.Logger) *Service {
	capacity := NewCapacityLedger(repo.Session, log)
	punchCardLedger := NewPunchCardLedger(repo.PunchCard, log)

	booking := NewBookingService(
		repo.Booking,
		repo.BookingPayment,
		repo.Session,
		repo.Theme,
		repo.Invoice,
		repo.Outbox,
		capacity,
		punchCardLedger,
		repo.PunchCard,
		gateway,
		config,
		log,
	)

	return &Service{
		Session:    NewSessionService(repo.Session, repo.Theme, log),
		Booking:    booking,
		Settlement: NewSettlementService(gateway, repo.Booking, repo.PunchCard, repo.PunchCardTemplate, repo.Outbox, booking, log),
		PunchCard:  NewPunchCardService(repo.PunchCard, repo.PunchCardTemplate, log),
		Release: NewReleaseService(
			repo.GuestSpot,
			repo.Session,
			repo.Employee,
			repo.Outbox,
			capacity,
			booking,
			config.Booking.ReleasePoints,
			config.Booking.PointsWindowHours,
			config.Booking.HostPoints,
			log,
		),
		Invoice: NewInvoiceService(repo.Invoice, log),
		Dispatcher: NewOutboxDispatcher(
			repo.Outbox,
			NewLogNotifier(log),
			time.Duration(config.Outbox.PollSeconds)*time.Second,
			config.Outbox.BatchSize,
			config.Outbox.MaxAttempts,
			log,
		),
	}
}
