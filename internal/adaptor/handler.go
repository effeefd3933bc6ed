package adaptor

import (
	"sauna-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Session   *SessionHandler
	Booking   *BookingHandler
	PunchCard *PunchCardHandler
	Webhook   *WebhookHandler
	Cron      *CronHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Session:   NewSessionHandler(service.Session, log),
		Booking:   NewBookingHandler(service.Booking, service.Invoice, log),
		PunchCard: NewPunchCardHandler(service.PunchCard, log),
		Webhook:   NewWebhookHandler(service.Settlement, log),
		Cron:      NewCronHandler(service.Release, log),
	}
}
