package wire

import (
	"sauna-booking/internal/adaptor"
	"sauna-booking/pkg/middleware"
	"sauna-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireWebhook(
	r chi.Router,
	webhookHandler *adaptor.WebhookHandler,
	cronHandler *adaptor.CronHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// POST /api/stripe/webhook - Gateway events, authenticated by signature
	r.Post("/api/stripe/webhook", webhookHandler.HandleStripeWebhook)

	// Cron endpoints share a bearer secret with the scheduler.
	r.Group(func(r chi.Router) {
		r.Use(middleware.CronAuth(config.Cron.Secret, log))

		r.Get("/api/cron/auto-release", cronHandler.AutoRelease)
		r.Post("/api/cron/auto-release", cronHandler.AutoRelease)
	})
}
