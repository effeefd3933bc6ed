package adaptor

import (
	"errors"
	"io"
	"net/http"

	"sauna-booking/internal/usecase"
	"sauna-booking/pkg/utils"

	"go.uber.org/zap"
)

// Stripe caps webhook payloads well below this.
const maxWebhookBody = 1 << 16

type WebhookHandler struct {
	service usecase.SettlementService
	log     *zap.Logger
}

func NewWebhookHandler(service usecase.SettlementService, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		log:     log.With(zap.String("handler", "webhook")),
	}
}

// HandleStripeWebhook handles POST /api/stripe/webhook. The raw body is
// needed for signature verification, so it is read before any decoding.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.ResponseBadRequest(w, "Failed to read request body", nil)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")

	if err := h.service.HandleWebhook(r.Context(), payload, sigHeader); err != nil {
		if errors.Is(err, usecase.ErrUnverifiedWebhook) {
			utils.ResponseBadRequest(w, "Webhook signature verification failed", nil)
			return
		}
		// Stripe retries on non-2xx; internal failures are worth a retry.
		h.log.Error("Failed to process webhook", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}
