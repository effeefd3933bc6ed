package adaptor

import (
	"errors"
	"net/http"

	"sauna-booking/internal/dto/response"
	"sauna-booking/internal/usecase"
	"sauna-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PunchCardHandler struct {
	service usecase.PunchCardService
	log     *zap.Logger
}

func NewPunchCardHandler(service usecase.PunchCardService, log *zap.Logger) *PunchCardHandler {
	return &PunchCardHandler{
		service: service,
		log:     log.With(zap.String("handler", "punch_card")),
	}
}

// GetMyCards handles GET /api/user/punch-cards (protected)
func (h *PunchCardHandler) GetMyCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	cards, err := h.service.GetMemberCards(r.Context(), userID)
	if err != nil {
		h.log.Error("Failed to get punch cards", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	utils.ResponseSuccess(w, "success", response.PunchCardsToResponse(cards))
}

// GetCardUsage handles GET /api/user/punch-cards/{id}/usage (protected)
func (h *PunchCardHandler) GetCardUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid punch card ID", nil)
		return
	}

	entries, err := h.service.GetCardUsage(r.Context(), userID, cardID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrPunchCardNotFound):
			utils.ResponseNotFound(w, err.Error())
		case errors.Is(err, usecase.ErrNotBookingOwner):
			utils.ResponseForbidden(w, "Punch card belongs to another member")
		default:
			h.log.Error("Failed to get punch card usage", zap.Error(err))
			utils.ResponseInternalError(w, "Internal server error")
		}
		return
	}

	utils.ResponseSuccess(w, "success", response.UsageEntriesToResponse(entries))
}

// GetTemplates handles GET /api/punch-cards/templates (public)
func (h *PunchCardHandler) GetTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.GetTemplates(r.Context())
	if err != nil {
		h.log.Error("Failed to get punch card templates", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	utils.ResponseSuccess(w, "success", response.TemplatesToResponse(templates))
}
