package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"sauna-booking/internal/dto/request"
	"sauna-booking/internal/dto/response"
	"sauna-booking/internal/usecase"
	"sauna-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionHandler struct {
	service usecase.SessionService
	log     *zap.Logger
}

func NewSessionHandler(service usecase.SessionService, log *zap.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		log:     log.With(zap.String("handler", "session")),
	}
}

// GetSessions handles GET /api/sessions (public)
func (h *SessionHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := utils.ParseInt(query.Get("page"), 1)
	perPage := utils.ParseInt(query.Get("per_page"), 10)

	sessions, total, err := h.service.GetUpcomingSessions(r.Context(), page, perPage)
	if err != nil {
		h.handleServiceError(w, err, "get sessions")
		return
	}

	utils.ResponseSuccess(w, "success",
		response.NewPaginatedResponse(response.SessionsToResponse(sessions), page, perPage, total))
}

// GetSessionByID handles GET /api/sessions/{id} (public)
func (h *SessionHandler) GetSessionByID(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid session ID", nil)
		return
	}

	session, err := h.service.GetSessionByID(r.Context(), sessionID)
	if err != nil {
		h.handleServiceError(w, err, "get session by ID")
		return
	}

	utils.ResponseSuccess(w, "success", response.SessionToResponse(session))
}

// CreateSession handles POST /api/admin/sessions (staff only)
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	session, err := h.service.CreateSession(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "create session")
		return
	}

	utils.ResponseCreated(w, "success", response.SessionToResponse(session))
}

// UpdateSession handles PUT /api/admin/sessions/{id} (staff only)
func (h *SessionHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid session ID", nil)
		return
	}

	var req request.UpdateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	session, err := h.service.UpdateSession(r.Context(), sessionID, &req)
	if err != nil {
		h.handleServiceError(w, err, "update session")
		return
	}

	utils.ResponseSuccess(w, "success", response.SessionToResponse(session))
}

func (h *SessionHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrSessionNotFound):
		h.log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case strings.Contains(err.Error(), "invalid") ||
		strings.Contains(err.Error(), "must be") ||
		strings.Contains(err.Error(), "not available") ||
		strings.Contains(err.Error(), "below"):
		h.log.Warn(operation+" failed - invalid input",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), nil)

	default:
		h.log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
