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

type BookingHandler struct {
	service  usecase.BookingService
	invoices usecase.InvoiceService
	log      *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, invoices usecase.InvoiceService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service:  service,
		invoices: invoices,
		log:      log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings (protected)
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.service.CreateBooking(r.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(w, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "success", response.BookingToResponse(result.Booking, result.ClientSecret))
}

// GetUserBookings handles GET /api/user/bookings (protected)
func (h *BookingHandler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	page := utils.ParseInt(query.Get("page"), 1)
	perPage := utils.ParseInt(query.Get("per_page"), 10)

	bookings, total, err := h.service.GetMemberBookings(r.Context(), userID, page, perPage)
	if err != nil {
		h.handleServiceError(w, err, "get user bookings")
		return
	}

	utils.ResponseSuccess(w, "success",
		response.NewPaginatedResponse(response.BookingsToResponse(bookings), page, perPage, total))
}

// GetBookingInvoices handles GET /api/bookings/{id}/invoices (protected)
func (h *BookingHandler) GetBookingInvoices(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	invoices, err := h.invoices.GetBookingInvoices(r.Context(), userID, bookingID)
	if err != nil {
		h.handleServiceError(w, err, "get booking invoices")
		return
	}

	utils.ResponseSuccess(w, "success", response.InvoicesToResponse(invoices))
}

// CancelBooking handles POST /api/bookings/{id}/cancel (protected)
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	var req request.CancelBookingRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ResponseBadRequest(w, "Invalid request body", nil)
			return
		}
	}

	opts := usecase.CancelOptions{
		Reason:       req.Reason,
		Refund:       req.Refund,
		Compensation: req.Compensation,
	}

	if err := h.service.CancelBooking(r.Context(), userID, bookingID, opts); err != nil {
		h.handleServiceError(w, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// AddSeats handles POST /api/bookings/{id}/add-seats (protected)
func (h *BookingHandler) AddSeats(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	var req request.AddSeatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.service.AddSeats(r.Context(), userID, bookingID, req.ExtraSpots)
	if err != nil {
		h.handleServiceError(w, err, "add seats")
		return
	}

	utils.ResponseSuccess(w, "success", response.AddSeatsResponse{
		PaymentIntentID: result.PaymentIntentID,
		ClientSecret:    result.ClientSecret,
		ExtraSpots:      result.ExtraSpots,
		Amount:          result.Amount,
		AmountDKK:       response.DisplayDKK(result.Amount),
	})
}

// CompleteAddSeats handles POST /api/bookings/{id}/complete-add-seats (protected)
func (h *BookingHandler) CompleteAddSeats(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	var req request.CompleteAddSeatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.CompleteAddSeats(r.Context(), userID, bookingID, req.PaymentIntentID)
	if err != nil {
		h.handleServiceError(w, err, "complete add seats")
		return
	}

	utils.ResponseSuccess(w, "success", response.BookingToResponse(booking, ""))
}

// RemoveSeats handles POST /api/bookings/{id}/remove-seats (protected)
func (h *BookingHandler) RemoveSeats(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	var req request.RemoveSeatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.RemoveSeats(r.Context(), userID, bookingID, req.RemoveSpots)
	if err != nil {
		h.handleServiceError(w, err, "remove seats")
		return
	}

	utils.ResponseSuccess(w, "success", response.BookingToResponse(booking, ""))
}

// ==================== ADMIN METHODS ====================

// GetBookingByID handles GET /api/admin/bookings/{id} (staff only)
func (h *BookingHandler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	booking, err := h.service.GetBookingByID(r.Context(), bookingID)
	if err != nil {
		h.handleServiceError(w, err, "get booking by ID")
		return
	}

	utils.ResponseSuccess(w, "success", response.BookingToResponse(booking, ""))
}

// AdminCancelBooking handles POST /api/admin/bookings/{id}/cancel (staff only)
func (h *BookingHandler) AdminCancelBooking(w http.ResponseWriter, r *http.Request) {
	staffID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	var req request.CancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	opts := usecase.CancelOptions{
		Reason:       req.Reason,
		Refund:       req.Refund,
		Compensation: req.Compensation,
		By:           &staffID,
	}

	if err := h.service.CancelBooking(r.Context(), staffID, bookingID, opts); err != nil {
		h.handleServiceError(w, err, "admin cancel booking")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// MoveBooking handles POST /api/admin/bookings/{id}/move (staff only)
func (h *BookingHandler) MoveBooking(w http.ResponseWriter, r *http.Request) {
	staffID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	var req request.MoveBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	newSessionID, err := uuid.Parse(req.NewSessionID)
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid session ID", nil)
		return
	}

	if err := h.service.MoveBooking(r.Context(), staffID, bookingID, newSessionID, req.Reason); err != nil {
		h.handleServiceError(w, err, "move booking")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// handleServiceError maps service errors to HTTP responses.
func (h *BookingHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case usecase.IsNotFound(err):
		h.log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrNotBookingOwner):
		h.log.Warn(operation+" failed - not the owner",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseForbidden(w, err.Error())

	case usecase.IsClientError(err):
		h.log.Warn(operation+" rejected",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case strings.Contains(err.Error(), "invalid") ||
		strings.Contains(err.Error(), "must be") ||
		strings.Contains(err.Error(), "already started") ||
		strings.Contains(err.Error(), "can be removed") ||
		strings.Contains(err.Error(), "exceed"):
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
