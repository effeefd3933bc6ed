package wire

import (
	"sauna-booking/internal/adaptor"
	"sauna-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	log *zap.Logger,
) {
	// ==================== MEMBER ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity(log))

		// POST /api/bookings - Create new booking
		r.Post("/api/bookings", bookingHandler.CreateBooking)

		// GET /api/user/bookings - View own booking history
		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)

		// GET /api/bookings/{id}/invoices - Invoices for own booking
		r.Get("/api/bookings/{id}/invoices", bookingHandler.GetBookingInvoices)

		// POST /api/bookings/{id}/cancel - Cancel own booking
		r.Post("/api/bookings/{id}/cancel", bookingHandler.CancelBooking)

		// POST /api/bookings/{id}/add-seats - Start a seat addition
		r.Post("/api/bookings/{id}/add-seats", bookingHandler.AddSeats)

		// POST /api/bookings/{id}/complete-add-seats - Settle a seat addition
		r.Post("/api/bookings/{id}/complete-add-seats", bookingHandler.CompleteAddSeats)

		// POST /api/bookings/{id}/remove-seats - Remove previously added seats
		r.Post("/api/bookings/{id}/remove-seats", bookingHandler.RemoveSeats)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/bookings", func(r chi.Router) {
		r.Use(middleware.Identity(log))
		r.Use(middleware.Staff(log))

		// GET /api/admin/bookings/{id} - View any booking
		r.Get("/{id}", bookingHandler.GetBookingByID)

		// POST /api/admin/bookings/{id}/cancel - Cancel any booking with audit
		r.Post("/{id}/cancel", bookingHandler.AdminCancelBooking)

		// POST /api/admin/bookings/{id}/move - Move a booking to another session
		r.Post("/{id}/move", bookingHandler.MoveBooking)
	})
}
