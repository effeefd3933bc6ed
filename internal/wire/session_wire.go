package wire

import (
	"sauna-booking/internal/adaptor"
	"sauna-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireSession(
	r chi.Router,
	sessionHandler *adaptor.SessionHandler,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/sessions - List upcoming sessions
	r.Get("/api/sessions", sessionHandler.GetSessions)

	// GET /api/sessions/{id} - Session details with availability
	r.Get("/api/sessions/{id}", sessionHandler.GetSessionByID)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/sessions", func(r chi.Router) {
		r.Use(middleware.Identity(log))
		r.Use(middleware.Staff(log))

		// POST /api/admin/sessions - Create session
		r.Post("/", sessionHandler.CreateSession)

		// PUT /api/admin/sessions/{id} - Update session
		r.Put("/{id}", sessionHandler.UpdateSession)
	})
}
