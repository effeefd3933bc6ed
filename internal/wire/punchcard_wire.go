package wire

import (
	"sauna-booking/internal/adaptor"
	"sauna-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePunchCard(
	r chi.Router,
	punchCardHandler *adaptor.PunchCardHandler,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/punch-cards/templates - Shop catalogue
	r.Get("/api/punch-cards/templates", punchCardHandler.GetTemplates)

	// ==================== MEMBER ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity(log))

		// GET /api/user/punch-cards - Own active cards
		r.Get("/api/user/punch-cards", punchCardHandler.GetMyCards)

		// GET /api/user/punch-cards/{id}/usage - Own card's ledger entries
		r.Get("/api/user/punch-cards/{id}/usage", punchCardHandler.GetCardUsage)
	})
}
