// internal/wire/wire.go
package wire

import (
	"net/http"

	"sauna-booking/internal/adaptor"
	"sauna-booking/internal/data/repository"
	"sauna-booking/internal/gateway"
	"sauna-booking/internal/usecase"
	"sauna-booking/pkg/middleware"
	"sauna-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired application.
type App struct {
	Router     *chi.Mux
	Dispatcher *usecase.OutboxDispatcher
}

// Wiring initializes all dependencies.
func Wiring(repo *repository.Repository, config *utils.Config, logger *zap.Logger) *App {
	stripeGateway := gateway.NewStripeGateway(config, logger)

	service := usecase.NewService(repo, stripeGateway, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, config, logger)

	return &App{
		Router:     router,
		Dispatcher: service.Dispatcher,
	}
}

// setupRouter configures the Chi router.
func setupRouter(
	handler *adaptor.Handler,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Apply routes
	wireSession(r, handler.Session, logger)
	wireBooking(r, handler.Booking, logger)
	wirePunchCard(r, handler.PunchCard, logger)
	wireWebhook(r, handler.Webhook, handler.Cron, config, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
