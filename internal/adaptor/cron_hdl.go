package adaptor

import (
	"net/http"
	"time"

	"sauna-booking/internal/usecase"
	"sauna-booking/pkg/utils"

	"go.uber.org/zap"
)

type CronHandler struct {
	release usecase.ReleaseService
	log     *zap.Logger
}

func NewCronHandler(release usecase.ReleaseService, log *zap.Logger) *CronHandler {
	return &CronHandler{
		release: release,
		log:     log.With(zap.String("handler", "cron")),
	}
}

// AutoRelease handles GET|POST /api/cron/auto-release (shared-secret auth).
// Safe to call on any schedule; a pass that finds nothing to do reports
// zeroes.
func (h *CronHandler) AutoRelease(w http.ResponseWriter, r *http.Request) {
	report, err := h.release.Run(r.Context(), time.Now())
	if err != nil {
		h.log.Error("Auto-release pass failed", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	h.log.Info("Auto-release pass completed",
		zap.Int("released", report.Released),
		zap.Int("points_awarded", report.PointsAwarded),
		zap.Int("hosts_awarded", report.HostsAwarded),
		zap.Int("bookings_expired", report.BookingsExpired),
	)

	utils.ResponseSuccess(w, "success", report)
}
