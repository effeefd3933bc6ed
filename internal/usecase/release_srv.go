package usecase

import (
	"context"
	"time"

	"sauna-booking/internal/data/entity"
	"sauna-booking/internal/data/repository"

	"go.uber.org/zap"
)

const (
	pointsReasonEarlyRelease = "early_guest_spot_release"
	pointsReasonHosting      = "session_hosting"

	// Gusmester spots ignore the holder's preference and release on the
	// fixed window, without points.
	gusmesterReleaseHours = 3
)

// ReleaseDecision says what to do about one held guest spot right now.
type ReleaseDecision struct {
	Spot        *entity.HeldSpot
	Release     bool
	AwardPoints bool
}

// ReleaseReport summarizes one scheduler pass.
type ReleaseReport struct {
	Released        int `json:"released"`
	PointsAwarded   int `json:"points_awarded"`
	HostsAwarded    int `json:"hosts_awarded"`
	BookingsExpired int `json:"bookings_expired"`
}

// ReleaseService returns unused guest spots to public sale ahead of session
// start and awards points for early releases. Every pass is re-runnable: the
// spot flip and the points award are both conditional.
type ReleaseService interface {
	Run(ctx context.Context, now time.Time) (*ReleaseReport, error)
}

type releaseService struct {
	spots      repository.GuestSpotRepository
	sessions   repository.SessionRepository
	employees  repository.EmployeeRepository
	outbox     repository.OutboxRepository
	capacity   CapacityLedger
	booking    BookingService
	points     int
	window     time.Duration
	hostPoints int
	log        *zap.Logger
}

func NewReleaseService(
	spots repository.GuestSpotRepository,
	sessions repository.SessionRepository,
	employees repository.EmployeeRepository,
	outbox repository.OutboxRepository,
	capacity CapacityLedger,
	booking BookingService,
	points int,
	windowHours int,
	hostPoints int,
	log *zap.Logger,
) ReleaseService {
	return &releaseService{
		spots:      spots,
		sessions:   sessions,
		employees:  employees,
		outbox:     outbox,
		capacity:   capacity,
		booking:    booking,
		points:     points,
		window:     time.Duration(windowHours) * time.Hour,
		hostPoints: hostPoints,
		log:        log.With(zap.String("service", "release")),
	}
}

// DueForRelease is the pure decision function: a spot is due when the
// session has not started and the time to start is inside the holder's
// release window. Points go to holders whose spot is released while at least
// the points window still remains before start; gusmester spots use the
// fixed window and never earn points.
func DueForRelease(now time.Time, holds []*entity.HeldSpot, pointsWindow time.Duration) []ReleaseDecision {
	var decisions []ReleaseDecision
	for _, h := range holds {
		untilStart := h.SessionStart.Sub(now)
		if untilStart <= 0 {
			continue
		}

		window := time.Duration(h.ReleaseAfterHours) * time.Hour
		if h.SpotType == entity.GuestSpotTypeGusmester {
			window = gusmesterReleaseHours * time.Hour
		}
		if untilStart > window {
			continue
		}

		decisions = append(decisions, ReleaseDecision{
			Spot:        h,
			Release:     true,
			AwardPoints: h.SpotType != entity.GuestSpotTypeGusmester && untilStart >= pointsWindow,
		})
	}
	return decisions
}

func (s *releaseService) Run(ctx context.Context, now time.Time) (*ReleaseReport, error) {
	holds, err := s.spots.FindHeldSpots(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReleaseReport{}

	for _, d := range DueForRelease(now, holds, s.window) {
		released, err := s.spots.ReleaseIfHeld(ctx, d.Spot.SpotID)
		if err != nil {
			s.log.Error("Failed to release guest spot",
				zap.Error(err), zap.String("spot_id", d.Spot.SpotID.String()))
			continue
		}
		if !released {
			// Another pass got here first.
			continue
		}

		if err := s.capacity.Release(ctx, d.Spot.SessionID, 1); err != nil {
			s.log.Error("Failed to return released spot to capacity",
				zap.Error(err), zap.String("session_id", d.Spot.SessionID.String()))
		}
		report.Released++

		if d.AwardPoints {
			sessionID := d.Spot.SessionID
			awarded, err := s.employees.AwardPoints(ctx, d.Spot.EmployeeID, s.points, pointsReasonEarlyRelease, &sessionID)
			if err != nil {
				s.log.Error("Failed to award release points",
					zap.Error(err), zap.String("employee_id", d.Spot.EmployeeID.String()))
			} else if awarded {
				report.PointsAwarded++
				EnqueueJob(ctx, s.outbox, s.log, JobPointsAwarded, map[string]string{
					"employee_id": d.Spot.EmployeeID.String(),
					"session_id":  sessionID.String(),
					"reason":      pointsReasonEarlyRelease,
				})
			}
		}

		EnqueueJob(ctx, s.outbox, s.log, JobSpotReleased, map[string]string{
			"spot_id":        d.Spot.SpotID.String(),
			"session_id":     d.Spot.SessionID.String(),
			"session_name":   d.Spot.SessionName,
			"employee_email": d.Spot.EmployeeEmail,
		})

		s.log.Info("Guest spot released to public",
			zap.String("spot_id", d.Spot.SpotID.String()),
			zap.String("session_name", d.Spot.SessionName),
			zap.Bool("points_awarded", d.AwardPoints),
		)
	}

	report.HostsAwarded = s.awardHostingPoints(ctx, now)

	expired, err := s.booking.ExpirePendingBookings(ctx, now)
	if err != nil {
		s.log.Error("Failed to expire pending bookings", zap.Error(err))
	}
	report.BookingsExpired = expired

	return report, nil
}

// awardHostingPoints gives hosts their points once per hosted session, keyed
// on the session that started within the last hour.
func (s *releaseService) awardHostingPoints(ctx context.Context, now time.Time) int {
	sessions, err := s.sessions.FindRecentlyStarted(ctx, now.Add(-time.Hour), now)
	if err != nil {
		s.log.Error("Failed to find recently started sessions", zap.Error(err))
		return 0
	}

	awardedCount := 0
	for _, session := range sessions {
		if session.HostEmployeeID == nil {
			continue
		}
		sessionID := session.ID
		awarded, err := s.employees.AwardPoints(ctx, *session.HostEmployeeID, s.hostPoints, pointsReasonHosting, &sessionID)
		if err != nil {
			s.log.Error("Failed to award hosting points",
				zap.Error(err), zap.String("session_id", sessionID.String()))
			continue
		}
		if awarded {
			awardedCount++
			EnqueueJob(ctx, s.outbox, s.log, JobPointsAwarded, map[string]string{
				"employee_id": session.HostEmployeeID.String(),
				"session_id":  sessionID.String(),
				"reason":      pointsReasonHosting,
			})
		}
	}

	return awardedCount
}
