package usecase

import (
	"context"
	"fmt"

	"sauna-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CapacityLedger owns the per-session reserved counter. Every mutation is a
// single conditional update in the store, so concurrent reservations race on
// the database guard instead of a stale in-process snapshot.
type CapacityLedger interface {
	// Reserve holds spots on the session. Private sessions accept only one
	// reservation while empty; any seat count then closes the session.
	Reserve(ctx context.Context, sessionID uuid.UUID, spots int) error
	// Grow adds spots to a reservation the session already holds. Unlike
	// Reserve it never trips the private single-reservation guard; only the
	// numeric capacity bound applies.
	Grow(ctx context.Context, sessionID uuid.UUID, spots int) error
	// Release returns spots to availability, floored at zero.
	Release(ctx context.Context, sessionID uuid.UUID, spots int) error
	// Move transfers spots between sessions, all-or-nothing: if the target
	// has no room the source reservation is restored.
	Move(ctx context.Context, fromSessionID, toSessionID uuid.UUID, spots int) error
}

type capacityLedger struct {
	sessions repository.SessionRepository
	log      *zap.Logger
}

func NewCapacityLedger(sessions repository.SessionRepository, log *zap.Logger) CapacityLedger {
	return &capacityLedger{
		sessions: sessions,
		log:      log.With(zap.String("ledger", "capacity")),
	}
}

func (l *capacityLedger) Reserve(ctx context.Context, sessionID uuid.UUID, spots int) error {
	if spots < 1 {
		return fmt.Errorf("reserve spots must be >= 1, got %d", spots)
	}

	session, err := l.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}

	if session.IsPrivate {
		ok, err := l.sessions.ReservePrivate(ctx, sessionID, spots)
		if err != nil {
			return err
		}
		if !ok {
			l.log.Debug("Private session already occupied",
				zap.String("session_id", sessionID.String()))
			return ErrAlreadyPrivatelyBooked
		}
	} else {
		ok, err := l.sessions.ReserveSpots(ctx, sessionID, spots)
		if err != nil {
			return err
		}
		if !ok {
			l.log.Debug("Session out of capacity",
				zap.String("session_id", sessionID.String()),
				zap.Int("spots", spots))
			return ErrInsufficientCapacity
		}
	}

	l.log.Info("Spots reserved",
		zap.String("session_id", sessionID.String()),
		zap.Int("spots", spots),
		zap.Bool("private", session.IsPrivate),
	)
	return nil
}

func (l *capacityLedger) Grow(ctx context.Context, sessionID uuid.UUID, spots int) error {
	if spots < 1 {
		return fmt.Errorf("grow spots must be >= 1, got %d", spots)
	}

	// A private session counts as closed once reserved, but the booking that
	// closed it may still take more seats while numeric room remains.
	ok, err := l.sessions.ReserveSpots(ctx, sessionID, spots)
	if err != nil {
		return err
	}
	if !ok {
		l.log.Debug("Session out of capacity",
			zap.String("session_id", sessionID.String()),
			zap.Int("spots", spots))
		return ErrInsufficientCapacity
	}

	l.log.Info("Reservation grown",
		zap.String("session_id", sessionID.String()),
		zap.Int("spots", spots),
	)
	return nil
}

func (l *capacityLedger) Release(ctx context.Context, sessionID uuid.UUID, spots int) error {
	if spots < 1 {
		return fmt.Errorf("release spots must be >= 1, got %d", spots)
	}

	if err := l.sessions.ReleaseSpots(ctx, sessionID, spots); err != nil {
		return err
	}

	l.log.Info("Spots released",
		zap.String("session_id", sessionID.String()),
		zap.Int("spots", spots),
	)
	return nil
}

func (l *capacityLedger) Move(ctx context.Context, fromSessionID, toSessionID uuid.UUID, spots int) error {
	if err := l.Release(ctx, fromSessionID, spots); err != nil {
		return err
	}

	if err := l.Reserve(ctx, toSessionID, spots); err != nil {
		// Roll the release back so the move is all-or-nothing.
		if restoreErr := l.restore(ctx, fromSessionID, spots); restoreErr != nil {
			l.log.Error("Failed to restore source reservation after failed move",
				zap.Error(restoreErr),
				zap.String("from_session_id", fromSessionID.String()),
				zap.String("to_session_id", toSessionID.String()),
				zap.Int("spots", spots),
			)
		}
		return err
	}

	return nil
}

// restore re-reserves spots on the source session after a failed move. It
// bypasses the private-session guard: the spots were counted there a moment
// ago, so putting them back must not fail.
func (l *capacityLedger) restore(ctx context.Context, sessionID uuid.UUID, spots int) error {
	session, err := l.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}

	if session.IsPrivate {
		if _, err := l.sessions.ReservePrivate(ctx, sessionID, spots); err != nil {
			return err
		}
		return nil
	}

	if _, err := l.sessions.ReserveSpots(ctx, sessionID, spots); err != nil {
		return err
	}
	return nil
}
