package repository

import (
	"context"
	"fmt"

	"sauna-booking/internal/data/entity"
	"sauna-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GuestSpotRepository interface {
	Create(ctx context.Context, spot *entity.GuestSpot) error
	// FindHeldSpots returns every spot still reserved for its host, joined
	// with session timing and the holder's release preference, for the
	// auto-release decision.
	FindHeldSpots(ctx context.Context) ([]*entity.HeldSpot, error)
	// ReleaseIfHeld flips reserved_for_host to released_to_public. A spot
	// already released reports false, making the scheduler re-runnable.
	ReleaseIfHeld(ctx context.Context, spotID uuid.UUID) (bool, error)
}

type guestSpotRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewGuestSpotRepository(db database.PgxIface, log *zap.Logger) GuestSpotRepository {
	return &guestSpotRepository{
		db:  db,
		log: log.With(zap.String("repository", "guest_spot")),
	}
}

func (r *guestSpotRepository) Create(ctx context.Context, spot *entity.GuestSpot) error {
	query := `
		INSERT INTO guest_spots (id, session_id, host_employee_id, spot_type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		spot.ID,
		spot.SessionID,
		spot.HostEmployeeID,
		spot.SpotType,
		spot.Status,
		spot.CreatedAt,
		spot.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create guest spot",
			zap.Error(err),
			zap.String("session_id", spot.SessionID.String()),
		)
		return fmt.Errorf("create guest spot for session %s: %w", spot.SessionID.String(), err)
	}

	return nil
}

func (r *guestSpotRepository) FindHeldSpots(ctx context.Context) ([]*entity.HeldSpot, error) {
	query := `
		SELECT gs.id, gs.spot_type, s.id, s.name, s.start_time,
		       e.id, e.name, e.email, e.release_after_hours
		FROM guest_spots gs
		JOIN sessions s ON s.id = gs.session_id
		JOIN employees e ON e.id = gs.host_employee_id
		WHERE gs.status = 'reserved_for_host' AND s.start_time > NOW()
		ORDER BY s.start_time
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to find held guest spots", zap.Error(err))
		return nil, fmt.Errorf("find held guest spots: %w", err)
	}
	defer rows.Close()

	var spots []*entity.HeldSpot
	for rows.Next() {
		var spot entity.HeldSpot
		err := rows.Scan(
			&spot.SpotID,
			&spot.SpotType,
			&spot.SessionID,
			&spot.SessionName,
			&spot.SessionStart,
			&spot.EmployeeID,
			&spot.EmployeeName,
			&spot.EmployeeEmail,
			&spot.ReleaseAfterHours,
		)
		if err != nil {
			r.log.Error("Failed to scan held spot row", zap.Error(err))
			return nil, fmt.Errorf("scan held spot row: %w", err)
		}
		spots = append(spots, &spot)
	}

	return spots, nil
}

func (r *guestSpotRepository) ReleaseIfHeld(ctx context.Context, spotID uuid.UUID) (bool, error) {
	query := `
		UPDATE guest_spots
		SET status = 'released_to_public', updated_at = NOW()
		WHERE id = $1 AND status = 'reserved_for_host'
	`

	result, err := r.db.Exec(ctx, query, spotID)
	if err != nil {
		r.log.Error("Failed to release guest spot",
			zap.Error(err),
			zap.String("spot_id", spotID.String()),
		)
		return false, fmt.Errorf("release guest spot %s: %w", spotID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}
