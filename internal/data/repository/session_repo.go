package repository

import (
	"context"
	"fmt"
	"time"

	"sauna-booking/internal/data/entity"
	"sauna-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	FindUpcoming(ctx context.Context, limit, offset int) ([]*entity.Session, error)
	CountUpcoming(ctx context.Context) (int64, error)
	Update(ctx context.Context, session *entity.Session) error
	FindRecentlyStarted(ctx context.Context, since, until time.Time) ([]*entity.Session, error)

	// Counter operations. Each is a single conditional update; the returned
	// bool reports whether the guard held. Callers never read-modify-write
	// the reserved counter themselves.
	ReserveSpots(ctx context.Context, id uuid.UUID, spots int) (bool, error)
	ReservePrivate(ctx context.Context, id uuid.UUID, spots int) (bool, error)
	ReleaseSpots(ctx context.Context, id uuid.UUID, spots int) error
}

type sessionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSessionRepository(db database.PgxIface, log *zap.Logger) SessionRepository {
	return &sessionRepository{
		db:  db,
		log: log.With(zap.String("repository", "session")),
	}
}

const sessionColumns = `id, name, location, start_time, duration_minutes, capacity, reserved,
	price_per_spot, is_private, theme_id, host_employee_id, created_at, updated_at`

func scanSession(row pgx.Row) (*entity.Session, error) {
	var s entity.Session
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Location,
		&s.StartTime,
		&s.DurationMinutes,
		&s.Capacity,
		&s.Reserved,
		&s.PricePerSpot,
		&s.IsPrivate,
		&s.ThemeID,
		&s.HostEmployeeID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	query := `
		INSERT INTO sessions (id, name, location, start_time, duration_minutes, capacity, reserved,
			price_per_spot, is_private, theme_id, host_employee_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Exec(ctx, query,
		session.ID,
		session.Name,
		session.Location,
		session.StartTime,
		session.DurationMinutes,
		session.Capacity,
		session.Reserved,
		session.PricePerSpot,
		session.IsPrivate,
		session.ThemeID,
		session.HostEmployeeID,
		session.CreatedAt,
		session.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create session",
			zap.Error(err),
			zap.String("session_id", session.ID.String()),
		)
		return fmt.Errorf("create session %s: %w", session.ID.String(), err)
	}

	return nil
}

func (r *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	session, err := scanSession(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find session by ID",
			zap.Error(err),
			zap.String("session_id", id.String()),
		)
		return nil, fmt.Errorf("find session by ID %s: %w", id.String(), err)
	}

	return session, nil
}

func (r *sessionRepository) FindUpcoming(ctx context.Context, limit, offset int) ([]*entity.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE start_time > NOW()
		ORDER BY start_time
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to find upcoming sessions", zap.Error(err))
		return nil, fmt.Errorf("find upcoming sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*entity.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			r.log.Error("Failed to scan session row", zap.Error(err))
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

func (r *sessionRepository) CountUpcoming(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM sessions WHERE start_time > NOW()`

	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		r.log.Error("Failed to count upcoming sessions", zap.Error(err))
		return 0, fmt.Errorf("count upcoming sessions: %w", err)
	}

	return count, nil
}

func (r *sessionRepository) Update(ctx context.Context, session *entity.Session) error {
	// Reserved is deliberately absent; only the counter operations touch it.
	query := `
		UPDATE sessions
		SET name = $2, location = $3, start_time = $4, duration_minutes = $5, capacity = $6,
		    price_per_spot = $7, is_private = $8, theme_id = $9, host_employee_id = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		session.ID,
		session.Name,
		session.Location,
		session.StartTime,
		session.DurationMinutes,
		session.Capacity,
		session.PricePerSpot,
		session.IsPrivate,
		session.ThemeID,
		session.HostEmployeeID,
		session.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update session",
			zap.Error(err),
			zap.String("session_id", session.ID.String()),
		)
		return fmt.Errorf("update session %s: %w", session.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s not found", session.ID.String())
	}

	return nil
}

func (r *sessionRepository) FindRecentlyStarted(ctx context.Context, since, until time.Time) ([]*entity.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE start_time >= $1 AND start_time <= $2
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, since, until)
	if err != nil {
		r.log.Error("Failed to find recently started sessions", zap.Error(err))
		return nil, fmt.Errorf("find recently started sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*entity.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			r.log.Error("Failed to scan session row", zap.Error(err))
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

// ReserveSpots increments reserved iff the session has room. Concurrent
// callers race on the same guard, so at most capacity spots ever succeed.
func (r *sessionRepository) ReserveSpots(ctx context.Context, id uuid.UUID, spots int) (bool, error) {
	query := `
		UPDATE sessions
		SET reserved = reserved + $2, updated_at = NOW()
		WHERE id = $1 AND reserved + $2 <= capacity
	`

	result, err := r.db.Exec(ctx, query, id, spots)
	if err != nil {
		r.log.Error("Failed to reserve spots",
			zap.Error(err),
			zap.String("session_id", id.String()),
			zap.Int("spots", spots),
		)
		return false, fmt.Errorf("reserve %d spots on session %s: %w", spots, id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

// ReservePrivate succeeds only while the private session is completely
// empty; the first confirmed booking closes it regardless of seat count.
func (r *sessionRepository) ReservePrivate(ctx context.Context, id uuid.UUID, spots int) (bool, error) {
	query := `
		UPDATE sessions
		SET reserved = reserved + $2, updated_at = NOW()
		WHERE id = $1 AND reserved = 0
	`

	result, err := r.db.Exec(ctx, query, id, spots)
	if err != nil {
		r.log.Error("Failed to reserve private session",
			zap.Error(err),
			zap.String("session_id", id.String()),
			zap.Int("spots", spots),
		)
		return false, fmt.Errorf("reserve private session %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

// ReleaseSpots decrements reserved, floored at zero.
func (r *sessionRepository) ReleaseSpots(ctx context.Context, id uuid.UUID, spots int) error {
	query := `
		UPDATE sessions
		SET reserved = GREATEST(reserved - $2, 0), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, spots)
	if err != nil {
		r.log.Error("Failed to release spots",
			zap.Error(err),
			zap.String("session_id", id.String()),
			zap.Int("spots", spots),
		)
		return fmt.Errorf("release %d spots on session %s: %w", spots, id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s not found", id.String())
	}

	return nil
}
