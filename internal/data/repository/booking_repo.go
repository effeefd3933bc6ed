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

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*entity.Booking, error)
	FindByMemberID(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByMemberID(ctx context.Context, memberID uuid.UUID) (int64, error)
	FindExpiredPending(ctx context.Context, olderThan time.Time) ([]*entity.Booking, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// State transitions. Each is a conditional update guarded on the current
	// status so replayed events degrade to no-ops; the bool reports whether
	// this call performed the transition.
	SetConfirmedPaid(ctx context.Context, id uuid.UUID) (bool, error)
	SetFailedCancelled(ctx context.Context, id uuid.UUID) (bool, error)
	SetRefundedCancelled(ctx context.Context, id uuid.UUID) (bool, error)
	CancelIfConfirmed(ctx context.Context, id uuid.UUID, by *uuid.UUID, reason *string) (bool, error)
	CancelIfPending(ctx context.Context, id uuid.UUID) (bool, error)

	AddSpots(ctx context.Context, id uuid.UUID, extraSpots int, extraAmount int64) error
	// RemoveSpots shrinks a confirmed booking, guarded so at least one spot
	// always remains; the bool reports whether the guard held.
	RemoveSpots(ctx context.Context, id uuid.UUID, spots int, amount int64) (bool, error)
	UpdateSessionRef(ctx context.Context, id, newSessionID uuid.UUID, by uuid.UUID, reason string) error
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, booking_number, member_id, session_id, spots, amount, status,
	payment_status, payment_method, punch_card_id, payment_intent_id, theme_id, paid_at,
	changed_by, change_reason, changed_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.BookingNumber,
		&b.MemberID,
		&b.SessionID,
		&b.Spots,
		&b.Amount,
		&b.Status,
		&b.PaymentStatus,
		&b.PaymentMethod,
		&b.PunchCardID,
		&b.PaymentIntentID,
		&b.ThemeID,
		&b.PaidAt,
		&b.ChangedBy,
		&b.ChangeReason,
		&b.ChangedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, booking_number, member_id, session_id, spots, amount, status,
			payment_status, payment_method, punch_card_id, payment_intent_id, theme_id, paid_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.BookingNumber,
		booking.MemberID,
		booking.SessionID,
		booking.Spots,
		booking.Amount,
		booking.Status,
		booking.PaymentStatus,
		booking.PaymentMethod,
		booking.PunchCardID,
		booking.PaymentIntentID,
		booking.ThemeID,
		booking.PaidAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_number", booking.BookingNumber),
			zap.String("member_id", booking.MemberID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.BookingNumber, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByPaymentIntentID(ctx context.Context, intentID string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_intent_id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, intentID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by payment intent",
			zap.Error(err),
			zap.String("payment_intent_id", intentID),
		)
		return nil, fmt.Errorf("find booking by payment intent %s: %w", intentID, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByMemberID(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE member_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, memberID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by member ID",
			zap.Error(err),
			zap.String("member_id", memberID.String()),
		)
		return nil, fmt.Errorf("find bookings by member ID %s: %w", memberID.String(), err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, nil
}

func (r *bookingRepository) CountByMemberID(ctx context.Context, memberID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE member_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, memberID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by member ID",
			zap.Error(err),
			zap.String("member_id", memberID.String()),
		)
		return 0, fmt.Errorf("count bookings by member ID %s: %w", memberID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) FindExpiredPending(ctx context.Context, olderThan time.Time) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'pending' AND payment_status = 'pending' AND created_at < $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, olderThan)
	if err != nil {
		r.log.Error("Failed to find expired pending bookings", zap.Error(err))
		return nil, fmt.Errorf("find expired pending bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, nil
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM bookings WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return fmt.Errorf("delete booking %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", id.String())
	}

	return nil
}

func (r *bookingRepository) SetConfirmedPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'confirmed', payment_status = 'paid', paid_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND payment_status <> 'paid' AND status <> 'cancelled'
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to confirm booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("confirm booking %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) SetFailedCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', payment_status = 'failed', updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND payment_status = 'pending'
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to mark booking payment failed",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("fail booking %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) SetRefundedCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', payment_status = 'refunded', updated_at = NOW()
		WHERE id = $1 AND payment_status = 'paid'
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to mark booking refunded",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("refund booking %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) CancelIfConfirmed(ctx context.Context, id uuid.UUID, by *uuid.UUID, reason *string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', changed_by = $2, change_reason = $3, changed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'confirmed'
	`

	result, err := r.db.Exec(ctx, query, id, by, reason)
	if err != nil {
		r.log.Error("Failed to cancel booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("cancel booking %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) CancelIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to cancel pending booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("cancel pending booking %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) AddSpots(ctx context.Context, id uuid.UUID, extraSpots int, extraAmount int64) error {
	query := `
		UPDATE bookings
		SET spots = spots + $2, amount = amount + $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, extraSpots, extraAmount)
	if err != nil {
		r.log.Error("Failed to add spots to booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.Int("extra_spots", extraSpots),
		)
		return fmt.Errorf("add %d spots to booking %s: %w", extraSpots, id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", id.String())
	}

	return nil
}

func (r *bookingRepository) RemoveSpots(ctx context.Context, id uuid.UUID, spots int, amount int64) (bool, error) {
	query := `
		UPDATE bookings
		SET spots = spots - $2, amount = amount - $3, updated_at = NOW()
		WHERE id = $1 AND status = 'confirmed' AND spots - $2 >= 1
	`

	result, err := r.db.Exec(ctx, query, id, spots, amount)
	if err != nil {
		r.log.Error("Failed to remove spots from booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.Int("spots", spots),
		)
		return false, fmt.Errorf("remove %d spots from booking %s: %w", spots, id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingRepository) UpdateSessionRef(ctx context.Context, id, newSessionID uuid.UUID, by uuid.UUID, reason string) error {
	query := `
		UPDATE bookings
		SET session_id = $2, changed_by = $3, change_reason = $4, changed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, newSessionID, by, reason)
	if err != nil {
		r.log.Error("Failed to move booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("new_session_id", newSessionID.String()),
		)
		return fmt.Errorf("move booking %s to session %s: %w", id.String(), newSessionID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", id.String())
	}

	return nil
}
