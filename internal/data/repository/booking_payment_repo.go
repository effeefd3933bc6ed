package repository

import (
	"context"
	"fmt"

	"sauna-booking/internal/data/entity"
	"sauna-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingPaymentRepository interface {
	// CreateIfAbsent inserts the payment row unless one already exists for
	// the same payment intent. The bool reports whether this call inserted,
	// which makes the row the settlement guard for replayed intents.
	CreateIfAbsent(ctx context.Context, payment *entity.BookingPayment) (bool, error)
	FindByIntentID(ctx context.Context, intentID string) (*entity.BookingPayment, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.BookingPayment, error)
	// ReduceSpots takes seats and their amount off a payment row, guarded on
	// the row still carrying that many seats.
	ReduceSpots(ctx context.Context, id uuid.UUID, spots int, amount int64) (bool, error)
}

type bookingPaymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingPaymentRepository(db database.PgxIface, log *zap.Logger) BookingPaymentRepository {
	return &bookingPaymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking_payment")),
	}
}

// CreateIfAbsent relies on the unique index over payment_intent_id: a
// concurrent duplicate lands on the conflict branch instead of a second row.
func (r *bookingPaymentRepository) CreateIfAbsent(ctx context.Context, payment *entity.BookingPayment) (bool, error) {
	query := `
		INSERT INTO booking_payments (id, booking_id, payment_intent_id, amount, spots, payment_type, invoice_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (payment_intent_id) DO NOTHING
	`

	result, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.PaymentIntentID,
		payment.Amount,
		payment.Spots,
		payment.PaymentType,
		payment.InvoiceID,
		payment.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking payment",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
			zap.String("payment_intent_id", payment.PaymentIntentID),
		)
		return false, fmt.Errorf("create booking payment for %s: %w", payment.BookingID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *bookingPaymentRepository) FindByIntentID(ctx context.Context, intentID string) (*entity.BookingPayment, error) {
	query := `
		SELECT id, booking_id, payment_intent_id, amount, spots, payment_type, invoice_id, created_at
		FROM booking_payments
		WHERE payment_intent_id = $1
	`

	var payment entity.BookingPayment
	err := r.db.QueryRow(ctx, query, intentID).Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.PaymentIntentID,
		&payment.Amount,
		&payment.Spots,
		&payment.PaymentType,
		&payment.InvoiceID,
		&payment.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking payment by intent",
			zap.Error(err),
			zap.String("payment_intent_id", intentID),
		)
		return nil, fmt.Errorf("find booking payment by intent %s: %w", intentID, err)
	}

	return &payment, nil
}

func (r *bookingPaymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.BookingPayment, error) {
	query := `
		SELECT id, booking_id, payment_intent_id, amount, spots, payment_type, invoice_id, created_at
		FROM booking_payments
		WHERE booking_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find booking payments",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find booking payments for %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var payments []*entity.BookingPayment
	for rows.Next() {
		var payment entity.BookingPayment
		err := rows.Scan(
			&payment.ID,
			&payment.BookingID,
			&payment.PaymentIntentID,
			&payment.Amount,
			&payment.Spots,
			&payment.PaymentType,
			&payment.InvoiceID,
			&payment.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan booking payment row", zap.Error(err))
			return nil, fmt.Errorf("scan booking payment row: %w", err)
		}
		payments = append(payments, &payment)
	}

	return payments, nil
}

func (r *bookingPaymentRepository) ReduceSpots(ctx context.Context, id uuid.UUID, spots int, amount int64) (bool, error) {
	query := `
		UPDATE booking_payments
		SET spots = spots - $2, amount = amount - $3
		WHERE id = $1 AND spots >= $2
	`

	result, err := r.db.Exec(ctx, query, id, spots, amount)
	if err != nil {
		r.log.Error("Failed to reduce booking payment spots",
			zap.Error(err),
			zap.String("payment_id", id.String()),
			zap.Int("spots", spots),
		)
		return false, fmt.Errorf("reduce %d spots on booking payment %s: %w", spots, id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}
