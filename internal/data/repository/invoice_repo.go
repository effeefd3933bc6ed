package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"sauna-booking/internal/data/entity"
	"sauna-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Invoice, error)
	MarkPaidByBookingID(ctx context.Context, bookingID uuid.UUID) error
	MarkRefundedByBookingID(ctx context.Context, bookingID uuid.UUID) error
	MarkRefundedByID(ctx context.Context, id uuid.UUID) error
}

type invoiceRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewInvoiceRepository(db database.PgxIface, log *zap.Logger) InvoiceRepository {
	return &invoiceRepository{
		db:  db,
		log: log.With(zap.String("repository", "invoice")),
	}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	lineItems, err := json.Marshal(invoice.LineItems)
	if err != nil {
		return fmt.Errorf("marshal line items for invoice %s: %w", invoice.InvoiceNumber, err)
	}

	query := `
		INSERT INTO invoices (id, invoice_number, booking_id, member_id, amount, currency,
			payment_method, payment_status, line_items, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.Exec(ctx, query,
		invoice.ID,
		invoice.InvoiceNumber,
		invoice.BookingID,
		invoice.MemberID,
		invoice.Amount,
		invoice.Currency,
		invoice.PaymentMethod,
		invoice.PaymentStatus,
		lineItems,
		invoice.PaidAt,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create invoice",
			zap.Error(err),
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.String("booking_id", invoice.BookingID.String()),
		)
		return fmt.Errorf("create invoice %s: %w", invoice.InvoiceNumber, err)
	}

	return nil
}

const invoiceColumns = `id, invoice_number, booking_id, member_id, amount, currency,
	payment_method, payment_status, line_items, paid_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var lineItems []byte
	err := row.Scan(
		&inv.ID,
		&inv.InvoiceNumber,
		&inv.BookingID,
		&inv.MemberID,
		&inv.Amount,
		&inv.Currency,
		&inv.PaymentMethod,
		&inv.PaymentStatus,
		&lineItems,
		&inv.PaidAt,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(lineItems) > 0 {
		if err := json.Unmarshal(lineItems, &inv.LineItems); err != nil {
			return nil, fmt.Errorf("unmarshal line items: %w", err)
		}
	}

	return &inv, nil
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	invoice, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find invoice by ID",
			zap.Error(err),
			zap.String("invoice_id", id.String()),
		)
		return nil, fmt.Errorf("find invoice by ID %s: %w", id.String(), err)
	}

	return invoice, nil
}

func (r *invoiceRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE booking_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find invoices by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find invoices for booking %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			r.log.Error("Failed to scan invoice row", zap.Error(err))
			return nil, fmt.Errorf("scan invoice row: %w", err)
		}
		invoices = append(invoices, invoice)
	}

	return invoices, nil
}

func (r *invoiceRepository) MarkPaidByBookingID(ctx context.Context, bookingID uuid.UUID) error {
	query := `
		UPDATE invoices
		SET payment_status = 'paid', paid_at = NOW(), updated_at = NOW()
		WHERE booking_id = $1 AND payment_status = 'pending'
	`

	if _, err := r.db.Exec(ctx, query, bookingID); err != nil {
		r.log.Error("Failed to mark invoices paid",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return fmt.Errorf("mark invoices paid for booking %s: %w", bookingID.String(), err)
	}

	return nil
}

func (r *invoiceRepository) MarkRefundedByID(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE invoices
		SET payment_status = 'refunded', updated_at = NOW()
		WHERE id = $1 AND payment_status = 'paid'
	`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		r.log.Error("Failed to mark invoice refunded",
			zap.Error(err),
			zap.String("invoice_id", id.String()),
		)
		return fmt.Errorf("mark invoice %s refunded: %w", id.String(), err)
	}

	return nil
}

func (r *invoiceRepository) MarkRefundedByBookingID(ctx context.Context, bookingID uuid.UUID) error {
	query := `
		UPDATE invoices
		SET payment_status = 'refunded', updated_at = NOW()
		WHERE booking_id = $1 AND payment_status = 'paid'
	`

	if _, err := r.db.Exec(ctx, query, bookingID); err != nil {
		r.log.Error("Failed to mark invoices refunded",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return fmt.Errorf("mark invoices refunded for booking %s: %w", bookingID.String(), err)
	}

	return nil
}
