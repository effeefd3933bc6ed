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

type PunchCardRepository interface {
	Create(ctx context.Context, card *entity.PunchCard) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.PunchCard, error)
	FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.PunchCard, error)
	FindByPurchaseRef(ctx context.Context, ref string) (*entity.PunchCard, error)
	FindUsageByCause(ctx context.Context, cardID, bookingID uuid.UUID, kind entity.UsageKind, reason string) (*entity.PunchCardUsageEntry, error)
	ListUsage(ctx context.Context, cardID uuid.UUID) ([]*entity.PunchCardUsageEntry, error)

	// DebitWithEntry and CreditWithEntry apply the balance delta and append
	// the usage entry in one transaction. The bool reports whether the
	// balance guard held (sufficient uses on an active card for debits, card
	// exists for credits). Entry.BalanceAfter is filled in from the update.
	DebitWithEntry(ctx context.Context, cardID uuid.UUID, uses int, entry *entity.PunchCardUsageEntry) (bool, error)
	CreditWithEntry(ctx context.Context, cardID uuid.UUID, uses int, entry *entity.PunchCardUsageEntry) (bool, error)
}

type punchCardRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPunchCardRepository(db database.PgxIface, log *zap.Logger) PunchCardRepository {
	return &punchCardRepository{
		db:  db,
		log: log.With(zap.String("repository", "punch_card")),
	}
}

const punchCardColumns = `id, owner_id, name, total_uses, remaining_uses, price, expires_at,
	valid_session_types, status, purchase_ref, created_at, updated_at`

func scanPunchCard(row pgx.Row) (*entity.PunchCard, error) {
	var c entity.PunchCard
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.TotalUses,
		&c.RemainingUses,
		&c.Price,
		&c.ExpiresAt,
		&c.ValidSessionTypes,
		&c.Status,
		&c.PurchaseRef,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *punchCardRepository) Create(ctx context.Context, card *entity.PunchCard) error {
	query := `
		INSERT INTO punch_cards (id, owner_id, name, total_uses, remaining_uses, price, expires_at,
			valid_session_types, status, purchase_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		card.ID,
		card.OwnerID,
		card.Name,
		card.TotalUses,
		card.RemainingUses,
		card.Price,
		card.ExpiresAt,
		card.ValidSessionTypes,
		card.Status,
		card.PurchaseRef,
		card.CreatedAt,
		card.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create punch card",
			zap.Error(err),
			zap.String("owner_id", card.OwnerID.String()),
		)
		return fmt.Errorf("create punch card for %s: %w", card.OwnerID.String(), err)
	}

	return nil
}

func (r *punchCardRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PunchCard, error) {
	query := `SELECT ` + punchCardColumns + ` FROM punch_cards WHERE id = $1`

	card, err := scanPunchCard(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find punch card by ID",
			zap.Error(err),
			zap.String("card_id", id.String()),
		)
		return nil, fmt.Errorf("find punch card by ID %s: %w", id.String(), err)
	}

	return card, nil
}

func (r *punchCardRepository) FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.PunchCard, error) {
	query := `
		SELECT ` + punchCardColumns + `
		FROM punch_cards
		WHERE owner_id = $1 AND status = 'active' AND remaining_uses > 0
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		r.log.Error("Failed to find active punch cards",
			zap.Error(err),
			zap.String("owner_id", ownerID.String()),
		)
		return nil, fmt.Errorf("find active punch cards for %s: %w", ownerID.String(), err)
	}
	defer rows.Close()

	var cards []*entity.PunchCard
	for rows.Next() {
		card, err := scanPunchCard(rows)
		if err != nil {
			r.log.Error("Failed to scan punch card row", zap.Error(err))
			return nil, fmt.Errorf("scan punch card row: %w", err)
		}
		cards = append(cards, card)
	}

	return cards, nil
}

func (r *punchCardRepository) FindByPurchaseRef(ctx context.Context, ref string) (*entity.PunchCard, error) {
	query := `SELECT ` + punchCardColumns + ` FROM punch_cards WHERE purchase_ref = $1`

	card, err := scanPunchCard(r.db.QueryRow(ctx, query, ref))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find punch card by purchase ref",
			zap.Error(err),
			zap.String("purchase_ref", ref),
		)
		return nil, fmt.Errorf("find punch card by purchase ref %s: %w", ref, err)
	}

	return card, nil
}

func (r *punchCardRepository) FindUsageByCause(ctx context.Context, cardID, bookingID uuid.UUID, kind entity.UsageKind, reason string) (*entity.PunchCardUsageEntry, error) {
	query := `
		SELECT id, card_id, booking_id, kind, uses, balance_after, reason, created_at
		FROM punch_card_usage_entries
		WHERE card_id = $1 AND booking_id = $2 AND kind = $3 AND ($4 = '' OR reason = $4)
		LIMIT 1
	`

	var entry entity.PunchCardUsageEntry
	err := r.db.QueryRow(ctx, query, cardID, bookingID, kind, reason).Scan(
		&entry.ID,
		&entry.CardID,
		&entry.BookingID,
		&entry.Kind,
		&entry.Uses,
		&entry.BalanceAfter,
		&entry.Reason,
		&entry.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find usage entry",
			zap.Error(err),
			zap.String("card_id", cardID.String()),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find usage entry for card %s booking %s: %w", cardID.String(), bookingID.String(), err)
	}

	return &entry, nil
}

func (r *punchCardRepository) ListUsage(ctx context.Context, cardID uuid.UUID) ([]*entity.PunchCardUsageEntry, error) {
	query := `
		SELECT id, card_id, booking_id, kind, uses, balance_after, reason, created_at
		FROM punch_card_usage_entries
		WHERE card_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, cardID)
	if err != nil {
		r.log.Error("Failed to list usage entries",
			zap.Error(err),
			zap.String("card_id", cardID.String()),
		)
		return nil, fmt.Errorf("list usage entries for card %s: %w", cardID.String(), err)
	}
	defer rows.Close()

	var entries []*entity.PunchCardUsageEntry
	for rows.Next() {
		var entry entity.PunchCardUsageEntry
		err := rows.Scan(
			&entry.ID,
			&entry.CardID,
			&entry.BookingID,
			&entry.Kind,
			&entry.Uses,
			&entry.BalanceAfter,
			&entry.Reason,
			&entry.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan usage entry row", zap.Error(err))
			return nil, fmt.Errorf("scan usage entry row: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}

func (r *punchCardRepository) DebitWithEntry(ctx context.Context, cardID uuid.UUID, uses int, entry *entity.PunchCardUsageEntry) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin debit tx: %w", err)
	}
	defer tx.Rollback(ctx)

	update := `
		UPDATE punch_cards
		SET remaining_uses = remaining_uses - $2,
		    status = CASE WHEN remaining_uses - $2 <= 0 THEN 'exhausted' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND remaining_uses >= $2
		RETURNING remaining_uses
	`

	var remaining int
	err = tx.QueryRow(ctx, update, cardID, uses).Scan(&remaining)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		r.log.Error("Failed to debit punch card",
			zap.Error(err),
			zap.String("card_id", cardID.String()),
			zap.Int("uses", uses),
		)
		return false, fmt.Errorf("debit %d uses from card %s: %w", uses, cardID.String(), err)
	}

	entry.BalanceAfter = remaining
	if err := insertUsageEntry(ctx, tx, entry); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit debit tx: %w", err)
	}

	return true, nil
}

func (r *punchCardRepository) CreditWithEntry(ctx context.Context, cardID uuid.UUID, uses int, entry *entity.PunchCardUsageEntry) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin credit tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Credits are capped at total_uses and reactivate an exhausted card.
	update := `
		UPDATE punch_cards
		SET remaining_uses = LEAST(total_uses, remaining_uses + $2),
		    status = CASE WHEN status = 'exhausted' THEN 'active' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING remaining_uses
	`

	var remaining int
	err = tx.QueryRow(ctx, update, cardID, uses).Scan(&remaining)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		r.log.Error("Failed to credit punch card",
			zap.Error(err),
			zap.String("card_id", cardID.String()),
			zap.Int("uses", uses),
		)
		return false, fmt.Errorf("credit %d uses to card %s: %w", uses, cardID.String(), err)
	}

	entry.BalanceAfter = remaining
	if err := insertUsageEntry(ctx, tx, entry); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit credit tx: %w", err)
	}

	return true, nil
}

func insertUsageEntry(ctx context.Context, tx pgx.Tx, entry *entity.PunchCardUsageEntry) error {
	query := `
		INSERT INTO punch_card_usage_entries (id, card_id, booking_id, kind, uses, balance_after, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(ctx, query,
		entry.ID,
		entry.CardID,
		entry.BookingID,
		entry.Kind,
		entry.Uses,
		entry.BalanceAfter,
		entry.Reason,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append usage entry for card %s: %w", entry.CardID.String(), err)
	}

	return nil
}
