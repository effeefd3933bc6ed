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

type PunchCardTemplateRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.PunchCardTemplate, error)
	FindAllActive(ctx context.Context) ([]*entity.PunchCardTemplate, error)
}

type punchCardTemplateRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPunchCardTemplateRepository(db database.PgxIface, log *zap.Logger) PunchCardTemplateRepository {
	return &punchCardTemplateRepository{
		db:  db,
		log: log.With(zap.String("repository", "punch_card_template")),
	}
}

func (r *punchCardTemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PunchCardTemplate, error) {
	query := `
		SELECT id, name, total_uses, price, validity_months, valid_session_types, is_active, created_at, updated_at
		FROM punch_card_templates
		WHERE id = $1
	`

	var tpl entity.PunchCardTemplate
	err := r.db.QueryRow(ctx, query, id).Scan(
		&tpl.ID,
		&tpl.Name,
		&tpl.TotalUses,
		&tpl.Price,
		&tpl.ValidityMonths,
		&tpl.ValidSessionTypes,
		&tpl.IsActive,
		&tpl.CreatedAt,
		&tpl.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find punch card template",
			zap.Error(err),
			zap.String("template_id", id.String()),
		)
		return nil, fmt.Errorf("find punch card template %s: %w", id.String(), err)
	}

	return &tpl, nil
}

func (r *punchCardTemplateRepository) FindAllActive(ctx context.Context) ([]*entity.PunchCardTemplate, error) {
	query := `
		SELECT id, name, total_uses, price, validity_months, valid_session_types, is_active, created_at, updated_at
		FROM punch_card_templates
		WHERE is_active = true
		ORDER BY price
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to find active punch card templates", zap.Error(err))
		return nil, fmt.Errorf("find active punch card templates: %w", err)
	}
	defer rows.Close()

	var templates []*entity.PunchCardTemplate
	for rows.Next() {
		var tpl entity.PunchCardTemplate
		err := rows.Scan(
			&tpl.ID,
			&tpl.Name,
			&tpl.TotalUses,
			&tpl.Price,
			&tpl.ValidityMonths,
			&tpl.ValidSessionTypes,
			&tpl.IsActive,
			&tpl.CreatedAt,
			&tpl.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan punch card template row", zap.Error(err))
			return nil, fmt.Errorf("scan punch card template row: %w", err)
		}
		templates = append(templates, &tpl)
	}

	return templates, nil
}
