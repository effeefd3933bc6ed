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

type ThemeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Theme, error)
	FindAllActive(ctx context.Context) ([]*entity.Theme, error)
}

type themeRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewThemeRepository(db database.PgxIface, log *zap.Logger) ThemeRepository {
	return &themeRepository{
		db:  db,
		log: log.With(zap.String("repository", "theme")),
	}
}

func (r *themeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Theme, error) {
	query := `
		SELECT id, name, description, price_per_seat, minimum_seats, is_active, created_at, updated_at
		FROM themes
		WHERE id = $1
	`

	var theme entity.Theme
	err := r.db.QueryRow(ctx, query, id).Scan(
		&theme.ID,
		&theme.Name,
		&theme.Description,
		&theme.PricePerSeat,
		&theme.MinimumSeats,
		&theme.IsActive,
		&theme.CreatedAt,
		&theme.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find theme by ID",
			zap.Error(err),
			zap.String("theme_id", id.String()),
		)
		return nil, fmt.Errorf("find theme by ID %s: %w", id.String(), err)
	}

	return &theme, nil
}

func (r *themeRepository) FindAllActive(ctx context.Context) ([]*entity.Theme, error) {
	query := `
		SELECT id, name, description, price_per_seat, minimum_seats, is_active, created_at, updated_at
		FROM themes
		WHERE is_active = true
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to find active themes", zap.Error(err))
		return nil, fmt.Errorf("find active themes: %w", err)
	}
	defer rows.Close()

	var themes []*entity.Theme
	for rows.Next() {
		var theme entity.Theme
		err := rows.Scan(
			&theme.ID,
			&theme.Name,
			&theme.Description,
			&theme.PricePerSeat,
			&theme.MinimumSeats,
			&theme.IsActive,
			&theme.CreatedAt,
			&theme.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan theme row", zap.Error(err))
			return nil, fmt.Errorf("scan theme row: %w", err)
		}
		themes = append(themes, &theme)
	}

	return themes, nil
}
