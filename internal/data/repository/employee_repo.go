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

type EmployeeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Employee, error)
	// AwardPoints increments the employee's balance and logs a history
	// entry, deduplicated on (employee, session, reason) inside one
	// transaction. A replayed award reports false and changes nothing.
	AwardPoints(ctx context.Context, employeeID uuid.UUID, points int, reason string, sessionID *uuid.UUID) (bool, error)
}

type employeeRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewEmployeeRepository(db database.PgxIface, log *zap.Logger) EmployeeRepository {
	return &employeeRepository{
		db:  db,
		log: log.With(zap.String("repository", "employee")),
	}
}

func (r *employeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Employee, error) {
	query := `
		SELECT id, name, email, release_after_hours, points, created_at, updated_at
		FROM employees
		WHERE id = $1
	`

	var emp entity.Employee
	err := r.db.QueryRow(ctx, query, id).Scan(
		&emp.ID,
		&emp.Name,
		&emp.Email,
		&emp.ReleaseAfterHours,
		&emp.Points,
		&emp.CreatedAt,
		&emp.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find employee by ID",
			zap.Error(err),
			zap.String("employee_id", id.String()),
		)
		return nil, fmt.Errorf("find employee by ID %s: %w", id.String(), err)
	}

	return &emp, nil
}

func (r *employeeRepository) AwardPoints(ctx context.Context, employeeID uuid.UUID, points int, reason string, sessionID *uuid.UUID) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin award points tx: %w", err)
	}
	defer tx.Rollback(ctx)

	exists := `
		SELECT EXISTS (
			SELECT 1 FROM employee_points_history
			WHERE employee_id = $1 AND reason = $2 AND session_id IS NOT DISTINCT FROM $3
		)
	`

	var alreadyAwarded bool
	if err := tx.QueryRow(ctx, exists, employeeID, reason, sessionID).Scan(&alreadyAwarded); err != nil {
		return false, fmt.Errorf("check prior points award for %s: %w", employeeID.String(), err)
	}
	if alreadyAwarded {
		return false, nil
	}

	increment := `UPDATE employees SET points = points + $2, updated_at = NOW() WHERE id = $1`
	result, err := tx.Exec(ctx, increment, employeeID, points)
	if err != nil {
		r.log.Error("Failed to increment employee points",
			zap.Error(err),
			zap.String("employee_id", employeeID.String()),
			zap.Int("points", points),
		)
		return false, fmt.Errorf("increment points for %s: %w", employeeID.String(), err)
	}
	if result.RowsAffected() == 0 {
		return false, fmt.Errorf("employee %s not found", employeeID.String())
	}

	history := `
		INSERT INTO employee_points_history (id, employee_id, amount, reason, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.Exec(ctx, history, uuid.New(), employeeID, points, reason, sessionID, time.Now()); err != nil {
		return false, fmt.Errorf("log points history for %s: %w", employeeID.String(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit award points tx: %w", err)
	}

	return true, nil
}
