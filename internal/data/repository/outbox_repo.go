package repository

import (
	"context"
	"fmt"

	"sauna-booking/internal/data/entity"
	"sauna-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, job *entity.OutboxJob) error
	// FetchPending claims up to limit pending jobs, skipping rows locked by
	// a concurrent dispatcher.
	FetchPending(ctx context.Context, limit int) ([]*entity.OutboxJob, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	// MarkFailed bumps the attempt counter; jobs past maxAttempts are parked
	// as failed instead of retried forever.
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, maxAttempts int) error
}

type outboxRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewOutboxRepository(db database.PgxIface, log *zap.Logger) OutboxRepository {
	return &outboxRepository{
		db:  db,
		log: log.With(zap.String("repository", "outbox")),
	}
}

func (r *outboxRepository) Enqueue(ctx context.Context, job *entity.OutboxJob) error {
	query := `
		INSERT INTO outbox_jobs (id, kind, payload, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		job.ID,
		job.Kind,
		job.Payload,
		job.Status,
		job.Attempts,
		job.CreatedAt,
		job.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to enqueue outbox job",
			zap.Error(err),
			zap.String("kind", job.Kind),
		)
		return fmt.Errorf("enqueue outbox job %s: %w", job.Kind, err)
	}

	return nil
}

func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]*entity.OutboxJob, error) {
	query := `
		SELECT id, kind, payload, status, attempts, last_error, sent_at, created_at, updated_at
		FROM outbox_jobs
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.log.Error("Failed to fetch pending outbox jobs", zap.Error(err))
		return nil, fmt.Errorf("fetch pending outbox jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*entity.OutboxJob
	for rows.Next() {
		var job entity.OutboxJob
		err := rows.Scan(
			&job.ID,
			&job.Kind,
			&job.Payload,
			&job.Status,
			&job.Attempts,
			&job.LastError,
			&job.SentAt,
			&job.CreatedAt,
			&job.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan outbox job row", zap.Error(err))
			return nil, fmt.Errorf("scan outbox job row: %w", err)
		}
		jobs = append(jobs, &job)
	}

	return jobs, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE outbox_jobs
		SET status = 'sent', sent_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		r.log.Error("Failed to mark outbox job sent",
			zap.Error(err),
			zap.String("job_id", id.String()),
		)
		return fmt.Errorf("mark outbox job %s sent: %w", id.String(), err)
	}

	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, maxAttempts int) error {
	query := `
		UPDATE outbox_jobs
		SET attempts = attempts + 1,
		    last_error = $2,
		    status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END,
		    updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Exec(ctx, query, id, errMsg, maxAttempts); err != nil {
		r.log.Error("Failed to mark outbox job failed",
			zap.Error(err),
			zap.String("job_id", id.String()),
		)
		return fmt.Errorf("mark outbox job %s failed: %w", id.String(), err)
	}

	return nil
}
