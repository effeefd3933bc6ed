package usecase

import (
	"context"
	"encoding/json"
	"time"

	"sauna-booking/internal/data/entity"
	"sauna-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outbox job kinds. Each maps to a notification template on the sink side.
const (
	JobBookingConfirmation = "booking_confirmation"
	JobBookingCancelled    = "booking_cancelled"
	JobBookingMoved        = "booking_moved"
	JobSeatsRemoved        = "booking_seats_removed"
	JobInvoiceReady        = "invoice_ready"
	JobSpotReleased        = "guest_spot_released"
	JobPointsAwarded       = "points_awarded"
	JobPunchCardPurchased  = "punch_card_purchased"
)

// Notifier delivers one queued job to the outside world (mail, push, ...).
type Notifier interface {
	Notify(ctx context.Context, kind string, payload json.RawMessage) error
}

// LogNotifier writes notifications to the log. Stands in until a real mail
// sink is wired up; delivery semantics (retry, parking) live in the
// dispatcher either way.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("notifier", "log"))}
}

func (n *LogNotifier) Notify(_ context.Context, kind string, payload json.RawMessage) error {
	n.log.Info("Notification sent",
		zap.String("kind", kind),
		zap.ByteString("payload", payload),
	)
	return nil
}

// EnqueueJob records a notification side effect for the dispatcher. Called
// only after the ledger change it describes has committed; an enqueue failure
// is logged and swallowed so it never rolls back a settled booking.
func EnqueueJob(ctx context.Context, outbox repository.OutboxRepository, log *zap.Logger, kind string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error("Failed to marshal outbox payload", zap.Error(err), zap.String("kind", kind))
		return
	}

	now := time.Now()
	job := &entity.OutboxJob{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Kind:         kind,
		Payload:      raw,
		Status:       entity.OutboxStatusPending,
	}

	if err := outbox.Enqueue(ctx, job); err != nil {
		log.Error("Failed to enqueue outbox job", zap.Error(err), zap.String("kind", kind))
	}
}

// OutboxDispatcher polls pending jobs and hands them to the notifier.
type OutboxDispatcher struct {
	outbox      repository.OutboxRepository
	notifier    Notifier
	interval    time.Duration
	batchSize   int
	maxAttempts int
	log         *zap.Logger
}

func NewOutboxDispatcher(outbox repository.OutboxRepository, notifier Notifier, interval time.Duration, batchSize, maxAttempts int, log *zap.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{
		outbox:      outbox,
		notifier:    notifier,
		interval:    interval,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		log:         log.With(zap.String("service", "outbox_dispatcher")),
	}
}

// Run polls until the context is cancelled.
func (d *OutboxDispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Info("Outbox dispatcher started", zap.Duration("interval", d.interval))

	for {
		select {
		case <-ctx.Done():
			d.log.Info("Outbox dispatcher stopped")
			return
		case <-ticker.C:
			if err := d.Dispatch(ctx); err != nil {
				d.log.Error("Outbox dispatch pass failed", zap.Error(err))
			}
		}
	}
}

// Dispatch delivers one batch of pending jobs. Failures bump the attempt
// counter; the repository parks jobs that exceed maxAttempts.
func (d *OutboxDispatcher) Dispatch(ctx context.Context) error {
	jobs, err := d.outbox.FetchPending(ctx, d.batchSize)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if err := d.notifier.Notify(ctx, job.Kind, job.Payload); err != nil {
			d.log.Warn("Notification delivery failed",
				zap.Error(err),
				zap.String("job_id", job.ID.String()),
				zap.String("kind", job.Kind),
				zap.Int("attempts", job.Attempts+1),
			)
			if markErr := d.outbox.MarkFailed(ctx, job.ID, err.Error(), d.maxAttempts); markErr != nil {
				d.log.Error("Failed to mark outbox job failed", zap.Error(markErr), zap.String("job_id", job.ID.String()))
			}
			continue
		}

		if err := d.outbox.MarkSent(ctx, job.ID); err != nil {
			d.log.Error("Failed to mark outbox job sent", zap.Error(err), zap.String("job_id", job.ID.String()))
		}
	}

	return nil
}
