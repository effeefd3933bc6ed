package entity

import (
	"encoding/json"
	"time"
)

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// OutboxJob is a queued notification side effect. Jobs are enqueued after
// the ledger change they describe has committed and are delivered by the
// dispatcher; delivery failures are retried, never rolled back against the
// ledger.
type OutboxJob struct {
	BaseNoDelete
	Kind      string          `db:"kind"` // notification template name
	Payload   json.RawMessage `db:"payload"`
	Status    OutboxStatus    `db:"status"`
	Attempts  int             `db:"attempts"`
	LastError *string         `db:"last_error"`
	SentAt    *time.Time      `db:"sent_at"`
}
