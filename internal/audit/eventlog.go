package audit

import (
	"context"
	"database/sql"
	"time"
)

// Event types appended by the attempt engine.
const (
	TypeAttemptSubmitted = "attempt.submitted"
	TypeSessionStarted   = "session.started"
)

type Event struct {
	Seq       int64
	Type      string
	Key       string // natural key: attempt id or test|user pair
	DataJSON  string
	CreatedAt int64
}

// EventRepo appends to the append-only event_log table. Rows are never
// updated or deleted by the engine.
type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}
