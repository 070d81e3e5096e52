// Package audit persists a trail of edit session activity to Postgres.
// The trail is optional: a Recorder built without a pool swallows events
// so callers never need to branch on whether auditing is configured.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Actions recorded against an edit session.
const (
	ActionSessionStarted   = "session.started"
	ActionSessionSaved     = "session.saved"
	ActionSessionDiscarded = "session.discarded"
	ActionSessionReset     = "session.reset"
)

// Event represents a row stored in audit_events. RequestID ties the event
// back to the HTTP request that caused it.
type Event struct {
	RequestID string
	Action    string
	SessionID string
	OrderID   int64
	Meta      map[string]any
	At        time.Time
}

// Recorder writes events into audit_events.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder returns a new Recorder. A nil pool disables recording.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Enabled reports whether events are actually persisted.
func (r *Recorder) Enabled() bool {
	return r != nil && r.pool != nil
}

// Record persists the event. It is a no-op when the recorder is disabled.
func (r *Recorder) Record(ctx context.Context, ev Event) error {
	if !r.Enabled() {
		return nil
	}
	if ev.Action == "" || ev.SessionID == "" {
		return errors.New("audit event requires action/session_id")
	}
	metaJSON, err := json.Marshal(ev.Meta)
	if err != nil {
		return err
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO audit_events (request_id, action, session_id, order_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, $6)`, ev.RequestID, ev.Action, ev.SessionID, ev.OrderID, metaJSON, ev.At)
	return err
}
