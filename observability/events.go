package observability

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/kmkamyk/Ansible-Facts-Explorer/idgen"
)

// Event is a domain-level occurrence worth an audit row: a snapshot reload,
// an export download, an NL-filter translation.
type Event struct {
	Type    string
	Entity  string // e.g. the loader name or export format
	Details string // optional JSON
	Success bool
}

// EventLogger writes explorer events to the observability database.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
}

// NewEventLogger creates a logger backed by the observability database.
func NewEventLogger(db *sql.DB) *EventLogger {
	return &EventLogger{db: db, newID: idgen.Prefixed("evt_", idgen.Default)}
}

// Log records an event. Errors are logged via slog but never propagate, so
// a failing observability store cannot break a request.
func (l *EventLogger) Log(ctx context.Context, e Event) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO explorer_events (event_id, event_type, entity, details, success)
		VALUES (?,?,?,?,?)`,
		l.newID(), e.Type, e.Entity, e.Details, e.Success)
	if err != nil {
		slog.Error("event log failed", "error", err, "event_type", e.Type)
	}
}
