// Package observability provides SQLite-native monitoring for the explorer:
// a buffered metrics writer for engine timings (filter pass duration, rows
// scanned, export sizes) and an event logger for domain events (snapshot
// reloads, exports, NL-filter translations).
//
// Everything persists to a dedicated observability database, separate from
// the fact cache to avoid write contention. All writes are async or
// fire-and-forget: a failing observability store never blocks a search.
package observability

import "database/sql"

// Schema is the DDL for the observability tables. Apply with Init or via
// dbopen.WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS engine_metrics (
    metric_id TEXT PRIMARY KEY DEFAULT ('met_' || hex(randomblob(16))),
    metric_name TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    value REAL NOT NULL,
    labels TEXT,
    unit TEXT,
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_engine_metrics_name_time
    ON engine_metrics(metric_name, timestamp DESC);

CREATE TABLE IF NOT EXISTS explorer_events (
    event_id TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,
    entity TEXT,
    details TEXT,
    success INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_explorer_events_type
    ON explorer_events(event_type, created_at DESC);
`

// Init applies the observability schema to db.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// Standard metric names recorded by the server.
const (
	MetricFilterDurationMs = "filter_duration_ms"
	MetricRowsScanned      = "rows_scanned"
	MetricRowsMatched      = "rows_matched"
	MetricSnapshotRows     = "snapshot_rows"
	MetricSnapshotHosts    = "snapshot_hosts"
	MetricExportBytes      = "export_bytes"
	MetricTranslateMs      = "nl_translate_duration_ms"
)

// Event types recorded by the server.
const (
	EventSnapshotLoaded = "snapshot_loaded"
	EventExport         = "export"
	EventNLTranslate    = "nl_translate"
)
