package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Metric is a single timeseries datapoint.
type Metric struct {
	Name      string
	Timestamp time.Time
	Value     float64
	Labels    map[string]string
	Unit      string // "milliseconds", "count", "bytes"
}

// MetricsWriter buffers metrics and flushes them to SQLite in batches so a
// burst of keystroke-driven filter passes costs one transaction, not one
// insert each.
type MetricsWriter struct {
	db            *sql.DB
	bufferSize    int
	flushInterval time.Duration
	mu            sync.Mutex
	buffer        []Metric
	stop          chan struct{}
	done          chan struct{}
}

// NewMetricsWriter starts a writer flushing every interval or whenever the
// buffer fills, whichever comes first.
func NewMetricsWriter(db *sql.DB, bufferSize int, flushInterval time.Duration) *MetricsWriter {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	mw := &MetricsWriter{
		db:            db,
		bufferSize:    bufferSize,
		flushInterval: flushInterval,
		buffer:        make([]Metric, 0, bufferSize),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go mw.flushLoop()
	return mw
}

// Record queues a metric for async persistence. Non-blocking.
func (mw *MetricsWriter) Record(m Metric) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.buffer = append(mw.buffer, m)
	if len(mw.buffer) >= mw.bufferSize {
		mw.flushLocked()
	}
}

// RecordValue is a convenience helper for metrics without labels.
func (mw *MetricsWriter) RecordValue(name string, value float64, unit string) {
	mw.Record(Metric{Name: name, Value: value, Unit: unit})
}

// Close flushes remaining metrics and stops the background goroutine.
func (mw *MetricsWriter) Close() error {
	close(mw.stop)
	<-mw.done
	return nil
}

func (mw *MetricsWriter) flushLoop() {
	defer close(mw.done)
	ticker := time.NewTicker(mw.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-mw.stop:
			mw.mu.Lock()
			mw.flushLocked()
			mw.mu.Unlock()
			return
		case <-ticker.C:
			mw.mu.Lock()
			mw.flushLocked()
			mw.mu.Unlock()
		}
	}
}

func (mw *MetricsWriter) flushLocked() {
	if len(mw.buffer) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := mw.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("metrics: begin tx", "error", err)
		mw.buffer = mw.buffer[:0] // drop rather than backpressure
		return
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO engine_metrics (metric_name, timestamp, value, labels, unit) VALUES (?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		slog.Error("metrics: prepare", "error", err)
		mw.buffer = mw.buffer[:0]
		return
	}
	defer stmt.Close()

	for _, m := range mw.buffer {
		var labels sql.NullString
		if len(m.Labels) > 0 {
			if b, err := json.Marshal(m.Labels); err == nil {
				labels = sql.NullString{String: string(b), Valid: true}
			}
		}
		if _, err := stmt.ExecContext(ctx, m.Name, m.Timestamp.Unix(), m.Value, labels, m.Unit); err != nil {
			slog.Error("metrics: insert", "error", err, "metric", m.Name)
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("metrics: commit", "error", err)
	}
	mw.buffer = mw.buffer[:0]
}
