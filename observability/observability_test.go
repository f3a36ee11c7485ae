package observability

import (
	"context"
	"testing"
	"time"

	"github.com/kmkamyk/Ansible-Facts-Explorer/dbopen"
	_ "modernc.org/sqlite"
)

func TestMetricsWriterFlushOnClose(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))

	mw := NewMetricsWriter(db, 100, time.Hour) // flush only on close
	mw.RecordValue(MetricFilterDurationMs, 12.5, "milliseconds")
	mw.Record(Metric{
		Name:   MetricRowsMatched,
		Value:  42,
		Unit:   "count",
		Labels: map[string]string{"view": "pivot"},
	})
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM engine_metrics`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("persisted %d metrics, want 2", n)
	}

	var labels string
	err := db.QueryRow(`SELECT labels FROM engine_metrics WHERE metric_name = ?`, MetricRowsMatched).Scan(&labels)
	if err != nil {
		t.Fatal(err)
	}
	if labels != `{"view":"pivot"}` {
		t.Errorf("labels = %q", labels)
	}
}

func TestMetricsWriterFlushOnBufferFull(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))

	mw := NewMetricsWriter(db, 2, time.Hour)
	defer mw.Close()
	mw.RecordValue(MetricRowsScanned, 1, "count")
	mw.RecordValue(MetricRowsScanned, 2, "count")

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM engine_metrics`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("persisted %d metrics, want 2 (buffer-full flush)", n)
	}
}

func TestEventLogger(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))

	el := NewEventLogger(db)
	el.Log(context.Background(), Event{
		Type:    EventSnapshotLoaded,
		Entity:  "demo",
		Details: `{"hosts":3}`,
		Success: true,
	})

	var eventType, entity string
	var success int
	err := db.QueryRow(`SELECT event_type, entity, success FROM explorer_events`).Scan(&eventType, &entity, &success)
	if err != nil {
		t.Fatal(err)
	}
	if eventType != EventSnapshotLoaded || entity != "demo" || success != 1 {
		t.Errorf("got %q %q %d", eventType, entity, success)
	}
}
