package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kmkamyk/Ansible-Facts-Explorer/export"
	"github.com/kmkamyk/Ansible-Facts-Explorer/facts"
	"github.com/kmkamyk/Ansible-Facts-Explorer/guard"
	"github.com/kmkamyk/Ansible-Facts-Explorer/observability"
)

// filterParams is the per-request engine state decoded from the query
// string. Pills repeat as ?pill=...&pill=...; columns is a comma-separated
// whitelist of visible paths (empty means all).
type filterParams struct {
	pills   []string
	live    string
	visible map[string]bool
	sortKey string
	desc    bool
	view    string // list | pivot
}

func parseFilterParams(r *http.Request) filterParams {
	q := r.URL.Query()
	p := filterParams{
		pills:   q["pill"],
		live:    strings.TrimSpace(q.Get("q")),
		sortKey: q.Get("sort"),
		desc:    q.Get("dir") == "desc",
		view:    q.Get("view"),
	}
	if p.view == "" {
		p.view = "list"
	}
	if cols := strings.TrimSpace(q.Get("columns")); cols != "" {
		var paths []string
		for _, c := range strings.Split(cols, ",") {
			if c = strings.TrimSpace(c); c != "" {
				paths = append(paths, c)
			}
		}
		p.visible = facts.VisibleSet(paths)
	}
	return p
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFacts(w http.ResponseWriter, r *http.Request) {
	p := parseFilterParams(r)
	snap := s.Snapshot()

	start := time.Now()
	rows := facts.ApplyParallel(snap.Rows(), p.pills, p.live, p.visible)
	s.metric(observability.MetricFilterDurationMs, float64(time.Since(start).Milliseconds()), "milliseconds")
	s.metric(observability.MetricRowsScanned, float64(len(snap.Rows())), "count")
	s.metric(observability.MetricRowsMatched, float64(len(rows)), "count")

	switch p.view {
	case "pivot":
		pivot := facts.BuildPivot(rows)
		records := pivot.Records
		if p.sortKey != "" {
			records = facts.SortPivot(records, p.sortKey, p.desc)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"view":    "pivot",
			"headers": pivot.Headers,
			"records": records,
			"total":   len(records),
		})
	case "list":
		if p.sortKey != "" {
			rows = facts.SortRows(rows, p.sortKey, p.desc)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"view":  "list",
			"rows":  rows,
			"total": len(rows),
		})
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown view %q", p.view))
	}
}

func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"paths": s.Snapshot().Paths()})
}

// handleDashboard reports summary statistics over all facts of hosts that
// match the current filters, deliberately ignoring column visibility.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p := parseFilterParams(r)
	snap := s.Snapshot()

	rows := facts.DashboardRows(snap.Rows(), p.pills, p.live)
	hosts := make(map[string]bool)
	factCount := 0
	for _, row := range rows {
		hosts[row.Host] = true
		if !row.Sentinel() {
			factCount++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalHosts":    snap.HostCount(),
		"matchingHosts": len(hosts),
		"matchingFacts": factCount,
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		source = s.defaultSource()
	}
	if err := s.Reload(r.Context(), source); err != nil {
		guard.Logger(r.Context()).Error("reload failed", "source", source, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	snap := s.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"source": source,
		"hosts":  snap.HostCount(),
		"rows":   len(snap.Rows()),
	})
}

func (s *Server) defaultSource() string {
	if _, ok := s.cfg.Loaders["demo"]; ok {
		return "demo"
	}
	for name := range s.cfg.Loaders {
		return name
	}
	return ""
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	p := parseFilterParams(r)
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	snap := s.Snapshot()
	rows := facts.Apply(snap.Rows(), p.pills, p.live, p.visible)

	var proj export.Projection
	switch p.view {
	case "pivot":
		records := facts.BuildPivot(rows)
		if p.sortKey != "" {
			records.Records = facts.SortPivot(records.Records, p.sortKey, p.desc)
		}
		proj = export.PivotProjection(s.cfg.PivotName, records)
	case "list":
		if p.sortKey != "" {
			rows = facts.SortRows(rows, p.sortKey, p.desc)
		}
		proj = export.ListProjection(s.cfg.ListName, rows)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown view %q", p.view))
		return
	}

	var buf bytes.Buffer
	var contentType, ext string
	var err error
	switch format {
	case "csv":
		contentType, ext = "text/csv", "csv"
		err = export.WriteCSV(&buf, proj)
	case "xlsx":
		contentType, ext = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"
		err = export.WriteXLSX(&buf, proj)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
		return
	}
	if errors.Is(err, export.ErrNoData) {
		// Nothing to export is an inert affordance, not a failure.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		guard.Logger(r.Context()).Error("export failed", "format", format, "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	s.metric(observability.MetricExportBytes, float64(buf.Len()), "bytes")
	s.event(r.Context(), observability.Event{
		Type:    observability.EventExport,
		Entity:  format,
		Details: fmt.Sprintf(`{"view":%q,"records":%d}`, p.view, len(proj.Records)),
		Success: true,
	})

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s.%s", proj.Name, ext))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleNLFilter(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Translator == nil {
		writeError(w, http.StatusNotImplemented, "NL filtering is not configured")
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	start := time.Now()
	pills, err := s.cfg.Translator.Translate(r.Context(), req.Query, s.Snapshot().Paths())
	s.metric(observability.MetricTranslateMs, float64(time.Since(start).Milliseconds()), "milliseconds")
	if err != nil {
		guard.Logger(r.Context()).Error("nl translate failed", "error", err)
		s.event(r.Context(), observability.Event{Type: observability.EventNLTranslate})
		writeError(w, http.StatusBadGateway, "translation failed")
		return
	}

	s.event(r.Context(), observability.Event{
		Type:    observability.EventNLTranslate,
		Details: fmt.Sprintf(`{"pills":%d}`, len(pills)),
		Success: true,
	})
	writeJSON(w, http.StatusOK, map[string]any{"pills": pills})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
