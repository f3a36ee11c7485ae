// Package server exposes the fact-search engine over HTTP. The engine
// itself is pure; this package owns the mutable pieces (current snapshot,
// per-request filter state decoded from query parameters) and threads them
// through the engine's stateless functions.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kmkamyk/Ansible-Facts-Explorer/facts"
	"github.com/kmkamyk/Ansible-Facts-Explorer/loader"
	"github.com/kmkamyk/Ansible-Facts-Explorer/nlfilter"
	"github.com/kmkamyk/Ansible-Facts-Explorer/observability"
)

// Config wires the server's collaborators. Loaders is keyed by source name
// ("awx", "db", "demo"); Translator, Events and Metrics may be nil, in
// which case the corresponding endpoints degrade (501 for NL filtering,
// silent no-op for observability).
type Config struct {
	Loaders    map[string]loader.Loader
	Translator *nlfilter.Translator
	Events     *observability.EventLogger
	Metrics    *observability.MetricsWriter
	ListName   string
	PivotName  string
	Logger     *slog.Logger
}

// Server holds the current snapshot and serves the explorer API.
type Server struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.RWMutex
	snap *facts.Snapshot
}

// New creates a Server with an empty snapshot. Call Reload (or POST
// /api/reload) to populate it.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ListName == "" {
		cfg.ListName = "facts"
	}
	if cfg.PivotName == "" {
		cfg.PivotName = "facts_by_host"
	}
	return &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		snap:   facts.BuildSnapshot(nil),
	}
}

// Reload fetches a fresh snapshot from the named source and swaps it in
// wholesale. The old snapshot stays visible to in-flight requests; rows are
// never mutated, only replaced.
func (s *Server) Reload(ctx context.Context, source string) error {
	l, ok := s.cfg.Loaders[source]
	if !ok {
		return fmt.Errorf("unknown source %q", source)
	}

	start := time.Now()
	hosts, err := l.Load(ctx)
	if err != nil {
		s.event(ctx, observability.Event{Type: observability.EventSnapshotLoaded, Entity: source})
		return fmt.Errorf("load %s: %w", source, err)
	}
	snap := facts.BuildSnapshot(hosts)

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.logger.Info("snapshot loaded",
		"source", source,
		"hosts", snap.HostCount(),
		"rows", len(snap.Rows()),
		"duration", time.Since(start))
	s.metric(observability.MetricSnapshotHosts, float64(snap.HostCount()), "count")
	s.metric(observability.MetricSnapshotRows, float64(len(snap.Rows())), "count")
	s.event(ctx, observability.Event{
		Type:    observability.EventSnapshotLoaded,
		Entity:  source,
		Details: fmt.Sprintf(`{"hosts":%d,"rows":%d}`, snap.HostCount(), len(snap.Rows())),
		Success: true,
	})
	return nil
}

// Snapshot returns the currently loaded snapshot.
func (s *Server) Snapshot() *facts.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Handler builds the API router. Middleware (guard package) is applied by
// the caller so tests can exercise handlers bare.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/facts", s.handleFacts)
		r.Get("/paths", s.handlePaths)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/export", s.handleExport)
		r.Post("/reload", s.handleReload)
		r.Post("/nl-filter", s.handleNLFilter)
	})
	return r
}

func (s *Server) metric(name string, value float64, unit string) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordValue(name, value, unit)
	}
}

func (s *Server) event(ctx context.Context, e observability.Event) {
	if s.cfg.Events != nil {
		s.cfg.Events.Log(ctx, e)
	}
}
