// Command factsexplorer serves the Ansible facts explorer API.
//
// Usage:
//
//	factsexplorer -config explorer.yaml
//	factsexplorer -listen :9090 -source demo
//
// All settings can also come from the environment (LISTEN_ADDR, FACT_SOURCE,
// AWX_URL, AWX_TOKEN, CACHE_DSN, LLM_URL, ...); flags win over both.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kmkamyk/Ansible-Facts-Explorer/config"
	"github.com/kmkamyk/Ansible-Facts-Explorer/dbopen"
	"github.com/kmkamyk/Ansible-Facts-Explorer/guard"
	"github.com/kmkamyk/Ansible-Facts-Explorer/loader"
	"github.com/kmkamyk/Ansible-Facts-Explorer/nlfilter"
	"github.com/kmkamyk/Ansible-Facts-Explorer/observability"
	"github.com/kmkamyk/Ansible-Facts-Explorer/server"
)

func main() {
	configPath := flag.String("config", "", "path to explorer YAML config file")
	listen := flag.String("listen", "", "listen address (overrides config)")
	source := flag.String("source", "", "initial fact source: awx, db or demo (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *source != "" {
		cfg.Source = *source
	}

	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("factsexplorer: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	db, err := dbopen.Open(filepath.Join(cfg.DataDir, "explorer.db"),
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(observability.Schema),
		dbopen.WithSchema(guard.RateLimitSchema),
	)
	if err != nil {
		return fmt.Errorf("open explorer db: %w", err)
	}
	defer db.Close()

	metrics := observability.NewMetricsWriter(db, 256, 10*time.Second)
	defer metrics.Close()
	events := observability.NewEventLogger(db)

	loaders := buildLoaders(cfg, logger)

	var translator *nlfilter.Translator
	if cfg.LLM.URL != "" {
		translator = nlfilter.New(cfg.LLM.URL, cfg.LLM.Model,
			nlfilter.WithTimeout(cfg.LLM.Timeout),
			nlfilter.WithLogger(logger),
		)
	}

	srv := server.New(server.Config{
		Loaders:    loaders,
		Translator: translator,
		Events:     events,
		Metrics:    metrics,
		ListName:   cfg.Export.ListName,
		PivotName:  cfg.Export.PivotName,
		Logger:     logger,
	})

	// A failed initial load is not fatal: the server comes up with an empty
	// snapshot and POST /api/reload can retry once the upstream recovers.
	if err := srv.Reload(ctx, cfg.Source); err != nil {
		logger.Warn("initial load failed", "source", cfg.Source, "error", err)
	}

	limiter := guard.NewRateLimiter(db, "/healthz")
	limiter.StartReloader(ctx.Done())

	handler := guard.RequestID(
		guard.SecurityHeaders(guard.DefaultHeaders())(
			guard.MaxBody(1 << 20)(
				limiter.Middleware(srv.Handler()))))

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen, "source", cfg.Source)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// buildLoaders registers every source the configuration makes reachable.
// The demo fixture is always present so a bare binary has data to show.
func buildLoaders(cfg *config.Config, logger *slog.Logger) map[string]loader.Loader {
	loaders := map[string]loader.Loader{
		"demo": loader.DemoLoader{},
	}

	if cfg.AWX.URL != "" {
		loaders["awx"] = loader.NewAWXLoader(cfg.AWX.URL, cfg.AWX.Token,
			loader.WithAWXPageSize(cfg.AWX.PageSize),
			loader.WithAWXTimeout(cfg.AWX.Timeout),
			loader.WithAWXLogger(logger),
		)
	}

	if cfg.Cache.DSN != "" {
		cache, err := loader.OpenCache(cfg.Cache.Driver, cfg.Cache.DSN, cfg.Cache.Table)
		if err != nil {
			logger.Warn("fact cache unavailable", "driver", cfg.Cache.Driver, "error", err)
		} else {
			loaders["db"] = cache
		}
	}

	return loaders
}
