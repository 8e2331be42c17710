package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-aps/internal/advisor"
	"github.com/p-n-ai/pai-aps/internal/api"
	"github.com/p-n-ai/pai-aps/internal/catalog"
	"github.com/p-n-ai/pai-aps/internal/platform/cache"
	"github.com/p-n-ai/pai-aps/internal/platform/config"
	"github.com/p-n-ai/pai-aps/internal/platform/database"
	"github.com/p-n-ai/pai-aps/internal/requirement"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	d, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      d.handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "catalog", cfg.Catalog.Source, "match_mode", cfg.MatchMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}

// newLogger builds the process logger. Unknown levels fall back to info.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

type deps struct {
	handler *api.Handler
	closers []func()
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// setup connects the configured catalog and cache and builds the API handler.
// On error every connection opened so far is closed.
func setup(ctx context.Context, cfg *config.Config) (*deps, error) {
	d := &deps{}
	readiness := map[string]api.Checker{}

	var (
		src    catalog.Source
		events advisor.EventLogger
	)
	switch cfg.Catalog.Source {
	case config.CatalogPostgres:
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			d.close()
			return nil, err
		}
		pg, err := catalog.NewPostgresSource(db.Pool)
		if err != nil {
			d.close()
			return nil, err
		}
		src = pg
		events = advisor.NewPostgresEventLogger(db.Pool)
		readiness["database"] = db.HealthCheck
	default:
		loader, err := catalog.NewLoader(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		src = loader
	}

	matcher, err := requirement.MatcherFor(cfg.MatchMode)
	if err != nil {
		d.close()
		return nil, err
	}

	var limiter api.Limiter
	if cfg.RateLimitEnabled() {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			d.close()
			return nil, err
		}
		d.closers = append(d.closers, func() { c.Close() })
		limiter = c.PerMinuteLimiter(cfg.RateLimit.PerMinute)
		readiness["cache"] = c.HealthCheck
	}

	engine := advisor.NewEngine(advisor.EngineConfig{
		Catalog: src,
		Matcher: matcher,
		Events:  events,
	})
	d.handler = api.NewHandler(api.HandlerConfig{
		Engine:      engine,
		Limiter:     limiter,
		CORSOrigins: cfg.CORS.Origins,
		Readiness:   readiness,
	})
	return d, nil
}
