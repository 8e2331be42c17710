package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/p-n-ai/pai-aps/internal/advisor"
	"github.com/p-n-ai/pai-aps/internal/catalog"
	"github.com/p-n-ai/pai-aps/internal/cli"
	"github.com/p-n-ai/pai-aps/internal/cli/formatter"
	"github.com/p-n-ai/pai-aps/internal/platform/config"
	"github.com/p-n-ai/pai-aps/internal/platform/database"
	"github.com/p-n-ai/pai-aps/internal/requirement"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, formatter.StyleRed.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	app, closeApp, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeApp()

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

// newApp builds the engine over the configured catalog. A missing YAML
// catalog directory leaves the engine with an empty catalog so scoring
// commands still work.
func newApp(ctx context.Context, cfg *config.Config) (*cli.App, func(), error) {
	matcher, err := requirement.MatcherFor(cfg.MatchMode)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {}
	var src catalog.Source
	switch cfg.Catalog.Source {
	case config.CatalogPostgres:
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, nil, err
		}
		pg, err := catalog.NewPostgresSource(db.Pool)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		src, closeFn = pg, db.Close
	default:
		loader, err := catalog.NewLoader(cfg.Catalog.Path)
		if err != nil {
			slog.Debug("no catalog loaded", "path", cfg.Catalog.Path, "error", err)
			src = catalog.NewMemorySource()
		} else {
			src = loader
		}
	}

	app := &cli.App{
		Engine: advisor.NewEngine(advisor.EngineConfig{Catalog: src, Matcher: matcher}),
	}
	if cfg.Database.URL != "" {
		app.Import = func(ctx context.Context, insts []catalog.Institution) error {
			return importCatalog(ctx, cfg.Database, insts)
		}
	}
	return app, closeFn, nil
}

// importCatalog migrates the database and replaces the catalog rows for insts.
func importCatalog(ctx context.Context, cfg config.DatabaseConfig, insts []catalog.Institution) error {
	db, err := database.New(ctx, cfg.URL, cfg.MaxConns, cfg.MinConns)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	return catalog.Seed(ctx, db.Pool, insts)
}
