package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/realty/internal/api"
	"github.com/mtlprog/realty/internal/chart"
	"github.com/mtlprog/realty/internal/config"
	"github.com/mtlprog/realty/internal/database"
	"github.com/mtlprog/realty/internal/domain"
	"github.com/mtlprog/realty/internal/export"
	"github.com/mtlprog/realty/internal/ingest"
	"github.com/mtlprog/realty/internal/normalize"
	"github.com/mtlprog/realty/internal/render"
	"github.com/mtlprog/realty/internal/series"
	"github.com/mtlprog/realty/internal/source"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	app := &cli.App{
		Name:   "realty",
		Usage:  "apartment complex price snapshots: ingest, compare, chart",
		Action: func(c *cli.Context) error { return serve(c.Context, cfg) },
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "ingest all snapshots and serve the HTTP API",
				Action: func(c *cli.Context) error { return serve(c.Context, cfg) },
			},
			{
				Name:   "ingest",
				Usage:  "run one ingestion cycle and print the result",
				Action: func(c *cli.Context) error { return ingestOnce(c.Context, cfg) },
			},
			{
				Name:  "chart",
				Usage: "render one metric for the given complexes as a PNG",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "metric", Value: string(domain.MetricUnitPrice), Usage: "metric to chart"},
					&cli.StringSliceFlag{Name: "complex", Aliases: []string{"c"}, Usage: "complex name, repeatable", Required: true},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default <metric>.png)"},
				},
				Action: func(c *cli.Context) error {
					return renderChart(c.Context, cfg, c.String("metric"), c.StringSlice("complex"), c.String("out"))
				},
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatalf("realty: %v", err)
	}
}

// pipeline is the wired ingestion chain shared by all commands.
type pipeline struct {
	store   *series.Store
	ingest  *ingest.Service
	cleanup func()
}

func newPipeline(ctx context.Context, cfg config.Config) (*pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mapping, err := config.LoadColumnMapping(cfg.ColumnMappingFile)
	if err != nil {
		return nil, err
	}

	reader, cleanup, err := newReader(ctx, cfg)
	if err != nil {
		return nil, err
	}

	hook, err := newExportHook(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, err
	}

	store := series.NewStore()
	svc := ingest.NewService(ingest.Options{
		Reader:      reader,
		Store:       store,
		Mapping:     mapping,
		SnapshotIDs: cfg.SnapshotIDs,
		Concurrency: cfg.FetchConcurrency,
		Hook:        hook,
	})
	return &pipeline{store: store, ingest: svc, cleanup: cleanup}, nil
}

func newReader(ctx context.Context, cfg config.Config) (source.Reader, func(), error) {
	noop := func() {}

	switch cfg.SourceKind {
	case config.SourceGviz:
		return source.NewGvizReader(cfg.GvizURL, cfg.SpreadsheetID, cfg.SourceRetryMax, cfg.SourceRetryBaseDelay), noop, nil
	case config.SourceSheets:
		r, err := source.NewSheetsReader(ctx, cfg.SpreadsheetID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return nil, nil, err
		}
		return r, noop, nil
	case config.SourceWorkbook:
		return source.NewWorkbookReader(cfg.WorkbookPath), noop, nil
	case config.SourcePostgres:
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if cfg.OwnsSourceTable() {
			migrationsSub, err := fs.Sub(migrationsFS, "migrations")
			if err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("creating migrations sub-fs: %w", err)
			}
			if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("running migrations: %w", err)
			}
		} else {
			slog.Info("custom SOURCE_TABLE, skipping migrations", "table", cfg.SourceTable)
		}
		return source.NewPgReader(pool, cfg.SourceTable), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", cfg.SourceKind)
	}
}

// newExportHook returns nil when export is disabled.
func newExportHook(ctx context.Context, cfg config.Config) (ingest.AfterIngestHook, error) {
	switch cfg.ExportKind {
	case config.ExportSheets:
		w, err := export.NewSheetsWriter(ctx, cfg.ExportSpreadsheetID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return nil, err
		}
		return export.NewService(w), nil
	case config.ExportWorkbook:
		return export.NewService(export.NewWorkbookWriter(cfg.ExportPath)), nil
	default:
		return nil, nil
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.cleanup()

	renderer, err := render.NewRenderer(cfg.ChartFontPath)
	if err != nil {
		return err
	}

	if _, err := p.ingest.Run(ctx); err != nil {
		slog.Error("initial ingestion failed, serving without data", "error", err)
	}

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, ingest endpoint is unprotected")
	}

	srv := api.NewServer(cfg.HTTPPort, p.ingest, p.store, renderer, cfg.AdminAPIKey)

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}

func ingestOnce(ctx context.Context, cfg config.Config) error {
	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.cleanup()

	result, err := p.ingest.Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func renderChart(ctx context.Context, cfg config.Config, metricName string, names []string, out string) error {
	m, err := domain.ParseMetric(metricName)
	if err != nil {
		return err
	}
	if out == "" {
		out = string(m) + ".png"
	}

	renderer, err := render.NewRenderer(cfg.ChartFontPath)
	if err != nil {
		return err
	}

	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.cleanup()

	if _, err := p.ingest.Run(ctx); err != nil {
		return err
	}

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = normalize.CanonicalKey(n)
	}
	s, err := chart.NewProjector(p.store).Project(m, keys)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := renderer.PNG(f, chart.Chart{Metric: m, Series: s, NoData: len(s) == 0}); err != nil {
		f.Close()
		os.Remove(out)
		return fmt.Errorf("rendering %s chart: %w", m, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	slog.Info("chart written", "metric", m, "series", len(s), "file", out)
	return nil
}
