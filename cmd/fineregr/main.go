// Package main fineregr API
// @title fineregr API
// @version 1.0
// @description Benchmark results across the history of a git repository
// @BasePath /
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/DjordjeVuckovic/fineregr/internal/apperr"
	"github.com/DjordjeVuckovic/fineregr/internal/bench/aggregate"
	"github.com/DjordjeVuckovic/fineregr/internal/bench/backend"
	"github.com/DjordjeVuckovic/fineregr/internal/bench/cache"
	"github.com/DjordjeVuckovic/fineregr/internal/bench/plot"
	"github.com/DjordjeVuckovic/fineregr/internal/bench/report"
	"github.com/DjordjeVuckovic/fineregr/internal/bench/sweep"
	"github.com/DjordjeVuckovic/fineregr/internal/config"
	"github.com/DjordjeVuckovic/fineregr/internal/export"
	"github.com/DjordjeVuckovic/fineregr/internal/server"
	"github.com/DjordjeVuckovic/fineregr/internal/shell"
	"github.com/DjordjeVuckovic/fineregr/internal/vcs"
	"github.com/DjordjeVuckovic/fineregr/pkg/config/env"
	pkgserver "github.com/DjordjeVuckovic/fineregr/pkg/server"
)

func main() {
	cli, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(newLogger(os.Stderr, cli.LogFormat, cli.LogLevel))

	if err := env.LoadDotEnv(cli.EnvFile); err != nil {
		slog.Error("Failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadFromFile(cli.ConfigPath)
	if err != nil {
		slog.Error("Failed to load config", "path", cli.ConfigPath, "error", err)
		var ve *apperr.ValidationError
		if errors.As(err, &ve) {
			os.Exit(2)
		}
		os.Exit(1)
	}

	a, err := newApp(cfg, cli)
	if err != nil {
		slog.Error("Failed to set up", "error", err)
		os.Exit(1)
	}

	if cli.Mode == modeServe {
		runServe(a)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cli.Mode {
	case modeSweep:
		err = a.sweep(ctx)
	case modePlot:
		err = a.plot(ctx)
	case modeExport:
		err = a.export(ctx)
	}
	if err != nil {
		slog.Error("fineregr failed", "mode", cli.Mode, "error", err)
		stop()
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.Config
	cli    cliConfig
	runner shell.Runner
	source vcs.Source
	store  *cache.Store
	agg    *aggregate.Aggregator
}

func newApp(cfg *config.Config, cli cliConfig) (*app, error) {
	runner := shell.NewLocal()
	source, err := vcs.New(vcs.Options{
		Kind:       vcs.Kind(cfg.VCS),
		Repository: cfg.Repository,
		Branch:     cfg.Branch,
		Dir:        cfg.RepoDir,
		Runner:     runner,
	})
	if err != nil {
		return nil, err
	}
	store := cache.New(cfg.OutputDir)
	return &app{
		cfg:    cfg,
		cli:    cli,
		runner: runner,
		source: source,
		store:  store,
		agg:    aggregate.New(store, source),
	}, nil
}

func (a *app) sweep(ctx context.Context) error {
	be := backend.NewHyperfine(a.runner, a.cfg.Backend.Command, a.cfg.Backend.Args)
	d := sweep.New(sweep.ConfigFrom(a.cfg), a.source, a.store, be, a.runner)
	if a.cfg.IncrementalPlot() {
		d.OnRecord(func(ctx context.Context) error {
			_, err := a.render(ctx)
			return err
		})
	}

	st, err := d.Run(ctx)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	slog.Info("Sweep completed", "measured", st.Measured, "failures", st.Failures, "hits", st.Hits)

	rows, err := a.render(ctx)
	if err != nil {
		return err
	}
	if err := a.summarise(rows); err != nil {
		return err
	}
	if a.cfg.Export.Postgres != nil || a.cfg.Export.Elasticsearch != nil {
		return a.exportRows(ctx, rows)
	}
	return nil
}

func (a *app) plot(ctx context.Context) error {
	rows, err := a.render(ctx)
	if err != nil {
		return err
	}
	return a.summarise(rows)
}

func (a *app) export(ctx context.Context) error {
	rows, err := a.agg.Aggregate(ctx)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	if a.cfg.Export.Postgres == nil && a.cfg.Export.Elasticsearch == nil {
		slog.Warn("No export sinks configured")
		return nil
	}
	return a.exportRows(ctx, rows)
}

// render aggregates the cache and rewrites the chart and its data.
func (a *app) render(ctx context.Context) ([]aggregate.PlotRow, error) {
	rows, err := a.agg.Aggregate(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	if err := plot.WriteHTML(a.cfg.OutputDir, rows, a.cfg.Plot.Title); err != nil {
		return nil, err
	}
	if err := plot.WriteData(a.cfg.OutputDir, rows); err != nil {
		return nil, err
	}
	slog.Debug("Chart written", "dir", a.cfg.OutputDir, "rows", len(rows))
	return rows, nil
}

func (a *app) summarise(rows []aggregate.PlotRow) error {
	rpt := report.Build(rows)
	report.WriteTable(rpt, os.Stdout)
	if a.cli.Report != "" {
		if err := report.WriteJSON(rpt, a.cli.Report); err != nil {
			return err
		}
		slog.Info("Report written", "path", a.cli.Report)
	}
	return nil
}

func (a *app) exportRows(ctx context.Context, rows []aggregate.PlotRow) error {
	exporters, err := export.FromConfig(ctx, a.cfg.Export)
	if err != nil {
		return err
	}
	defer func() {
		if err := export.CloseAll(exporters); err != nil {
			slog.Warn("Failed to close exporters", "error", err)
		}
	}()
	return export.ExportAll(ctx, exporters, rows)
}

func runServe(a *app) {
	sCfg, err := server.LoadConfig(a.cfg.Serve.Port)
	if err != nil {
		slog.Error("Failed to load server config", "error", err)
		os.Exit(1)
	}

	s := server.New(sCfg, pkgserver.NewDirHealthChecker(a.cfg.OutputDir)).
		SetupMiddlewares().
		SetupErrorHandler().
		SetupHealthChecks("/health").
		SetupOpenApi("/swagger/*")
	server.NewResultsRouter(s.Echo, a.agg, a.cfg.Plot.Title).Bind()

	go func() {
		<-s.ShutdownSignal()
		slog.Info("Shutdown started")
	}()

	if err := s.Start(); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
