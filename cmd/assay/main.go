package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Assay/internal/api"
	"github.com/MikeSquared-Agency/Assay/internal/config"
	"github.com/MikeSquared-Agency/Assay/internal/hermes"
	"github.com/MikeSquared-Agency/Assay/internal/metrics"
	"github.com/MikeSquared-Agency/Assay/internal/pipeline"
	"github.com/MikeSquared-Agency/Assay/internal/report"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
	"github.com/MikeSquared-Agency/Assay/internal/source"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	serve := flag.Bool("serve", false, "run the API and metrics servers instead of a single run")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *serve, logger); err != nil {
		logger.Error("assay failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, serve bool, logger *slog.Logger) error {
	mode, err := scoring.ParseValidationMode(cfg.Scoring.ValidateWeights)
	if err != nil {
		return err
	}
	engine := pipeline.NewEngine(pipeline.Options{
		ScorePrecision:    cfg.Scoring.ScorePrecision,
		ValuePrecision:    cfg.Scoring.ValuePrecision,
		DegenerateEpsilon: cfg.Scoring.DegenerateEpsilon,
		ValidateWeights:   mode,
		ParetoEnabled:     cfg.Scoring.ParetoEnabled,
	}, logger)
	loader := source.NewFileLoader(sourcePaths(cfg), logger)

	// Store: Postgres when configured, otherwise in memory.
	var st store.Store = store.NewMemoryStore()
	if cfg.Database.URL != "" {
		db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		st = db
		logger.Info("connected to database")
	}

	if !serve {
		runner := pipeline.NewRunner(loader, engine, st, nil, nil, cfg.Report.TopNDisplay, logger)
		out, err := runner.Run(ctx, "cli")
		if err != nil {
			return err
		}
		return printSummaries(out, cfg)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, "assay")

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	runner := pipeline.NewRunner(loader, engine, st, hermesClient, m, cfg.Report.TopNDisplay, logger)

	if hermesClient != nil {
		err := hermesClient.Subscribe(hermes.SubjectRunRequest, func(_ string, data []byte) {
			var req hermes.RunRequestEvent
			if err := json.Unmarshal(data, &req); err != nil {
				logger.Warn("invalid run request", "error", err)
				return
			}
			if req.Trigger == "" {
				req.Trigger = "hermes"
			}
			if _, err := runner.Run(ctx, req.Trigger); err != nil {
				logger.Warn("requested run failed", "trigger", req.Trigger, "error", err)
			}
		})
		if err != nil {
			logger.Warn("failed to subscribe to run requests", "error", err)
		}
	}

	if cfg.Server.Schedule != "" {
		sched, err := pipeline.NewScheduler(runner, cfg.Server.Schedule, 30*time.Minute, logger)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop(context.Background())
	}

	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(st, runner, cfg.Server.AdminToken, cfg.Server.CORSOrigins, logger),
	}
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(reg),
	}

	g, gctx := errgroup.WithContext(ctx)
	for name, srv := range map[string]*http.Server{"API": apiServer, "metrics": metricsServer} {
		name, srv := name, srv
		g.Go(func() error {
			logger.Info(name+" server starting", "addr", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s server: %w", name, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = apiServer.Shutdown(shutdownCtx)
		_ = metricsServer.Shutdown(shutdownCtx)
		return nil
	})

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func sourcePaths(cfg *config.Config) source.Paths {
	layouts := make(map[string]source.Layout, len(cfg.Attributes))
	for name, a := range cfg.Attributes {
		layouts[name] = source.Layout{RecordsKey: a.RecordsKey, ComponentKey: a.ComponentKey}
	}
	return source.Paths{
		Indicators:    cfg.Inputs.Indicators,
		Values:        cfg.Inputs.Values,
		Design:        cfg.Inputs.Design,
		AttributesDir: cfg.Inputs.AttributesDir,
		ProcessedDir:  cfg.Inputs.ProcessedDir,
		Attributes:    layouts,
	}
}

func printSummaries(out *pipeline.Outcome, cfg *config.Config) error {
	opts := report.Options{
		SeparatorWidth: cfg.Report.SeparatorWidth,
		TopN:           cfg.Report.TopNDisplay,
		Precision:      cfg.Scoring.ScorePrecision,
	}
	if err := out.Summary.Feasibility.Write(os.Stdout, opts); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout)
	if err := out.Summary.Ranking.Write(os.Stdout, opts); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\nrun %s: %d experiments, %d feasible\n", out.Run.ID, out.Run.Experiments, out.Run.Feasible)
	return nil
}
