package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"capacity-planner/internal/config"
	ingestapp "capacity-planner/internal/ingest/application"
	"capacity-planner/internal/observability/metrics"
	planningingest "capacity-planner/internal/planning/adapters/ingest"
	planningapp "capacity-planner/internal/planning/application"
	planning "capacity-planner/internal/planning/domain"
	planningmemory "capacity-planner/internal/planning/infrastructure/memory"
	planningrepo "capacity-planner/internal/planning/infrastructure/postgres"
	"capacity-planner/internal/planning/infrastructure/simplex"
	reporting "capacity-planner/internal/reporting/interfaces"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "capacity-planner: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "capacity-planner: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := run(ctx, cfg, logger, prometheus.NewRegistry()); err != nil {
		logger.Error("planning run failed", zap.Error(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}

// loadConfig reads the yaml/env configuration and applies command-line
// overrides on top.
func loadConfig(args []string) (config.Config, error) {
	fs := pflag.NewFlagSet("capacity-planner", pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to yaml configuration (default $PLANNER_CONFIG)")
	demand := fs.String("demand", "", "demand input file")
	dataCenter := fs.String("data-center", "", "data-center load input file")
	capacity := fs.String("capacity", "", "existing capacity input file")
	technologies := fs.String("technologies", "", "technology parameters input file")
	capacityFactors := fs.String("capacity-factors", "", "capacity-factor profiles input file")
	lenient := fs.Bool("lenient-timestamps", false, "accept demand and data-center files without a timestamp column")
	horizon := fs.Int("horizon-hours", 0, "model only the first N hours (0 = all)")
	maxCells := fs.Int("max-cells", 0, "largest constraint matrix, in rows x columns, the solver accepts")
	annualize := fs.Bool("annualize", false, "annualize capex with the capital recovery factor")
	discountRate := fs.Float64("discount-rate", 0, "discount rate for annualized capex")
	outputDir := fs.String("output-dir", "", "directory for result files")
	xlsx := fs.String("xlsx", "", "write an xlsx workbook with this name")
	pdf := fs.String("pdf", "", "write a pdf summary with this name")
	textfile := fs.String("metrics-textfile", "", "write prometheus metrics to this file")
	databaseURL := fs.String("database-url", "", "persist results to Postgres")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}

	setString := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	setString("demand", &cfg.Inputs.Demand, *demand)
	setString("data-center", &cfg.Inputs.DataCenter, *dataCenter)
	setString("capacity", &cfg.Inputs.Capacity, *capacity)
	setString("technologies", &cfg.Inputs.Technologies, *technologies)
	setString("capacity-factors", &cfg.Inputs.CapacityFactors, *capacityFactors)
	setString("output-dir", &cfg.Output.Dir, *outputDir)
	setString("xlsx", &cfg.Output.XLSX, *xlsx)
	setString("pdf", &cfg.Output.PDF, *pdf)
	setString("metrics-textfile", &cfg.Output.MetricsTextfile, *textfile)
	setString("database-url", &cfg.DatabaseURL, *databaseURL)
	setString("log-level", &cfg.LogLevel, *logLevel)
	if fs.Changed("lenient-timestamps") {
		cfg.Ingest.RequireTimestamps = !*lenient
	}
	if fs.Changed("horizon-hours") {
		cfg.Model.HorizonHours = *horizon
	}
	if fs.Changed("max-cells") {
		cfg.Model.MaxCells = *maxCells
	}
	if fs.Changed("annualize") {
		cfg.Model.Annualize = *annualize
	}
	if fs.Changed("discount-rate") {
		cfg.Model.DiscountRate = *discountRate
	}
	return cfg, cfg.Validate()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// run loads the inputs, solves the model and writes the configured
// artifacts.
func run(ctx context.Context, cfg config.Config, logger *zap.Logger, reg *prometheus.Registry) (*planning.Result, error) {
	m, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}
	if cfg.Output.MetricsTextfile != "" {
		defer func() {
			if err := metrics.WriteTextfile(cfg.Output.MetricsTextfile, reg); err != nil {
				logger.Warn("metrics textfile write failed", zap.Error(err))
			}
		}()
	}

	loader := ingestapp.NewLoader(
		ingestapp.WithRequireTimestamps(cfg.Ingest.RequireTimestamps),
		ingestapp.WithObserver(m),
	)
	ds, err := loader.LoadAll(cfg.Inputs.Paths())
	if err != nil {
		return nil, err
	}
	logger.Info("inputs loaded",
		zap.Int("demand_hours", ds.Demand.Len()),
		zap.Int("data_center_hours", ds.DataCenter.Len()),
		zap.Int("technologies", len(ds.Technologies)),
		zap.Strings("profiles", ds.CapacityFactors.Technologies),
	)

	in, err := planningingest.BuildInput(ds, planningingest.WithHorizonHours(cfg.Model.HorizonHours))
	if err != nil {
		return nil, err
	}
	if len(in.Ignored) > 0 {
		logger.Warn("ignoring technologies without parameters", zap.Strings("technologies", in.Ignored))
	}

	assembler, err := planningapp.NewAssembler(cfg.Model.CostOptions(), planningapp.WithMaxCells(cfg.Model.MaxCells))
	if err != nil {
		return nil, err
	}
	if err := assembler.CheckSize(in); err != nil {
		m.ObserveSolve(0, nil, err)
		return nil, err
	}

	repo, closeRepo, err := openRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer closeRepo()
	service, err := planningapp.NewService(assembler, simplex.NewSolver(cfg.Model.Tolerance), repo,
		planningapp.WithSolveObserver(m))
	if err != nil {
		return nil, err
	}

	logger.Debug("solving", zap.Int("hours", in.Horizon()), zap.Int("technologies", len(in.Technologies)))
	result, err := service.Run(ctx, in)
	if err != nil {
		return nil, err
	}
	reporting.LogSummary(logger, result)

	exporter, err := reporting.NewExporter(cfg.Output.Dir, reporting.Artifacts{
		GenerationCSV: cfg.Output.GenerationCSV,
		InvestmentCSV: cfg.Output.InvestmentCSV,
		XLSX:          cfg.Output.XLSX,
		PDF:           cfg.Output.PDF,
	}, reporting.WithExportObserver(m))
	if err != nil {
		return nil, err
	}
	paths, err := exporter.Export(result)
	if err != nil {
		return nil, err
	}
	logger.Info("results written", zap.Strings("files", paths))
	return result, nil
}

// openRepository returns a Postgres repository when dsn is set and an
// in-memory one otherwise.
func openRepository(ctx context.Context, dsn string) (planning.ResultRepository, func(), error) {
	if dsn == "" {
		return planningmemory.NewResultRepository(), func() {}, nil
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	repo, err := planningrepo.NewResultRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db schema: %w", err)
	}
	return repo, func() { _ = db.Close() }, nil
}
