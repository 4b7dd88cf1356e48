package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alejandrodnm/valuecast/config"
	"github.com/alejandrodnm/valuecast/internal/adapters/export"
	"github.com/alejandrodnm/valuecast/internal/adapters/notify"
	"github.com/alejandrodnm/valuecast/internal/adapters/storage"
	"github.com/alejandrodnm/valuecast/internal/adapters/trajectory"
	"github.com/alejandrodnm/valuecast/internal/application/evaluation"
	"github.com/alejandrodnm/valuecast/internal/arima"
	"github.com/alejandrodnm/valuecast/internal/domain/baseline"
	"github.com/alejandrodnm/valuecast/internal/ports"
)

const (
	modeBaselines = "baselines"
	modeForecast  = "forecast"
	modeCalibrate = "calibrate"
	modeCompare   = "compare"
	modeLongTerm  = "long-term"
	modeReport    = "report"
)

// options son los flags de la línea de comandos.
type options struct {
	configPath string
	mode       string
	model      string
	models     string
	llmModels  string
	runID      string
	cutoff     int
	target     int
	export     bool
	noStore    bool
	verbose    bool
	format     string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "config/config.yaml", "path to config file")
	flag.StringVar(&opts.mode, "mode", modeBaselines, "baselines|forecast|calibrate|compare|long-term|report")
	flag.StringVar(&opts.model, "model", "", "LLM model for calibrate/long-term (overrides config)")
	flag.StringVar(&opts.models, "models", "", "comma-separated models: baselines for baselines/forecast, LLMs for compare")
	flag.StringVar(&opts.llmModels, "llm", "", "comma-separated LLMs scored next to the baselines (overrides config)")
	flag.StringVar(&opts.runID, "run", "", "run ID to re-print in report mode")
	flag.IntVar(&opts.cutoff, "cutoff", 0, "cutoff year (overrides config)")
	flag.IntVar(&opts.target, "target", 0, "target year (overrides config)")
	flag.BoolVar(&opts.export, "export", false, "export results to Parquet")
	flag.BoolVar(&opts.noStore, "no-store", false, "do not persist results to SQLite")
	flag.BoolVar(&opts.verbose, "verbose", false, "set log level to debug and print per-forecast detail")
	flag.StringVar(&opts.format, "format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", opts.configPath)
		os.Exit(1)
	}

	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	if opts.format != "" {
		cfg.Log.Format = opts.format
	}
	if opts.export {
		cfg.Export.Enabled = true
	}
	setupLogger(cfg.Log)

	slog.Info("valuecast starting",
		"config", opts.configPath,
		"mode", opts.mode,
		"store", !opts.noStore,
		"export", cfg.Export.Enabled,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, opts); err != nil {
		slog.Error("valuecast exited with error", "mode", opts.mode, "err", err)
		os.Exit(1)
	}

	slog.Info("valuecast finished")
}

// deps son los adapters compartidos por todos los modos.
type deps struct {
	provider ports.TrajectoryProvider
	storage  ports.Storage
	exporter ports.Exporter
	notifier ports.Notifier
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	d := deps{notifier: notify.NewConsole(opts.verbose)}

	if cfg.Data.TrajectoriesPath != "" {
		d.provider = trajectory.NewFile(cfg.Data.TrajectoriesPath)
	} else {
		d.provider = trajectory.NewBuiltin()
	}

	if !opts.noStore {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			return fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
		}
		defer store.Close()
		d.storage = store
	}

	if cfg.Export.Enabled {
		exp, err := export.NewParquetExporter(cfg.Export.Dir)
		if err != nil {
			return err
		}
		d.exporter = exp
	}

	switch opts.mode {
	case modeBaselines:
		return runBaselines(ctx, cfg, opts, d)
	case modeForecast:
		return runForecast(ctx, cfg, opts, d)
	case modeCalibrate:
		return runCalibrate(ctx, cfg, opts, d)
	case modeCompare:
		return runCompare(ctx, cfg, opts, d)
	case modeLongTerm:
		return runLongTerm(ctx, cfg, opts, d)
	case modeReport:
		return runReport(ctx, cfg, opts, d)
	}
	return fmt.Errorf("unknown mode %q", opts.mode)
}

func runBaselines(ctx context.Context, cfg *config.Config, opts options, d deps) error {
	runner, err := newRunner(cfg, opts, d)
	if err != nil {
		return err
	}
	llmNames := cfg.Evaluation.LLMModels
	if opts.llmModels != "" {
		llmNames = splitList(opts.llmModels)
	}
	if len(llmNames) > 0 {
		client := newLLMClient(cfg)
		for _, name := range llmNames {
			pf, err := buildPointForecaster(cfg, name, client)
			if err != nil {
				return err
			}
			runner.WithPointForecasters(pf)
		}
	}

	report, err := runner.Evaluate(ctx)
	if err != nil {
		return err
	}
	if len(report.Results) == 0 {
		return errors.New("no forecasts could be evaluated")
	}
	return nil
}

func runReport(ctx context.Context, cfg *config.Config, opts options, d deps) error {
	if opts.runID == "" {
		return errors.New("report mode needs -run")
	}
	runner, err := newRunner(cfg, opts, d)
	if err != nil {
		return err
	}
	report, err := runner.Report(ctx, opts.runID)
	if err != nil {
		return err
	}
	if len(report.Results) == 0 {
		return fmt.Errorf("run %q has no stored results", opts.runID)
	}
	return nil
}

func runForecast(ctx context.Context, cfg *config.Config, opts options, d deps) error {
	runner, err := newRunner(cfg, opts, d)
	if err != nil {
		return err
	}
	cutoff := cfg.Forecast.CutoffYear
	if opts.cutoff > 0 {
		cutoff = opts.cutoff
	}
	targets := cfg.Forecast.TargetYears
	if opts.target > 0 {
		targets = []int{opts.target}
	}
	_, err = runner.Forecast(ctx, cutoff, targets)
	return err
}

func newRunner(cfg *config.Config, opts options, d deps) (*evaluation.Runner, error) {
	names := cfg.Evaluation.Models
	if opts.models != "" {
		names = splitList(opts.models)
	}
	o := cfg.Evaluation.ARIMAOrder
	forecasters, err := baseline.NewSet(names, baseline.Config{
		ARIMAOrder: arima.Order{P: o[0], D: o[1], Q: o[2]},
	})
	if err != nil {
		return nil, err
	}

	cutoffs := cfg.Evaluation.CutoffYears
	if opts.cutoff > 0 {
		cutoffs = []int{opts.cutoff}
	}
	return evaluation.New(
		evaluation.Config{
			CutoffYears:    cutoffs,
			Workers:        cfg.Evaluation.Workers,
			LLMConcurrency: cfg.Evaluation.LLMConcurrency,
		},
		d.provider, forecasters, d.storage, d.exporter, d.notifier,
	), nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
