package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/alejandrodnm/valuecast/internal/domain"
	"github.com/alejandrodnm/valuecast/internal/domain/baseline"
	"github.com/alejandrodnm/valuecast/internal/ports"
	"github.com/google/uuid"
)

// ErrNoStorage se devuelve al pedir una ejecución guardada sin storage configurado.
var ErrNoStorage = errors.New("no storage configured")

// Config contiene la configuración del runner.
type Config struct {
	CutoffYears    []int // años de corte de la evaluación
	Workers        int   // goroutines del pool (0 = NumCPU*2)
	LLMConcurrency int   // llamadas simultáneas a LLMs (0 = 4)
}

// Runner ejecuta los baselines, y opcionalmente forecasters LLM, sobre todas
// las variables y los puntúa contra los años reservados.
type Runner struct {
	cfg         Config
	provider    ports.TrajectoryProvider
	forecasters []baseline.Forecaster
	remote      []ports.PointForecaster
	storage     ports.Storage  // opcional
	exporter    ports.Exporter // opcional
	notifier    ports.Notifier
}

// New crea un Runner con todas las dependencias inyectadas. storage y exporter
// pueden ser nil.
func New(
	cfg Config,
	provider ports.TrajectoryProvider,
	forecasters []baseline.Forecaster,
	storage ports.Storage,
	exporter ports.Exporter,
	notifier ports.Notifier,
) *Runner {
	return &Runner{
		cfg:         cfg,
		provider:    provider,
		forecasters: forecasters,
		storage:     storage,
		exporter:    exporter,
		notifier:    notifier,
	}
}

// WithPointForecasters añade forecasters LLM que Evaluate puntúa junto a los
// baselines.
func (r *Runner) WithPointForecasters(fs ...ports.PointForecaster) *Runner {
	r.remote = append(r.remote, fs...)
	return r
}

// Evaluate genera, para cada variable y cutoff, forecasts de todos los años
// observados después del cutoff, los empareja con el valor real y calcula las
// métricas por modelo.
func (r *Runner) Evaluate(ctx context.Context) (domain.EvaluationReport, error) {
	start := time.Now()

	vars, err := r.provider.Variables(ctx)
	if err != nil {
		return domain.EvaluationReport{}, fmt.Errorf("evaluation.Evaluate: load variables: %w", err)
	}

	byID := make(map[string]domain.Variable, len(vars))
	var jobs []job
	var remoteReqs []domain.PointForecastRequest
	for _, v := range vars {
		byID[v.ID] = v
		for _, cutoff := range r.cfg.CutoffYears {
			targets := v.Trajectory.YearsAfter(cutoff)
			if len(targets) == 0 {
				continue
			}
			req := domain.ForecastRequest{
				Variable:    v.ID,
				Trajectory:  v.Trajectory,
				CutoffYear:  cutoff,
				TargetYears: targets,
			}
			for _, f := range r.forecasters {
				jobs = append(jobs, job{forecaster: f, request: req})
			}
			remoteReqs = append(remoteReqs, domain.PointForecastRequest{
				Variable:    v,
				CutoffYear:  cutoff,
				TargetYears: targets,
			})
		}
	}

	forecasts := forecastConcurrent(ctx, jobs, r.cfg.Workers)
	if err := ctx.Err(); err != nil {
		return domain.EvaluationReport{}, fmt.Errorf("evaluation.Evaluate: %w", err)
	}

	tracker := domain.NewCostTracker()
	if len(r.remote) > 0 {
		remote, err := forecastRemote(ctx, r.remote, remoteReqs, r.cfg.LLMConcurrency, tracker)
		if err != nil {
			return domain.EvaluationReport{}, fmt.Errorf("evaluation.Evaluate: llm forecasts: %w", err)
		}
		forecasts = append(forecasts, remote...)
		sortForecasts(forecasts)
	}

	results := make([]domain.ForecastResult, 0, len(forecasts))
	for _, f := range forecasts {
		actual, ok := byID[f.Variable].Trajectory.Actual(f.TargetYear)
		if !ok {
			continue
		}
		results = append(results, domain.NewForecastResult(f, actual))
	}

	report := domain.EvaluationReport{
		RunID:       uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		CutoffYears: r.cfg.CutoffYears,
		Results:     results,
		Metrics:     domain.EvaluateByModel(results),
		Cost:        tracker.Summary(),
	}

	slog.Info("evaluation complete",
		"run_id", report.RunID,
		"variables", len(vars),
		"jobs", len(jobs),
		"results", len(results),
		"llm_calls", report.Cost.Calls,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if r.storage != nil {
		if err := r.storage.SaveEvaluation(ctx, report); err != nil {
			return report, fmt.Errorf("evaluation.Evaluate: save: %w", err)
		}
	}
	if r.exporter != nil {
		if err := r.exporter.ExportEvaluation(report); err != nil {
			return report, fmt.Errorf("evaluation.Evaluate: export: %w", err)
		}
	}
	if err := r.notifier.NotifyEvaluation(ctx, report); err != nil {
		slog.Warn("notify failed", "err", err)
	}
	return report, nil
}

// Forecast genera forecasts de años futuros para todas las variables. Con
// cutoff <= 0 usa el último año observado de cada variable.
func (r *Runner) Forecast(ctx context.Context, cutoff int, targets []int) ([]domain.Forecast, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	vars, err := r.provider.Variables(ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluation.Forecast: load variables: %w", err)
	}

	var jobs []job
	for _, v := range vars {
		c := cutoff
		if c <= 0 {
			years := v.Trajectory.Years()
			if len(years) == 0 {
				continue
			}
			c = years[len(years)-1]
		}
		req := domain.ForecastRequest{
			Variable:    v.ID,
			Trajectory:  v.Trajectory,
			CutoffYear:  c,
			TargetYears: targets,
		}
		for _, f := range r.forecasters {
			jobs = append(jobs, job{forecaster: f, request: req})
		}
	}

	forecasts := forecastConcurrent(ctx, jobs, r.cfg.Workers)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluation.Forecast: %w", err)
	}

	runID := uuid.NewString()
	slog.Info("baseline forecasts generated",
		"run_id", runID,
		"variables", len(vars),
		"forecasts", len(forecasts),
	)

	if r.storage != nil {
		if err := r.storage.SaveForecasts(ctx, runID, forecasts); err != nil {
			return forecasts, fmt.Errorf("evaluation.Forecast: save: %w", err)
		}
	}
	if r.exporter != nil {
		if err := r.exporter.ExportForecasts(runID, forecasts); err != nil {
			return forecasts, fmt.Errorf("evaluation.Forecast: export: %w", err)
		}
	}
	if err := r.notifier.NotifyForecasts(ctx, forecasts); err != nil {
		slog.Warn("notify failed", "err", err)
	}
	return forecasts, nil
}

// Report recupera los resultados guardados de una evaluación, recalcula las
// métricas por modelo y los vuelve a notificar.
func (r *Runner) Report(ctx context.Context, runID string) (domain.EvaluationReport, error) {
	if r.storage == nil {
		return domain.EvaluationReport{}, fmt.Errorf("evaluation.Report: %w", ErrNoStorage)
	}
	results, err := r.storage.GetForecastResults(ctx, runID)
	if err != nil {
		return domain.EvaluationReport{}, fmt.Errorf("evaluation.Report: %w", err)
	}

	var cutoffs []int
	for _, res := range results {
		if !slices.Contains(cutoffs, res.CutoffYear) {
			cutoffs = append(cutoffs, res.CutoffYear)
		}
	}
	slices.Sort(cutoffs)

	report := domain.EvaluationReport{
		RunID:       runID,
		CutoffYears: cutoffs,
		Results:     results,
		Metrics:     domain.EvaluateByModel(results),
	}
	slog.Info("stored evaluation loaded", "run_id", runID, "results", len(results))

	if err := r.notifier.NotifyEvaluation(ctx, report); err != nil {
		slog.Warn("notify failed", "err", err)
	}
	return report, nil
}
