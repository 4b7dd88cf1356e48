// Package calibration orquesta los experimentos de calibración de forecasts
// en cuantiles: elicitación, CRPS, ajuste del multiplicador de spread,
// comparación de modelos y forecasts calibrados a largo plazo.
package calibration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/valuecast/internal/domain"
	"github.com/alejandrodnm/valuecast/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrNoForecasts se devuelve cuando ningún forecast del experimento tuvo éxito.
var ErrNoForecasts = errors.New("no successful forecasts")

// Config contiene la configuración de los experimentos.
type Config struct {
	CutoffYear    int
	TargetYear    int
	LongTermYears []int
	LongTermFrom  int     // cutoff para long-term; 0 = último año observado
	Concurrency   int     // elicitaciones simultáneas por modelo
	MinHistory    int     // puntos mínimos antes del cutoff
	MinForecasts  int     // forecasts mínimos para ajustar el spread
	CILevel       float64 // nivel del intervalo calibrado
}

// DefaultConfig devuelve la configuración usada por la CLI.
func DefaultConfig() Config {
	return Config{
		CutoffYear:    2021,
		TargetYear:    2024,
		LongTermYears: []int{2030, 2040, 2050},
		Concurrency:   4,
		MinHistory:    3,
		MinForecasts:  3,
		CILevel:       domain.DefaultCILevel,
	}
}

// Experiment ejecuta experimentos de calibración sobre las variables del provider.
type Experiment struct {
	cfg      Config
	provider ports.TrajectoryProvider
	storage  ports.Storage  // opcional
	exporter ports.Exporter // opcional
	notifier ports.Notifier
}

// New crea un Experiment. storage y exporter pueden ser nil.
func New(
	cfg Config,
	provider ports.TrajectoryProvider,
	storage ports.Storage,
	exporter ports.Exporter,
	notifier ports.Notifier,
) *Experiment {
	def := DefaultConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.MinHistory <= 0 {
		cfg.MinHistory = def.MinHistory
	}
	if cfg.MinForecasts <= 0 {
		cfg.MinForecasts = def.MinForecasts
	}
	if !(cfg.CILevel > 0 && cfg.CILevel < 1) {
		cfg.CILevel = def.CILevel
	}
	return &Experiment{
		cfg:      cfg,
		provider: provider,
		storage:  storage,
		exporter: exporter,
		notifier: notifier,
	}
}

// Run ejecuta el experimento para un modelo, lo persiste y lo notifica.
func (e *Experiment) Run(ctx context.Context, el ports.QuantileElicitor) (domain.CalibrationReport, error) {
	vars, err := e.provider.Variables(ctx)
	if err != nil {
		return domain.CalibrationReport{}, fmt.Errorf("calibration.Run: load variables: %w", err)
	}

	report, err := e.run(ctx, el, vars, domain.NewCostTracker())
	if err != nil {
		return report, fmt.Errorf("calibration.Run: %w", err)
	}
	if err := e.persist(ctx, report); err != nil {
		return report, fmt.Errorf("calibration.Run: %w", err)
	}
	if err := e.notifier.NotifyCalibration(ctx, report); err != nil {
		slog.Warn("notify failed", "err", err)
	}
	return report, nil
}

// Compare ejecuta el mismo experimento con cada modelo. Los modelos con menos
// de MinForecasts forecasts se omiten del resultado.
func (e *Experiment) Compare(ctx context.Context, els []ports.QuantileElicitor) ([]domain.ModelComparison, error) {
	vars, err := e.provider.Variables(ctx)
	if err != nil {
		return nil, fmt.Errorf("calibration.Compare: load variables: %w", err)
	}

	tracker := domain.NewCostTracker()
	var out []domain.ModelComparison
	for _, el := range els {
		name := el.Model().Name
		report, err := e.run(ctx, el, vars, tracker)
		if err != nil {
			if ctx.Err() != nil {
				return out, fmt.Errorf("calibration.Compare: %w", ctx.Err())
			}
			slog.Warn("model skipped", "model", name, "err", err)
			continue
		}
		if !report.Calibrated {
			slog.Warn("insufficient forecasts for model", "model", name, "forecasts", len(report.Entries))
			continue
		}
		if err := e.persist(ctx, report); err != nil {
			return out, fmt.Errorf("calibration.Compare: %w", err)
		}

		out = append(out, domain.ModelComparison{
			Model:            name,
			RawCRPS:          report.RawMeanCRPS,
			CalibratedCRPS:   report.CalibratedMeanCRPS,
			SpreadMultiplier: report.SpreadMultiplier,
			MAE:              report.MAE,
			Coverage80:       report.CalibratedCoverage,
			TotalCost:        tracker.ModelCost(name),
			NForecasts:       len(report.Entries),
		})
	}

	total := tracker.Summary()
	slog.Info("model comparison complete",
		"models", len(els),
		"compared", len(out),
		"calls", total.Calls,
		"total_cost", total.TotalCost,
	)

	if err := e.notifier.NotifyComparison(ctx, out); err != nil {
		slog.Warn("notify failed", "err", err)
	}
	return out, nil
}

// LongTerm pide forecasts de los años LongTermYears usando toda la historia
// disponible y les aplica spreadMult.
func (e *Experiment) LongTerm(ctx context.Context, el ports.QuantileElicitor, spreadMult float64) ([]domain.LongTermForecast, error) {
	if spreadMult <= 0 || math.IsNaN(spreadMult) || math.IsInf(spreadMult, 0) {
		spreadMult = 1
	}

	vars, err := e.provider.Variables(ctx)
	if err != nil {
		return nil, fmt.Errorf("calibration.LongTerm: load variables: %w", err)
	}

	type task struct {
		variable domain.Variable
		cutoff   int
		target   int
	}
	var tasks []task
	for _, v := range vars {
		cutoff := e.cfg.LongTermFrom
		if cutoff <= 0 {
			years := v.Trajectory.Years()
			if len(years) == 0 {
				continue
			}
			cutoff = years[len(years)-1]
		}
		if years, _ := v.Trajectory.History(cutoff); len(years) < e.cfg.MinHistory {
			continue
		}
		for _, target := range e.cfg.LongTermYears {
			tasks = append(tasks, task{variable: v, cutoff: cutoff, target: target})
		}
	}

	model := el.Model()
	results := make([]*domain.LongTermForecast, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, t := range tasks {
		g.Go(func() error {
			req := domain.NewElicitationRequest(t.variable, t.cutoff, t.target)
			resp, err := el.Elicit(gctx, req)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Warn("elicitation failed", "variable", t.variable.ID, "target", t.target, "model", model.Name, "err", err)
				return nil
			}
			results[i] = &domain.LongTermForecast{
				Variable:   t.variable.ID,
				TargetYear: t.target,
				Model:      model.Name,
				Quantiles:  resp.Quantiles,
				Calibrated: domain.ApplyCalibration(resp.Quantiles, spreadMult, e.cfg.CILevel),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("calibration.LongTerm: %w", err)
	}

	out := make([]domain.LongTermForecast, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}

	slog.Info("long-term forecasts complete",
		"model", model.Name,
		"spread_multiplier", spreadMult,
		"forecasts", len(out),
		"requested", len(tasks),
	)

	if err := e.notifier.NotifyLongTerm(ctx, out); err != nil {
		slog.Warn("notify failed", "err", err)
	}
	return out, nil
}

// SpreadMultiplier devuelve el último multiplicador guardado para el modelo.
// Sin storage, sin experimento previo o ante un error devuelve (1, false).
func (e *Experiment) SpreadMultiplier(ctx context.Context, model string) (float64, bool) {
	if e.storage == nil {
		return 1, false
	}
	mult, ok, err := e.storage.LatestSpreadMultiplier(ctx, model)
	if err != nil {
		slog.Warn("load spread multiplier failed", "model", model, "err", err)
		return 1, false
	}
	if !ok {
		return 1, false
	}
	return mult, true
}

// run ejecuta el experimento sin efectos laterales salvo el registro de coste.
func (e *Experiment) run(ctx context.Context, el ports.QuantileElicitor, vars []domain.Variable, tracker *domain.CostTracker) (domain.CalibrationReport, error) {
	start := time.Now()
	model := el.Model()

	report := domain.CalibrationReport{
		RunID:            uuid.NewString(),
		CreatedAt:        time.Now().UTC(),
		Model:            model.Name,
		CutoffYear:       e.cfg.CutoffYear,
		TargetYear:       e.cfg.TargetYear,
		SpreadMultiplier: 1,
	}

	selected := e.selectVariables(vars)
	entries, cost, err := e.elicitAll(ctx, el, selected, tracker)
	if err != nil {
		return report, err
	}
	report.Entries = entries
	report.Cost = cost

	if len(entries) == 0 {
		return report, fmt.Errorf("%s: %w", model.Name, ErrNoForecasts)
	}

	gaussians := make([]domain.GaussianForecast, len(entries))
	quantiles := make([]domain.QuantileForecast, len(entries))
	actuals := make([]float64, len(entries))
	var rawCRPS, absErr float64
	for i, en := range entries {
		gaussians[i] = domain.GaussianForecast{Mean: en.Mean, Std: en.Std}
		quantiles[i] = en.Quantiles
		actuals[i] = en.Actual
		rawCRPS += en.RawCRPS
		absErr += math.Abs(en.Mean - en.Actual)
	}
	n := float64(len(entries))
	report.RawMeanCRPS = rawCRPS / n
	report.MAE = absErr / n

	if len(entries) >= e.cfg.MinForecasts {
		fit, err := domain.CalibrateSpread(gaussians, actuals)
		if err != nil {
			return report, err
		}
		report.SpreadMultiplier = fit.Multiplier
		report.Calibrated = true
	}

	calibrated := make([]domain.CalibratedForecast, len(entries))
	for i := range entries {
		calibrated[i] = domain.ApplyCalibration(entries[i].Quantiles, report.SpreadMultiplier, e.cfg.CILevel)
		report.Entries[i].Calibrated = calibrated[i]
	}

	if report.CalibratedMeanCRPS, err = domain.MeanCRPS(calibrated, actuals); err != nil {
		return report, err
	}
	if report.CalibratedCoverage, err = domain.CalibratedCoverage(calibrated, actuals); err != nil {
		return report, err
	}
	if report.RawCoverage50, err = domain.RawCoverage(quantiles, actuals, 0.5); err != nil {
		return report, err
	}
	if report.RawCoverage80, err = domain.RawCoverage(quantiles, actuals, 0.8); err != nil {
		return report, err
	}

	slog.Info("calibration experiment complete",
		"run_id", report.RunID,
		"model", model.Name,
		"forecasts", len(entries),
		"requested", len(selected),
		"spread_multiplier", report.SpreadMultiplier,
		"raw_crps", report.RawMeanCRPS,
		"calibrated_crps", report.CalibratedMeanCRPS,
		"cost", report.Cost.TotalCost,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

// selectVariables devuelve las variables con valor observado en el año objetivo
// y al menos MinHistory puntos hasta el cutoff.
func (e *Experiment) selectVariables(vars []domain.Variable) []domain.Variable {
	var out []domain.Variable
	for _, v := range vars {
		if _, ok := v.Trajectory.Actual(e.cfg.TargetYear); !ok {
			continue
		}
		if years, _ := v.Trajectory.History(e.cfg.CutoffYear); len(years) < e.cfg.MinHistory {
			continue
		}
		out = append(out, v)
	}
	return out
}

// elicitAll pide los cuantiles de cada variable en paralelo. Los fallos de una
// variable se registran y se omiten; solo la cancelación aborta el lote.
// El orden de salida sigue el de vars.
func (e *Experiment) elicitAll(
	ctx context.Context,
	el ports.QuantileElicitor,
	vars []domain.Variable,
	tracker *domain.CostTracker,
) ([]domain.CalibrationEntry, domain.CostSummary, error) {
	model := el.Model()
	entries := make([]*domain.CalibrationEntry, len(vars))
	usages := make([]*domain.Usage, len(vars))
	costs := make([]float64, len(vars))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, v := range vars {
		g.Go(func() error {
			req := domain.NewElicitationRequest(v, e.cfg.CutoffYear, e.cfg.TargetYear)
			resp, err := el.Elicit(gctx, req)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Warn("elicitation failed", "variable", v.ID, "model", model.Name, "err", err)
				return nil
			}
			usages[i] = &resp.Usage
			costs[i] = tracker.Add(model, resp.Usage)

			if err := resp.Quantiles.Validate(); err != nil {
				slog.Warn("invalid quantiles", "variable", v.ID, "model", model.Name, "err", err)
				return nil
			}

			actual, _ := v.Trajectory.Actual(e.cfg.TargetYear)
			gf := resp.Quantiles.Gaussian()
			entries[i] = &domain.CalibrationEntry{
				Variable:    v.ID,
				Description: v.Description,
				Actual:      actual,
				Quantiles:   resp.Quantiles,
				Mean:        gf.Mean,
				Std:         gf.Std,
				RawCRPS:     domain.CRPS(actual, gf.Mean, gf.Std),
			}
			slog.Debug("forecast elicited",
				"variable", v.ID,
				"model", model.Name,
				"actual", actual,
				"median", gf.Mean,
				"std", gf.Std,
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, domain.CostSummary{}, err
	}

	var cost domain.CostSummary
	out := make([]domain.CalibrationEntry, 0, len(vars))
	for i := range vars {
		if usages[i] != nil {
			cost.Calls++
			cost.InputTokens += usages[i].InputTokens
			cost.OutputTokens += usages[i].OutputTokens
			cost.TotalCost += costs[i]
		}
		if entries[i] != nil {
			out = append(out, *entries[i])
		}
	}
	return out, cost, nil
}

func (e *Experiment) persist(ctx context.Context, report domain.CalibrationReport) error {
	if e.storage != nil {
		if err := e.storage.SaveCalibration(ctx, report); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	if e.exporter != nil {
		if err := e.exporter.ExportCalibration(report); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	return nil
}
