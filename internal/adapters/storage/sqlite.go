package storage

// sqlite.go: historial de ejecuciones.
//
// Estrategia:
//   - `runs`: una fila por ejecución (evaluación, forecast o calibración), clave UUID.
//   - `forecast_results` / `model_metrics`: resultados y resumen de evaluaciones de baselines.
//   - `forecasts`: forecasts sin valor real (años futuros).
//   - `calibrations` / `calibration_entries`: experimentos de calibración por modelo.
//   - Prune al arrancar: ejecuciones de más de 180 días.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/valuecast/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    kind        TEXT     NOT NULL,
    created_at  DATETIME NOT NULL,
    model       TEXT     NOT NULL DEFAULT '',
    cutoff_year INTEGER  NOT NULL DEFAULT 0,
    target_year INTEGER  NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS forecast_results (
    run_id      TEXT    NOT NULL,
    variable    TEXT    NOT NULL,
    cutoff_year INTEGER NOT NULL,
    target_year INTEGER NOT NULL,
    model       TEXT    NOT NULL,
    predicted   REAL    NOT NULL,
    actual      REAL    NOT NULL,
    lower_bound REAL    NOT NULL,
    upper_bound REAL    NOT NULL,
    PRIMARY KEY (run_id, variable, cutoff_year, target_year, model)
);

CREATE TABLE IF NOT EXISTS model_metrics (
    run_id            TEXT    NOT NULL,
    model             TEXT    NOT NULL,
    n_forecasts       INTEGER NOT NULL,
    mae               REAL    NOT NULL,
    rmse              REAL    NOT NULL,
    bias              REAL    NOT NULL,
    coverage_90       REAL    NOT NULL,
    calibration_error REAL    NOT NULL,
    PRIMARY KEY (run_id, model)
);

CREATE TABLE IF NOT EXISTS forecasts (
    run_id         TEXT    NOT NULL,
    variable       TEXT    NOT NULL,
    cutoff_year    INTEGER NOT NULL,
    target_year    INTEGER NOT NULL,
    model          TEXT    NOT NULL,
    point_estimate REAL    NOT NULL,
    lower_bound    REAL    NOT NULL,
    upper_bound    REAL    NOT NULL,
    raw_response   TEXT    NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, variable, cutoff_year, target_year, model)
);

CREATE TABLE IF NOT EXISTS calibrations (
    run_id              TEXT PRIMARY KEY,
    model               TEXT    NOT NULL,
    spread_multiplier   REAL    NOT NULL,
    calibrated          INTEGER NOT NULL,
    raw_crps            REAL    NOT NULL,
    calibrated_crps     REAL    NOT NULL,
    mae                 REAL    NOT NULL,
    raw_coverage_50     REAL    NOT NULL,
    raw_coverage_80     REAL    NOT NULL,
    calibrated_coverage REAL    NOT NULL,
    total_cost          REAL    NOT NULL,
    created_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS calibration_entries (
    run_id   TEXT NOT NULL,
    variable TEXT NOT NULL,
    actual   REAL NOT NULL,
    q10      REAL NOT NULL,
    q25      REAL NOT NULL,
    q50      REAL NOT NULL,
    q75      REAL NOT NULL,
    q90      REAL NOT NULL,
    mean     REAL NOT NULL,
    std      REAL NOT NULL,
    raw_crps REAL NOT NULL,
    ci_lower REAL NOT NULL,
    ci_upper REAL NOT NULL,
    PRIMARY KEY (run_id, variable)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_cal_model    ON calibrations(model, created_at DESC);
`

const retentionRuns = 180 * 24 * time.Hour

// ErrMissingRunID se devuelve al guardar un reporte sin identificador.
var ErrMissingRunID = errors.New("storage: run id is required")

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia ejecuciones antiguas.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveEvaluation persiste la ejecución, sus resultados y las métricas por modelo.
func (s *SQLiteStorage) SaveEvaluation(ctx context.Context, report domain.EvaluationReport) error {
	if report.RunID == "" {
		return fmt.Errorf("storage.SaveEvaluation: %w", ErrMissingRunID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveEvaluation: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertRun(ctx, tx, report.RunID, "evaluation", report.CreatedAt, "", 0, 0); err != nil {
		return fmt.Errorf("storage.SaveEvaluation: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO forecast_results
			(run_id, variable, cutoff_year, target_year, model, predicted, actual, lower_bound, upper_bound)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, variable, cutoff_year, target_year, model) DO UPDATE SET
			predicted   = excluded.predicted,
			actual      = excluded.actual,
			lower_bound = excluded.lower_bound,
			upper_bound = excluded.upper_bound
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveEvaluation: prepare results: %w", err)
	}
	defer stmt.Close()

	for _, r := range report.Results {
		if _, err := stmt.ExecContext(ctx,
			report.RunID, r.Variable, r.CutoffYear, r.TargetYear, r.Model,
			r.Predicted, r.Actual, r.Lower, r.Upper,
		); err != nil {
			return fmt.Errorf("storage.SaveEvaluation: upsert %s/%d/%s: %w", r.Variable, r.TargetYear, r.Model, err)
		}
	}

	for _, m := range report.Metrics {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO model_metrics
				(run_id, model, n_forecasts, mae, rmse, bias, coverage_90, calibration_error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, m.Model, m.NForecasts, m.MAE, m.RMSE, m.Bias, m.Coverage90, m.CalibrationError,
		); err != nil {
			return fmt.Errorf("storage.SaveEvaluation: insert metrics %s: %w", m.Model, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveEvaluation: commit: %w", err)
	}
	return nil
}

// SaveForecasts persiste forecasts de años futuros bajo una ejecución.
func (s *SQLiteStorage) SaveForecasts(ctx context.Context, runID string, forecasts []domain.Forecast) error {
	if runID == "" {
		return fmt.Errorf("storage.SaveForecasts: %w", ErrMissingRunID)
	}
	if len(forecasts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveForecasts: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertRun(ctx, tx, runID, "forecast", time.Now(), "", forecasts[0].CutoffYear, 0); err != nil {
		return fmt.Errorf("storage.SaveForecasts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO forecasts
			(run_id, variable, cutoff_year, target_year, model, point_estimate, lower_bound, upper_bound, raw_response)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveForecasts: prepare: %w", err)
	}
	defer stmt.Close()

	for _, f := range forecasts {
		if _, err := stmt.ExecContext(ctx,
			runID, f.Variable, f.CutoffYear, f.TargetYear, f.Model,
			f.PointEstimate, f.LowerBound, f.UpperBound, f.RawResponse,
		); err != nil {
			return fmt.Errorf("storage.SaveForecasts: insert %s/%d/%s: %w", f.Variable, f.TargetYear, f.Model, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveForecasts: commit: %w", err)
	}
	return nil
}

// SaveCalibration persiste el resumen del experimento y una fila por variable.
func (s *SQLiteStorage) SaveCalibration(ctx context.Context, r domain.CalibrationReport) error {
	if r.RunID == "" {
		return fmt.Errorf("storage.SaveCalibration: %w", ErrMissingRunID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveCalibration: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertRun(ctx, tx, r.RunID, "calibration", r.CreatedAt, r.Model, r.CutoffYear, r.TargetYear); err != nil {
		return fmt.Errorf("storage.SaveCalibration: %w", err)
	}

	calibrated := 0
	if r.Calibrated {
		calibrated = 1
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO calibrations
			(run_id, model, spread_multiplier, calibrated, raw_crps, calibrated_crps, mae,
			 raw_coverage_50, raw_coverage_80, calibrated_coverage, total_cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Model, r.SpreadMultiplier, calibrated, r.RawMeanCRPS, r.CalibratedMeanCRPS, r.MAE,
		r.RawCoverage50, r.RawCoverage80, r.CalibratedCoverage, r.Cost.TotalCost, r.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage.SaveCalibration: insert summary: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO calibration_entries
			(run_id, variable, actual, q10, q25, q50, q75, q90, mean, std, raw_crps, ci_lower, ci_upper)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveCalibration: prepare entries: %w", err)
	}
	defer stmt.Close()

	for _, e := range r.Entries {
		q := e.Quantiles
		if _, err := stmt.ExecContext(ctx,
			r.RunID, e.Variable, e.Actual, q.Q10, q.Q25, q.Q50, q.Q75, q.Q90,
			e.Mean, e.Std, e.RawCRPS, e.Calibrated.CILower, e.Calibrated.CIUpper,
		); err != nil {
			return fmt.Errorf("storage.SaveCalibration: insert %s: %w", e.Variable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveCalibration: commit: %w", err)
	}
	return nil
}

// GetForecastResults devuelve los resultados de una evaluación ordenados por
// variable, cutoff, año objetivo y modelo.
func (s *SQLiteStorage) GetForecastResults(ctx context.Context, runID string) ([]domain.ForecastResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT variable, cutoff_year, target_year, model, predicted, actual, lower_bound, upper_bound
		FROM forecast_results
		WHERE run_id = ?
		ORDER BY variable, cutoff_year, target_year, model
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetForecastResults: query: %w", err)
	}
	defer rows.Close()

	var results []domain.ForecastResult
	for rows.Next() {
		var r domain.ForecastResult
		if err := rows.Scan(&r.Variable, &r.CutoffYear, &r.TargetYear, &r.Model,
			&r.Predicted, &r.Actual, &r.Lower, &r.Upper); err != nil {
			return nil, fmt.Errorf("storage.GetForecastResults: scan row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// LatestSpreadMultiplier devuelve el multiplicador del experimento más reciente
// del modelo que llegó a calibrarse. ok es false si no hay ninguno.
func (s *SQLiteStorage) LatestSpreadMultiplier(ctx context.Context, model string) (float64, bool, error) {
	var mult float64
	err := s.db.QueryRowContext(ctx, `
		SELECT spread_multiplier FROM calibrations
		WHERE model = ? AND calibrated = 1
		ORDER BY created_at DESC
		LIMIT 1
	`, model).Scan(&mult)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("storage.LatestSpreadMultiplier: %w", err)
	}
	return mult, true, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func insertRun(ctx context.Context, tx *sql.Tx, id, kind string, at time.Time, model string, cutoff, target int) error {
	if at.IsZero() {
		at = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, kind, created_at, model, cutoff_year, target_year)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		id, kind, at.UTC(), model, cutoff, target,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// pruneOld elimina ejecuciones antiguas y sus filas dependientes.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns)
	for _, table := range []string{"forecast_results", "model_metrics", "forecasts", "calibrations", "calibration_entries"} {
		s.db.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE run_id IN (SELECT id FROM runs WHERE created_at < ?)`, cutoff)
	}
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff)
}
