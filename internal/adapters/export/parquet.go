// Package export vuelca los resultados de las ejecuciones a ficheros Parquet
// para analizarlos fuera (pandas, DuckDB).
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alejandrodnm/valuecast/internal/domain"
	"github.com/parquet-go/parquet-go"
)

// ResultRow es un forecast evaluado contra su valor real.
type ResultRow struct {
	RunID      string  `parquet:"run_id,snappy"`
	Variable   string  `parquet:"variable,snappy"`
	CutoffYear int32   `parquet:"cutoff_year,snappy"`
	TargetYear int32   `parquet:"target_year,snappy"`
	Model      string  `parquet:"model,snappy"`
	Predicted  float64 `parquet:"predicted,snappy"`
	Actual     float64 `parquet:"actual,snappy"`
	Lower      float64 `parquet:"lower_bound,snappy"`
	Upper      float64 `parquet:"upper_bound,snappy"`
	InInterval bool    `parquet:"in_interval,snappy"`
}

// MetricsRow son las métricas agregadas de un modelo en una evaluación.
type MetricsRow struct {
	RunID            string    `parquet:"run_id,snappy"`
	CreatedAt        time.Time `parquet:"created_at,snappy"`
	Model            string    `parquet:"model,snappy"`
	NForecasts       int32     `parquet:"n_forecasts,snappy"`
	MAE              float64   `parquet:"mae,snappy"`
	RMSE             float64   `parquet:"rmse,snappy"`
	Bias             float64   `parquet:"bias,snappy"`
	Coverage90       float64   `parquet:"coverage_90,snappy"`
	CalibrationError float64   `parquet:"calibration_error,snappy"`
}

// ForecastRow es un forecast de un año sin valor real.
type ForecastRow struct {
	RunID         string  `parquet:"run_id,snappy"`
	Variable      string  `parquet:"variable,snappy"`
	CutoffYear    int32   `parquet:"cutoff_year,snappy"`
	TargetYear    int32   `parquet:"target_year,snappy"`
	Model         string  `parquet:"model,snappy"`
	PointEstimate float64 `parquet:"point_estimate,snappy"`
	Lower         float64 `parquet:"lower_bound,snappy"`
	Upper         float64 `parquet:"upper_bound,snappy"`
	RawResponse   *string `parquet:"raw_response,optional,snappy"`
}

// CalibrationRow es una variable de un experimento de calibración.
type CalibrationRow struct {
	RunID            string  `parquet:"run_id,snappy"`
	Model            string  `parquet:"model,snappy"`
	CutoffYear       int32   `parquet:"cutoff_year,snappy"`
	TargetYear       int32   `parquet:"target_year,snappy"`
	Variable         string  `parquet:"variable,snappy"`
	Actual           float64 `parquet:"actual,snappy"`
	Q10              float64 `parquet:"q10,snappy"`
	Q25              float64 `parquet:"q25,snappy"`
	Q50              float64 `parquet:"q50,snappy"`
	Q75              float64 `parquet:"q75,snappy"`
	Q90              float64 `parquet:"q90,snappy"`
	Mean             float64 `parquet:"mean,snappy"`
	Std              float64 `parquet:"std,snappy"`
	RawCRPS          float64 `parquet:"raw_crps,snappy"`
	SpreadMultiplier float64 `parquet:"spread_multiplier,snappy"`
	CalibratedStd    float64 `parquet:"calibrated_std,snappy"`
	CILower          float64 `parquet:"ci_lower,snappy"`
	CIUpper          float64 `parquet:"ci_upper,snappy"`
}

// ParquetExporter implementa ports.Exporter escribiendo un fichero por tabla y
// ejecución en dir: <tabla>_<runID>.parquet.
type ParquetExporter struct {
	dir string
}

// NewParquetExporter crea el directorio de salida si no existe.
func NewParquetExporter(dir string) (*ParquetExporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export.NewParquetExporter: mkdir %q: %w", dir, err)
	}
	return &ParquetExporter{dir: dir}, nil
}

// ExportEvaluation escribe results_<run>.parquet y metrics_<run>.parquet.
func (e *ParquetExporter) ExportEvaluation(report domain.EvaluationReport) error {
	results := make([]ResultRow, len(report.Results))
	for i, r := range report.Results {
		results[i] = ResultRow{
			RunID:      report.RunID,
			Variable:   r.Variable,
			CutoffYear: int32(r.CutoffYear),
			TargetYear: int32(r.TargetYear),
			Model:      r.Model,
			Predicted:  r.Predicted,
			Actual:     r.Actual,
			Lower:      r.Lower,
			Upper:      r.Upper,
			InInterval: r.InInterval(),
		}
	}
	if err := writeRows(e.path("results", report.RunID), results); err != nil {
		return fmt.Errorf("export.ExportEvaluation: %w", err)
	}

	metrics := make([]MetricsRow, len(report.Metrics))
	for i, m := range report.Metrics {
		metrics[i] = MetricsRow{
			RunID:            report.RunID,
			CreatedAt:        report.CreatedAt.UTC(),
			Model:            m.Model,
			NForecasts:       int32(m.NForecasts),
			MAE:              m.MAE,
			RMSE:             m.RMSE,
			Bias:             m.Bias,
			Coverage90:       m.Coverage90,
			CalibrationError: m.CalibrationError,
		}
	}
	if err := writeRows(e.path("metrics", report.RunID), metrics); err != nil {
		return fmt.Errorf("export.ExportEvaluation: %w", err)
	}
	return nil
}

// ExportForecasts escribe forecasts_<run>.parquet.
func (e *ParquetExporter) ExportForecasts(runID string, forecasts []domain.Forecast) error {
	rows := make([]ForecastRow, len(forecasts))
	for i, f := range forecasts {
		rows[i] = ForecastRow{
			RunID:         runID,
			Variable:      f.Variable,
			CutoffYear:    int32(f.CutoffYear),
			TargetYear:    int32(f.TargetYear),
			Model:         f.Model,
			PointEstimate: f.PointEstimate,
			Lower:         f.LowerBound,
			Upper:         f.UpperBound,
		}
		if f.RawResponse != "" {
			raw := f.RawResponse
			rows[i].RawResponse = &raw
		}
	}
	if err := writeRows(e.path("forecasts", runID), rows); err != nil {
		return fmt.Errorf("export.ExportForecasts: %w", err)
	}
	return nil
}

// ExportCalibration escribe calibration_<run>.parquet.
func (e *ParquetExporter) ExportCalibration(report domain.CalibrationReport) error {
	rows := make([]CalibrationRow, len(report.Entries))
	for i, en := range report.Entries {
		q := en.Quantiles
		rows[i] = CalibrationRow{
			RunID:            report.RunID,
			Model:            report.Model,
			CutoffYear:       int32(report.CutoffYear),
			TargetYear:       int32(report.TargetYear),
			Variable:         en.Variable,
			Actual:           en.Actual,
			Q10:              q.Q10,
			Q25:              q.Q25,
			Q50:              q.Q50,
			Q75:              q.Q75,
			Q90:              q.Q90,
			Mean:             en.Mean,
			Std:              en.Std,
			RawCRPS:          en.RawCRPS,
			SpreadMultiplier: report.SpreadMultiplier,
			CalibratedStd:    en.Calibrated.CalibratedStd,
			CILower:          en.Calibrated.CILower,
			CIUpper:          en.Calibrated.CIUpper,
		}
	}
	if err := writeRows(e.path("calibration", report.RunID), rows); err != nil {
		return fmt.Errorf("export.ExportCalibration: %w", err)
	}
	return nil
}

func (e *ParquetExporter) path(table, runID string) string {
	return filepath.Join(e.dir, table+"_"+runID+".parquet")
}

// writeRows escribe rows en path con el schema inferido de las tags de T.
func writeRows[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		return fmt.Errorf("write %q: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("flush %q: %w", path, err)
	}
	return file.Close()
}
