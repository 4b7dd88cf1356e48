package export_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/valuecast/internal/adapters/export"
	"github.com/alejandrodnm/valuecast/internal/domain"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	reader := parquet.NewGenericReader[T](file)
	defer reader.Close()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestSchemas(t *testing.T) {
	cases := map[string]struct {
		schema  *parquet.Schema
		columns []string
	}{
		"results":     {parquet.SchemaOf(new(export.ResultRow)), []string{"run_id", "variable", "predicted", "actual", "in_interval"}},
		"metrics":     {parquet.SchemaOf(new(export.MetricsRow)), []string{"model", "mae", "coverage_90"}},
		"forecasts":   {parquet.SchemaOf(new(export.ForecastRow)), []string{"point_estimate", "raw_response"}},
		"calibration": {parquet.SchemaOf(new(export.CalibrationRow)), []string{"q10", "q50", "q90", "spread_multiplier", "ci_lower"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			for _, col := range tc.columns {
				_, ok := tc.schema.Lookup(col)
				assert.True(t, ok, "column %s", col)
			}
		})
	}
}

func TestExportEvaluation(t *testing.T) {
	dir := t.TempDir()
	exp, err := export.NewParquetExporter(dir)
	require.NoError(t, err)

	results := []domain.ForecastResult{
		{Variable: "HOMOSEX", CutoffYear: 2000, TargetYear: 2010, Predicted: 50, Actual: 52, Lower: 40, Upper: 60, Model: "naive"},
		{Variable: "HOMOSEX", CutoffYear: 2000, TargetYear: 2010, Predicted: 30, Actual: 52, Lower: 25, Upper: 35, Model: "linear_logit"},
	}
	report := domain.EvaluationReport{
		RunID:     "abc",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Results:   results,
		Metrics:   domain.EvaluateByModel(results),
	}
	require.NoError(t, exp.ExportEvaluation(report))

	rows := readAll[export.ResultRow](t, filepath.Join(dir, "results_abc.parquet"))
	require.Len(t, rows, 2)
	assert.Equal(t, "abc", rows[0].RunID)
	assert.Equal(t, int32(2010), rows[0].TargetYear)
	assert.True(t, rows[0].InInterval)
	assert.False(t, rows[1].InInterval)

	metrics := readAll[export.MetricsRow](t, filepath.Join(dir, "metrics_abc.parquet"))
	require.Len(t, metrics, 2)
	assert.Equal(t, "naive", metrics[0].Model)
	assert.InDelta(t, 2.0, metrics[0].MAE, 1e-9)
}

func TestExportForecasts_OptionalRaw(t *testing.T) {
	dir := t.TempDir()
	exp, err := export.NewParquetExporter(filepath.Join(dir, "nested"))
	require.NoError(t, err)

	fs := []domain.Forecast{
		{Variable: "GRASS", CutoffYear: 2018, TargetYear: 2030, PointEstimate: 70, LowerBound: 60, UpperBound: 80, Model: "naive", RawResponse: "Last value: 61"},
		{Variable: "GRASS", CutoffYear: 2018, TargetYear: 2030, PointEstimate: 72, LowerBound: 65, UpperBound: 79, Model: "linear_logit"},
	}
	require.NoError(t, exp.ExportForecasts("r1", fs))

	rows := readAll[export.ForecastRow](t, filepath.Join(dir, "nested", "forecasts_r1.parquet"))
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].RawResponse)
	assert.Equal(t, "Last value: 61", *rows[0].RawResponse)
	assert.Nil(t, rows[1].RawResponse)
}

func TestExportCalibration(t *testing.T) {
	dir := t.TempDir()
	exp, err := export.NewParquetExporter(dir)
	require.NoError(t, err)

	q := domain.QuantileForecast{Q10: 40, Q25: 45, Q50: 50, Q75: 55, Q90: 60}
	report := domain.CalibrationReport{
		RunID:            "cal",
		Model:            "gpt-4o",
		CutoffYear:       2000,
		TargetYear:       2010,
		SpreadMultiplier: 1.5,
		Entries: []domain.CalibrationEntry{{
			Variable:   "HOMOSEX",
			Actual:     52,
			Quantiles:  q,
			Calibrated: domain.ApplyCalibration(q, 1.5, domain.DefaultCILevel),
		}},
	}
	require.NoError(t, exp.ExportCalibration(report))

	rows := readAll[export.CalibrationRow](t, filepath.Join(dir, "calibration_cal.parquet"))
	require.Len(t, rows, 1)
	assert.Equal(t, "gpt-4o", rows[0].Model)
	assert.InDelta(t, 50.0, rows[0].Q50, 1e-9)
	assert.InDelta(t, 1.5, rows[0].SpreadMultiplier, 1e-9)
	assert.Less(t, rows[0].CILower, rows[0].CIUpper)
}
