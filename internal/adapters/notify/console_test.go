package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/valuecast/internal/adapters/notify"
	"github.com/alejandrodnm/valuecast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_NotifyEvaluation(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	results := []domain.ForecastResult{
		{Variable: "HOMOSEX", CutoffYear: 2000, TargetYear: 2010, Predicted: 50, Actual: 52, Lower: 40, Upper: 60, Model: "naive"},
		{Variable: "GRASS", CutoffYear: 2000, TargetYear: 2010, Predicted: 30, Actual: 44, Lower: 25, Upper: 35, Model: "linear_logit"},
	}
	report := domain.EvaluationReport{
		CreatedAt:   time.Now(),
		CutoffYears: []int{2000},
		Results:     results,
		Metrics:     domain.EvaluateByModel(results),
	}
	require.NoError(t, n.NotifyEvaluation(context.Background(), report))

	out := buf.String()
	assert.Contains(t, out, "naive")
	assert.Contains(t, out, "linear_logit")
	assert.Contains(t, out, "2.00")
	assert.Contains(t, out, "GRASS") // detalle verbose
	assert.Contains(t, out, "-14.0")
	assert.NotContains(t, out, "LLM cost")
}

func TestConsole_NotifyEvaluation_WithLLMCost(t *testing.T) {
	var buf bytes.Buffer
	results := []domain.ForecastResult{
		{Variable: "HOMOSEX", CutoffYear: 2000, TargetYear: 2010, Predicted: 45, Actual: 41, Lower: 35, Upper: 55, Model: "gpt-4o"},
	}
	report := domain.EvaluationReport{
		RunID:   "run-7",
		Results: results,
		Metrics: domain.EvaluateByModel(results),
		Cost:    domain.CostSummary{Calls: 3, InputTokens: 900, OutputTokens: 120, TotalCost: 0.0125},
	}
	require.NoError(t, notify.NewConsoleWriter(&buf, false).NotifyEvaluation(context.Background(), report))

	out := buf.String()
	assert.Contains(t, out, "evaluation run-7")
	assert.Contains(t, out, "gpt-4o")
	assert.Contains(t, out, "LLM cost: $0.0125 (3 calls, 900 in / 120 out tokens)")
}

func TestConsole_NotifyEvaluation_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, notify.NewConsoleWriter(&buf, false).NotifyEvaluation(context.Background(), domain.EvaluationReport{}))
	assert.Contains(t, buf.String(), "no forecasts could be evaluated")
}

func TestConsole_NotifyCalibration(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	q := domain.QuantileForecast{Q10: 40, Q25: 45, Q50: 50, Q75: 55, Q90: 60}
	report := domain.CalibrationReport{
		Model:            "gpt-4o",
		CutoffYear:       2000,
		TargetYear:       2010,
		SpreadMultiplier: 1.8,
		Calibrated:       true,
		RawMeanCRPS:      4,
		RawCoverage80:    0.5,
		Entries: []domain.CalibrationEntry{{
			Variable:   "HOMOSEX",
			Actual:     52,
			Quantiles:  q,
			Calibrated: domain.ApplyCalibration(q, 1.8, domain.DefaultCILevel),
		}},
		CalibratedMeanCRPS: 3,
		Cost:               domain.CostSummary{Calls: 1, TotalCost: 0.0012},
	}
	require.NoError(t, n.NotifyCalibration(context.Background(), report))

	out := buf.String()
	assert.Contains(t, out, "gpt-4o")
	assert.Contains(t, out, "HOMOSEX")
	assert.Contains(t, out, "1.800 (overconfident")
	assert.Contains(t, out, "-25.0%")
	assert.Contains(t, out, "50% (target 80%)")
	assert.Contains(t, out, "$0.0012")
}

func TestConsole_NotifyCalibration_NotCalibrated(t *testing.T) {
	var buf bytes.Buffer
	q := domain.QuantileForecast{Q10: 40, Q25: 45, Q50: 50, Q75: 55, Q90: 60}
	report := domain.CalibrationReport{
		Model:            "gpt-4o",
		SpreadMultiplier: 1,
		Entries:          []domain.CalibrationEntry{{Variable: "X", Quantiles: q}},
	}
	require.NoError(t, notify.NewConsoleWriter(&buf, false).NotifyCalibration(context.Background(), report))
	assert.Contains(t, buf.String(), "not enough forecasts to calibrate")
}

func TestConsole_NotifyComparison_SortsByCalibratedCRPS(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	results := []domain.ModelComparison{
		{Model: "gpt-4o-mini", CalibratedCRPS: 5.1, NForecasts: 4},
		{Model: "claude-sonnet", CalibratedCRPS: 3.2, NForecasts: 4},
	}
	require.NoError(t, n.NotifyComparison(context.Background(), results))
	assert.Contains(t, buf.String(), "Best: claude-sonnet")
}

func TestConsole_NotifyForecastsAndLongTerm(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)
	ctx := context.Background()

	require.NoError(t, n.NotifyForecasts(ctx, nil))
	assert.Contains(t, buf.String(), "no forecasts produced")

	buf.Reset()
	fs := []domain.Forecast{{Variable: "GRASS", TargetYear: 2030, Model: "naive", PointEstimate: 70.25, LowerBound: 60, UpperBound: 80}}
	require.NoError(t, n.NotifyForecasts(ctx, fs))
	assert.Contains(t, buf.String(), "70.2%")
	assert.Contains(t, buf.String(), "[60.0, 80.0]")

	buf.Reset()
	q := domain.QuantileForecast{Q10: 60, Q25: 65, Q50: 70, Q75: 75, Q90: 80}
	lt := []domain.LongTermForecast{{
		Variable: "GRASS", TargetYear: 2050, Model: "gpt-4o", Quantiles: q,
		Calibrated: domain.ApplyCalibration(q, 1.2, domain.DefaultCILevel),
	}}
	require.NoError(t, n.NotifyLongTerm(ctx, lt))
	assert.Contains(t, buf.String(), "2050")
	assert.Contains(t, buf.String(), "70.0%")
}
