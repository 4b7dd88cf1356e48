package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []ForecastResult {
	return []ForecastResult{
		{Variable: "A", Predicted: 50, Actual: 45, Lower: 40, Upper: 60, Model: ModelNaive},
		{Variable: "B", Predicted: 30, Actual: 40, Lower: 25, Upper: 35, Model: ModelNaive},
	}
}

func TestForecastResult_DerivedFields(t *testing.T) {
	r := ForecastResult{Predicted: 50, Actual: 45, Lower: 40, Upper: 60}
	assert.Equal(t, 5.0, r.Error())
	assert.Equal(t, 5.0, r.AbsoluteError())
	assert.True(t, r.InInterval())

	edge := ForecastResult{Predicted: 50, Actual: 60, Lower: 40, Upper: 60}
	assert.True(t, edge.InInterval())
}

func TestMetrics(t *testing.T) {
	rs := sampleResults()
	assert.InDelta(t, 7.5, MAE(rs), 1e-12)
	assert.InDelta(t, math.Sqrt(62.5), RMSE(rs), 1e-12)
	assert.InDelta(t, -2.5, Bias(rs), 1e-12)
	assert.InDelta(t, 0.5, Coverage(rs), 1e-12)
	assert.InDelta(t, 0.4, CalibrationError(rs, 0.90), 1e-12)
}

func TestCoverage_HalfInside(t *testing.T) {
	rs := []ForecastResult{
		{Predicted: 50, Actual: 45, Lower: 40, Upper: 60},
		{Predicted: 50, Actual: 60, Lower: 40, Upper: 60},
		{Predicted: 50, Actual: 70, Lower: 40, Upper: 60},
		{Predicted: 50, Actual: 39, Lower: 40, Upper: 60},
	}
	assert.InDelta(t, 0.5, Coverage(rs), 1e-12)
}

func TestCalibrationError_NothingCovered(t *testing.T) {
	rs := []ForecastResult{{Predicted: 1, Actual: 50, Lower: 0, Upper: 2}}
	assert.Equal(t, 0.0, Coverage(rs))
	assert.InDelta(t, 0.90, CalibrationError(rs, 0.90), 1e-12)
}

func TestMetrics_EmptyReturnZero(t *testing.T) {
	assert.Equal(t, 0.0, MAE(nil))
	assert.Equal(t, 0.0, RMSE(nil))
	assert.Equal(t, 0.0, Bias(nil))
	assert.Equal(t, 0.0, Coverage(nil))
	assert.Equal(t, 0.0, CalibrationError(nil, 0.9))
	assert.Equal(t, ModelMetrics{}, Evaluate(nil))
}

func TestEvaluateByModel(t *testing.T) {
	rs := append(sampleResults(),
		ForecastResult{Variable: "A", Predicted: 46, Actual: 45, Lower: 40, Upper: 50, Model: ModelLinear},
	)
	ms := EvaluateByModel(rs)
	require.Len(t, ms, 2)

	assert.Equal(t, ModelLinear, ms[0].Model)
	assert.Equal(t, 1, ms[0].NForecasts)
	assert.InDelta(t, 1.0, ms[0].MAE, 1e-12)
	assert.InDelta(t, 0.1, ms[0].CalibrationError, 1e-12)

	assert.Equal(t, ModelNaive, ms[1].Model)
	assert.Equal(t, 2, ms[1].NForecasts)
}

// --- cost ---

func TestModelConfig_Cost(t *testing.T) {
	m, err := LookupModel("gpt-4o")
	require.NoError(t, err)
	// 1000 × 2.50/1M + 100 × 10/1M
	assert.InDelta(t, 0.0035, m.Cost(Usage{InputTokens: 1000, OutputTokens: 100}), 1e-12)
}

func TestLookupModel_Unknown(t *testing.T) {
	_, err := LookupModel("gpt-99")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestCostTracker_Accumulates(t *testing.T) {
	tr := NewCostTracker()
	gpt := SupportedModels["gpt-4o-mini"]
	claude := SupportedModels["claude-sonnet-4-20250514"]

	tr.Add(gpt, Usage{InputTokens: 1_000_000})
	tr.Add(claude, Usage{OutputTokens: 1_000_000})

	s := tr.Summary()
	assert.Equal(t, 2, s.Calls)
	assert.Equal(t, 1_000_000, s.InputTokens)
	assert.InDelta(t, 0.15+15.0, s.TotalCost, 1e-9)
	assert.InDelta(t, 0.15, tr.ModelCost("gpt-4o-mini"), 1e-9)
}
