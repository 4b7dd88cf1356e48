package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- CRPS ---

func TestCRPS_PerfectForecastIsSmall(t *testing.T) {
	assert.Less(t, CRPS(50, 50, 0.1), 0.1)
	// z = 0: sigma × (2φ(0) - 1/√π)
	assert.InDelta(t, 0.23370, CRPS(50, 50, 1), 1e-4)
}

func TestCRPS_CloserMeanScoresBetter(t *testing.T) {
	assert.Less(t, CRPS(50, 52, 5), CRPS(50, 60, 5))
}

func TestCRPS_WiderIsBetterWhenMiss(t *testing.T) {
	assert.Less(t, CRPS(50, 60, 10), CRPS(50, 60, 2))
}

func TestCRPS_NonPositiveSigmaUsesFloor(t *testing.T) {
	assert.InDelta(t, CRPS(50, 50, CRPSSigmaFloor), CRPS(50, 50, 0), 1e-12)
	assert.InDelta(t, CRPS(50, 51, CRPSSigmaFloor), CRPS(50, 51, -3), 1e-12)
	assert.GreaterOrEqual(t, CRPS(50, 50, 0), 0.0)
}

// --- QuantilesToGaussian ---

func TestQuantilesToGaussian_IQR(t *testing.T) {
	mean, std := QuantilesToGaussian(QuantileForecast{40, 45, 50, 55, 60})
	assert.Equal(t, 50.0, mean)
	assert.InDelta(t, 10/1.35, std, 1e-9)
}

func TestQuantilesToGaussian_FallsBackToOuterRange(t *testing.T) {
	_, std := QuantilesToGaussian(QuantileForecast{48, 50, 50, 50, 52})
	assert.InDelta(t, 4/2.56, std, 1e-9)
}

func TestQuantilesToGaussian_DegenerateDefault(t *testing.T) {
	mean, std := QuantilesToGaussian(QuantileForecast{50, 50, 50, 50, 50})
	assert.Equal(t, 50.0, mean)
	assert.Equal(t, DefaultQuantileStd, std)
}

func TestSortedQuantiles(t *testing.T) {
	q, err := SortedQuantiles([]float64{60, 40, 50, 55, 45, 99})
	require.NoError(t, err)
	assert.Equal(t, QuantileForecast{40, 45, 50, 55, 60}, q)
	assert.NoError(t, q.Validate())

	_, err = SortedQuantiles([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestQuantileForecast_ValidateRejectsNonMonotonic(t *testing.T) {
	err := QuantileForecast{40, 50, 45, 55, 60}.Validate()
	assert.ErrorIs(t, err, ErrInvalidQuantile)
}

// --- CalibrateSpread ---

func TestCalibrateSpread_OverconfidentWidens(t *testing.T) {
	forecasts := []GaussianForecast{{50, 2}, {60, 2}, {70, 2}}
	actuals := []float64{48, 58, 67}

	fit, err := CalibrateSpread(forecasts, actuals)
	require.NoError(t, err)

	raw := 0.0
	for i, f := range forecasts {
		raw += CRPS(actuals[i], f.Mean, f.Std)
	}
	raw /= 3

	assert.Greater(t, fit.Multiplier, 1.0)
	assert.LessOrEqual(t, fit.MeanCRPS, raw)
}

func TestCalibrateSpread_MultiplierWithinBounds(t *testing.T) {
	fit, err := CalibrateSpread([]GaussianForecast{{50, 5}, {60, 5}, {70, 5}}, []float64{48, 58, 72})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fit.Multiplier, SpreadMultMin)
	assert.LessOrEqual(t, fit.Multiplier, SpreadMultMax)
}

func TestCalibrateSpread_Empty(t *testing.T) {
	fit, err := CalibrateSpread(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, SpreadFit{Multiplier: 1, MeanCRPS: 0}, fit)
}

func TestCalibrateSpread_LengthMismatch(t *testing.T) {
	_, err := CalibrateSpread([]GaussianForecast{{50, 5}}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

// --- ApplyCalibration / coverage / mean CRPS ---

func TestApplyCalibration_Widens(t *testing.T) {
	c := ApplyCalibration(QuantileForecast{40, 45, 50, 55, 60}, 1.5, 0.80)
	assert.Equal(t, 50.0, c.Median)
	assert.Greater(t, c.CIUpper-c.CILower, 20.0)
	assert.InDelta(t, c.RawStd*1.5, c.CalibratedStd, 1e-12)
	// z(0.90) = 1.2816
	assert.InDelta(t, 50+1.28155*c.CalibratedStd, c.CIUpper, 1e-3)
}

func TestApplyCalibration_InvalidLevelUsesDefault(t *testing.T) {
	q := QuantileForecast{40, 45, 50, 55, 60}
	assert.Equal(t, ApplyCalibration(q, 1, DefaultCILevel), ApplyCalibration(q, 1, 1.5))
}

func TestCalibratedCoverage(t *testing.T) {
	fs := []CalibratedForecast{
		{Median: 50, CILower: 40, CIUpper: 60},
		{Median: 50, CILower: 40, CIUpper: 60},
	}
	cov, err := CalibratedCoverage(fs, []float64{60, 61})
	require.NoError(t, err)
	assert.Equal(t, 0.5, cov)

	cov, err = CalibratedCoverage(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cov)

	_, err = CalibratedCoverage(fs, []float64{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestMeanCRPS(t *testing.T) {
	fs := []CalibratedForecast{{Median: 50, CalibratedStd: 1}, {Median: 50, CalibratedStd: 1}}
	m, err := MeanCRPS(fs, []float64{50, 50})
	require.NoError(t, err)
	assert.InDelta(t, CRPS(50, 50, 1), m, 1e-12)

	_, err = MeanCRPS(fs, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	m, err = MeanCRPS(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m)
}

func TestRawCoverage(t *testing.T) {
	qs := []QuantileForecast{{40, 45, 50, 55, 60}, {40, 45, 50, 55, 60}}
	cov50, err := RawCoverage(qs, []float64{52, 58}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cov50)

	cov80, err := RawCoverage(qs, []float64{52, 58}, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cov80)

	_, err = RawCoverage(qs, []float64{52, 58}, 0.9)
	assert.Error(t, err)
}
