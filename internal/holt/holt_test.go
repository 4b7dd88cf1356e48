package holt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit_PerfectLineHasNoError(t *testing.T) {
	y := []float64{1, 3, 5, 7, 9}
	m, err := Fit(y)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, m.SSE, 1e-9)
	fc, err := m.Forecast(3)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{11, 13, 15}, fc, 1e-6)
}

func TestFit_ParametersInUnitSquare(t *testing.T) {
	m, err := Fit([]float64{-2.1, -1.8, -1.9, -1.0, -0.4, 0.3, 0.6})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.Alpha, 0.0)
	assert.LessOrEqual(t, m.Alpha, 1.0)
	assert.GreaterOrEqual(t, m.Beta, 0.0)
	assert.LessOrEqual(t, m.Beta, 1.0)
	assert.Len(t, m.Residuals(), 7)
}

func TestFit_RefinementNeverWorseThanGrid(t *testing.T) {
	y := []float64{0.2, 0.9, 0.4, 1.6, 1.1, 2.4}
	m, err := Fit(y)
	require.NoError(t, err)

	grid := math.Inf(1)
	for a := 0.0; a <= 1; a += 0.1 {
		for b := 0.0; b <= 1; b += 0.1 {
			s, _, _, _ := m.run(y, a, b)
			grid = math.Min(grid, s)
		}
	}
	assert.LessOrEqual(t, m.SSE, grid+1e-12)
}

func TestFit_Errors(t *testing.T) {
	_, err := Fit([]float64{1})
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Fit([]float64{1, math.NaN(), 2})
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestForecast_NotFitted(t *testing.T) {
	_, err := (&Model{}).Forecast(1)
	assert.ErrorIs(t, err, ErrNotFitted)
}
