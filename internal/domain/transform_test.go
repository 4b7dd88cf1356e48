package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogit_Midpoint(t *testing.T) {
	assert.InDelta(t, 0.0, Logit(0.5), 1e-12)
}

func TestLogit_FiniteAtBounds(t *testing.T) {
	lo := Logit(0)
	hi := Logit(1)
	assert.False(t, math.IsInf(lo, 0))
	assert.False(t, math.IsInf(hi, 0))
	assert.InDelta(t, math.Log(1e-6/(1-1e-6)), lo, 1e-9)
	assert.InDelta(t, -lo, hi, 1e-9)
}

func TestLogit_RoundTrip(t *testing.T) {
	for _, p := range []float64{1e-5, 0.01, 0.2, 0.5, 0.73, 0.99, 1 - 1e-5} {
		assert.InDelta(t, p, InverseLogit(Logit(p)), 1e-9, "p=%v", p)
	}
}

func TestInverseLogit_Saturates(t *testing.T) {
	assert.InDelta(t, 1.0, InverseLogit(1000), 1e-12)
	assert.InDelta(t, 0.0, InverseLogit(-1000), 1e-12)
	assert.False(t, math.IsNaN(InverseLogit(-1000)))
}

func TestPercentLogit_RoundTrip(t *testing.T) {
	assert.InDelta(t, 41.0, LogitToPercent(PercentToLogit(41)), 1e-9)
}

// --- NewBoundedForecast ---

func TestNewBoundedForecast_OrdersAndClamps(t *testing.T) {
	req := ForecastRequest{Variable: "X", CutoffYear: 2010}
	f, ok := NewBoundedForecast(req, 2020, 100, 99.5, 99.9, ModelNaive, "")
	assert.True(t, ok)
	assert.Equal(t, 100.0, f.PointEstimate)
	assert.Equal(t, 100.0, f.UpperBound)
	assert.LessOrEqual(t, f.LowerBound, f.PointEstimate)

	f, ok = NewBoundedForecast(req, 2020, -3, -10, 5, ModelNaive, "")
	assert.True(t, ok)
	assert.Equal(t, 0.0, f.PointEstimate)
	assert.Equal(t, 0.0, f.LowerBound)
	assert.Equal(t, 5.0, f.UpperBound)
}

func TestNewBoundedForecast_RejectsNonFinite(t *testing.T) {
	_, ok := NewBoundedForecast(ForecastRequest{}, 2020, math.NaN(), 1, 2, ModelNaive, "")
	assert.False(t, ok)
	_, ok = NewBoundedForecast(ForecastRequest{}, 2020, 50, math.Inf(-1), 2, ModelNaive, "")
	assert.False(t, ok)
}

// --- Trajectory ---

func TestVariable_Since(t *testing.T) {
	traj := Trajectory{1990: 13, 1980: 14}
	assert.Equal(t, 1973, Variable{FirstYear: 1973, Trajectory: traj}.Since())
	assert.Equal(t, 1980, Variable{Trajectory: traj}.Since())
	assert.Equal(t, 0, Variable{}.Since())
}

func TestPointForecastRequest_ForecastRequest(t *testing.T) {
	v := Variable{ID: "GRASS", Trajectory: Trajectory{2000: 31}}
	req := PointForecastRequest{Variable: v, CutoffYear: 2000, TargetYears: []int{2010}}.ForecastRequest()
	assert.Equal(t, ForecastRequest{Variable: "GRASS", Trajectory: v.Trajectory, CutoffYear: 2000, TargetYears: []int{2010}}, req)
}

func TestTrajectory_HistoryIsSortedAndFiltered(t *testing.T) {
	traj := Trajectory{2010: 41, 1990: 13, 2018: 58, 2000: 27}
	years, values := traj.History(2010)
	assert.Equal(t, []int{1990, 2000, 2010}, years)
	assert.Equal(t, []float64{13, 27, 41}, values)
	assert.Equal(t, []int{2018}, traj.YearsAfter(2010))
}
