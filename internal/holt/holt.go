// Package holt implements Holt's linear-trend exponential smoothing (additive
// trend, no seasonality).
//
// Smoothing parameters are chosen by minimizing the in-sample one-step-ahead
// sum of squared errors over [0,1]²: a coarse grid followed by alternating
// bounded Brent searches. Initial level and trend come from an OLS line over
// the whole sample.
package holt

import (
	"errors"
	"math"

	"github.com/alejandrodnm/valuecast/internal/stats"
	gstat "gonum.org/v1/gonum/stat"
)

const (
	gridStep     = 0.1
	refineRounds = 3
)

var (
	ErrInsufficientData = errors.New("holt: at least 2 observations are required")
	ErrNonFinite        = errors.New("holt: non-finite value in fit")
	ErrNotFitted        = errors.New("holt: model must be fitted before forecasting")
)

// Model is a fitted Holt model.
type Model struct {
	Alpha float64 // level smoothing
	Beta  float64 // trend smoothing
	Level float64 // level after the last observation
	Trend float64 // trend after the last observation
	SSE   float64

	initLevel float64
	initTrend float64
	residuals []float64
	fitted    bool
}

// Fit estimates alpha and beta for y.
func Fit(y []float64) (*Model, error) {
	if len(y) < 2 {
		return nil, ErrInsufficientData
	}
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNonFinite
		}
	}

	t := make([]float64, len(y))
	for i := range t {
		t[i] = float64(i)
	}
	intercept, slope := gstat.LinearRegression(t, y, nil, false)
	m := &Model{initLevel: intercept - slope, initTrend: slope}

	sse := func(alpha, beta float64) float64 {
		s, _, _, _ := m.run(y, alpha, beta)
		return s
	}

	alpha, beta := 0.5, 0.5
	best := math.Inf(1)
	for a := 0.0; a <= 1+1e-9; a += gridStep {
		for b := 0.0; b <= 1+1e-9; b += gridStep {
			if s := sse(math.Min(a, 1), math.Min(b, 1)); s < best {
				best, alpha, beta = s, math.Min(a, 1), math.Min(b, 1)
			}
		}
	}

	for r := 0; r < refineRounds; r++ {
		ra, err := stats.MinimizeBounded(func(a float64) float64 { return sse(a, beta) }, 0, 1, stats.DefaultBoundedSettings())
		if err != nil {
			return nil, err
		}
		if ra.F < best {
			best, alpha = ra.F, ra.X
		}
		rb, err := stats.MinimizeBounded(func(b float64) float64 { return sse(alpha, b) }, 0, 1, stats.DefaultBoundedSettings())
		if err != nil {
			return nil, err
		}
		if rb.F < best {
			best, beta = rb.F, rb.X
		}
	}

	s, level, trend, residuals := m.run(y, alpha, beta)
	if math.IsNaN(s) || math.IsInf(s, 0) || math.IsNaN(level) || math.IsNaN(trend) {
		return nil, ErrNonFinite
	}

	m.Alpha, m.Beta = alpha, beta
	m.Level, m.Trend = level, trend
	m.SSE = s
	m.residuals = residuals
	m.fitted = true
	return m, nil
}

// run applies the smoothing recursion and returns SSE, final states and residuals.
func (m *Model) run(y []float64, alpha, beta float64) (sse, level, trend float64, residuals []float64) {
	level, trend = m.initLevel, m.initTrend
	residuals = make([]float64, len(y))
	for i, v := range y {
		pred := level + trend
		e := v - pred
		residuals[i] = e
		sse += e * e

		prevLevel := level
		level = alpha*v + (1-alpha)*pred
		trend = beta*(level-prevLevel) + (1-beta)*trend
	}
	return sse, level, trend, residuals
}

// Forecast returns level + h·trend for h = 1..steps.
func (m *Model) Forecast(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, errors.New("holt: steps must be at least 1")
	}
	out := make([]float64, steps)
	for h := range out {
		out[h] = m.Level + float64(h+1)*m.Trend
	}
	return out, nil
}

// Residuals returns the one-step-ahead in-sample errors.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.residuals...)
}
