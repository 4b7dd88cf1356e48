// Package arima implements ARIMA(p, d, 0) models fitted by conditional least
// squares, with psi-weight forecast intervals.
//
// The forecasters work on very short annual series (4-10 points), so the
// fit requires only enough observations to identify the AR coefficients:
//
//	m := arima.New(1, 1, 0)
//	if err := m.Fit(values); err != nil {
//	    // arima.ErrInsufficientVariation, arima.ErrInsufficientData, ...
//	}
//	fc, _ := m.Forecast(10)
//	lo, hi := fc.Interval(9, 1.645)
package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// maxARCoeff keeps the AR polynomial inside the stationarity region.
const maxARCoeff = 0.99

var (
	ErrUnsupportedOrder      = errors.New("arima: unsupported order")
	ErrInsufficientData      = errors.New("arima: insufficient data points for the specified order")
	ErrInsufficientVariation = errors.New("arima: series has no variation after differencing")
	ErrNonFinite             = errors.New("arima: non-finite estimate")
	ErrNotFitted             = errors.New("arima: model must be fitted before forecasting")
)

// Order represents ARIMA model order (p, d, q).
type Order struct {
	P int // AR order
	D int // differencing order
	Q int // MA order (only 0 is supported)
}

func (o Order) String() string {
	return fmt.Sprintf("(%d, %d, %d)", o.P, o.D, o.Q)
}

// Model represents an ARIMA model.
type Model struct {
	Order     Order
	ARCoeffs  []float64
	Intercept float64 // mean of the series, only when D == 0
	Variance  float64 // residual variance

	levels    [][]float64 // levels[k] is the series differenced k times
	residuals []float64
	fitted    bool
}

// New creates a new ARIMA model with the specified order.
func New(p, d, q int) *Model {
	return &Model{Order: Order{P: p, D: d, Q: q}}
}

// Fit estimates the AR coefficients on the differenced series.
// No constant is estimated when D >= 1.
func (m *Model) Fit(y []float64) error {
	p, d := m.Order.P, m.Order.D
	if p < 0 || d < 0 || m.Order.Q != 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedOrder, m.Order)
	}
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFinite
		}
	}

	levels := [][]float64{append([]float64(nil), y...)}
	for k := 0; k < d; k++ {
		levels = append(levels, diff(levels[k]))
	}
	w := levels[d]
	if len(w) < 2 || len(w) < 2*p+1 {
		return fmt.Errorf("%w: %d observations for order %s", ErrInsufficientData, len(y), m.Order)
	}

	intercept := 0.0
	if d == 0 {
		intercept = mean(w)
	}
	z := make([]float64, len(w))
	for i, v := range w {
		z[i] = v - intercept
	}

	coeffs, err := conditionalLeastSquares(z, p)
	if err != nil {
		return err
	}

	residuals := make([]float64, 0, len(z)-p)
	sse := 0.0
	for t := p; t < len(z); t++ {
		e := z[t]
		for i, phi := range coeffs {
			e -= phi * z[t-i-1]
		}
		residuals = append(residuals, e)
		sse += e * e
	}
	variance := sse / float64(len(residuals))
	if math.IsNaN(variance) || math.IsInf(variance, 0) {
		return ErrNonFinite
	}

	m.ARCoeffs = coeffs
	m.Intercept = intercept
	m.Variance = variance
	m.levels = levels
	m.residuals = residuals
	m.fitted = true
	return nil
}

// conditionalLeastSquares regresses z[t] on z[t-1..t-p].
func conditionalLeastSquares(z []float64, p int) ([]float64, error) {
	if p == 0 {
		return nil, nil
	}
	rows := len(z) - p
	x := mat.NewDense(rows, p, nil)
	target := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := r + p
		for i := 0; i < p; i++ {
			x.Set(r, i, z[t-i-1])
		}
		target.SetVec(r, z[t])
	}

	if mat.Norm(target, 2) == 0 {
		return nil, ErrInsufficientVariation
	}

	// Identically zero lags keep a zero coefficient; the rest are estimated on
	// the remaining columns. With no usable lag the model is a random walk.
	var active []int
	for i := 0; i < p; i++ {
		if mat.Norm(x.ColView(i), 2) != 0 {
			active = append(active, i)
		}
	}
	coeffs := make([]float64, p)
	if len(active) == 0 {
		return coeffs, nil
	}

	design := mat.NewDense(rows, len(active), nil)
	for j, i := range active {
		design.SetCol(j, mat.Col(nil, i, x))
	}
	var phi mat.VecDense
	if err := phi.SolveVec(design, target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientVariation, err)
	}

	for j, i := range active {
		c := phi.AtVec(j)
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, ErrNonFinite
		}
		coeffs[i] = math.Max(-maxARCoeff, math.Min(maxARCoeff, c))
	}
	return coeffs, nil
}

// Forecast holds point forecasts and their standard errors on the original scale.
type Forecast struct {
	Mean   []float64
	StdErr []float64
}

// Interval returns mean ± z·stderr for the given step index.
func (f Forecast) Interval(i int, z float64) (lower, upper float64) {
	return f.Mean[i] - z*f.StdErr[i], f.Mean[i] + z*f.StdErr[i]
}

// Forecast generates forecasts for the specified number of steps ahead.
func (m *Model) Forecast(steps int) (Forecast, error) {
	if !m.fitted {
		return Forecast{}, ErrNotFitted
	}
	if steps < 1 {
		return Forecast{}, errors.New("arima: steps must be at least 1")
	}

	d := m.Order.D
	w := m.levels[d]
	n := len(w)

	ext := make([]float64, n+steps)
	for i, v := range w {
		ext[i] = v - m.Intercept
	}
	for h := 0; h < steps; h++ {
		t := n + h
		pred := 0.0
		for i, phi := range m.ARCoeffs {
			pred += phi * ext[t-i-1]
		}
		ext[t] = pred
	}

	means := make([]float64, steps)
	for h := range means {
		means[h] = ext[n+h] + m.Intercept
	}
	for k := d - 1; k >= 0; k-- {
		means = integrate(means, m.levels[k][len(m.levels[k])-1])
	}

	psi := psiWeights(m.ARCoeffs, d, steps)
	stderr := make([]float64, steps)
	cum := 0.0
	for h := 0; h < steps; h++ {
		cum += psi[h] * psi[h]
		stderr[h] = math.Sqrt(m.Variance * cum)
	}

	return Forecast{Mean: means, StdErr: stderr}, nil
}

// Residuals returns the in-sample residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.residuals...)
}

// psiWeights returns the first n MA(∞) weights of φ(B)(1-B)^d.
func psiWeights(ar []float64, d, n int) []float64 {
	// φ(B) = 1 - φ1 B - ... - φp B^p
	poly := make([]float64, len(ar)+1)
	poly[0] = 1
	for i, phi := range ar {
		poly[i+1] = -phi
	}
	for k := 0; k < d; k++ {
		next := make([]float64, len(poly)+1)
		for i, c := range poly {
			next[i] += c
			next[i+1] -= c
		}
		poly = next
	}

	psi := make([]float64, n)
	if n == 0 {
		return psi
	}
	psi[0] = 1
	for j := 1; j < n; j++ {
		for i := 1; i < len(poly) && i <= j; i++ {
			psi[j] -= poly[i] * psi[j-i]
		}
	}
	return psi
}

func integrate(forecasts []float64, last float64) []float64 {
	out := make([]float64, len(forecasts))
	prev := last
	for i, v := range forecasts {
		prev += v
		out[i] = prev
	}
	return out
}

func diff(y []float64) []float64 {
	if len(y) < 2 {
		return nil
	}
	out := make([]float64, len(y)-1)
	for i := 1; i < len(y); i++ {
		out[i-1] = y[i] - y[i-1]
	}
	return out
}

func mean(y []float64) float64 {
	s := 0.0
	for _, v := range y {
		s += v
	}
	return s / float64(len(y))
}
