package domain

import (
	"fmt"
	"sort"
)

// QuantileForecast son los cinco cuantiles (10,25,50,75,90) de una predicción
// elicitada, en puntos porcentuales. Deben ser monótonos no decrecientes.
type QuantileForecast struct {
	Q10 float64
	Q25 float64
	Q50 float64
	Q75 float64
	Q90 float64
}

// SortedQuantiles construye un QuantileForecast con los cinco primeros valores,
// ordenados para garantizar monotonicidad.
func SortedQuantiles(values []float64) (QuantileForecast, error) {
	if len(values) < 5 {
		return QuantileForecast{}, fmt.Errorf("domain.SortedQuantiles: need 5 values, got %d", len(values))
	}
	v := append([]float64(nil), values[:5]...)
	sort.Float64s(v)
	return QuantileForecast{Q10: v[0], Q25: v[1], Q50: v[2], Q75: v[3], Q90: v[4]}, nil
}

// Values devuelve los cuantiles en orden.
func (q QuantileForecast) Values() []float64 {
	return []float64{q.Q10, q.Q25, q.Q50, q.Q75, q.Q90}
}

// Validate comprueba la monotonicidad.
func (q QuantileForecast) Validate() error {
	v := q.Values()
	for i := 1; i < len(v); i++ {
		if v[i] < v[i-1] {
			return fmt.Errorf("domain.QuantileForecast: %v: %w", v, ErrInvalidQuantile)
		}
	}
	return nil
}

// Interval devuelve el intervalo central crudo para level 0.5 (Q25..Q75) o
// 0.8 (Q10..Q90). ok es false para cualquier otro nivel.
func (q QuantileForecast) Interval(level float64) (lo, hi float64, ok bool) {
	switch level {
	case 0.5:
		return q.Q25, q.Q75, true
	case 0.8:
		return q.Q10, q.Q90, true
	}
	return 0, 0, false
}

// GaussianForecast es la predictiva normal equivalente a un QuantileForecast.
type GaussianForecast struct {
	Mean float64
	Std  float64
}

// QuantilesToGaussian aproxima los cuantiles con una normal.
//
//	mean = Q50
//	std  = IQR/1.35, o (Q90-Q10)/2.56 si IQR = 0, o DefaultQuantileStd si ambos son 0.
func QuantilesToGaussian(q QuantileForecast) (mean, std float64) {
	mean = q.Q50

	if iqr := q.Q75 - q.Q25; iqr > 0 {
		return mean, iqr / IQRToSigma
	}
	if r := q.Q90 - q.Q10; r > 0 {
		return mean, r / Q10Q90ToSigma
	}
	return mean, DefaultQuantileStd
}

// Gaussian es QuantilesToGaussian como valor.
func (q QuantileForecast) Gaussian() GaussianForecast {
	m, s := QuantilesToGaussian(q)
	return GaussianForecast{Mean: m, Std: s}
}

// CalibratedForecast es una predicción con el spread recalibrado.
type CalibratedForecast struct {
	Median        float64
	RawStd        float64
	CalibratedStd float64
	CILower       float64
	CIUpper       float64
}
