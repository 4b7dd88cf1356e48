package domain

import (
	"fmt"

	"github.com/alejandrodnm/valuecast/internal/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// SpreadFit es el resultado de CalibrateSpread.
type SpreadFit struct {
	Multiplier float64
	MeanCRPS   float64
}

// CalibrateSpread busca el multiplicador m en [SpreadMultMin, SpreadMultMax] que
// minimiza el CRPS medio cuando cada std se escala por m (EMOS con un solo parámetro).
//
// Longitudes distintas → ErrLengthMismatch. Sin datos → {1, 0}.
func CalibrateSpread(forecasts []GaussianForecast, actuals []float64) (SpreadFit, error) {
	if len(forecasts) != len(actuals) {
		return SpreadFit{}, fmt.Errorf("domain.CalibrateSpread: %d forecasts, %d actuals: %w",
			len(forecasts), len(actuals), ErrLengthMismatch)
	}
	if len(forecasts) == 0 {
		return SpreadFit{Multiplier: 1, MeanCRPS: 0}, nil
	}

	objective := func(m float64) float64 {
		total := 0.0
		for i, f := range forecasts {
			total += CRPS(actuals[i], f.Mean, f.Std*m)
		}
		return total / float64(len(forecasts))
	}

	res, err := stats.MinimizeBounded(objective, SpreadMultMin, SpreadMultMax, stats.DefaultBoundedSettings())
	if err != nil {
		return SpreadFit{}, fmt.Errorf("domain.CalibrateSpread: minimize: %w", err)
	}

	// Brent no garantiza el óptimo global; el multiplicador identidad es siempre candidato.
	if identity := objective(1); identity < res.F {
		return SpreadFit{Multiplier: 1, MeanCRPS: identity}, nil
	}
	return SpreadFit{Multiplier: res.X, MeanCRPS: res.F}, nil
}

// ApplyCalibration escala el spread de q por spreadMult y construye el intervalo
// central de nivel ciLevel: mediana ± Φ⁻¹((1+ci)/2) × std calibrado.
// Un ciLevel fuera de (0,1) usa DefaultCILevel.
func ApplyCalibration(q QuantileForecast, spreadMult, ciLevel float64) CalibratedForecast {
	if !(ciLevel > 0 && ciLevel < 1) {
		ciLevel = DefaultCILevel
	}
	mean, rawStd := QuantilesToGaussian(q)
	calStd := rawStd * spreadMult
	z := distuv.UnitNormal.Quantile((1 + ciLevel) / 2)

	return CalibratedForecast{
		Median:        mean,
		RawStd:        rawStd,
		CalibratedStd: calStd,
		CILower:       mean - z*calStd,
		CIUpper:       mean + z*calStd,
	}
}

// CalibratedCoverage es la fracción de actuals dentro de [CILower, CIUpper].
func CalibratedCoverage(forecasts []CalibratedForecast, actuals []float64) (float64, error) {
	if len(forecasts) != len(actuals) {
		return 0, fmt.Errorf("domain.CalibratedCoverage: %d forecasts, %d actuals: %w",
			len(forecasts), len(actuals), ErrLengthMismatch)
	}
	if len(forecasts) == 0 {
		return 0, nil
	}
	in := 0
	for i, f := range forecasts {
		if f.CILower <= actuals[i] && actuals[i] <= f.CIUpper {
			in++
		}
	}
	return float64(in) / float64(len(forecasts)), nil
}

// MeanCRPS es el CRPS medio de forecasts calibrados usando CalibratedStd.
func MeanCRPS(forecasts []CalibratedForecast, actuals []float64) (float64, error) {
	if len(forecasts) != len(actuals) {
		return 0, fmt.Errorf("domain.MeanCRPS: %d forecasts, %d actuals: %w",
			len(forecasts), len(actuals), ErrLengthMismatch)
	}
	if len(forecasts) == 0 {
		return 0, nil
	}
	total := 0.0
	for i, f := range forecasts {
		total += CRPS(actuals[i], f.Median, f.CalibratedStd)
	}
	return total / float64(len(forecasts)), nil
}

// RawCoverage es la cobertura de los intervalos crudos de los cuantiles
// (level 0.5 → Q25..Q75, level 0.8 → Q10..Q90).
func RawCoverage(quantiles []QuantileForecast, actuals []float64, level float64) (float64, error) {
	if len(quantiles) != len(actuals) {
		return 0, fmt.Errorf("domain.RawCoverage: %d forecasts, %d actuals: %w",
			len(quantiles), len(actuals), ErrLengthMismatch)
	}
	if len(quantiles) == 0 {
		return 0, nil
	}
	in := 0
	for i, q := range quantiles {
		lo, hi, ok := q.Interval(level)
		if !ok {
			return 0, fmt.Errorf("domain.RawCoverage: unsupported level %.2f", level)
		}
		if lo <= actuals[i] && actuals[i] <= hi {
			in++
		}
	}
	return float64(in) / float64(len(quantiles)), nil
}
