package domain

import (
	"math"
	"sort"
)

// ForecastResult empareja un Forecast con el valor observado.
type ForecastResult struct {
	Variable   string
	CutoffYear int
	TargetYear int
	Predicted  float64
	Actual     float64
	Lower      float64 // límite inferior del intervalo del 90%
	Upper      float64 // límite superior del intervalo del 90%
	Model      string
}

// NewForecastResult construye el resultado a partir de un forecast y su valor real.
func NewForecastResult(f Forecast, actual float64) ForecastResult {
	return ForecastResult{
		Variable:   f.Variable,
		CutoffYear: f.CutoffYear,
		TargetYear: f.TargetYear,
		Predicted:  f.PointEstimate,
		Actual:     actual,
		Lower:      f.LowerBound,
		Upper:      f.UpperBound,
		Model:      f.Model,
	}
}

// Error es el error con signo (predicted - actual).
func (r ForecastResult) Error() float64 { return r.Predicted - r.Actual }

// AbsoluteError es |Error|.
func (r ForecastResult) AbsoluteError() float64 { return math.Abs(r.Error()) }

// InInterval indica si el valor real cae dentro del intervalo (inclusive).
func (r ForecastResult) InInterval() bool {
	return r.Lower <= r.Actual && r.Actual <= r.Upper
}

// MAE es el error absoluto medio. 0 sin resultados.
func MAE(results []ForecastResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.AbsoluteError()
	}
	return sum / float64(len(results))
}

// RMSE es la raíz del error cuadrático medio. 0 sin resultados.
func RMSE(results []ForecastResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Error() * r.Error()
	}
	return math.Sqrt(sum / float64(len(results)))
}

// Bias es el error medio con signo (positivo = sobreestima). 0 sin resultados.
func Bias(results []ForecastResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Error()
	}
	return sum / float64(len(results))
}

// Coverage es la fracción de resultados con el valor real dentro del intervalo.
func Coverage(results []ForecastResult) float64 {
	if len(results) == 0 {
		return 0
	}
	in := 0
	for _, r := range results {
		if r.InInterval() {
			in++
		}
	}
	return float64(in) / float64(len(results))
}

// CalibrationError es |target - Coverage|. 0 sin resultados.
func CalibrationError(results []ForecastResult, target float64) float64 {
	if len(results) == 0 {
		return 0
	}
	return math.Abs(target - Coverage(results))
}

// ModelMetrics es el resumen de evaluación de un conjunto de forecasts.
type ModelMetrics struct {
	Model            string
	NForecasts       int
	MAE              float64
	RMSE             float64
	Bias             float64
	Coverage90       float64
	CalibrationError float64
}

// Evaluate calcula todas las métricas con cobertura objetivo DefaultTargetCoverage.
func Evaluate(results []ForecastResult) ModelMetrics {
	m := ModelMetrics{
		NForecasts:       len(results),
		MAE:              MAE(results),
		RMSE:             RMSE(results),
		Bias:             Bias(results),
		Coverage90:       Coverage(results),
		CalibrationError: CalibrationError(results, DefaultTargetCoverage),
	}
	if len(results) > 0 {
		m.Model = results[0].Model
	}
	return m
}

// EvaluateByModel agrupa por etiqueta de modelo y evalúa cada grupo.
// El resultado se ordena por MAE ascendente.
func EvaluateByModel(results []ForecastResult) []ModelMetrics {
	groups := make(map[string][]ForecastResult)
	for _, r := range results {
		groups[r.Model] = append(groups[r.Model], r)
	}

	out := make([]ModelMetrics, 0, len(groups))
	for model, rs := range groups {
		m := Evaluate(rs)
		m.Model = model
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MAE != out[j].MAE {
			return out[i].MAE < out[j].MAE
		}
		return out[i].Model < out[j].Model
	})
	return out
}
