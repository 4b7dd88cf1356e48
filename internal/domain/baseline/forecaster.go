package baseline

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/alejandrodnm/valuecast/internal/arima"
	"github.com/alejandrodnm/valuecast/internal/domain"
	gstat "gonum.org/v1/gonum/stat"
)

// ErrUnknownForecaster se devuelve al pedir un forecaster que no existe.
var ErrUnknownForecaster = errors.New("unknown forecaster")

// Forecaster define el contrato de un modelo baseline. Cada implementación
// trabaja en espacio logit y devuelve un forecast por año objetivo alcanzable.
// "Sin datos suficientes" no es un error: devuelve un slice vacío.
type Forecaster interface {
	// Name devuelve la etiqueta del modelo (naive, linear_logit, ...).
	Name() string

	// Forecast predice los años objetivo usando solo años <= CutoffYear.
	Forecast(req domain.ForecastRequest) []domain.Forecast
}

// Config parametriza la construcción de forecasters.
type Config struct {
	ARIMAOrder arima.Order
}

// DefaultConfig devuelve ARIMA(1,1,0).
func DefaultConfig() Config {
	return Config{ARIMAOrder: DefaultARIMAOrder}
}

// Names son los nombres cortos aceptados por New, en orden de presentación.
var Names = []string{"naive", "linear", "arima", "ets"}

// New construye un forecaster por nombre corto o por etiqueta de modelo.
func New(name string, cfg Config) (Forecaster, error) {
	switch strings.ToLower(name) {
	case domain.ModelNaive:
		return NewNaive(), nil
	case "linear", domain.ModelLinear:
		return NewLinear(), nil
	case "arima", domain.ModelARIMA:
		return NewARIMA(cfg.ARIMAOrder), nil
	case "ets", domain.ModelETS:
		return NewETS(), nil
	}
	return nil, fmt.Errorf("baseline.New: %q: %w", name, ErrUnknownForecaster)
}

// NewSet construye los forecasters indicados. Sin nombres construye los cuatro.
func NewSet(names []string, cfg Config) ([]Forecaster, error) {
	if len(names) == 0 {
		names = Names
	}
	out := make([]Forecaster, 0, len(names))
	for _, n := range names {
		f, err := New(n, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// logitHistory devuelve años y valores logit hasta el cutoff.
func logitHistory(req domain.ForecastRequest) ([]int, []float64) {
	years, values := req.Trajectory.History(req.CutoffYear)
	logits := make([]float64, len(values))
	for i, v := range values {
		logits[i] = domain.PercentToLogit(v)
	}
	return years, logits
}

// popStd es la desviación típica poblacional (ddof = 0).
func popStd(x []float64) float64 {
	_, variance := gstat.PopMeanVariance(x, nil)
	return math.Sqrt(variance)
}

// horizonSteps es el número de pasos hasta el objetivo más lejano desde lastYear.
func horizonSteps(targets []int, lastYear int) int {
	steps := 0
	for _, t := range targets {
		steps = max(steps, t-lastYear)
	}
	return steps
}

// bounded arma un forecast a partir de un punto logit y un semi-ancho logit.
func bounded(req domain.ForecastRequest, target int, logitPoint, halfWidth float64, model, raw string) (domain.Forecast, bool) {
	return domain.NewBoundedForecast(req, target,
		domain.LogitToPercent(logitPoint),
		domain.LogitToPercent(logitPoint-halfWidth),
		domain.LogitToPercent(logitPoint+halfWidth),
		model, raw,
	)
}
