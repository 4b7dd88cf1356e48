package baseline

import (
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/valuecast/internal/arima"
	"github.com/alejandrodnm/valuecast/internal/domain"
	"gonum.org/v1/gonum/stat/distuv"
)

const minARIMAPoints = 4

// DefaultARIMAOrder es AR(1) sobre la primera diferencia, sin constante.
var DefaultARIMAOrder = arima.Order{P: 1, D: 1, Q: 0}

// ARIMA ajusta un ARIMA de orden fijo en espacio logit. El modelo avanza por
// observación, no por año: el objetivo año Y corresponde al paso Y - último año.
type ARIMA struct {
	order arima.Order
}

// NewARIMA crea el forecaster con el orden dado.
func NewARIMA(order arima.Order) *ARIMA {
	return &ARIMA{order: order}
}

func (a *ARIMA) Name() string { return domain.ModelARIMA }

// Forecast implementa Forecaster. Los fallos de ajuste se registran y devuelven vacío.
func (a *ARIMA) Forecast(req domain.ForecastRequest) []domain.Forecast {
	years, y := logitHistory(req)
	if len(years) < minARIMAPoints {
		return nil
	}
	lastYear := years[len(years)-1]
	steps := horizonSteps(req.TargetYears, lastYear)
	if steps < 1 {
		return nil
	}

	m := arima.New(a.order.P, a.order.D, a.order.Q)
	if err := m.Fit(y); err != nil {
		slog.Warn("arima fit failed", "variable", req.Variable, "order", a.order.String(), "err", err)
		return nil
	}
	fc, err := m.Forecast(steps)
	if err != nil {
		slog.Warn("arima forecast failed", "variable", req.Variable, "steps", steps, "err", err)
		return nil
	}

	z := distuv.UnitNormal.Quantile(0.95)
	out := make([]domain.Forecast, 0, len(req.TargetYears))
	for _, target := range req.TargetYears {
		idx := target - lastYear - 1
		if idx < 0 || idx >= len(fc.Mean) {
			continue
		}
		logitPoint := fc.Mean[idx]
		point := domain.LogitToPercent(logitPoint)
		raw := fmt.Sprintf("ARIMA%s logit: %.3f -> %.1f%%", a.order, logitPoint, point)

		if f, ok := bounded(req, target, logitPoint, z*fc.StdErr[idx], domain.ModelARIMA, raw); ok {
			out = append(out, f)
		}
	}
	return out
}
