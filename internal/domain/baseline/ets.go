package baseline

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/alejandrodnm/valuecast/internal/domain"
	"github.com/alejandrodnm/valuecast/internal/holt"
)

const minETSPoints = 3

// ETS es Holt con tendencia aditiva en espacio logit. El intervalo usa la
// desviación de los residuos in-sample escalada por la raíz de los pasos.
type ETS struct{}

// NewETS crea el forecaster ETS.
func NewETS() *ETS { return &ETS{} }

func (e *ETS) Name() string { return domain.ModelETS }

// Forecast implementa Forecaster. Los fallos de ajuste se registran y devuelven vacío.
func (e *ETS) Forecast(req domain.ForecastRequest) []domain.Forecast {
	years, y := logitHistory(req)
	if len(years) < minETSPoints {
		return nil
	}
	lastYear := years[len(years)-1]
	steps := horizonSteps(req.TargetYears, lastYear)
	if steps < 1 {
		return nil
	}

	m, err := holt.Fit(y)
	if err != nil {
		slog.Warn("ets fit failed", "variable", req.Variable, "err", err)
		return nil
	}
	preds, err := m.Forecast(steps)
	if err != nil {
		slog.Warn("ets forecast failed", "variable", req.Variable, "steps", steps, "err", err)
		return nil
	}

	sigma := domain.DefaultResidualStd
	if res := m.Residuals(); len(res) >= 2 {
		sigma = popStd(res)
	}

	out := make([]domain.Forecast, 0, len(req.TargetYears))
	for _, target := range req.TargetYears {
		idx := target - lastYear - 1
		if idx < 0 || idx >= len(preds) {
			continue
		}
		logitPoint := preds[idx]
		u := sigma * math.Sqrt(float64(idx+1)) * domain.Z90OneSided
		raw := fmt.Sprintf("ETS logit forecast: %.3f -> %.1f%%", logitPoint, domain.LogitToPercent(logitPoint))

		if f, ok := bounded(req, target, logitPoint, u, domain.ModelETS, raw); ok {
			out = append(out, f)
		}
	}
	return out
}
