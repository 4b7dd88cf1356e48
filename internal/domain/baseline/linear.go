package baseline

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/valuecast/internal/domain"
	gstat "gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const minLinearPoints = 3

// Linear ajusta una recta OLS en espacio logit sobre el año centrado y usa el
// intervalo de predicción t-Student del 90%.
type Linear struct{}

// NewLinear crea el forecaster lineal.
func NewLinear() *Linear { return &Linear{} }

func (l *Linear) Name() string { return domain.ModelLinear }

// Forecast implementa Forecaster.
func (l *Linear) Forecast(req domain.ForecastRequest) []domain.Forecast {
	years, y := logitHistory(req)
	n := len(years)
	if n < minLinearPoints {
		return nil
	}

	yearMean := 0.0
	for _, yr := range years {
		yearMean += float64(yr)
	}
	yearMean /= float64(n)

	x := make([]float64, n)
	for i, yr := range years {
		x[i] = float64(yr) - yearMean
	}
	intercept, slope := gstat.LinearRegression(x, y, nil, false)

	xMean := gstat.Mean(x, nil)
	ssx, sse := 0.0, 0.0
	for i := range x {
		ssx += (x[i] - xMean) * (x[i] - xMean)
		r := y[i] - (intercept + slope*x[i])
		sse += r * r
	}
	se := math.Sqrt(sse / float64(n-2))
	tCrit := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}.Quantile(0.95)

	raw := fmt.Sprintf("Logit linear: slope=%.4f, intercept=%.4f", slope, intercept)

	out := make([]domain.Forecast, 0, len(req.TargetYears))
	for _, target := range req.TargetYears {
		xNew := float64(target) - yearMean
		point := intercept + slope*xNew
		sePred := se * math.Sqrt(1+1/float64(n)+(xNew-xMean)*(xNew-xMean)/ssx)

		if f, ok := bounded(req, target, point, tCrit*sePred, domain.ModelLinear, raw); ok {
			out = append(out, f)
		}
	}
	return out
}
