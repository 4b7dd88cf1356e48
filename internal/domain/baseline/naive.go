package baseline

import (
	"math"
	"strconv"

	"github.com/alejandrodnm/valuecast/internal/domain"
)

// Naive arrastra el último valor observado. El intervalo crece con la raíz del
// horizonte en décadas, escalado por la volatilidad histórica en logit.
type Naive struct{}

// NewNaive crea el forecaster naive.
func NewNaive() *Naive { return &Naive{} }

func (n *Naive) Name() string { return domain.ModelNaive }

// Forecast implementa Forecaster.
func (n *Naive) Forecast(req domain.ForecastRequest) []domain.Forecast {
	years, values := req.Trajectory.History(req.CutoffYear)
	if len(years) == 0 {
		return nil
	}
	last := values[len(values)-1]

	logitStd := domain.DefaultLogitStd
	if len(values) >= 3 {
		diffs := make([]float64, len(values)-1)
		for i := 1; i < len(values); i++ {
			diffs[i-1] = domain.PercentToLogit(values[i]) - domain.PercentToLogit(values[i-1])
		}
		logitStd = popStd(diffs)
	}

	raw := "Last value: " + strconv.FormatFloat(last, 'f', -1, 64)
	logitPoint := domain.PercentToLogit(last)

	out := make([]domain.Forecast, 0, len(req.TargetYears))
	for _, target := range req.TargetYears {
		yearsOut := float64(target - req.CutoffYear)
		if yearsOut < 0 {
			continue
		}
		u := logitStd * math.Sqrt(yearsOut/10) * domain.Z90OneSided

		f, ok := domain.NewBoundedForecast(req, target,
			last,
			domain.LogitToPercent(logitPoint-u),
			domain.LogitToPercent(logitPoint+u),
			domain.ModelNaive, raw,
		)
		if ok {
			out = append(out, f)
		}
	}
	return out
}
