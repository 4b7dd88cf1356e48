package domain

import "math"

// Etiquetas de modelo de los forecasters baseline.
const (
	ModelNaive  = "naive"
	ModelLinear = "linear_logit"
	ModelARIMA  = "arima_logit"
	ModelETS    = "ets_logit"
)

// ForecastRequest es la entrada común de todos los forecasters.
type ForecastRequest struct {
	Variable    string
	Trajectory  Trajectory
	CutoffYear  int
	TargetYears []int
}

// Forecast es una predicción puntual con intervalo del 90% para un año objetivo.
// Invariante: 0 <= LowerBound <= PointEstimate <= UpperBound <= 100.
type Forecast struct {
	Variable      string
	CutoffYear    int
	TargetYear    int
	PointEstimate float64
	LowerBound    float64
	UpperBound    float64
	Model         string
	RawResponse   string
}

// Width es el ancho del intervalo en puntos porcentuales.
func (f Forecast) Width() float64 {
	return f.UpperBound - f.LowerBound
}

// NewBoundedForecast construye un Forecast que respeta el invariante de límites:
// recorta a [0,100] y ordena lower <= point <= upper. Devuelve false si algún
// valor no es finito, en cuyo caso el año objetivo debe omitirse.
func NewBoundedForecast(req ForecastRequest, target int, point, lower, upper float64, model, raw string) (Forecast, bool) {
	for _, v := range []float64{point, lower, upper} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Forecast{}, false
		}
	}
	point = ClampPercent(point)
	lower = math.Min(ClampPercent(lower), point)
	upper = math.Max(ClampPercent(upper), point)

	return Forecast{
		Variable:      req.Variable,
		CutoffYear:    req.CutoffYear,
		TargetYear:    target,
		PointEstimate: point,
		LowerBound:    lower,
		UpperBound:    upper,
		Model:         model,
		RawResponse:   raw,
	}, true
}
