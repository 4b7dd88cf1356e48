package domain

import "time"

// ElicitationRequest es lo que se pide a un elicitor: la historia hasta el cutoff
// y el año a predecir.
type ElicitationRequest struct {
	Variable    string
	Description string
	Years       []int
	Values      []float64
	TargetYear  int
}

// NewElicitationRequest construye la petición con la historia de v hasta cutoff.
func NewElicitationRequest(v Variable, cutoff, target int) ElicitationRequest {
	years, values := v.Trajectory.History(cutoff)
	return ElicitationRequest{
		Variable:    v.ID,
		Description: v.Description,
		Years:       years,
		Values:      values,
		TargetYear:  target,
	}
}

// Elicitation es la respuesta de un elicitor.
type Elicitation struct {
	Quantiles QuantileForecast
	Usage     Usage
	Raw       string
}

// PointForecastRequest pide un punto y un intervalo del 90% por año objetivo a
// partir de la historia de Variable hasta CutoffYear.
type PointForecastRequest struct {
	Variable    Variable
	CutoffYear  int
	TargetYears []int
}

// ForecastRequest devuelve la petición equivalente de los baselines.
func (r PointForecastRequest) ForecastRequest() ForecastRequest {
	return ForecastRequest{
		Variable:    r.Variable.ID,
		Trajectory:  r.Variable.Trajectory,
		CutoffYear:  r.CutoffYear,
		TargetYears: r.TargetYears,
	}
}

// PointForecasts es la respuesta de un PointForecaster.
type PointForecasts struct {
	Forecasts []Forecast
	Usage     Usage
	Raw       string
}

// EvaluationReport es el resultado de comparar los modelos con años reservados.
type EvaluationReport struct {
	RunID       string
	CreatedAt   time.Time
	CutoffYears []int
	Results     []ForecastResult
	Metrics     []ModelMetrics
	Cost        CostSummary // llamadas a LLMs; cero si solo hay baselines
}

// CalibrationEntry es una variable del experimento de calibración.
type CalibrationEntry struct {
	Variable    string
	Description string
	Actual      float64
	Quantiles   QuantileForecast
	Mean        float64
	Std         float64
	RawCRPS     float64
	Calibrated  CalibratedForecast
}

// CalibrationReport es el resultado de un experimento de calibración para un modelo.
type CalibrationReport struct {
	RunID              string
	CreatedAt          time.Time
	Model              string
	CutoffYear         int
	TargetYear         int
	Entries            []CalibrationEntry
	SpreadMultiplier   float64
	Calibrated         bool // false si no hubo forecasts suficientes para ajustar
	RawMeanCRPS        float64
	CalibratedMeanCRPS float64
	MAE                float64
	RawCoverage50      float64
	RawCoverage80      float64
	CalibratedCoverage float64
	Cost               CostSummary
}

// ModelComparison resume un modelo frente a los demás en la misma tarea.
type ModelComparison struct {
	Model            string
	RawCRPS          float64
	CalibratedCRPS   float64
	SpreadMultiplier float64
	MAE              float64
	Coverage80       float64
	TotalCost        float64
	NForecasts       int
}

// LongTermForecast es una predicción calibrada para un año lejano.
type LongTermForecast struct {
	Variable   string
	TargetYear int
	Model      string
	Quantiles  QuantileForecast
	Calibrated CalibratedForecast
}
