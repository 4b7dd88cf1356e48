package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/alejandrodnm/valuecast/internal/domain"
)

// ErrNoPredictions se devuelve cuando la respuesta no trae predicciones utilizables.
var ErrNoPredictions = errors.New("no predictions in response")

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// BuildPointForecastPrompt devuelve los prompts de sistema y de usuario para
// pedir punto e intervalo del 90% de cada año objetivo, respondidos en JSON.
func BuildPointForecastPrompt(req domain.PointForecastRequest) (system, user string) {
	v := req.Variable
	question := v.Question
	if question == "" {
		question = v.Description
	}
	years, values := v.Trajectory.History(req.CutoffYear)
	history := make([]string, len(years))
	for i, y := range years {
		history[i] = fmt.Sprintf("- %d: %g%%", y, values[i])
	}
	targets := make([]string, len(req.TargetYears))
	for i, y := range req.TargetYears {
		targets[i] = fmt.Sprint(y)
	}

	system = fmt.Sprintf(`You are a social scientist conducting research in %[1]d.
You have access only to information available up to %[1]d.
You do not know what happened after %[1]d.
Base your predictions solely on historical patterns visible in the data provided.`, req.CutoffYear)

	user = fmt.Sprintf(`Question: %s

The General Social Survey has tracked American opinions on this question since %d.

Historical data (%% giving the liberal/progressive response):
%s

You are a social scientist in %d analyzing trends in American public opinion.
Based ONLY on the historical data above and your knowledge of social change patterns
up to %d, predict what percentage will give the liberal/progressive response
in future years.

For each target year, provide:
1. Your point estimate (%%)
2. A 90%% confidence interval (lower%%, upper%%)

Consider factors like:
- Generational replacement (younger cohorts replacing older ones)
- Social exposure and contact effects
- Information cascades and tipping points
- Historical patterns of moral change

Target years to predict: [%s]

Respond in JSON format:
{
    "predictions": [
        {"year": YYYY, "estimate": XX, "lower": XX, "upper": XX},
        ...
    ],
    "reasoning": "Brief explanation of your reasoning"
}`,
		question, v.Since(), strings.Join(history, "\n"),
		req.CutoffYear, req.CutoffYear, strings.Join(targets, ", "))

	return system, user
}

type pointPrediction struct {
	Year     int      `json:"year"`
	Estimate *float64 `json:"estimate"`
	Lower    *float64 `json:"lower"`
	Upper    *float64 `json:"upper"`
}

type pointResponse struct {
	Predictions []pointPrediction `json:"predictions"`
	Reasoning   string            `json:"reasoning"`
}

// ParsePointForecasts extrae el objeto JSON de la respuesta y lo convierte en
// forecasts acotados. Se descartan los años no pedidos y las predicciones
// incompletas.
func ParsePointForecasts(text string, req domain.PointForecastRequest, model string) ([]domain.Forecast, error) {
	raw := jsonObjectRe.FindString(text)
	if raw == "" {
		return nil, fmt.Errorf("llm.ParsePointForecasts: no JSON object: %w", ErrNoPredictions)
	}
	var resp pointResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("llm.ParsePointForecasts: decode: %v: %w", err, ErrNoPredictions)
	}

	wanted := make(map[int]bool, len(req.TargetYears))
	for _, y := range req.TargetYears {
		wanted[y] = true
	}
	freq := req.ForecastRequest()

	var out []domain.Forecast
	for _, p := range resp.Predictions {
		if !wanted[p.Year] || p.Estimate == nil || p.Lower == nil || p.Upper == nil {
			continue
		}
		wanted[p.Year] = false
		if f, ok := domain.NewBoundedForecast(freq, p.Year, *p.Estimate, *p.Lower, *p.Upper, model, text); ok {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("llm.ParsePointForecasts: %d predictions, none usable: %w", len(resp.Predictions), ErrNoPredictions)
	}
	return out, nil
}
