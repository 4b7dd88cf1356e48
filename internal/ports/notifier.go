package ports

import (
	"context"

	"github.com/alejandrodnm/valuecast/internal/domain"
)

// Notifier presenta los resultados al usuario.
type Notifier interface {
	// NotifyEvaluation muestra las métricas por modelo de una evaluación de baselines.
	NotifyEvaluation(ctx context.Context, report domain.EvaluationReport) error

	// NotifyForecasts muestra forecasts de años futuros.
	NotifyForecasts(ctx context.Context, forecasts []domain.Forecast) error

	// NotifyCalibration muestra un experimento de calibración.
	NotifyCalibration(ctx context.Context, report domain.CalibrationReport) error

	// NotifyComparison muestra la comparación entre modelos.
	NotifyComparison(ctx context.Context, results []domain.ModelComparison) error

	// NotifyLongTerm muestra forecasts calibrados a largo plazo.
	NotifyLongTerm(ctx context.Context, forecasts []domain.LongTermForecast) error
}
