package ports

import (
	"context"

	"github.com/alejandrodnm/valuecast/internal/domain"
)

// Storage persiste los resultados de cada ejecución.
type Storage interface {
	// SaveEvaluation persiste una evaluación de baselines con sus resultados y métricas.
	SaveEvaluation(ctx context.Context, report domain.EvaluationReport) error

	// SaveForecasts persiste forecasts sin valor real (años futuros).
	SaveForecasts(ctx context.Context, runID string, forecasts []domain.Forecast) error

	// SaveCalibration persiste un experimento de calibración.
	SaveCalibration(ctx context.Context, report domain.CalibrationReport) error

	// GetForecastResults devuelve los resultados guardados de una evaluación.
	GetForecastResults(ctx context.Context, runID string) ([]domain.ForecastResult, error)

	// LatestSpreadMultiplier devuelve el último multiplicador ajustado para un modelo.
	LatestSpreadMultiplier(ctx context.Context, model string) (float64, bool, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
