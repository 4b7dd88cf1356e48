package ports

import (
	"context"

	"github.com/alejandrodnm/valuecast/internal/domain"
)

// PointForecaster pide a un proveedor externo un punto y un intervalo del 90%
// por año objetivo. Sus forecasts se puntúan junto a los baselines.
type PointForecaster interface {
	// Model devuelve la configuración del modelo que responde.
	Model() domain.ModelConfig

	// ForecastPoints predice req.TargetYears usando solo la historia hasta el cutoff.
	// Un error significa que esta variable debe omitirse, no que la ejecución falle.
	ForecastPoints(ctx context.Context, req domain.PointForecastRequest) (domain.PointForecasts, error)
}
