package ports

import (
	"context"

	"github.com/alejandrodnm/valuecast/internal/domain"
)

// TrajectoryProvider suministra las variables con su historia observada.
type TrajectoryProvider interface {
	// Variables devuelve todas las variables disponibles ordenadas por ID.
	Variables(ctx context.Context) ([]domain.Variable, error)
}
