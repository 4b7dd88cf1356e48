package ports

import (
	"context"

	"github.com/alejandrodnm/valuecast/internal/domain"
)

// QuantileElicitor obtiene una predicción en cuantiles de un proveedor externo
// (típicamente un LLM). Cada adapter encapsula un proveedor.
type QuantileElicitor interface {
	// Model devuelve la configuración del modelo que responde.
	Model() domain.ModelConfig

	// Elicit pide los cuantiles 10/25/50/75/90 para req.TargetYear dada la historia.
	// Un error significa que esta variable debe omitirse, no que la ejecución falle.
	Elicit(ctx context.Context, req domain.ElicitationRequest) (domain.Elicitation, error)
}
