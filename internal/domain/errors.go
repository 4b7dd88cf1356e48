package domain

import "errors"

// Errores de contrato. Los casos "sin datos" no son errores: se devuelve un resultado vacío.
var (
	ErrLengthMismatch  = errors.New("forecasts and actuals have different lengths")
	ErrUnknownModel    = errors.New("unknown model")
	ErrUnknownVariable = errors.New("unknown variable")
	ErrInvalidQuantile = errors.New("quantiles are not monotonic")
)
