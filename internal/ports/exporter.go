package ports

import "github.com/alejandrodnm/valuecast/internal/domain"

// Exporter vuelca resultados a ficheros para análisis externo.
type Exporter interface {
	ExportEvaluation(report domain.EvaluationReport) error
	ExportForecasts(runID string, forecasts []domain.Forecast) error
	ExportCalibration(report domain.CalibrationReport) error
}
