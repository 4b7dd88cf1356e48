package domain

import "math"

// Constantes de fallback con nombre. Cada una cubre un caso degenerado concreto
// (muestras demasiado cortas, cuantiles colapsados, sigma nula).
const (
	// LogitEps es el clamp por defecto antes de aplicar logit.
	LogitEps = 1e-6

	// DefaultLogitStd es la volatilidad logit del forecaster naive con < 2 diferencias.
	DefaultLogitStd = 0.5
	// DefaultResidualStd es el sigma de residuos del ETS con < 2 residuos.
	DefaultResidualStd = 0.5
	// DefaultQuantileStd es el std (en puntos porcentuales) con IQR y rango 10-90 nulos.
	DefaultQuantileStd = 5.0
	// CRPSSigmaFloor sustituye a un sigma <= 0 en el CRPS.
	CRPSSigmaFloor = 0.01

	// Z90OneSided es el cuantil normal de 0.95: semi-ancho de un intervalo del 90%.
	Z90OneSided = 1.645
	// IQRToSigma convierte el rango intercuartílico normal en sigma.
	IQRToSigma = 1.35
	// Q10Q90ToSigma convierte el rango 10-90 normal en sigma.
	Q10Q90ToSigma = 2.56

	// SpreadMultMin y SpreadMultMax acotan la búsqueda del multiplicador de spread.
	SpreadMultMin = 0.1
	SpreadMultMax = 10.0

	// DefaultCILevel es el nivel de intervalo de ApplyCalibration.
	DefaultCILevel = 0.80
	// DefaultTargetCoverage es la cobertura nominal de los intervalos de los baselines.
	DefaultTargetCoverage = 0.90
)

// Logit transforma una proporción en (0,1) a la recta real, con clamp LogitEps.
func Logit(p float64) float64 {
	return LogitWithEps(p, LogitEps)
}

// LogitWithEps es Logit con un clamp explícito. El resultado es finito para todo p en [0,1].
func LogitWithEps(p, eps float64) float64 {
	if math.IsNaN(p) {
		return math.NaN()
	}
	p = math.Min(math.Max(p, eps), 1-eps)
	return math.Log(p / (1 - p))
}

// InverseLogit es la sigmoide 1/(1+e^-x). Satura a 0 o 1 sin overflow.
func InverseLogit(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// PercentToLogit convierte un porcentaje [0,100] a espacio logit.
func PercentToLogit(v float64) float64 {
	return Logit(v / 100)
}

// LogitToPercent convierte un valor logit de vuelta a porcentaje.
func LogitToPercent(x float64) float64 {
	return InverseLogit(x) * 100
}

// ClampPercent limita v a [0,100].
func ClampPercent(v float64) float64 {
	return math.Min(math.Max(v, 0), 100)
}
