package domain

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var invSqrtPi = 1 / math.Sqrt(math.Pi)

// CRPS calcula el Continuous Ranked Probability Score de una predictiva normal
// N(mu, sigma²) frente al valor observado. Menor es mejor.
//
// Forma cerrada (Gneiting & Raftery 2007):
//
//	z    = (actual - mu) / sigma
//	CRPS = sigma × [z(2Φ(z) - 1) + 2φ(z) - 1/√π]
//
// Un sigma <= 0 se sustituye por CRPSSigmaFloor.
func CRPS(actual, mu, sigma float64) float64 {
	if !(sigma > 0) {
		sigma = CRPSSigmaFloor
	}
	z := (actual - mu) / sigma
	crps := sigma * (z*(2*distuv.UnitNormal.CDF(z)-1) + 2*distuv.UnitNormal.Prob(z) - invSqrtPi)
	// Redondeo: la forma cerrada puede dar -1e-17 con z = 0.
	return math.Max(crps, 0)
}
