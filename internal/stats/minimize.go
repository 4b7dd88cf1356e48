// Package stats provides the numerical helpers shared by the forecasters and the
// calibrator.
//
// MinimizeBounded finds the minimum of a scalar function on a closed interval
// using Brent's method (golden-section search combined with parabolic
// interpolation):
//
//	res, err := stats.MinimizeBounded(func(m float64) float64 {
//	    return meanCRPS(m)
//	}, 0.1, 10, stats.DefaultBoundedSettings())
package stats

import (
	"errors"
	"math"
)

// ErrInvalidBounds is returned when lower > upper or a bound is not finite.
var ErrInvalidBounds = errors.New("stats: invalid bounds")

// BoundedSettings controls the stopping rules of MinimizeBounded.
type BoundedSettings struct {
	XTol    float64 // absolute tolerance on x
	MaxEval int     // maximum number of function evaluations
}

// DefaultBoundedSettings returns xtol 1e-5 and 500 evaluations.
func DefaultBoundedSettings() BoundedSettings {
	return BoundedSettings{XTol: 1e-5, MaxEval: 500}
}

// BoundedResult holds the minimizer, the function value there and whether the
// tolerance was reached before MaxEval.
type BoundedResult struct {
	X           float64
	F           float64
	Evaluations int
	Converged   bool
}

// MinimizeBounded minimizes f over [lower, upper] with Brent's bounded method.
// The returned X always lies inside the interval.
func MinimizeBounded(f func(float64) float64, lower, upper float64, s BoundedSettings) (BoundedResult, error) {
	if math.IsNaN(lower) || math.IsNaN(upper) || math.IsInf(lower, 0) || math.IsInf(upper, 0) || lower > upper {
		return BoundedResult{}, ErrInvalidBounds
	}
	if s.XTol <= 0 {
		s.XTol = 1e-5
	}
	if s.MaxEval <= 0 {
		s.MaxEval = 500
	}

	sqrtEps := math.Sqrt(2.2e-16)
	goldenMean := 0.5 * (3.0 - math.Sqrt(5.0))

	a, b := lower, upper
	fulc := a + goldenMean*(b-a)
	nfc, xf := fulc, fulc
	rat, e := 0.0, 0.0
	x := xf
	fx := f(x)
	evals := 1
	ffulc, fnfc := fx, fx

	xm := 0.5 * (a + b)
	tol1 := sqrtEps*math.Abs(xf) + s.XTol/3.0
	tol2 := 2.0 * tol1

	converged := true
	for math.Abs(xf-xm) > (tol2 - 0.5*(b-a)) {
		golden := true

		if math.Abs(e) > tol1 {
			golden = false
			r := (xf - nfc) * (fx - ffulc)
			q := (xf - fulc) * (fx - fnfc)
			p := (xf-fulc)*q - (xf-nfc)*r
			q = 2.0 * (q - r)
			if q > 0.0 {
				p = -p
			}
			q = math.Abs(q)
			r = e
			e = rat

			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-xf) && p < q*(b-xf) {
				rat = p / q
				x = xf + rat
				if (x-a) < tol2 || (b-x) < tol2 {
					rat = tol1 * signOrOne(xm-xf)
				}
			} else {
				golden = true
			}
		}

		if golden {
			if xf >= xm {
				e = a - xf
			} else {
				e = b - xf
			}
			rat = goldenMean * e
		}

		x = xf + signOrOne(rat)*math.Max(math.Abs(rat), tol1)
		fu := f(x)
		evals++

		if fu <= fx {
			if x >= xf {
				a = xf
			} else {
				b = xf
			}
			fulc, ffulc = nfc, fnfc
			nfc, fnfc = xf, fx
			xf, fx = x, fu
		} else {
			if x < xf {
				a = x
			} else {
				b = x
			}
			if fu <= fnfc || nfc == xf {
				fulc, ffulc = nfc, fnfc
				nfc, fnfc = x, fu
			} else if fu <= ffulc || fulc == xf || fulc == nfc {
				fulc, ffulc = x, fu
			}
		}

		xm = 0.5 * (a + b)
		tol1 = sqrtEps*math.Abs(xf) + s.XTol/3.0
		tol2 = 2.0 * tol1

		if evals >= s.MaxEval {
			converged = false
			break
		}
	}

	return BoundedResult{X: xf, F: fx, Evaluations: evals, Converged: converged}, nil
}

// signOrOne returns the sign of v, treating zero as positive.
func signOrOne(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
