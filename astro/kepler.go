package astro

import "math"

// KeplerConfig bounds the Newton iteration used to solve Kepler's equation.
// The defaults are empirical; MaxIterations is a termination bound, not a
// convergence guarantee.
type KeplerConfig struct {
	Tolerance     float64 // radians
	MaxIterations int
}

// DefaultKepler is the solver configuration used by the analytic orbits.
var DefaultKepler = KeplerConfig{Tolerance: 1.745e-8, MaxIterations: 20}

// KeplerSolution is the outcome of solving Kepler's equation. For
// hyperbolic orbits Eccentric holds the hyperbolic anomaly.
type KeplerSolution struct {
	True       float64
	Eccentric  float64
	Iterations int
	Converged  bool
}

// SolveKepler solves Kepler's equation with DefaultKepler.
func SolveKepler(meanAnomaly, ecc float64) KeplerSolution {
	return DefaultKepler.Solve(meanAnomaly, ecc)
}

// Anomaly returns the true and eccentric anomaly for a mean anomaly and
// eccentricity, using DefaultKepler.
func Anomaly(meanAnomaly, ecc float64) (trueAnomaly, eccAnomaly float64) {
	s := DefaultKepler.Solve(meanAnomaly, ecc)
	return s.True, s.Eccentric
}

// Solve finds the eccentric (or hyperbolic) anomaly for the mean anomaly M.
// When the iteration cap is reached the last estimate is returned with
// Converged false.
func (c KeplerConfig) Solve(M, ecc float64) KeplerSolution {
	if ecc > 1 {
		return c.solveHyperbolic(M, ecc)
	}
	return c.solveElliptic(M, ecc)
}

func (c KeplerConfig) solveElliptic(M, ecc float64) KeplerSolution {
	// Reduce to [-pi, pi] so the initial guess is close to the root.
	M = math.Remainder(M, 2*math.Pi)

	if ecc == 0 {
		return KeplerSolution{True: M, Eccentric: M, Converged: true}
	}

	E := M
	if ecc >= 0.8 {
		E = M + 0.85*ecc*sign(math.Sin(M))
	}

	var sol KeplerSolution
	for sol.Iterations < c.MaxIterations {
		sol.Iterations++
		s, co := math.Sincos(E)
		dE := (E - ecc*s - M) / (1 - ecc*co)
		E -= dE
		if math.Abs(dE) < c.Tolerance {
			sol.Converged = true
			break
		}
	}

	sol.Eccentric = E
	sol.True = 2 * math.Atan2(math.Sqrt(1+ecc)*math.Sin(E/2), math.Sqrt(1-ecc)*math.Cos(E/2))
	return sol
}

// solveHyperbolic uses the Laguerre-Conway iteration on e*sinh(H) - H = M.
func (c KeplerConfig) solveHyperbolic(M, ecc float64) KeplerSolution {
	H := sign(M) * math.Log(2*math.Abs(M)/ecc+1.85)

	maxIter := c.MaxIterations
	if maxIter < 30 {
		maxIter = 30
	}

	var sol KeplerSolution
	for sol.Iterations < maxIter {
		sol.Iterations++
		s := ecc * math.Sinh(H)
		co := ecc * math.Cosh(H)
		f := s - H - M
		f1 := co - 1
		f2 := s
		dH := -5 * f / (f1 + sign(f1)*math.Sqrt(math.Abs(16*f1*f1-20*f*f2)))
		H += dH
		if math.Abs(dH) < c.Tolerance {
			sol.Converged = true
			break
		}
	}

	sol.Eccentric = H
	sol.True = 2 * math.Atan(math.Sqrt((ecc+1)/(ecc-1))*math.Tanh(H/2))
	return sol
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
