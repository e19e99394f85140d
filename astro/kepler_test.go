package astro

import (
	"math"
	"testing"
)

func TestSolveKeplerSatisfiesEquation(t *testing.T) {
	for _, e := range []float64{0, 0.0167, 0.2, 0.5, 0.8, 0.95, 0.99} {
		for M := -3.0; M <= 9.5; M += 0.37 {
			sol := SolveKepler(M, e)
			reduced := math.Remainder(M, 2*math.Pi)
			if r := sol.Eccentric - e*math.Sin(sol.Eccentric) - reduced; math.Abs(r) > 1e-7 {
				t.Fatalf("e=%v M=%v: residual %v after %d iterations", e, M, r, sol.Iterations)
			}
			if sol.Iterations > DefaultKepler.MaxIterations {
				t.Fatalf("e=%v M=%v: %d iterations exceeds cap", e, M, sol.Iterations)
			}
		}
	}
}

func TestSolveKeplerTrueAnomalyQuadrants(t *testing.T) {
	nu, E := Anomaly(math.Pi/2, 0.1)
	if nu <= E || E <= math.Pi/2 {
		t.Fatalf("Anomaly(pi/2, 0.1) = (%v, %v), want nu > E > M", nu, E)
	}
	nu, _ = Anomaly(-math.Pi/2, 0.1)
	if nu >= 0 {
		t.Fatalf("true anomaly for negative M = %v, want negative", nu)
	}
	if nu, E := Anomaly(0, 0.5); nu != 0 || E != 0 {
		t.Fatalf("Anomaly(0, 0.5) = (%v, %v), want (0, 0)", nu, E)
	}
}

func TestSolveKeplerIterationCap(t *testing.T) {
	cfg := KeplerConfig{Tolerance: 0, MaxIterations: 3}
	sol := cfg.Solve(1.0, 0.9)
	if sol.Converged {
		t.Fatalf("solution with zero tolerance reported converged")
	}
	if sol.Iterations != 3 {
		t.Fatalf("Iterations = %d, want 3", sol.Iterations)
	}
	if math.IsNaN(sol.Eccentric) {
		t.Fatalf("capped solution is NaN")
	}
}

func TestSolveKeplerHyperbolic(t *testing.T) {
	for _, e := range []float64{1.2, 2.0, 5.0} {
		for _, M := range []float64{-4, -0.5, 0.1, 1, 10} {
			sol := SolveKepler(M, e)
			if r := e*math.Sinh(sol.Eccentric) - sol.Eccentric - M; math.Abs(r) > 1e-6 {
				t.Fatalf("e=%v M=%v: hyperbolic residual %v", e, M, r)
			}
			limit := math.Acos(-1 / e)
			if math.Abs(sol.True) >= limit {
				t.Fatalf("e=%v M=%v: true anomaly %v beyond asymptote %v", e, M, sol.True, limit)
			}
		}
	}
}
