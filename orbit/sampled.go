package orbit

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Interpolation selects how positions between samples are computed.
type Interpolation int

const (
	Linear Interpolation = iota
	Cubic
)

// Sample is one tabulated point of a trajectory. Velocity is in km/day
// and only used when the trajectory carries velocities.
type Sample struct {
	T        float64
	Position r3.Vec
	Velocity r3.Vec
}

// Sampled interpolates a tabulated trajectory. Queries outside the table
// clamp to the nearest endpoint. A Sampled trajectory is immutable and may
// be shared by many bodies.
type Sampled struct {
	samples     []Sample
	interp      Interpolation
	hasVelocity bool
	boundingRad float64
}

// NewSampled builds a trajectory from samples sorted by strictly increasing
// time. When withVelocity is false, cubic interpolation estimates
// velocities from neighboring samples.
func NewSampled(samples []Sample, interp Interpolation, withVelocity bool) (*Sampled, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	for i := 1; i < len(samples); i++ {
		if !(samples[i].T > samples[i-1].T) {
			return nil, fmt.Errorf("%w: sample %d at %v follows %v", ErrUnsortedSamples, i, samples[i].T, samples[i-1].T)
		}
	}

	cp := make([]Sample, len(samples))
	copy(cp, samples)

	s := &Sampled{samples: cp, interp: interp, hasVelocity: withVelocity}
	if !withVelocity {
		s.estimateVelocities()
	}
	for _, smp := range cp {
		if r := r3.Norm(smp.Position); r > s.boundingRad {
			s.boundingRad = r
		}
	}
	return s, nil
}

func (s *Sampled) estimateVelocities() {
	n := len(s.samples)
	if n < 2 {
		return
	}
	for i := range s.samples {
		lo, hi := i-1, i+1
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		a, b := s.samples[lo], s.samples[hi]
		s.samples[i].Velocity = r3.Scale(1/(b.T-a.T), r3.Sub(b.Position, a.Position))
	}
}

// Samples returns the number of samples in the table.
func (s *Sampled) Samples() int { return len(s.samples) }

// bracket returns the index i such that samples[i].T <= jd < samples[i+1].T.
// ok is false when jd is outside the table.
func (s *Sampled) bracket(jd float64) (int, bool) {
	n := len(s.samples)
	if n == 1 || math.IsNaN(jd) || jd <= s.samples[0].T || jd >= s.samples[n-1].T {
		return 0, false
	}
	i := sort.Search(n, func(k int) bool { return s.samples[k].T > jd })
	return i - 1, true
}

// endpoint clamps jd to the table. NaN clamps to the first sample.
func (s *Sampled) endpoint(jd float64) Sample {
	if math.IsNaN(jd) || jd <= s.samples[0].T {
		return s.samples[0]
	}
	return s.samples[len(s.samples)-1]
}

// PositionAtTime implements Orbit.
func (s *Sampled) PositionAtTime(jd float64) r3.Vec {
	i, ok := s.bracket(jd)
	if !ok {
		return s.endpoint(jd).Position
	}
	p, _ := s.interpolate(i, jd)
	return p
}

// VelocityAtTime implements Orbit. Outside the table the clamped position
// is stationary.
func (s *Sampled) VelocityAtTime(jd float64) r3.Vec {
	i, ok := s.bracket(jd)
	if !ok {
		return r3.Vec{}
	}
	_, v := s.interpolate(i, jd)
	return v
}

func (s *Sampled) interpolate(i int, jd float64) (pos, vel r3.Vec) {
	s0, s1 := s.samples[i], s.samples[i+1]
	h := s1.T - s0.T
	u := (jd - s0.T) / h

	if s.interp == Linear {
		d := r3.Sub(s1.Position, s0.Position)
		return r3.Add(s0.Position, r3.Scale(u, d)), r3.Scale(1/h, d)
	}

	// cubic Hermite
	u2, u3 := u*u, u*u*u
	h00 := 2*u3 - 3*u2 + 1
	h10 := u3 - 2*u2 + u
	h01 := -2*u3 + 3*u2
	h11 := u3 - u2
	pos = r3.Add(
		r3.Add(r3.Scale(h00, s0.Position), r3.Scale(h10*h, s0.Velocity)),
		r3.Add(r3.Scale(h01, s1.Position), r3.Scale(h11*h, s1.Velocity)),
	)

	d00 := 6*u2 - 6*u
	d10 := 3*u2 - 4*u + 1
	d01 := -6*u2 + 6*u
	d11 := 3*u2 - 2*u
	vel = r3.Scale(1/h, r3.Add(
		r3.Add(r3.Scale(d00, s0.Position), r3.Scale(d10*h, s0.Velocity)),
		r3.Add(r3.Scale(d01, s1.Position), r3.Scale(d11*h, s1.Velocity)),
	))
	return pos, vel
}

// Period is zero: sampled trajectories are never periodic. The span of
// the table is reported by ValidRange.
func (s *Sampled) Period() float64         { return 0 }
func (s *Sampled) BoundingRadius() float64 { return s.boundingRad }
func (s *Sampled) IsPeriodic() bool        { return false }

func (s *Sampled) ValidRange() Range {
	return Range{Begin: s.samples[0].T, End: s.samples[len(s.samples)-1].T}
}
