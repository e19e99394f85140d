package rotation

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/geom"
)

// OrientationSample is one tabulated orientation.
type OrientationSample struct {
	T float64
	Q quat.Number
}

// Sampled slerps between tabulated orientations and clamps outside the
// table. The whole orientation is reported as spin.
type Sampled struct {
	samples []OrientationSample
}

// NewSampled copies samples, which must be sorted by strictly increasing time.
func NewSampled(samples []OrientationSample) (*Sampled, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	cp := make([]OrientationSample, len(samples))
	for i, s := range samples {
		if i > 0 && !(s.T > samples[i-1].T) {
			return nil, fmt.Errorf("%w: sample %d at %v follows %v", ErrUnsortedSamples, i, s.T, samples[i-1].T)
		}
		cp[i] = OrientationSample{T: s.T, Q: geom.Normalize(s.Q)}
	}
	return &Sampled{samples: cp}, nil
}

func (s *Sampled) bracket(jd float64) (int, bool) {
	n := len(s.samples)
	if n == 1 || math.IsNaN(jd) || jd <= s.samples[0].T || jd >= s.samples[n-1].T {
		return 0, false
	}
	return sort.Search(n, func(k int) bool { return s.samples[k].T > jd }) - 1, true
}

func (s *Sampled) Spin(jd float64) quat.Number {
	i, ok := s.bracket(jd)
	if !ok {
		if math.IsNaN(jd) || jd <= s.samples[0].T {
			return s.samples[0].Q
		}
		return s.samples[len(s.samples)-1].Q
	}
	a, b := s.samples[i], s.samples[i+1]
	return geom.Slerp(a.Q, b.Q, (jd-a.T)/(b.T-a.T))
}

func (s *Sampled) OrientationAtTime(jd float64) quat.Number     { return s.Spin(jd) }
func (s *Sampled) EquatorOrientationAtTime(float64) quat.Number { return geom.Identity }

func (s *Sampled) AngularVelocityAtTime(jd float64) r3.Vec {
	i, ok := s.bracket(jd)
	if !ok {
		return r3.Vec{}
	}
	a, b := s.samples[i], s.samples[i+1]
	return geom.AngularVelocity(a.Q, b.Q, b.T-a.T)
}

func (s *Sampled) Period() float64  { return 0 }
func (s *Sampled) IsPeriodic() bool { return false }

// Func computes an orientation outside this package, for example from a
// script.
type Func func(jd float64) quat.Number

// External delegates orientation to a callback. Angular velocity is
// differentiated over one minute.
type External struct {
	fn     Func
	period float64
}

// NewExternal wraps fn. A zero period marks the model aperiodic.
func NewExternal(fn Func, period float64) *External {
	return &External{fn: fn, period: period}
}

const externalStep = 1.0 / 1440

func (e *External) Spin(jd float64) quat.Number                  { return geom.Normalize(e.fn(jd)) }
func (e *External) OrientationAtTime(jd float64) quat.Number     { return e.Spin(jd) }
func (e *External) EquatorOrientationAtTime(float64) quat.Number { return geom.Identity }

func (e *External) AngularVelocityAtTime(jd float64) r3.Vec {
	return geom.AngularVelocity(e.Spin(jd-externalStep/2), e.Spin(jd+externalStep/2), externalStep)
}

func (e *External) Period() float64  { return e.period }
func (e *External) IsPeriodic() bool { return e.period != 0 }
