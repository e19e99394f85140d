package orbit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/astro"
	"github.com/signalsfoundry/orrery/geom"
)

// Elements are classic Keplerian elements. Angles are in radians, the
// pericenter distance in km and the period and epoch in days.
type Elements struct {
	PericenterDistance float64
	Eccentricity       float64
	Inclination        float64
	AscendingNode      float64
	ArgOfPericenter    float64
	MeanAnomaly        float64 // at Epoch
	Period             float64
	Epoch              float64
}

// Elliptical is an analytic two-body orbit. Despite the name it also
// handles hyperbolic trajectories (eccentricity > 1).
type Elliptical struct {
	el     Elements
	a      float64 // semi-major axis, negative for hyperbolas
	plane  quat.Number
	kepler astro.KeplerConfig
}

// NewElliptical validates the elements and precomputes the orbit plane.
// Parabolic orbits (eccentricity exactly 1) are not supported.
func NewElliptical(el Elements) (*Elliptical, error) {
	switch {
	case !(el.PericenterDistance > 0):
		return nil, fmt.Errorf("%w: pericenter distance %v", ErrInvalidElements, el.PericenterDistance)
	case el.Eccentricity < 0 || el.Eccentricity == 1 || math.IsNaN(el.Eccentricity):
		return nil, fmt.Errorf("%w: eccentricity %v", ErrInvalidElements, el.Eccentricity)
	case !(el.Period > 0):
		return nil, fmt.Errorf("%w: period %v", ErrInvalidElements, el.Period)
	}

	return &Elliptical{
		el: el,
		a:  el.PericenterDistance / (1 - el.Eccentricity),
		// argument of pericenter, then inclination, then ascending node
		plane: geom.Mul(
			geom.ZRotation(el.AscendingNode),
			geom.XRotation(el.Inclination),
			geom.ZRotation(el.ArgOfPericenter),
		),
		kepler: astro.DefaultKepler,
	}, nil
}

// WithKepler returns a copy of the orbit that solves Kepler's equation with cfg.
func (o *Elliptical) WithKepler(cfg astro.KeplerConfig) *Elliptical {
	cp := *o
	cp.kepler = cfg
	return &cp
}

// Elements returns the elements the orbit was built from.
func (o *Elliptical) Elements() Elements { return o.el }

func (o *Elliptical) meanAnomaly(jd float64) float64 {
	return o.el.MeanAnomaly + 2*math.Pi*(jd-o.el.Epoch)/o.el.Period
}

// planePosition returns position and velocity in the orbital plane, with
// the pericenter on +X.
func (o *Elliptical) planePosition(jd float64) (pos, vel r3.Vec) {
	e := o.el.Eccentricity
	n := 2 * math.Pi / o.el.Period
	sol := o.kepler.Solve(o.meanAnomaly(jd), e)
	E := sol.Eccentric

	if e < 1 {
		s, c := math.Sincos(E)
		b := o.a * math.Sqrt(1-e*e)
		dE := n / (1 - e*c)
		return r3.Vec{X: o.a * (c - e), Y: b * s},
			r3.Vec{X: -o.a * s * dE, Y: b * c * dE}
	}

	sh, ch := math.Sinh(E), math.Cosh(E)
	b := -o.a * math.Sqrt(e*e-1)
	dH := n / (e*ch - 1)
	return r3.Vec{X: o.a * (ch - e), Y: b * sh},
		r3.Vec{X: o.a * sh * dH, Y: b * ch * dH}
}

// PositionAtTime implements Orbit.
func (o *Elliptical) PositionAtTime(jd float64) r3.Vec {
	p, _ := o.planePosition(jd)
	return geom.Rotate(o.plane, p)
}

// VelocityAtTime implements Orbit.
func (o *Elliptical) VelocityAtTime(jd float64) r3.Vec {
	_, v := o.planePosition(jd)
	return geom.Rotate(o.plane, v)
}

// Period implements Orbit. Hyperbolic orbits are aperiodic.
func (o *Elliptical) Period() float64 {
	if !o.IsPeriodic() {
		return 0
	}
	return o.el.Period
}

// BoundingRadius returns the apocenter distance, or +Inf for a hyperbola.
func (o *Elliptical) BoundingRadius() float64 {
	e := o.el.Eccentricity
	if e > 1 {
		return math.Inf(1)
	}
	return o.el.PericenterDistance * (1 + e) / (1 - e)
}

func (o *Elliptical) IsPeriodic() bool  { return o.el.Eccentricity < 1 }
func (o *Elliptical) ValidRange() Range { return Unbounded() }
