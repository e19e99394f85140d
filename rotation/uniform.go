package rotation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/geom"
)

// UniformParams describe a body spinning at a constant rate about a fixed
// axis. Angles are radians, Period and Epoch are days.
type UniformParams struct {
	Period        float64
	MeridianAngle float64 // spin angle at Epoch
	Epoch         float64
	Inclination   float64 // obliquity of the equator
	AscendingNode float64
}

// Uniform rotates at a constant rate about an axis fixed by the
// obliquity and ascending node of the equator.
type Uniform struct {
	p       UniformParams
	equator quat.Number
}

// NewUniform validates the period and precomputes the equator tilt.
func NewUniform(p UniformParams) (*Uniform, error) {
	if !(p.Period > 0) || math.IsInf(p.Period, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPeriod, p.Period)
	}
	return &Uniform{p: p, equator: equator(p.AscendingNode, p.Inclination)}, nil
}

func equator(node, obliquity float64) quat.Number {
	return geom.Mul(geom.ZRotation(node), geom.XRotation(obliquity))
}

// spinAngle keeps only the fractional turn so long spans since the epoch
// do not lose precision.
func spinAngle(jd, epoch, period, offset float64) float64 {
	turns := (jd - epoch) / period
	turns -= math.Floor(turns)
	return offset + 2*math.Pi*turns
}

// Params returns the parameters the model was built from.
func (u *Uniform) Params() UniformParams { return u.p }

func (u *Uniform) Spin(jd float64) quat.Number {
	return geom.ZRotation(spinAngle(jd, u.p.Epoch, u.p.Period, u.p.MeridianAngle))
}

func (u *Uniform) EquatorOrientationAtTime(float64) quat.Number { return u.equator }
func (u *Uniform) OrientationAtTime(jd float64) quat.Number     { return orientation(u, jd) }

func (u *Uniform) AngularVelocityAtTime(float64) r3.Vec {
	return geom.Rotate(u.equator, r3.Vec{Z: 2 * math.Pi / u.p.Period})
}

func (u *Uniform) Period() float64  { return u.p.Period }
func (u *Uniform) IsPeriodic() bool { return true }

// Precessing is a uniform rotation whose equator node drifts linearly.
// A negative precession period precesses retrograde; zero disables it.
type Precessing struct {
	p                UniformParams
	precessionPeriod float64
}

// NewPrecessing returns a precessing model. precessionPeriod is in days.
func NewPrecessing(p UniformParams, precessionPeriod float64) (*Precessing, error) {
	if !(p.Period > 0) || math.IsInf(p.Period, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPeriod, p.Period)
	}
	return &Precessing{p: p, precessionPeriod: precessionPeriod}, nil
}

func (m *Precessing) node(jd float64) float64 {
	if m.precessionPeriod == 0 {
		return m.p.AscendingNode
	}
	return m.p.AscendingNode + 2*math.Pi*(jd-m.p.Epoch)/m.precessionPeriod
}

func (m *Precessing) Spin(jd float64) quat.Number {
	return geom.ZRotation(spinAngle(jd, m.p.Epoch, m.p.Period, m.p.MeridianAngle))
}

func (m *Precessing) EquatorOrientationAtTime(jd float64) quat.Number {
	return equator(m.node(jd), m.p.Inclination)
}

func (m *Precessing) OrientationAtTime(jd float64) quat.Number { return orientation(m, jd) }

func (m *Precessing) AngularVelocityAtTime(jd float64) r3.Vec {
	w := geom.Rotate(m.EquatorOrientationAtTime(jd), r3.Vec{Z: 2 * math.Pi / m.p.Period})
	if m.precessionPeriod != 0 {
		w.Z += 2 * math.Pi / m.precessionPeriod
	}
	return w
}

func (m *Precessing) Period() float64  { return m.p.Period }
func (m *Precessing) IsPeriodic() bool { return true }
