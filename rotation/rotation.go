// Package rotation describes how a body is oriented over time. An
// orientation maps body-fixed axes into the body's reference-plane frame
// and always factors as Equator * Spin: the spin turns the body about its
// own +Z axis, the equator tilts that axis into place.
package rotation

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/geom"
)

var (
	// ErrInvalidPeriod is returned for a rotation period that is not positive.
	ErrInvalidPeriod = errors.New("rotation period must be positive")
	// ErrNoSamples is returned when a sampled orientation has no samples.
	ErrNoSamples = errors.New("orientation has no samples")
	// ErrUnsortedSamples is returned when sample times are not strictly
	// increasing.
	ErrUnsortedSamples = errors.New("orientation samples not sorted by time")
)

// Model is the orientation of a body as a function of TDB Julian date.
type Model interface {
	// OrientationAtTime is EquatorOrientationAtTime(jd) * Spin(jd).
	OrientationAtTime(jd float64) quat.Number
	// Spin is the rotation about the body's own axis only.
	Spin(jd float64) quat.Number
	// EquatorOrientationAtTime is the tilt and precession of the equator.
	EquatorOrientationAtTime(jd float64) quat.Number
	// AngularVelocityAtTime is in radians per day, reference-plane axes.
	AngularVelocityAtTime(jd float64) r3.Vec
	// Period is the sidereal rotation period in days, 0 when the model
	// does not rotate periodically.
	Period() float64
	IsPeriodic() bool
}

func orientation(m interface {
	Spin(float64) quat.Number
	EquatorOrientationAtTime(float64) quat.Number
}, jd float64) quat.Number {
	return geom.Mul(m.EquatorOrientationAtTime(jd), m.Spin(jd))
}

// Constant is an orientation that never changes.
type Constant struct {
	Q quat.Number
}

// NewConstant returns a fixed orientation.
func NewConstant(q quat.Number) *Constant { return &Constant{Q: geom.Normalize(q)} }

// FixedAttitude builds a constant orientation from heading, tilt and roll
// in radians, applied as roll about X, then tilt about Y, then heading
// about Z.
func FixedAttitude(heading, tilt, roll float64) *Constant {
	return NewConstant(geom.Mul(geom.ZRotation(heading), geom.YRotation(tilt), geom.XRotation(roll)))
}

func (c *Constant) OrientationAtTime(float64) quat.Number        { return c.Q }
func (c *Constant) Spin(float64) quat.Number                     { return c.Q }
func (c *Constant) EquatorOrientationAtTime(float64) quat.Number { return geom.Identity }
func (c *Constant) AngularVelocityAtTime(float64) r3.Vec         { return r3.Vec{} }
func (c *Constant) Period() float64                              { return 0 }
func (c *Constant) IsPeriodic() bool                             { return false }

// Default is the model used when a body defines none: synchronous with
// the orbital period when there is one, identity otherwise.
func Default(syncPeriod float64) Model {
	if syncPeriod > 0 && !math.IsInf(syncPeriod, 0) {
		u, err := NewUniform(UniformParams{Period: syncPeriod})
		if err == nil {
			return u
		}
	}
	return NewConstant(geom.Identity)
}
