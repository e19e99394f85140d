// Package orbit evaluates body positions over time. Every variant returns
// kilometers in the local frame of the body's reference plane and is safe
// for concurrent use; caching is left to an explicit Memo.
package orbit

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrInvalidElements is returned for orbital elements that do not
	// describe an elliptical or hyperbolic orbit.
	ErrInvalidElements = errors.New("invalid orbital elements")
	// ErrNoSamples is returned when a sampled trajectory has no samples.
	ErrNoSamples = errors.New("trajectory has no samples")
	// ErrUnsortedSamples is returned when sample times are not strictly
	// increasing.
	ErrUnsortedSamples = errors.New("trajectory samples not sorted by time")
	// ErrInvalidTLE is returned for malformed two-line element sets.
	ErrInvalidTLE = errors.New("invalid two-line element set")
)

// Orbit is the position of a body as a function of TDB Julian date.
type Orbit interface {
	// PositionAtTime returns the position in kilometers.
	PositionAtTime(jd float64) r3.Vec
	// VelocityAtTime returns the velocity in kilometers per day.
	VelocityAtTime(jd float64) r3.Vec
	// Period is the orbital period in days, or 0 when aperiodic.
	Period() float64
	// BoundingRadius bounds the distance from the orbit center, in km.
	BoundingRadius() float64
	IsPeriodic() bool
	// ValidRange is the time span over which the orbit is defined.
	ValidRange() Range
}

// SyncPeriod is the period a synchronous rotation should follow: the
// orbital period for periodic orbits and 0 otherwise.
func SyncPeriod(o Orbit) float64 {
	if o == nil || !o.IsPeriodic() {
		return 0
	}
	return o.Period()
}

// Range is a closed interval of Julian dates.
type Range struct {
	Begin, End float64
}

// Unbounded is the range of orbits defined for all time.
func Unbounded() Range { return Range{Begin: math.Inf(-1), End: math.Inf(1)} }

// Contains reports whether jd lies within the range.
func (r Range) Contains(jd float64) bool { return jd >= r.Begin && jd <= r.End }

// IsUnbounded reports whether the range covers all time.
func (r Range) IsUnbounded() bool { return math.IsInf(r.Begin, -1) && math.IsInf(r.End, 1) }

// numericVelocity differentiates pos with a central difference of h days.
func numericVelocity(pos func(float64) r3.Vec, jd, h float64) r3.Vec {
	a := pos(jd - h)
	b := pos(jd + h)
	return r3.Scale(1/(2*h), r3.Sub(b, a))
}
