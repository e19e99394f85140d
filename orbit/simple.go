package orbit

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/geom"
)

// Fixed is a constant position.
type Fixed struct {
	Position r3.Vec
}

// NewFixed returns an orbit pinned at p.
func NewFixed(p r3.Vec) *Fixed { return &Fixed{Position: p} }

func (f *Fixed) PositionAtTime(float64) r3.Vec { return f.Position }
func (f *Fixed) VelocityAtTime(float64) r3.Vec { return r3.Vec{} }
func (f *Fixed) Period() float64               { return 0 }
func (f *Fixed) BoundingRadius() float64       { return r3.Norm(f.Position) * 1.1 }
func (f *Fixed) IsPeriodic() bool              { return false }
func (f *Fixed) ValidRange() Range             { return Unbounded() }

// Spinner is the part of a rotation model a synchronous orbit depends on.
type Spinner interface {
	Spin(jd float64) quat.Number
	Period() float64
}

// Synchronous holds a body at a fixed point in its parent's body-fixed
// frame. Positions are expressed in the parent's equatorial frame, so the
// owning body must use the parent equator as its reference plane.
type Synchronous struct {
	parent Spinner
	offset r3.Vec
}

// NewSynchronous ties a body-fixed offset (km) to the parent's rotation.
func NewSynchronous(parent Spinner, offset r3.Vec) *Synchronous {
	return &Synchronous{parent: parent, offset: offset}
}

// Offset returns the body-fixed position of the orbit.
func (s *Synchronous) Offset() r3.Vec { return s.offset }

func (s *Synchronous) PositionAtTime(jd float64) r3.Vec {
	return geom.Rotate(s.parent.Spin(jd), s.offset)
}

// VelocityAtTime returns the surface velocity from the parent's spin rate.
func (s *Synchronous) VelocityAtTime(jd float64) r3.Vec {
	p := s.parent.Period()
	if p == 0 {
		return r3.Vec{}
	}
	w := r3.Vec{Z: 2 * math.Pi / p}
	return r3.Cross(w, s.PositionAtTime(jd))
}

func (s *Synchronous) Period() float64         { return s.parent.Period() }
func (s *Synchronous) BoundingRadius() float64 { return r3.Norm(s.offset) }
func (s *Synchronous) IsPeriodic() bool        { return s.parent.Period() != 0 }
func (s *Synchronous) ValidRange() Range       { return Unbounded() }

// Source computes positions outside this package, for example from an
// ephemeris kernel.
type Source interface {
	Position(jd float64) r3.Vec
}

// SourceFunc adapts a function to Source.
type SourceFunc func(jd float64) r3.Vec

func (f SourceFunc) Position(jd float64) r3.Vec { return f(jd) }

// External delegates positions to a Source. Velocity is differentiated
// numerically. Outside its valid range the source is clamped.
type External struct {
	src    Source
	period float64
	radius float64
	valid  Range
}

// NewExternal wraps src. A zero period marks the orbit as aperiodic.
func NewExternal(src Source, period, boundingRadius float64, valid Range) *External {
	return &External{src: src, period: period, radius: boundingRadius, valid: valid}
}

func (e *External) clamp(jd float64) float64 {
	return math.Min(math.Max(jd, e.valid.Begin), e.valid.End)
}

func (e *External) PositionAtTime(jd float64) r3.Vec { return e.src.Position(e.clamp(jd)) }

func (e *External) VelocityAtTime(jd float64) r3.Vec {
	if !e.valid.IsUnbounded() && !e.valid.Contains(jd) {
		return r3.Vec{}
	}
	return numericVelocity(e.PositionAtTime, jd, 1.0/1440.0)
}

func (e *External) Period() float64         { return e.period }
func (e *External) BoundingRadius() float64 { return e.radius }
func (e *External) IsPeriodic() bool        { return e.period != 0 }
func (e *External) ValidRange() Range       { return e.valid }
