package frame

import (
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/geom"
	"github.com/signalsfoundry/orrery/solar"
)

// Vector is a direction that may change with time, in universal axes.
type Vector interface {
	Direction(jd float64) r3.Vec
}

// RelativePosition points from Observer to Target.
type RelativePosition struct {
	Observer, Target solar.Selection
}

func (v RelativePosition) Direction(jd float64) r3.Vec {
	return v.Target.Position(jd).DifferenceKm(v.Observer.Position(jd))
}

// RelativeVelocity is the velocity of Target relative to Observer.
type RelativeVelocity struct {
	Observer, Target solar.Selection
}

func (v RelativeVelocity) Direction(jd float64) r3.Vec {
	return r3.Sub(v.Target.Velocity(jd), v.Observer.Velocity(jd))
}

// ConstantVector is a fixed direction in Frame, or in universal axes when
// Frame is nil.
type ConstantVector struct {
	Vec   r3.Vec
	Frame Frame
}

func (v ConstantVector) Direction(jd float64) r3.Vec {
	if v.Frame == nil {
		return v.Vec
	}
	return geom.Rotate(v.Frame.Orientation(jd), v.Vec)
}

// Axis names a signed frame axis.
type Axis int

const (
	AxisX    Axis = 1
	AxisY    Axis = 2
	AxisZ    Axis = 3
	AxisNegX Axis = -1
	AxisNegY Axis = -2
	AxisNegZ Axis = -3
)

func (a Axis) valid() bool { return a != 0 && a >= -3 && a <= 3 }

func (a Axis) index() int {
	if a < 0 {
		return int(-a) - 1
	}
	return int(a) - 1
}

func (a Axis) sign() float64 {
	if a < 0 {
		return -1
	}
	return 1
}

// degenerateTolerance is the smallest sine of the angle between the two
// directions for which an orientation is computed.
const degenerateTolerance = 1e-6

// TwoVector builds its axes from a primary direction, which fixes one axis
// exactly, and a secondary direction, which fixes a second axis in the
// plane they span. When the directions are parallel at some instant the
// orientation falls back to the identity.
type TwoVector struct {
	anchored
	kind      Kind
	target    solar.Selection
	primary   Vector
	pAxis     Axis
	secondary Vector
	sAxis     Axis
}

// NewTwoVector validates the axis pair. Two constant vectors that are
// parallel in the same frame are rejected since they never span a plane.
func NewTwoVector(center solar.Selection, primary Vector, pAxis Axis, secondary Vector, sAxis Axis) (*TwoVector, error) {
	a, err := anchor(center)
	if err != nil {
		return nil, err
	}
	if primary == nil || secondary == nil {
		return nil, fmt.Errorf("%w: missing direction", ErrCollinearAxes)
	}
	if !pAxis.valid() || !sAxis.valid() || pAxis.index() == sAxis.index() {
		return nil, fmt.Errorf("%w: axes %d and %d", ErrCollinearAxes, pAxis, sAxis)
	}
	pc, ok1 := primary.(ConstantVector)
	sc, ok2 := secondary.(ConstantVector)
	if ok1 && ok2 && pc.Frame == sc.Frame {
		n := r3.Norm(pc.Vec) * r3.Norm(sc.Vec)
		if n == 0 || r3.Norm(r3.Cross(pc.Vec, sc.Vec)) < degenerateTolerance*n {
			return nil, fmt.Errorf("%w: constant vectors %v and %v", ErrCollinearAxes, pc.Vec, sc.Vec)
		}
	}
	return &TwoVector{anchored: a, kind: KindTwoVector, primary: primary, pAxis: pAxis, secondary: secondary, sAxis: sAxis}, nil
}

func (f *TwoVector) withCenter(center solar.Selection) (*TwoVector, error) {
	a, err := anchor(center)
	if err != nil {
		return nil, err
	}
	cp := *f
	cp.anchored = a
	return &cp, nil
}

func (f *TwoVector) Kind() Kind { return f.kind }

// Target is the tracked object of phase-lock and chase frames.
func (f *TwoVector) Target() solar.Selection { return f.target }

func (f *TwoVector) Orientation(jd float64) quat.Number {
	p := f.primary.Direction(jd)
	s := f.secondary.Direction(jd)
	np, ns := r3.Norm(p), r3.Norm(s)
	if np == 0 || ns == 0 {
		return geom.Identity
	}
	p = r3.Scale(1/np, p)
	s = r3.Scale(1/ns, s)
	perp := r3.Sub(s, r3.Scale(r3.Dot(s, p), p))
	if r3.Norm(perp) < degenerateTolerance {
		return geom.Identity
	}
	perp = r3.Unit(perp)

	var cols [3]r3.Vec
	i, j := f.pAxis.index(), f.sAxis.index()
	cols[i] = r3.Scale(f.pAxis.sign(), p)
	cols[j] = r3.Scale(f.sAxis.sign(), perp)
	k := 3 - i - j
	if (j-i+3)%3 == 1 {
		cols[k] = r3.Cross(cols[i], cols[j])
	} else {
		cols[k] = r3.Cross(cols[j], cols[i])
	}
	return geom.FromBasis(cols[0], cols[1], cols[2])
}

// NewPhaseLock keeps target on the +X axis, with +Z along the center's
// rotation axis.
func NewPhaseLock(center, target solar.Selection) (*TwoVector, error) {
	if target.Empty() {
		return nil, ErrNoAnchor
	}
	eq, err := NewMeanEquator(center)
	if err != nil {
		return nil, err
	}
	f, err := NewTwoVector(center,
		RelativePosition{Observer: center, Target: target}, AxisX,
		ConstantVector{Vec: geom.ZAxis, Frame: eq}, AxisZ)
	if err != nil {
		return nil, err
	}
	f.kind = KindPhaseLock
	f.target = target
	return f, nil
}

// NewChase points +X along the motion of center relative to target, with
// +Y toward target.
func NewChase(center, target solar.Selection) (*TwoVector, error) {
	if target.Empty() {
		return nil, ErrNoAnchor
	}
	f, err := NewTwoVector(center,
		RelativeVelocity{Observer: target, Target: center}, AxisX,
		RelativePosition{Observer: center, Target: target}, AxisY)
	if err != nil {
		return nil, err
	}
	f.kind = KindChase
	f.target = target
	return f, nil
}
