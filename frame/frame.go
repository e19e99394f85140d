// Package frame defines reference frames anchored on selections and the
// conversion of observer situations between a frame and universal
// coordinates. Frame transforms are bound to a single instant; nothing is
// cached across dates.
package frame

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/num/quat"

	"github.com/signalsfoundry/orrery/astro"
	"github.com/signalsfoundry/orrery/coord"
	"github.com/signalsfoundry/orrery/geom"
	"github.com/signalsfoundry/orrery/solar"
)

var (
	// ErrNoAnchor is returned when a frame that needs a center has none.
	ErrNoAnchor = errors.New("frame has no anchor object")
	// ErrCollinearAxes is returned for two-vector frames whose axes cannot
	// span a basis.
	ErrCollinearAxes = errors.New("two-vector frame axes are collinear")
	// ErrNotOriented is returned when a rotating frame is anchored on an
	// object without an orientation.
	ErrNotOriented = errors.New("anchor object has no orientation")
)

// Kind identifies the variant of a frame.
type Kind int

const (
	KindUniversal Kind = iota
	KindEcliptic
	KindEquator
	KindMeanEquator
	KindBodyFixed
	KindTwoVector
	KindPhaseLock
	KindChase
)

var kindNames = [...]string{"universal", "ecliptic", "equator", "mean-equator", "body-fixed", "two-vector", "phase-lock", "chase"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Frame is a coordinate system with an origin at its center object and
// axes that may turn with time.
type Frame interface {
	Kind() Kind
	// Center is the anchor object; empty for the universal frame.
	Center() solar.Selection
	// Origin is the universal position of the frame origin at jd.
	Origin(jd float64) coord.Universal
	// Orientation maps frame axes to universal axes at jd.
	Orientation(jd float64) quat.Number
}

// ToUniversal maps a situation expressed in f to universal coordinates.
// The translation of local is an offset from the frame origin in
// micro-light-years.
func ToUniversal(f Frame, local coord.RigidTransform, jd float64) coord.RigidTransform {
	q := f.Orientation(jd)
	origin := f.Origin(jd)
	if q == geom.Identity {
		return coord.RigidTransform{Translation: origin.Add(local.Translation), Rotation: local.Rotation}
	}
	off := geom.Rotate(q, local.Translation.Vec())
	return coord.RigidTransform{
		Translation: origin.OffsetUly(off),
		Rotation:    geom.Mul(q, local.Rotation),
	}
}

// FromUniversal is the inverse of ToUniversal for the same instant.
func FromUniversal(f Frame, u coord.RigidTransform, jd float64) coord.RigidTransform {
	q := f.Orientation(jd)
	origin := f.Origin(jd)
	if q == geom.Identity {
		return coord.RigidTransform{Translation: u.Translation.Sub(origin), Rotation: u.Rotation}
	}
	inv := quat.Conj(q)
	off := u.Translation.Sub(origin).Vec()
	return coord.RigidTransform{
		Translation: coord.FromVec(geom.Rotate(inv, off)),
		Rotation:    geom.Mul(inv, u.Rotation),
	}
}

// Universal is the galaxy frame: fixed origin, ecliptic J2000 axes.
type Universal struct{}

func (Universal) Kind() Kind                      { return KindUniversal }
func (Universal) Center() solar.Selection         { return solar.Selection{} }
func (Universal) Origin(float64) coord.Universal  { return coord.Origin() }
func (Universal) Orientation(float64) quat.Number { return geom.Identity }

type anchored struct {
	center solar.Selection
}

func (a anchored) Center() solar.Selection           { return a.center }
func (a anchored) Origin(jd float64) coord.Universal { return a.center.Position(jd) }

func anchor(center solar.Selection) (anchored, error) {
	if center.Empty() {
		return anchored{}, ErrNoAnchor
	}
	return anchored{center: center}, nil
}

func orientedAnchor(center solar.Selection) (anchored, error) {
	a, err := anchor(center)
	if err != nil {
		return a, err
	}
	if center.Kind() == solar.SelectDeepSky {
		return anchored{}, fmt.Errorf("%w: %s", ErrNotOriented, center.Name())
	}
	return a, nil
}

// Ecliptic is centered on an object with ecliptic J2000 axes.
type Ecliptic struct{ anchored }

func NewEcliptic(center solar.Selection) (*Ecliptic, error) {
	a, err := anchor(center)
	if err != nil {
		return nil, err
	}
	return &Ecliptic{a}, nil
}

func (*Ecliptic) Kind() Kind                      { return KindEcliptic }
func (*Ecliptic) Orientation(float64) quat.Number { return geom.Identity }

// Equator is centered on an object with J2000 Earth equator axes.
type Equator struct{ anchored }

var j2000Equator = geom.XRotation(-astro.J2000Obliquity)

func NewEquator(center solar.Selection) (*Equator, error) {
	a, err := anchor(center)
	if err != nil {
		return nil, err
	}
	return &Equator{a}, nil
}

func (*Equator) Kind() Kind                      { return KindEquator }
func (*Equator) Orientation(float64) quat.Number { return j2000Equator }

// MeanEquator follows the equator of its center, without the spin.
type MeanEquator struct{ anchored }

func NewMeanEquator(center solar.Selection) (*MeanEquator, error) {
	a, err := orientedAnchor(center)
	if err != nil {
		return nil, err
	}
	return &MeanEquator{a}, nil
}

func (*MeanEquator) Kind() Kind { return KindMeanEquator }

func (f *MeanEquator) Orientation(jd float64) quat.Number {
	return f.center.EquatorOrientation(jd)
}

// BodyFixed rotates with its center.
type BodyFixed struct{ anchored }

func NewBodyFixed(center solar.Selection) (*BodyFixed, error) {
	a, err := orientedAnchor(center)
	if err != nil {
		return nil, err
	}
	return &BodyFixed{a}, nil
}

func (*BodyFixed) Kind() Kind { return KindBodyFixed }

func (f *BodyFixed) Orientation(jd float64) quat.Number {
	return f.center.Orientation(jd)
}

// Rebind returns a frame of the same kind as f anchored on center. Frames
// that track a second object keep their target.
func Rebind(f Frame, center solar.Selection) (Frame, error) {
	switch f := f.(type) {
	case Universal:
		return f, nil
	case *Ecliptic:
		return NewEcliptic(center)
	case *Equator:
		return NewEquator(center)
	case *MeanEquator:
		return NewMeanEquator(center)
	case *BodyFixed:
		return NewBodyFixed(center)
	case *TwoVector:
		switch f.kind {
		case KindPhaseLock:
			return NewPhaseLock(center, f.target)
		case KindChase:
			return NewChase(center, f.target)
		}
		return f.withCenter(center)
	}
	return nil, fmt.Errorf("frame: cannot rebind %T", f)
}

// New builds a frame of the given kind. target is used only by phase-lock
// and chase frames.
func New(kind Kind, center, target solar.Selection) (Frame, error) {
	switch kind {
	case KindUniversal:
		return Universal{}, nil
	case KindEcliptic:
		return NewEcliptic(center)
	case KindEquator:
		return NewEquator(center)
	case KindMeanEquator:
		return NewMeanEquator(center)
	case KindBodyFixed:
		return NewBodyFixed(center)
	case KindPhaseLock:
		return NewPhaseLock(center, target)
	case KindChase:
		return NewChase(center, target)
	}
	return nil, fmt.Errorf("frame: cannot build %v frame without vectors", kind)
}
