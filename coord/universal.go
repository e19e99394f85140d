// Package coord implements the three position precisions: fixed-point
// universal coordinates in micro-light-years, double precision kilometers
// relative to a star, and single precision light-year star positions.
package coord

import (
	"math"
	"strconv"

	sdkmath "cosmossdk.io/math"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/astro"
)

// Universal is a galaxy-scale position in micro-light-years. Each axis is an
// 18-decimal fixed-point number so that kilometer offsets survive next to
// interstellar magnitudes. The zero value is the origin.
type Universal struct {
	X, Y, Z sdkmath.LegacyDec
}

// StarPosition is a catalog position in light-years.
type StarPosition struct {
	X, Y, Z float32
}

// Origin returns the universal origin.
func Origin() Universal {
	return Universal{X: sdkmath.LegacyZeroDec(), Y: sdkmath.LegacyZeroDec(), Z: sdkmath.LegacyZeroDec()}
}

// NewUniversal builds a coordinate from micro-light-year components.
func NewUniversal(x, y, z float64) Universal {
	return Universal{X: decFromFloat(x), Y: decFromFloat(y), Z: decFromFloat(z)}
}

// FromVec builds a coordinate from a micro-light-year vector.
func FromVec(v r3.Vec) Universal { return NewUniversal(v.X, v.Y, v.Z) }

// FromKm builds a coordinate from a kilometer offset from the origin.
func FromKm(v r3.Vec) Universal { return FromVec(kmToUly(v)) }

// FromStar converts a catalog position to universal coordinates.
func FromStar(p StarPosition) Universal {
	return NewUniversal(float64(p.X)*1e6, float64(p.Y)*1e6, float64(p.Z)*1e6)
}

func decFromFloat(f float64) sdkmath.LegacyDec {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return sdkmath.LegacyZeroDec()
	}
	return sdkmath.LegacyMustNewDecFromStr(strconv.FormatFloat(f, 'f', 18, 64))
}

func orZero(d sdkmath.LegacyDec) sdkmath.LegacyDec {
	if d.IsNil() {
		return sdkmath.LegacyZeroDec()
	}
	return d
}

func decToFloat(d sdkmath.LegacyDec) float64 {
	if d.IsNil() {
		return 0
	}
	f, err := d.Float64()
	if err != nil {
		return 0
	}
	return f
}

func (u Universal) norm() Universal {
	return Universal{X: orZero(u.X), Y: orZero(u.Y), Z: orZero(u.Z)}
}

// Add returns u + o.
func (u Universal) Add(o Universal) Universal {
	u, o = u.norm(), o.norm()
	return Universal{X: u.X.Add(o.X), Y: u.Y.Add(o.Y), Z: u.Z.Add(o.Z)}
}

// Sub returns u - o.
func (u Universal) Sub(o Universal) Universal {
	u, o = u.norm(), o.norm()
	return Universal{X: u.X.Sub(o.X), Y: u.Y.Sub(o.Y), Z: u.Z.Sub(o.Z)}
}

// OffsetKm returns u displaced by a kilometer vector.
func (u Universal) OffsetKm(v r3.Vec) Universal {
	return u.Add(FromKm(v))
}

// OffsetUly returns u displaced by a micro-light-year vector.
func (u Universal) OffsetUly(v r3.Vec) Universal {
	return u.Add(FromVec(v))
}

// Vec returns u in micro-light-years at double precision.
func (u Universal) Vec() r3.Vec {
	return r3.Vec{X: decToFloat(u.X), Y: decToFloat(u.Y), Z: decToFloat(u.Z)}
}

// DifferenceKm returns u - o in kilometers. The subtraction happens in fixed
// point before rounding, so nearby points keep full precision.
func (u Universal) DifferenceKm(o Universal) r3.Vec {
	return ulyToKm(u.Sub(o).Vec())
}

// DistanceKm returns the distance between u and o in kilometers.
func (u Universal) DistanceKm(o Universal) float64 {
	return r3.Norm(u.DifferenceKm(o))
}

// Equal reports exact equality.
func (u Universal) Equal(o Universal) bool {
	u, o = u.norm(), o.norm()
	return u.X.Equal(o.X) && u.Y.Equal(o.Y) && u.Z.Equal(o.Z)
}

// Star returns u rounded to a light-year catalog position.
func (u Universal) Star() StarPosition {
	v := u.Vec()
	return StarPosition{X: float32(v.X * 1e-6), Y: float32(v.Y * 1e-6), Z: float32(v.Z * 1e-6)}
}

// String renders the micro-light-year components.
func (u Universal) String() string {
	u = u.norm()
	return "(" + u.X.String() + ", " + u.Y.String() + ", " + u.Z.String() + ")"
}

// Heliocentric returns p relative to the star at s, in kilometers.
func Heliocentric(p Universal, s StarPosition) r3.Vec {
	return p.DifferenceKm(FromStar(s))
}

// FromHeliocentric returns the universal position of a point given in
// kilometers relative to the star at s.
func FromHeliocentric(km r3.Vec, s StarPosition) Universal {
	return FromStar(s).OffsetKm(km)
}

// Vec returns the star position as a light-year vector.
func (p StarPosition) Vec() r3.Vec {
	return r3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

func kmToUly(v r3.Vec) r3.Vec {
	return r3.Vec{X: astro.KmToMicroLightYears(v.X), Y: astro.KmToMicroLightYears(v.Y), Z: astro.KmToMicroLightYears(v.Z)}
}

func ulyToKm(v r3.Vec) r3.Vec {
	return r3.Vec{X: astro.MicroLightYearsToKm(v.X), Y: astro.MicroLightYearsToKm(v.Y), Z: astro.MicroLightYearsToKm(v.Z)}
}

// KmToUly converts a kilometer vector to micro-light-years.
func KmToUly(v r3.Vec) r3.Vec { return kmToUly(v) }

// UlyToKm converts a micro-light-year vector to kilometers.
func UlyToKm(v r3.Vec) r3.Vec { return ulyToKm(v) }

// RigidTransform is a position and orientation. Frames use it both for
// frame-local situations, where Translation is an offset from the frame
// origin, and for universal situations.
type RigidTransform struct {
	Translation Universal
	Rotation    quat.Number
}

// NewRigidTransform returns a transform at p with identity rotation.
func NewRigidTransform(p Universal) RigidTransform {
	return RigidTransform{Translation: p, Rotation: quat.Number{Real: 1}}
}
