// Package solar models stars, planetary systems and the bodies in them,
// and composes each body's orbit and rotation into transforms relative to
// the system's star. Heliocentric coordinates are kilometers along J2000
// ecliptic axes.
package solar

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/astro"
	"github.com/signalsfoundry/orrery/coord"
	"github.com/signalsfoundry/orrery/geom"
	"github.com/signalsfoundry/orrery/orbit"
	"github.com/signalsfoundry/orrery/rotation"
)

var (
	// ErrBarycenterSystem is returned when a barycenter belongs to another
	// star system.
	ErrBarycenterSystem = errors.New("barycenter is in a different star system")
	// ErrBarycenterCycle is returned when a barycenter would make a body
	// orbit itself.
	ErrBarycenterCycle = errors.New("barycenter chain forms a cycle")
	// ErrDuplicateBody is returned when a system already has a body of
	// the same name.
	ErrDuplicateBody = errors.New("duplicate body name")
	// ErrNotExtant is returned when an object is picked at a time outside
	// its lifespan or the lifespan of a body it belongs to.
	ErrNotExtant = errors.New("object does not exist at this time")
)

// ReferencePlane selects the axes a body's orbit is expressed in.
type ReferencePlane int

const (
	Ecliptic ReferencePlane = iota
	EquatorJ2000
	// BodyEquator uses the equator of the body's orbit center.
	BodyEquator
)

func (p ReferencePlane) String() string {
	switch p {
	case EquatorJ2000:
		return "equator-j2000"
	case BodyEquator:
		return "body-equator"
	default:
		return "ecliptic"
	}
}

// ParseReferencePlane accepts the names produced by String.
func ParseReferencePlane(s string) (ReferencePlane, bool) {
	switch strings.ToLower(s) {
	case "", "ecliptic", "ecliptic-j2000":
		return Ecliptic, true
	case "equator-j2000", "equatorial":
		return EquatorJ2000, true
	case "body-equator", "equator":
		return BodyEquator, true
	}
	return Ecliptic, false
}

// Classification is the kind of object a body represents.
type Classification int

const (
	Unknown Classification = iota
	Planet
	DwarfPlanet
	Moon
	MinorMoon
	Asteroid
	Comet
	Spacecraft
	Barycenter
	SurfaceFeature
	Component
	Invisible
)

var classNames = []string{
	"unknown", "planet", "dwarfplanet", "moon", "minormoon", "asteroid",
	"comet", "spacecraft", "barycenter", "surfacefeature", "component", "invisible",
}

func (c Classification) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return "unknown"
	}
	return classNames[c]
}

// ParseClassification maps a name to a Classification, case-insensitively.
func ParseClassification(s string) Classification {
	s = strings.ToLower(strings.ReplaceAll(s, " ", ""))
	for i, n := range classNames {
		if n == s {
			return Classification(i)
		}
	}
	return Unknown
}

// Lifespan is the half-open interval [Begin, End) of Julian dates during
// which a body exists.
type Lifespan struct {
	Begin, End float64
}

// Always is the lifespan of a body that always exists.
func Always() Lifespan { return Lifespan{Begin: math.Inf(-1), End: math.Inf(1)} }

// Extant reports whether jd falls within the lifespan.
func (l Lifespan) Extant(jd float64) bool { return jd >= l.Begin && jd < l.End }

// Body is a planet, moon, spacecraft or other object orbiting within a
// star system. Orbit and Rotation are never nil for a body built with
// NewBody and may be shared with other bodies.
type Body struct {
	Name       string
	Radius     float64 // km
	Mass       float64 // Earth masses
	Oblateness float64
	Albedo     float64
	Class      Classification
	Lifespan   Lifespan
	Plane      ReferencePlane
	Orbit      orbit.Orbit
	Rotation   rotation.Model

	system     *PlanetarySystem
	satellites *PlanetarySystem
	barycenter *Body
	locations  []*Location
}

// NewBody returns a body with the given orbit and rotation. A nil orbit
// pins the body at its center; a nil rotation selects the default model.
func NewBody(name string, o orbit.Orbit, r rotation.Model) *Body {
	if o == nil {
		o = orbit.NewFixed(r3.Vec{})
	}
	if r == nil {
		r = rotation.Default(orbit.SyncPeriod(o))
	}
	return &Body{
		Name:     name,
		Radius:   1,
		Albedo:   0.5,
		Lifespan: Always(),
		Orbit:    o,
		Rotation: r,
	}
}

// System is the planetary system containing b, or nil.
func (b *Body) System() *PlanetarySystem { return b.system }

// Satellites is the system of bodies orbiting b, or nil when it has none.
func (b *Body) Satellites() *PlanetarySystem { return b.satellites }

// CreateSatellites returns b's satellite system, creating it if needed.
func (b *Body) CreateSatellites() *PlanetarySystem {
	if b.satellites == nil {
		b.satellites = newPlanetarySystem(nil, b)
	}
	return b.satellites
}

// Barycenter is the explicit orbit barycenter, or nil.
func (b *Body) Barycenter() *Body { return b.barycenter }

// Extant reports whether the body exists at jd.
func (b *Body) Extant(jd float64) bool { return b.Lifespan.Extant(jd) }

// extantChain reports whether b and every primary it is a satellite of
// exist at jd. A moon of a planet that does not exist yet does not exist
// either.
func (b *Body) extantChain(jd float64) bool {
	for b != nil {
		if !b.Extant(jd) {
			return false
		}
		if b.system == nil {
			return true
		}
		b = b.system.primary
	}
	return true
}

// StarSystem returns the star anchoring the root system of b, or nil when
// b is not attached to one.
func (b *Body) StarSystem() *Star {
	for sys := b.system; sys != nil; {
		if sys.star != nil {
			return sys.star
		}
		if sys.primary == nil {
			return nil
		}
		sys = sys.primary.system
	}
	return nil
}

// center is the body b's orbit is measured from: its barycenter, else the
// primary of its system. nil means the system's star.
func (b *Body) center() *Body {
	if b.barycenter != nil {
		return b.barycenter
	}
	if b.system != nil {
		return b.system.primary
	}
	return nil
}

// SetBarycenter makes b orbit c. c must share b's star system and must not
// itself orbit b, directly or indirectly. A nil c restores the default
// center.
func (b *Body) SetBarycenter(c *Body) error {
	if c == nil {
		b.barycenter = nil
		return nil
	}
	if c.StarSystem() != b.StarSystem() {
		return fmt.Errorf("%w: %s orbiting %s", ErrBarycenterSystem, b.Name, c.Name)
	}
	for n := c; n != nil; n = n.center() {
		if n == b {
			return fmt.Errorf("%w: %s orbiting %s", ErrBarycenterCycle, b.Name, c.Name)
		}
	}
	b.barycenter = c
	return nil
}

// planeRotation maps the orbit's reference-plane axes to ecliptic axes.
func (b *Body) planeRotation(jd float64) quat.Number {
	switch b.Plane {
	case EquatorJ2000:
		return equatorJ2000
	case BodyEquator:
		if c := b.center(); c != nil {
			return c.EquatorOrientation(jd)
		}
	}
	return geom.Identity
}

var equatorJ2000 = geom.XRotation(-astro.J2000Obliquity)

// OrbitFrame maps points in the frame b's orbit is expressed in to
// heliocentric coordinates.
func (b *Body) OrbitFrame(jd float64) geom.Transform {
	t := geom.Transform{Rot: b.planeRotation(jd)}
	if c := b.center(); c != nil {
		t.Trans = c.HeliocentricPosition(jd)
	}
	return t
}

// LocalToHeliocentric maps points relative to b, along its reference-plane
// axes, to heliocentric coordinates. The recursion follows the barycenter
// chain up to the star.
func (b *Body) LocalToHeliocentric(jd float64) geom.Transform {
	f := b.OrbitFrame(jd)
	return geom.Transform{Rot: f.Rot, Trans: f.Apply(b.Orbit.PositionAtTime(jd))}
}

// HeliocentricPosition is the position of b relative to its star, in km.
func (b *Body) HeliocentricPosition(jd float64) r3.Vec {
	return b.LocalToHeliocentric(jd).Trans
}

// HeliocentricVelocity is the velocity of b relative to its star, in km/day.
func (b *Body) HeliocentricVelocity(jd float64) r3.Vec {
	v := geom.Rotate(b.planeRotation(jd), b.Orbit.VelocityAtTime(jd))
	if c := b.center(); c != nil {
		v = r3.Add(v, c.HeliocentricVelocity(jd))
	}
	return v
}

// UniversalPosition places b in universal coordinates using its star.
func (b *Body) UniversalPosition(jd float64) coord.Universal {
	h := b.HeliocentricPosition(jd)
	if s := b.StarSystem(); s != nil {
		return s.UniversalPosition(jd).OffsetKm(h)
	}
	return coord.FromKm(h)
}

// EquatorOrientation maps b's equatorial axes to ecliptic axes.
func (b *Body) EquatorOrientation(jd float64) quat.Number {
	return geom.Mul(b.planeRotation(jd), b.Rotation.EquatorOrientationAtTime(jd))
}

// Orientation maps b's body-fixed axes to ecliptic axes.
func (b *Body) Orientation(jd float64) quat.Number {
	return geom.Mul(b.planeRotation(jd), b.Rotation.OrientationAtTime(jd))
}

// EclipticToEquatorial rotates ecliptic vectors into b's equatorial axes.
func (b *Body) EclipticToEquatorial(jd float64) quat.Number {
	return quat.Conj(b.EquatorOrientation(jd))
}

// EclipticToGeographic rotates ecliptic vectors into b's body-fixed axes.
func (b *Body) EclipticToGeographic(jd float64) quat.Number {
	return quat.Conj(b.Orientation(jd))
}

// GeographicToHeliocentric maps body-fixed points on b to heliocentric
// coordinates.
func (b *Body) GeographicToHeliocentric(jd float64) geom.Transform {
	return geom.Transform{Rot: b.Orientation(jd), Trans: b.HeliocentricPosition(jd)}
}

// AngularVelocity is b's spin in ecliptic axes, radians per day.
func (b *Body) AngularVelocity(jd float64) r3.Vec {
	return geom.Rotate(b.planeRotation(jd), b.Rotation.AngularVelocityAtTime(jd))
}

// AddLocation attaches a surface location to b.
func (b *Body) AddLocation(l *Location) {
	l.parent = b
	b.locations = append(b.locations, l)
}

// Locations returns the surface locations of b.
func (b *Body) Locations() []*Location {
	out := make([]*Location, len(b.locations))
	copy(out, b.locations)
	return out
}

// FindLocation looks up a location by case-insensitive name.
func (b *Body) FindLocation(name string) *Location {
	for _, l := range b.locations {
		if strings.EqualFold(l.Name, name) {
			return l
		}
	}
	return nil
}

// PlanetocentricToCartesian converts longitude and latitude in degrees and
// an altitude above the mean radius to body-fixed km.
func (b *Body) PlanetocentricToCartesian(lonDeg, latDeg, altitude float64) r3.Vec {
	r := b.Radius + altitude
	x, y, z := astro.SphericalToCartesian(astro.DegToRad(lonDeg), astro.DegToRad(latDeg), r)
	return r3.Vec{X: x, Y: y, Z: z}
}

// CartesianToPlanetocentric is the inverse of PlanetocentricToCartesian.
func (b *Body) CartesianToPlanetocentric(p r3.Vec) (lonDeg, latDeg, altitude float64) {
	lon, lat, r := astro.CartesianToSpherical(p.X, p.Y, p.Z)
	return astro.RadToDeg(lon), astro.RadToDeg(lat), r - b.Radius
}
