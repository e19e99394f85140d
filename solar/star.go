package solar

import (
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/coord"
	"github.com/signalsfoundry/orrery/geom"
	"github.com/signalsfoundry/orrery/orbit"
	"github.com/signalsfoundry/orrery/rotation"
)

// SolarRadius is the radius of the Sun in km.
const SolarRadius = 696000.0

// Star anchors a star system. A star in a multiple system may orbit a
// barycenter star, in which case Orbit is expressed in km along ecliptic
// axes relative to that barycenter.
type Star struct {
	CatalogNumber uint32
	Name          string
	Position      coord.StarPosition // light years, catalog value
	AbsMag        float64
	SpectralClass string
	Radius        float64 // km
	Orbit         orbit.Orbit
	Rotation      rotation.Model

	barycenter *Star
}

// NewStar returns a star at a fixed catalog position.
func NewStar(catalog uint32, name string, pos coord.StarPosition) *Star {
	return &Star{CatalogNumber: catalog, Name: name, Position: pos, Radius: SolarRadius}
}

// Barycenter returns the star s orbits, or nil.
func (s *Star) Barycenter() *Star { return s.barycenter }

// SetBarycenter makes s orbit c. A star may not orbit itself through the
// chain. A nil c detaches s.
func (s *Star) SetBarycenter(c *Star) error {
	for n := c; n != nil; n = n.barycenter {
		if n == s {
			return fmt.Errorf("%w: star %d orbiting %d", ErrBarycenterCycle, s.CatalogNumber, c.CatalogNumber)
		}
	}
	s.barycenter = c
	return nil
}

// UniversalPosition is the position of s at jd. A star with an orbit is
// placed relative to its barycenter, or to its catalog position when it
// has none.
func (s *Star) UniversalPosition(jd float64) coord.Universal {
	if s.Orbit == nil {
		return coord.FromStar(s.Position)
	}
	base := coord.FromStar(s.Position)
	if s.barycenter != nil {
		base = s.barycenter.UniversalPosition(jd)
	}
	return base.OffsetKm(s.Orbit.PositionAtTime(jd))
}

// Velocity is the motion of s relative to the galaxy frame, in km/day.
func (s *Star) Velocity(jd float64) r3.Vec {
	if s.Orbit == nil {
		return r3.Vec{}
	}
	v := s.Orbit.VelocityAtTime(jd)
	if s.barycenter != nil {
		v = r3.Add(v, s.barycenter.Velocity(jd))
	}
	return v
}

// Orientation maps the star's body-fixed axes to ecliptic axes.
func (s *Star) Orientation(jd float64) quat.Number {
	if s.Rotation == nil {
		return geom.Identity
	}
	return s.Rotation.OrientationAtTime(jd)
}

// EquatorOrientation maps the star's equatorial axes to ecliptic axes.
func (s *Star) EquatorOrientation(jd float64) quat.Number {
	if s.Rotation == nil {
		return geom.Identity
	}
	return s.Rotation.EquatorOrientationAtTime(jd)
}
