package solar

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/coord"
)

// Location is a named point fixed on the surface of a body.
type Location struct {
	Name        string
	FeatureType string
	Position    r3.Vec  // body-fixed km
	Size        float64 // km

	parent *Body
}

// NewLocation places a location on b at the given planetocentric
// longitude and latitude (degrees) and altitude (km) and attaches it.
func NewLocation(b *Body, name string, lonDeg, latDeg, altitude float64) *Location {
	l := &Location{Name: name, Position: b.PlanetocentricToCartesian(lonDeg, latDeg, altitude)}
	b.AddLocation(l)
	return l
}

// Parent is the body the location sits on.
func (l *Location) Parent() *Body { return l.parent }

// HeliocentricPosition is the location's position relative to the star.
func (l *Location) HeliocentricPosition(jd float64) r3.Vec {
	if l.parent == nil {
		return l.Position
	}
	return l.parent.GeographicToHeliocentric(jd).Apply(l.Position)
}

// UniversalPosition places the location in universal coordinates.
func (l *Location) UniversalPosition(jd float64) coord.Universal {
	if l.parent == nil {
		return coord.FromKm(l.Position)
	}
	if s := l.parent.StarSystem(); s != nil {
		return s.UniversalPosition(jd).OffsetKm(l.HeliocentricPosition(jd))
	}
	return coord.FromKm(l.HeliocentricPosition(jd))
}

// DeepSky is a galaxy, nebula or cluster at a fixed universal position.
type DeepSky struct {
	CatalogNumber uint32
	Name          string
	Type          string
	Position      coord.Universal
	Radius        float64 // light years
	AbsMag        float64
}
