package solar

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/astro"
	"github.com/signalsfoundry/orrery/coord"
	"github.com/signalsfoundry/orrery/geom"
)

// SelectionKind tags the object a Selection refers to.
type SelectionKind int

const (
	SelectNone SelectionKind = iota
	SelectStar
	SelectBody
	SelectDeepSky
	SelectLocation
)

func (k SelectionKind) String() string {
	switch k {
	case SelectStar:
		return "star"
	case SelectBody:
		return "body"
	case SelectDeepSky:
		return "deepsky"
	case SelectLocation:
		return "location"
	}
	return "none"
}

// Selection refers to a star, body, deep sky object or location without
// owning it. The zero value selects nothing.
type Selection struct {
	kind SelectionKind
	star *Star
	body *Body
	dso  *DeepSky
	loc  *Location
}

func StarSelection(s *Star) Selection {
	if s == nil {
		return Selection{}
	}
	return Selection{kind: SelectStar, star: s}
}

func BodySelection(b *Body) Selection {
	if b == nil {
		return Selection{}
	}
	return Selection{kind: SelectBody, body: b}
}

func DeepSkySelection(d *DeepSky) Selection {
	if d == nil {
		return Selection{}
	}
	return Selection{kind: SelectDeepSky, dso: d}
}

func LocationSelection(l *Location) Selection {
	if l == nil {
		return Selection{}
	}
	return Selection{kind: SelectLocation, loc: l}
}

func (s Selection) Kind() SelectionKind { return s.kind }
func (s Selection) Empty() bool         { return s.kind == SelectNone }
func (s Selection) Star() *Star         { return s.star }
func (s Selection) Body() *Body         { return s.body }
func (s Selection) DeepSky() *DeepSky   { return s.dso }
func (s Selection) Location() *Location { return s.loc }

// Equal reports whether both selections refer to the same object.
func (s Selection) Equal(o Selection) bool { return s == o }

func (s Selection) Name() string {
	switch s.kind {
	case SelectStar:
		return s.star.Name
	case SelectBody:
		return s.body.Name
	case SelectDeepSky:
		return s.dso.Name
	case SelectLocation:
		return s.loc.Name
	}
	return ""
}

// Position is the universal position of the selected object at jd.
func (s Selection) Position(jd float64) coord.Universal {
	switch s.kind {
	case SelectStar:
		return s.star.UniversalPosition(jd)
	case SelectBody:
		return s.body.UniversalPosition(jd)
	case SelectDeepSky:
		return s.dso.Position
	case SelectLocation:
		return s.loc.UniversalPosition(jd)
	}
	return coord.Origin()
}

// Velocity is the motion of the selected object in km/day along ecliptic
// axes.
func (s Selection) Velocity(jd float64) r3.Vec {
	switch s.kind {
	case SelectStar:
		return s.star.Velocity(jd)
	case SelectBody:
		v := s.body.HeliocentricVelocity(jd)
		if st := s.body.StarSystem(); st != nil {
			v = r3.Add(v, st.Velocity(jd))
		}
		return v
	case SelectLocation:
		p := s.loc.parent
		if p == nil {
			return r3.Vec{}
		}
		off := geom.Rotate(p.Orientation(jd), s.loc.Position)
		return r3.Add(BodySelection(p).Velocity(jd), r3.Cross(p.AngularVelocity(jd), off))
	}
	return r3.Vec{}
}

// Radius is the size of the selected object in km.
func (s Selection) Radius() float64 {
	switch s.kind {
	case SelectStar:
		return s.star.Radius
	case SelectBody:
		return s.body.Radius
	case SelectDeepSky:
		return astro.LightYearsToKm(s.dso.Radius)
	case SelectLocation:
		return s.loc.Size / 2
	}
	return 0
}

// Orientation maps the object's body-fixed axes to ecliptic axes.
// Deep sky objects and unselected values report the identity.
func (s Selection) Orientation(jd float64) quat.Number {
	switch s.kind {
	case SelectStar:
		return s.star.Orientation(jd)
	case SelectBody:
		return s.body.Orientation(jd)
	case SelectLocation:
		if s.loc.parent != nil {
			return s.loc.parent.Orientation(jd)
		}
	}
	return geom.Identity
}

// EquatorOrientation maps the object's equatorial axes to ecliptic axes.
func (s Selection) EquatorOrientation(jd float64) quat.Number {
	switch s.kind {
	case SelectStar:
		return s.star.EquatorOrientation(jd)
	case SelectBody:
		return s.body.EquatorOrientation(jd)
	case SelectLocation:
		if s.loc.parent != nil {
			return s.loc.parent.EquatorOrientation(jd)
		}
	}
	return geom.Identity
}

// Reachable reports whether the object can be picked at jd: it and every
// body it hangs from must be extant. Stars and deep-sky objects always are.
func (s Selection) Reachable(jd float64) bool {
	switch s.kind {
	case SelectBody:
		return s.body.extantChain(jd)
	case SelectLocation:
		return s.loc.parent == nil || s.loc.parent.extantChain(jd)
	case SelectNone:
		return false
	}
	return true
}

// Extant reports whether the selected object exists at jd.
func (s Selection) Extant(jd float64) bool {
	switch s.kind {
	case SelectBody:
		return s.body.Extant(jd)
	case SelectLocation:
		return s.loc.parent == nil || s.loc.parent.Extant(jd)
	case SelectNone:
		return false
	}
	return true
}

// Parent is the object the selection orbits or sits on: a location's body,
// a body's orbit center or star, or a star's barycenter.
func (s Selection) Parent() Selection {
	switch s.kind {
	case SelectLocation:
		return BodySelection(s.loc.parent)
	case SelectBody:
		if c := s.body.center(); c != nil {
			return BodySelection(c)
		}
		return StarSelection(s.body.StarSystem())
	case SelectStar:
		return StarSelection(s.star.barycenter)
	}
	return Selection{}
}
