package solar

import (
	"fmt"
	"strings"
)

// PlanetarySystem is an ordered set of sibling bodies anchored either by a
// star or by a primary body, never both.
type PlanetarySystem struct {
	star    *Star
	primary *Body
	bodies  []*Body
	byName  map[string]*Body
}

func newPlanetarySystem(star *Star, primary *Body) *PlanetarySystem {
	return &PlanetarySystem{star: star, primary: primary, byName: make(map[string]*Body)}
}

// NewStarSystem returns an empty system anchored by s.
func NewStarSystem(s *Star) *PlanetarySystem { return newPlanetarySystem(s, nil) }

// Star is the anchoring star, or nil for a satellite system.
func (ps *PlanetarySystem) Star() *Star { return ps.star }

// Primary is the anchoring body, or nil for a star's system.
func (ps *PlanetarySystem) Primary() *Body { return ps.primary }

// Len returns the number of bodies directly in the system.
func (ps *PlanetarySystem) Len() int { return len(ps.bodies) }

// Bodies returns the bodies in insertion order.
func (ps *PlanetarySystem) Bodies() []*Body {
	out := make([]*Body, len(ps.bodies))
	copy(out, ps.bodies)
	return out
}

// AddBody appends b and takes ownership of it. Names are unique within a
// system, ignoring case.
func (ps *PlanetarySystem) AddBody(b *Body) error {
	key := strings.ToLower(b.Name)
	if _, ok := ps.byName[key]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateBody, b.Name)
	}
	if b.system != nil && b.system != ps {
		b.system.RemoveBody(b)
	}
	b.system = ps
	ps.bodies = append(ps.bodies, b)
	ps.byName[key] = b
	return nil
}

// RemoveBody detaches b. It reports whether b was in the system.
func (ps *PlanetarySystem) RemoveBody(b *Body) bool {
	for i, x := range ps.bodies {
		if x == b {
			ps.bodies = append(ps.bodies[:i], ps.bodies[i+1:]...)
			delete(ps.byName, strings.ToLower(b.Name))
			b.system = nil
			return true
		}
	}
	return false
}

// Find looks up a body by case-insensitive name. With deep set, satellite
// systems are searched depth-first after the direct children.
func (ps *PlanetarySystem) Find(name string, deep bool) *Body {
	if b, ok := ps.byName[strings.ToLower(name)]; ok {
		return b
	}
	if !deep {
		return nil
	}
	for _, b := range ps.bodies {
		if b.satellites == nil {
			continue
		}
		if found := b.satellites.Find(name, true); found != nil {
			return found
		}
	}
	return nil
}

// Traverse visits every body depth-first, each body before its
// satellites. It stops as soon as fn returns false and reports whether
// the walk completed.
func (ps *PlanetarySystem) Traverse(fn func(*Body) bool) bool {
	for _, b := range ps.bodies {
		if !fn(b) {
			return false
		}
		if b.satellites != nil && !b.satellites.Traverse(fn) {
			return false
		}
	}
	return true
}

// SolarSystem pairs a star with the planetary system it anchors.
type SolarSystem struct {
	star    *Star
	planets *PlanetarySystem
}

// NewSolarSystem returns an empty solar system around s.
func NewSolarSystem(s *Star) *SolarSystem {
	return &SolarSystem{star: s, planets: NewStarSystem(s)}
}

func (ss *SolarSystem) Star() *Star               { return ss.star }
func (ss *SolarSystem) Planets() *PlanetarySystem { return ss.planets }

// Find resolves a slash separated path such as "Earth/Moon" relative to
// the star.
func (ss *SolarSystem) Find(path string) *Body {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	sys := ss.planets
	var b *Body
	for _, p := range parts {
		if sys == nil {
			return nil
		}
		if b = sys.Find(p, false); b == nil {
			return nil
		}
		sys = b.satellites
	}
	return b
}
