package orbit

import (
	"sort"
	"strings"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/astro"
)

// planetElements are J2000 mean elements relative to the ecliptic with
// linear rates per Julian century: a (AU), e, I, L, long. perihelion and
// long. ascending node in degrees.
type planetElements struct {
	a, e, i, l, peri, node       float64
	da, de, di, dl, dperi, dnode float64
}

// Approximate Keplerian elements valid 1800-2050 (Standish, JPL).
var jplPlanets = map[string]planetElements{
	"mercury": {0.38709927, 0.20563593, 7.00497902, 252.25032350, 77.45779628, 48.33076593,
		0.00000037, 0.00001906, -0.00594749, 149472.67411175, 0.16047689, -0.12534081},
	"venus": {0.72333566, 0.00677672, 3.39467605, 181.97909950, 131.60246718, 76.67984255,
		0.00000390, -0.00004107, -0.00078890, 58517.81538729, 0.00268329, -0.27769418},
	"emb": {1.00000261, 0.01671123, -0.00001531, 100.46457166, 102.93768193, 0.0,
		0.00000562, -0.00004392, -0.01294668, 35999.37244981, 0.32327364, 0.0},
	"mars": {1.52371034, 0.09339410, 1.84969142, -4.55343205, -23.94362959, 49.55953891,
		0.00001847, 0.00007882, -0.00813131, 19140.30268499, 0.44441088, -0.29257343},
	"jupiter": {5.20288700, 0.04838624, 1.30439695, 34.39644051, 14.72847983, 100.47390909,
		-0.00011607, -0.00013253, -0.00183714, 3034.74612775, 0.21252668, 0.20469106},
	"saturn": {9.53667594, 0.05386179, 2.48599187, 49.95424423, 92.59887831, 113.66242448,
		-0.00125060, -0.00050991, 0.00193609, 1222.49362201, -0.41897216, -0.28867794},
	"uranus": {19.18916464, 0.04725744, 0.77263783, 313.23810451, 170.95427630, 74.01692503,
		-0.00196176, -0.00004397, -0.00242939, 428.48202785, 0.40805281, 0.04240589},
	"neptune": {30.06992276, 0.00859048, 1.77004347, -55.12002969, 44.96476227, 131.78422574,
		0.00026291, 0.00005105, 0.00035372, 218.45945325, -0.32241464, -0.01262724},
}

// MeanElements is a heliocentric planet orbit built from mean elements that
// drift linearly with time.
type MeanElements struct {
	name string
	p    planetElements
}

func (m *MeanElements) Name() string { return m.name }

// at returns osculating elements with the epoch set to jd.
func (m *MeanElements) at(jd float64) Elements {
	T := (jd - astro.J2000) / astro.DaysPerCentury
	p := m.p
	a := p.a + p.da*T
	e := p.e + p.de*T
	inc := p.i + p.di*T
	L := p.l + p.dl*T
	peri := p.peri + p.dperi*T
	node := p.node + p.dnode*T

	return Elements{
		PericenterDistance: astro.AUToKm(a * (1 - e)),
		Eccentricity:       e,
		Inclination:        astro.DegToRad(inc),
		AscendingNode:      astro.DegToRad(node),
		ArgOfPericenter:    astro.DegToRad(peri - node),
		MeanAnomaly:        astro.DegToRad(L - peri),
		Period:             m.Period(),
		Epoch:              jd,
	}
}

func (m *MeanElements) osculating(jd float64) *Elliptical {
	o, err := NewElliptical(m.at(jd))
	if err != nil {
		return nil
	}
	return o
}

func (m *MeanElements) PositionAtTime(jd float64) r3.Vec {
	if o := m.osculating(jd); o != nil {
		return o.PositionAtTime(jd)
	}
	return r3.Vec{}
}

func (m *MeanElements) VelocityAtTime(jd float64) r3.Vec {
	if o := m.osculating(jd); o != nil {
		return o.VelocityAtTime(jd)
	}
	return r3.Vec{}
}

// Period is the sidereal period implied by the mean longitude rate.
func (m *MeanElements) Period() float64 {
	return 360 / m.p.dl * astro.DaysPerCentury
}

func (m *MeanElements) BoundingRadius() float64 {
	return astro.AUToKm(m.p.a*(1+m.p.e)) * 1.01
}

func (m *MeanElements) IsPeriodic() bool  { return true }
func (m *MeanElements) ValidRange() Range { return Unbounded() }

var (
	customMu sync.RWMutex
	custom   = map[string]func() Orbit{}
)

func init() {
	for name, p := range jplPlanets {
		name, p := name, p
		custom["jpl-"+name] = func() Orbit { return &MeanElements{name: name, p: p} }
	}
	custom["jpl-earth"] = custom["jpl-emb"]
}

// RegisterCustom makes a named orbit available to Custom. Registering a
// name twice replaces the earlier constructor.
func RegisterCustom(name string, fn func() Orbit) {
	customMu.Lock()
	defer customMu.Unlock()
	custom[strings.ToLower(name)] = fn
}

// Custom returns a new instance of a built-in orbit by case-insensitive name.
func Custom(name string) (Orbit, bool) {
	customMu.RLock()
	fn, ok := custom[strings.ToLower(name)]
	customMu.RUnlock()
	if !ok {
		return nil, false
	}
	return fn(), true
}

// CustomNames lists the registered orbit names in sorted order.
func CustomNames() []string {
	customMu.RLock()
	defer customMu.RUnlock()
	names := make([]string, 0, len(custom))
	for n := range custom {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var _ Orbit = (*MeanElements)(nil)
