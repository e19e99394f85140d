package rotation

import (
	"math"
	"sort"
	"strings"
	"sync"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/astro"
	"github.com/signalsfoundry/orrery/geom"
)

// IAUElements give the north pole (right ascension and declination
// against the J2000 equator) and the prime meridian angle W. Angles are in
// degrees; pole rates are per Julian century, the meridian rate per day.
type IAUElements struct {
	PoleRA, PoleRARate   float64
	PoleDec, PoleDecRate float64
	Meridian, Rate       float64
}

// IAU is a pole/meridian rotation model, expressed relative to the J2000
// ecliptic. Bodies using it should use the ecliptic as reference plane.
type IAU struct {
	el IAUElements
}

// NewIAU returns a model for the given elements. Rate must be non-zero.
func NewIAU(el IAUElements) (*IAU, error) {
	if el.Rate == 0 || math.IsNaN(el.Rate) {
		return nil, ErrInvalidPeriod
	}
	return &IAU{el: el}, nil
}

var eclipticFromEquator = geom.XRotation(-astro.J2000Obliquity)

func (m *IAU) pole(jd float64) (ra, dec float64) {
	T := (jd - astro.J2000) / astro.DaysPerCentury
	return astro.DegToRad(m.el.PoleRA + m.el.PoleRARate*T),
		astro.DegToRad(m.el.PoleDec + m.el.PoleDecRate*T)
}

// Spin turns the body by its prime meridian angle.
func (m *IAU) Spin(jd float64) quat.Number {
	d := jd - astro.J2000
	w := math.Mod(m.el.Meridian+m.el.Rate*d, 360)
	return geom.ZRotation(astro.DegToRad(w))
}

func (m *IAU) EquatorOrientationAtTime(jd float64) quat.Number {
	ra, dec := m.pole(jd)
	return geom.Mul(eclipticFromEquator, geom.ZRotation(ra+math.Pi/2), geom.XRotation(math.Pi/2-dec))
}

func (m *IAU) OrientationAtTime(jd float64) quat.Number { return orientation(m, jd) }

func (m *IAU) AngularVelocityAtTime(jd float64) r3.Vec {
	rate := astro.DegToRad(m.el.Rate)
	return geom.Rotate(m.EquatorOrientationAtTime(jd), r3.Vec{Z: rate})
}

// Period is the sidereal period implied by the meridian rate.
func (m *IAU) Period() float64  { return math.Abs(360 / m.el.Rate) }
func (m *IAU) IsPeriodic() bool { return true }

// Pole returns the unit north pole direction in ecliptic coordinates.
func (m *IAU) Pole(jd float64) r3.Vec {
	return geom.Rotate(m.EquatorOrientationAtTime(jd), geom.ZAxis)
}

// WGCCRE 2009 recommended values, periodic terms omitted.
var iauBodies = map[string]IAUElements{
	"earth":   {PoleRA: 0, PoleRARate: -0.641, PoleDec: 90, PoleDecRate: -0.557, Meridian: 190.147, Rate: 360.9856235},
	"moon":    {PoleRA: 269.9949, PoleRARate: 0.0031, PoleDec: 66.5392, PoleDecRate: 0.0130, Meridian: 38.3213, Rate: 13.17635815},
	"mars":    {PoleRA: 317.68143, PoleRARate: -0.1061, PoleDec: 52.88650, PoleDecRate: -0.0609, Meridian: 176.630, Rate: 350.89198226},
	"jupiter": {PoleRA: 268.056595, PoleRARate: -0.006499, PoleDec: 64.495303, PoleDecRate: 0.002413, Meridian: 284.95, Rate: 870.5360000},
}

var (
	customMu sync.RWMutex
	custom   = map[string]func() Model{}
)

func init() {
	for name, el := range iauBodies {
		el := el
		custom["iau-"+name] = func() Model { return &IAU{el: el} }
	}
}

// RegisterCustom makes a named model available to Custom, replacing any
// earlier registration.
func RegisterCustom(name string, fn func() Model) {
	customMu.Lock()
	defer customMu.Unlock()
	custom[strings.ToLower(name)] = fn
}

// Custom returns a built-in model by case-insensitive name.
func Custom(name string) (Model, bool) {
	customMu.RLock()
	fn, ok := custom[strings.ToLower(name)]
	customMu.RUnlock()
	if !ok {
		return nil, false
	}
	return fn(), true
}

// CustomNames lists registered model names in sorted order.
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
