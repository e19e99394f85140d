package orbit

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	satellite "github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/astro"
)

const earthMu = 398600.4418 // km^3/s^2

// SGP4 propagates an Earth satellite from a two-line element set. Positions
// are in the TEME frame, which the owning body should treat as the J2000
// Earth equator.
type SGP4 struct {
	sat    satellite.Satellite
	leap   astro.LeapSecondTable
	period float64 // days
	radius float64
}

// NewSGP4 parses a TLE. The lines are checked before they reach
// go-satellite, which exits the process on malformed input.
func NewSGP4(line1, line2 string, leap astro.LeapSecondTable) (*SGP4, error) {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if err := validateTLE(line1, line2); err != nil {
		return nil, err
	}

	meanMotion, err := strconv.ParseFloat(strings.TrimSpace(line2[52:63]), 64)
	if err != nil || meanMotion <= 0 {
		return nil, fmt.Errorf("%w: mean motion %q", ErrInvalidTLE, line2[52:63])
	}
	ecc, err := strconv.ParseFloat("0."+strings.TrimSpace(line2[26:33]), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: eccentricity %q", ErrInvalidTLE, line2[26:33])
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w: sgp4 init code=%d %s", ErrInvalidTLE, sat.Error, sat.ErrorStr)
	}

	n := meanMotion * 2 * math.Pi / astro.SecondsPerDay // rad/s
	a := math.Cbrt(earthMu / (n * n))

	return &SGP4{
		sat:    sat,
		leap:   leap,
		period: 1 / meanMotion,
		radius: a * (1 + ecc),
	}, nil
}

func validateTLE(line1, line2 string) error {
	if len(line1) != 69 {
		return fmt.Errorf("%w: line 1 length %d, want 69", ErrInvalidTLE, len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("%w: line 2 length %d, want 69", ErrInvalidTLE, len(line2))
	}
	if line1[0] != '1' || line2[0] != '2' {
		return fmt.Errorf("%w: line numbers %q/%q", ErrInvalidTLE, line1[0], line2[0])
	}
	return nil
}

// state propagates to a TDB Julian date. go-satellite takes whole UTC
// seconds, so the fractional second is carried by the velocity.
func (s *SGP4) state(jd float64) (pos, vel r3.Vec) {
	d := s.leap.TDBtoUTC(jd)
	whole := math.Floor(d.Seconds)
	frac := d.Seconds - whole

	p, v := satellite.Propagate(s.sat, d.Year, d.Month, d.Day, d.Hour, d.Minute, int(whole))
	pos = r3.Vec{X: p.X + v.X*frac, Y: p.Y + v.Y*frac, Z: p.Z + v.Z*frac}
	vel = r3.Scale(astro.SecondsPerDay, r3.Vec{X: v.X, Y: v.Y, Z: v.Z})
	if !finite(pos) {
		return r3.Vec{}, r3.Vec{}
	}
	return pos, vel
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func (s *SGP4) PositionAtTime(jd float64) r3.Vec {
	p, _ := s.state(jd)
	return p
}

func (s *SGP4) VelocityAtTime(jd float64) r3.Vec {
	_, v := s.state(jd)
	return v
}

func (s *SGP4) Period() float64         { return s.period }
func (s *SGP4) BoundingRadius() float64 { return s.radius }
func (s *SGP4) IsPeriodic() bool        { return true }
func (s *SGP4) ValidRange() Range       { return Unbounded() }
