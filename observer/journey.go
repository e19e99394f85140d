package observer

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/coord"
	"github.com/signalsfoundry/orrery/geom"
)

// Bracket and tolerance for the growth factor search.
const (
	growthLow       = 0.0001
	growthHigh      = 100.0
	growthTolerance = 1e-10
)

// JourneyParams describes an eased transition between two situations in
// the observer's frame. Times are wall-clock seconds; positions are
// frame-local offsets.
type JourneyParams struct {
	Duration  float64
	StartTime float64

	From, To           coord.Universal
	InitialOrientation quat.Number
	FinalOrientation   quat.Number

	// Orientation is interpolated between these fractions of the journey
	// and held outside them.
	StartInterpolation float64
	EndInterpolation   float64

	// AccelTime is the fraction of each half spent accelerating.
	AccelTime float64
	// ExpFactor is the exponential growth rate of the distance profile.
	ExpFactor float64
}

// newJourney fills in the acceleration profile for a journey between two
// local situations.
func newJourney(start, duration float64, from, to coord.RigidTransform, startInterp, endInterp float64) JourneyParams {
	j := JourneyParams{
		Duration:           duration,
		StartTime:          start,
		From:               from.Translation,
		To:                 to.Translation,
		InitialOrientation: from.Rotation,
		FinalOrientation:   to.Rotation,
		StartInterpolation: startInterp,
		EndInterpolation:   endInterp,
		AccelTime:          0.5,
	}
	j.ExpFactor = solveGrowth(j.distanceKm(), j.AccelTime)
	return j
}

func (j JourneyParams) distanceKm() float64 {
	return r3.Norm(j.To.DifferenceKm(j.From))
}

// progress is the fraction of the journey completed at wall time now.
func (j JourneyParams) progress(now float64) float64 {
	if j.Duration <= 0 {
		return 1
	}
	return (now - j.StartTime) / j.Duration
}

// Final is the situation reached at the end of the journey.
func (j JourneyParams) Final() coord.RigidTransform {
	return coord.RigidTransform{Translation: j.To, Rotation: j.FinalOrientation}
}

// Initial is the situation at the start of the journey.
func (j JourneyParams) Initial() coord.RigidTransform {
	return coord.RigidTransform{Translation: j.From, Rotation: j.InitialOrientation}
}

// At evaluates the journey at progress t in [0, 1].
func (j JourneyParams) At(t float64) coord.RigidTransform {
	if t <= 0 {
		return j.Initial()
	}
	if t >= 1 {
		return j.Final()
	}
	return coord.RigidTransform{Translation: j.position(t), Rotation: j.orientation(t)}
}

func (j JourneyParams) position(t float64) coord.Universal {
	jv := j.To.DifferenceKm(j.From)
	dist := r3.Norm(jv)
	if dist == 0 {
		return j.From
	}
	dir := r3.Scale(1/dist, jv)
	if t < 0.5 {
		return j.From.OffsetKm(r3.Scale(j.halfDistance(2*t, dist), dir))
	}
	return j.To.OffsetKm(r3.Scale(-j.halfDistance(2*(1-t), dist), dir))
}

// halfDistance maps u in [0, 1] to the distance covered within one half of
// the journey. The profile is normalized so that u = 1 lands exactly on the
// midpoint.
func (j JourneyParams) halfDistance(u, dist float64) float64 {
	full := accelProfile(1, j.ExpFactor, j.AccelTime)
	if full <= 0 {
		return u * dist / 2
	}
	return accelProfile(u, j.ExpFactor, j.AccelTime) / full * dist / 2
}

func (j JourneyParams) orientation(t float64) quat.Number {
	s, e := j.StartInterpolation, j.EndInterpolation
	switch {
	case t < s:
		return j.InitialOrientation
	case t >= e:
		return j.FinalOrientation
	}
	v := (t - s) / (e - s)
	eased := math.Sin(v * math.Pi / 2)
	return geom.Slerp(j.InitialOrientation, j.FinalOrientation, eased*eased)
}

// accelProfile grows exponentially until the acceleration time s, then
// linearly at the speed it had reached.
func accelProfile(u, k, s float64) float64 {
	if u < s {
		return math.Exp(k*u) - 1
	}
	return math.Exp(k*s)*(k*(u-s)+1) - 1
}

// solveGrowth finds the growth factor for which one half of the profile
// covers half of dist, bisecting over the fixed bracket.
func solveGrowth(dist, s float64) float64 {
	if dist <= 0 {
		return 0
	}
	f := func(x float64) float64 { return accelProfile(1, x, s) - dist/2 }

	lo, hi := growthLow, growthHigh
	if f(lo) >= 0 {
		return lo
	}
	if f(hi) <= 0 {
		return hi
	}
	for hi-lo > growthTolerance {
		mid := lo + (hi-lo)/2
		if f(mid) < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo + (hi-lo)/2
}
