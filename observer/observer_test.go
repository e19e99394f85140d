package observer

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/astro"
	"github.com/signalsfoundry/orrery/coord"
	"github.com/signalsfoundry/orrery/frame"
	"github.com/signalsfoundry/orrery/geom"
	"github.com/signalsfoundry/orrery/orbit"
	"github.com/signalsfoundry/orrery/rotation"
	"github.com/signalsfoundry/orrery/solar"
)

type fixture struct {
	sun, planet, moon solar.Selection
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ss := solar.NewSolarSystem(solar.NewStar(0, "Sol", coord.StarPosition{X: 2}))
	spin, err := rotation.NewUniform(rotation.UniformParams{Period: 0.9, Inclination: 0.3})
	if err != nil {
		t.Fatalf("NewUniform: %v", err)
	}
	planet := solar.NewBody("Planet", orbit.NewFixed(r3.Vec{X: 1e8, Y: 2e7}), spin)
	planet.Radius = 6000
	if err := ss.Planets().AddBody(planet); err != nil {
		t.Fatalf("AddBody: %v", err)
	}
	moon := solar.NewBody("Moon", orbit.NewFixed(r3.Vec{Y: 4e5}), nil)
	moon.Radius = 1700
	if err := planet.CreateSatellites().AddBody(moon); err != nil {
		t.Fatalf("AddBody moon: %v", err)
	}
	return fixture{
		sun:    solar.StarSelection(ss.Star()),
		planet: solar.BodySelection(planet),
		moon:   solar.BodySelection(moon),
	}
}

type countingRecorder struct {
	started   map[string]int
	completed int
}

func (r *countingRecorder) JourneyStarted(kind string) {
	if r.started == nil {
		r.started = map[string]int{}
	}
	r.started[kind]++
}

func (r *countingRecorder) JourneyCompleted() { r.completed++ }

func forward(o *Observer) r3.Vec { return geom.Rotate(o.Orientation(), r3.Vec{Z: -1}) }

func TestSolveGrowth(t *testing.T) {
	for _, dist := range []float64{10, 1e6, 1e12} {
		k := solveGrowth(dist, 0.5)
		got := accelProfile(1, k, 0.5)
		if rel := math.Abs(got-dist/2) / (dist / 2); rel > 1e-6 {
			t.Fatalf("solveGrowth(%v) = %v covers %v, want %v", dist, k, got, dist/2)
		}
	}
	if k := solveGrowth(0, 0.5); k != 0 {
		t.Fatalf("solveGrowth(0) = %v, want 0", k)
	}
}

func TestJourneyBoundaries(t *testing.T) {
	fx := newFixture(t)
	rec := &countingRecorder{}
	o := New(astro.J2000, WithRecorder(rec))
	start := o.Situation()

	if err := o.GotoSelection(fx.planet, 10, DefaultGotoOptions()); err != nil {
		t.Fatalf("GotoSelection: %v", err)
	}
	if o.Mode() != Travelling {
		t.Fatalf("Mode = %v, want travelling", o.Mode())
	}
	if got := o.Situation(); !got.Translation.Equal(start.Translation) || geom.Angle(got.Rotation, start.Rotation) > 1e-6 {
		t.Fatalf("situation at journey start = %v, want %v", got, start)
	}
	j, _ := o.Journey()

	o.Update(10, 0)
	if o.Mode() != Free {
		t.Fatalf("Mode after duration = %v, want free", o.Mode())
	}
	got := o.LocalSituation()
	if !got.Translation.Equal(j.To) || got.Rotation != j.FinalOrientation {
		t.Fatalf("situation at journey end = %v, want exactly %v", got, j.Final())
	}

	jd := o.Time()
	target := fx.planet.Position(jd)
	if d := o.Position().DistanceKm(target); math.Abs(d-PreferredDistance(fx.planet)) > 1e-3 {
		t.Fatalf("distance from planet = %v, want %v", d, PreferredDistance(fx.planet))
	}
	toward := r3.Unit(target.DifferenceKm(o.Position()))
	if r3.Norm(r3.Sub(forward(o), toward)) > 1e-6 {
		t.Fatalf("forward = %v, want %v", forward(o), toward)
	}
	if rec.started[JourneyGoto] != 1 || rec.completed != 1 {
		t.Fatalf("recorder = %+v", rec)
	}
}

func TestJourneyMonotonicProgress(t *testing.T) {
	fx := newFixture(t)
	o := New(astro.J2000)
	start := o.Position()
	if err := o.GotoSelection(fx.planet, 20, DefaultGotoOptions()); err != nil {
		t.Fatalf("GotoSelection: %v", err)
	}
	j, _ := o.Journey()
	total := j.distanceKm()

	prev := 0.0
	for i := 0; i < 200; i++ {
		o.Update(0.1, 0)
		d := o.Position().DistanceKm(start)
		if d < prev-1e-6 {
			t.Fatalf("step %d: distance %v went back from %v", i, d, prev)
		}
		prev = d
	}
	if math.Abs(prev-total) > 1e-3 {
		t.Fatalf("final distance = %v, want %v", prev, total)
	}

	before := j.At(0.5 - 1e-9).Translation
	mid := j.At(0.5).Translation
	if gap := mid.DistanceKm(before); gap > 1e-6*total {
		t.Fatalf("gap at midpoint = %v km", gap)
	}
	if d := mid.DistanceKm(j.From); math.Abs(d-total/2) > 1e-3 {
		t.Fatalf("midpoint distance = %v, want %v", d, total/2)
	}
}

func TestJourneyOrientationEasing(t *testing.T) {
	from := coord.NewRigidTransform(coord.Origin())
	to := coord.RigidTransform{Translation: coord.Origin(), Rotation: geom.ZRotation(1)}
	j := newJourney(0, 1, from, to, 0, 0.5)

	if a := geom.Angle(j.At(0.25).Rotation, from.Rotation); math.Abs(a-0.5) > 1e-6 {
		t.Fatalf("angle at quarter = %v, want 0.5", a)
	}
	for _, tt := range []float64{0.5, 0.75, 0.99} {
		if a := geom.Angle(j.At(tt).Rotation, to.Rotation); a > 1e-6 {
			t.Fatalf("orientation at %v is %v from final, want held", tt, a)
		}
	}
	if p := j.At(0.3).Translation; !p.Equal(coord.Origin()) {
		t.Fatalf("zero-length journey moved to %v", p)
	}
}

func TestCenterSelectionOnlyTurns(t *testing.T) {
	fx := newFixture(t)
	o := New(astro.J2000)
	pos := fx.planet.Position(o.Time()).OffsetKm(r3.Vec{X: 1e5})
	o.SetPosition(pos)

	if err := o.CenterSelection(fx.planet, 2); err != nil {
		t.Fatalf("CenterSelection: %v", err)
	}
	o.Update(1, 0)
	if !o.Position().Equal(pos) {
		t.Fatalf("center journey moved observer to %v", o.Position())
	}
	o.Update(1.5, 0)
	if !o.Position().Equal(pos) {
		t.Fatalf("center journey ended at %v, want %v", o.Position(), pos)
	}
	if f := forward(o); r3.Norm(r3.Sub(f, r3.Vec{X: -1})) > 1e-6 {
		t.Fatalf("forward = %v, want -X", f)
	}
}

func TestCancelMotion(t *testing.T) {
	fx := newFixture(t)
	o := New(astro.J2000)
	if err := o.GotoSelection(fx.planet, 10, DefaultGotoOptions()); err != nil {
		t.Fatalf("GotoSelection: %v", err)
	}
	o.Update(3, 0)
	here := o.Position()
	o.CancelMotion()
	o.Update(3, 0)
	if o.Mode() != Free || !o.Position().Equal(here) {
		t.Fatalf("after cancel mode = %v position = %v, want free at %v", o.Mode(), o.Position(), here)
	}
}

func TestGotoErrorsAndFrames(t *testing.T) {
	fx := newFixture(t)
	o := New(astro.J2000)
	if err := o.GotoSelection(solar.Selection{}, 1, DefaultGotoOptions()); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("GotoSelection(empty) err = %v, want ErrNoSelection", err)
	}
	if err := o.CenterSelection(solar.Selection{}, 1); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("CenterSelection(empty) err = %v, want ErrNoSelection", err)
	}

	if err := o.Follow(fx.sun); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if err := o.GotoSelection(fx.planet, 1, DefaultGotoOptions()); err != nil {
		t.Fatalf("GotoSelection: %v", err)
	}
	if f := o.Frame(); f.Kind() != frame.KindEcliptic || f.Center() != fx.planet {
		t.Fatalf("frame after goto = %v on %v, want ecliptic on Planet", f.Kind(), f.Center().Name())
	}

	if err := o.PhaseLock(fx.moon); err != nil {
		t.Fatalf("PhaseLock: %v", err)
	}
	if err := o.GotoSelection(fx.moon, 1, DefaultGotoOptions()); err != nil {
		t.Fatalf("GotoSelection: %v", err)
	}
	if f := o.Frame(); f.Kind() != frame.KindEcliptic || f.Center() != fx.moon {
		t.Fatalf("frame after goto from phase lock = %v on %v", f.Kind(), f.Center().Name())
	}
}

func TestSetFramePreservesSituation(t *testing.T) {
	fx := newFixture(t)
	o := New(astro.J2000)
	o.SetSituation(coord.RigidTransform{
		Translation: fx.planet.Position(o.Time()).OffsetKm(r3.Vec{X: 3e4, Z: -1e4}),
		Rotation:    geom.Normalize(geom.Mul(geom.XRotation(0.4), geom.ZRotation(-1.1))),
	})
	before := o.Situation()

	if err := o.GeosynchronousFollow(fx.planet); err != nil {
		t.Fatalf("GeosynchronousFollow: %v", err)
	}
	after := o.Situation()
	if d := after.Translation.DistanceKm(before.Translation); d > 1e-3 {
		t.Fatalf("position moved %v km on frame change", d)
	}
	if a := geom.Angle(after.Rotation, before.Rotation); a > 1e-6 {
		t.Fatalf("orientation turned %v rad on frame change", a)
	}
	if o.Frame().Kind() != frame.KindBodyFixed {
		t.Fatalf("frame = %v, want body-fixed", o.Frame().Kind())
	}
}

func TestFreeMotion(t *testing.T) {
	o := New(0)
	o.SetVelocity(r3.Vec{X: 10})
	o.Update(2, 0)
	if d := o.Position().DistanceKm(coord.Origin()); math.Abs(d-20) > 1e-6 {
		t.Fatalf("drifted %v km, want 20", d)
	}

	o = New(0)
	o.SetAngularVelocity(r3.Vec{Z: math.Pi / 2})
	o.Update(1, 0)
	if a := geom.Angle(o.Orientation(), geom.ZRotation(math.Pi/2)); a > 1e-6 {
		t.Fatalf("orientation off by %v after spin", a)
	}

	o = New(astro.J2000)
	o.Update(43200, 2)
	if got := o.Time(); math.Abs(got-(astro.J2000+1)) > 1e-9 {
		t.Fatalf("Time = %v, want %v", got, astro.J2000+1)
	}
}

func TestOrbitAndDistance(t *testing.T) {
	fx := newFixture(t)
	o := New(astro.J2000)
	if err := o.Follow(fx.planet); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	o.SetLocalSituation(coord.NewRigidTransform(coord.FromKm(r3.Vec{X: 1e5})))

	o.Orbit(fx.planet, geom.YRotation(0.3))
	center := fx.planet.Position(o.Time())
	if d := o.Position().DistanceKm(center); math.Abs(d-1e5) > 1e-3 {
		t.Fatalf("orbit changed distance to %v", d)
	}
	if a := geom.Angle(o.Orientation(), geom.YRotation(0.3)); a > 1e-6 {
		t.Fatalf("orbit orientation off by %v", a)
	}

	o.ChangeOrbitDistance(fx.planet, math.Log(0.5))
	if d := o.Position().DistanceKm(center); math.Abs(d-5e4) > 1e-3 {
		t.Fatalf("distance after halving = %v, want 5e4", d)
	}
	o.ChangeOrbitDistance(fx.planet, -100)
	if d := o.Position().DistanceKm(center); math.Abs(d-6006) > 1e-3 {
		t.Fatalf("distance floor = %v, want 6006", d)
	}
}

func TestPhaseLockAndChasePairs(t *testing.T) {
	fx := newFixture(t)
	o := New(astro.J2000)
	if err := o.Follow(fx.planet); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if err := o.PhaseLock(fx.moon); err != nil {
		t.Fatalf("PhaseLock: %v", err)
	}
	tv, ok := o.Frame().(*frame.TwoVector)
	if !ok || tv.Kind() != frame.KindPhaseLock || tv.Center() != fx.planet || tv.Target() != fx.moon {
		t.Fatalf("phase lock frame = %v", o.Frame())
	}

	if err := o.Chase(fx.planet); err != nil {
		t.Fatalf("Chase: %v", err)
	}
	tv = o.Frame().(*frame.TwoVector)
	if tv.Kind() != frame.KindChase || tv.Center() != fx.planet || tv.Target() != fx.sun {
		t.Fatalf("chase on own center = %v on %v toward %v", tv.Kind(), tv.Center().Name(), tv.Target().Name())
	}
}

func TestLookAt(t *testing.T) {
	o := New(0)
	o.LookAt(coord.FromKm(r3.Vec{Y: 50}), r3.Vec{Z: 1})
	if f := forward(o); r3.Norm(r3.Sub(f, r3.Vec{Y: 1})) > 1e-9 {
		t.Fatalf("forward = %v, want +Y", f)
	}
}
