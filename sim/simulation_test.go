package sim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/astro"
	"github.com/signalsfoundry/orrery/catalog"
	"github.com/signalsfoundry/orrery/frame"
	"github.com/signalsfoundry/orrery/observer"
	"github.com/signalsfoundry/orrery/orbit"
	"github.com/signalsfoundry/orrery/solar"
	"github.com/signalsfoundry/orrery/timectrl"
)

type fakeMetrics struct {
	started      map[string]int
	completed    int
	ticks        int
	hits, misses int
	bodies       int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{started: map[string]int{}} }

func (f *fakeMetrics) JourneyStarted(kind string)         { f.started[kind]++ }
func (f *fakeMetrics) JourneyCompleted()                  { f.completed++ }
func (f *fakeMetrics) ObserveTick(float64, time.Duration) { f.ticks++ }
func (f *fakeMetrics) SetBodyCount(n int)                 { f.bodies = n }

func (f *fakeMetrics) AddCacheLookups(hits, misses int) {
	f.hits += hits
	f.misses += misses
}

func newTestSim(t *testing.T) (*Simulation, *fakeMetrics) {
	t.Helper()
	u := catalog.NewUniverse(nil)
	if _, err := catalog.LoadDefault(u, catalog.NewFactory(nil)); err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	m := newFakeMetrics()
	s := New(u, astro.J2000, WithMetrics(m))
	t.Cleanup(s.Close)
	return s, m
}

func run(s *Simulation, seconds int) Snapshot {
	var snap Snapshot
	for i := 0; i < seconds; i++ {
		snap = s.Update(context.Background(), time.Second)
	}
	return snap
}

func TestUpdateAdvancesTime(t *testing.T) {
	s, m := newTestSim(t)

	snap := s.Snapshot()
	if snap.Mode != "free" || snap.Frame != "universal" || snap.Selection != nil {
		t.Fatalf("initial snapshot = %+v", snap)
	}
	if m.bodies != 11 {
		t.Fatalf("body gauge = %d, want 11", m.bodies)
	}

	s.SetTimeScale(astro.SecondsPerDay)
	snap = s.Update(context.Background(), time.Second)
	if math.Abs(snap.JD-(astro.J2000+1)) > 1e-9 {
		t.Fatalf("JD = %v, want %v", snap.JD, astro.J2000+1)
	}
	if snap.UTC != "2000 Jan 02 11:58:55" {
		t.Fatalf("UTC = %q", snap.UTC)
	}

	s.Pause(true)
	if got := s.Update(context.Background(), time.Second).JD; got != snap.JD {
		t.Fatalf("paused JD = %v, want %v", got, snap.JD)
	}
	if m.ticks != 2 {
		t.Fatalf("ticks = %d, want 2", m.ticks)
	}
}

func TestCommandsNeedSelection(t *testing.T) {
	s, _ := newTestSim(t)
	for name, cmd := range map[string]func() error{
		"goto":   func() error { return s.Goto(1) },
		"center": func() error { return s.Center(1) },
		"follow": s.Follow,
		"sync":   s.SyncOrbit,
		"chase":  s.Chase,
		"frame":  func() error { return s.SetFrame(frame.KindEcliptic) },
	} {
		if err := cmd(); !errors.Is(err, ErrNoSelection) {
			t.Fatalf("%s err = %v, want ErrNoSelection", name, err)
		}
	}
	if err := s.SetFrame(frame.KindUniversal); err != nil {
		t.Fatalf("SetFrame(universal): %v", err)
	}
	if _, err := s.Select("Sol/Vulcan"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("Select err = %v, want ErrNotFound", err)
	}
}

func TestBodiesOutsideLifespanCannotBePicked(t *testing.T) {
	s, _ := newTestSim(t)
	before := astro.DefaultLeapSeconds().UTCtoTDB(astro.NewDate(1990, 1, 1))

	s.SetTime(before)
	if _, err := s.Select("Sol/Earth/ISS"); !errors.Is(err, solar.ErrNotExtant) {
		t.Fatalf("Select(ISS) in 1990 err = %v, want ErrNotExtant", err)
	}
	if sel := s.Selection(); !sel.Empty() {
		t.Fatalf("selection = %q, want none", sel.Name())
	}

	s.SetTime(astro.J2000)
	if _, err := s.Select("Sol/Earth/ISS"); err != nil {
		t.Fatalf("Select(ISS) in 2000: %v", err)
	}
	s.SetTime(before)
	for name, cmd := range map[string]func() error{
		"goto":    func() error { return s.Goto(5) },
		"center":  func() error { return s.Center(5) },
		"surface": func() error { return s.GotoSurface(0, 0, 100, 5) },
		"follow":  s.Follow,
	} {
		if err := cmd(); !errors.Is(err, solar.ErrNotExtant) {
			t.Fatalf("%s err = %v, want ErrNotExtant", name, err)
		}
	}
	if mode := s.Observer().Mode(); mode != observer.Free {
		t.Fatalf("mode = %v, want free", mode)
	}

	s.SetTime(astro.J2000)
	if err := s.Goto(5); err != nil {
		t.Fatalf("Goto(ISS) in 2000: %v", err)
	}
}

func TestGotoSelectionCompletes(t *testing.T) {
	s, m := newTestSim(t)
	s.Pause(true)

	sel, err := s.Select("Sol/Earth")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := s.Goto(10); err != nil {
		t.Fatalf("Goto: %v", err)
	}
	mid := run(s, 5)
	if mid.Mode != "travelling" || mid.Observer.Progress <= 0 || mid.Observer.Progress >= 1 {
		t.Fatalf("mid-journey snapshot = %+v", mid.Observer)
	}

	final := run(s, 6)
	if final.Mode != "free" {
		t.Fatalf("mode after journey = %s, want free", final.Mode)
	}
	want := observer.PreferredDistance(sel)
	if got := final.Selection.DistanceKm; math.Abs(got-want) > 1e-3*want {
		t.Fatalf("distance after goto = %v km, want %v", got, want)
	}
	if m.started[observer.JourneyGoto] != 1 || m.completed != 1 {
		t.Fatalf("journey metrics = %+v, completed %d", m.started, m.completed)
	}
}

func TestGotoSurface(t *testing.T) {
	s, m := newTestSim(t)
	s.Pause(true)
	if _, err := s.Select("Sol/Earth"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := s.GotoSurface(0, 45, 500, 2); err != nil {
		t.Fatalf("GotoSurface: %v", err)
	}
	final := run(s, 3)
	if got := final.Selection.DistanceKm; math.Abs(got-(6378.14+500)) > 1e-3 {
		t.Fatalf("distance = %v km, want %v", got, 6378.14+500)
	}
	if m.started[observer.JourneyLocation] != 1 {
		t.Fatalf("journeys = %+v", m.started)
	}

	if _, err := s.Select("Sol"); err != nil {
		t.Fatalf("Select(Sol): %v", err)
	}
	if err := s.GotoSurface(0, 0, 0, 1); err == nil {
		t.Fatalf("GotoSurface on a star should fail")
	}
}

func TestFramesFollowSelection(t *testing.T) {
	s, _ := newTestSim(t)
	if _, err := s.Select("Sol/Earth/Moon"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	tests := []struct {
		cmd  func() error
		want string
	}{
		{s.Follow, "ecliptic"},
		{s.SyncOrbit, "body-fixed"},
		{s.PhaseLock, "phase-lock"},
		{s.Chase, "chase"},
		{func() error { return s.SetFrame(frame.KindEquator) }, "equator"},
	}
	for _, tt := range tests {
		if err := tt.cmd(); err != nil {
			t.Fatalf("%s: %v", tt.want, err)
		}
		if got := s.Snapshot().Frame; got != tt.want {
			t.Fatalf("frame = %s, want %s", got, tt.want)
		}
	}
}

func TestOrbitMemoMetrics(t *testing.T) {
	s, m := newTestSim(t)
	s.Pause(true)
	sel, err := s.Select("Sol/Mars")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	first := s.Update(context.Background(), time.Second)
	s.Snapshot()
	s.Update(context.Background(), time.Second)
	if m.hits != 2 || m.misses != 1 {
		t.Fatalf("cache lookups = %d hits %d misses, want 2 and 1", m.hits, m.misses)
	}

	want := sel.Body().Orbit.PositionAtTime(first.JD)
	got := first.Selection.OrbitPositionKm
	if got == nil || r3.Norm(r3.Sub(r3.Vec{X: got[0], Y: got[1], Z: got[2]}, want)) > 1e-6 {
		t.Fatalf("orbit position = %v, want %v", got, want)
	}
}

func TestUniverseChangesUpdateBodyGauge(t *testing.T) {
	s, m := newTestSim(t)
	pioneer := solar.NewBody("Pioneer", orbit.NewFixed(r3.Vec{X: 1e6}), nil)
	if err := s.Universe().AddBody("Sol", pioneer); err != nil {
		t.Fatalf("AddBody: %v", err)
	}
	if m.bodies != 12 {
		t.Fatalf("body gauge = %d, want 12", m.bodies)
	}
}

func TestDriveFromClock(t *testing.T) {
	s, _ := newTestSim(t)
	var seen []Snapshot
	s.AddTickListener(func(snap Snapshot) { seen = append(seen, snap) })

	tc := timectrl.NewTimeController(0, time.Minute, timectrl.Accelerated)
	s.SetTimeScale(60)
	s.Drive(context.Background(), tc)
	if tc.StartJD != astro.J2000 {
		t.Fatalf("clock start = %v, want %v", tc.StartJD, astro.J2000)
	}

	tc.SetTime(tc.StartJD)
	tc.Step()
	tc.Step()
	want := astro.J2000 + 2*60*60/astro.SecondsPerDay
	if len(seen) != 2 || math.Abs(s.Time()-want) > 1e-9 || tc.Now() != s.Time() {
		t.Fatalf("after 2 ticks: seen=%d sim=%v clock=%v, want %v", len(seen), s.Time(), tc.Now(), want)
	}
}
