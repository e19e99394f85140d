// Package sim ties the universe, the observer and the clock together into a
// running simulation.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/astro"
	"github.com/signalsfoundry/orrery/catalog"
	"github.com/signalsfoundry/orrery/coord"
	"github.com/signalsfoundry/orrery/frame"
	"github.com/signalsfoundry/orrery/geom"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/observer"
	"github.com/signalsfoundry/orrery/orbit"
	"github.com/signalsfoundry/orrery/solar"
	"github.com/signalsfoundry/orrery/timectrl"
)

const tracerName = "github.com/signalsfoundry/orrery/sim"

// ErrNoSelection is returned by commands that act on the selection when
// nothing is selected.
var ErrNoSelection = errors.New("nothing selected")

// MetricsRecorder receives simulation measurements. The Prometheus
// collector in internal/observability satisfies it.
type MetricsRecorder interface {
	observer.Recorder
	ObserveTick(jd float64, d time.Duration)
	AddCacheLookups(hits, misses int)
	SetBodyCount(n int)
}

type noopMetrics struct{}

func (noopMetrics) JourneyStarted(string)              {}
func (noopMetrics) JourneyCompleted()                  {}
func (noopMetrics) ObserveTick(float64, time.Duration) {}
func (noopMetrics) AddCacheLookups(int, int)           {}
func (noopMetrics) SetBodyCount(int)                   {}

// Simulation owns an observer moving through a universe. All methods are
// safe for concurrent use; tick listeners run with no lock held.
type Simulation struct {
	mu sync.Mutex

	universe  *catalog.Universe
	observer  *observer.Observer
	selection solar.Selection
	memo      *orbit.Memo
	leap      astro.LeapSecondTable
	timeScale float64
	paused    bool

	log     logging.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer

	lastHits, lastMisses int
	listeners            []func(Snapshot)
	unsubscribe          func()
}

// Option configures a Simulation.
type Option func(*Simulation)

func WithLogger(l logging.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m MetricsRecorder) Option {
	return func(s *Simulation) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLeapSeconds sets the table used to format simulation time as UTC.
func WithLeapSeconds(t astro.LeapSecondTable) Option {
	return func(s *Simulation) { s.leap = t }
}

// New builds a simulation over u starting at jd, with the observer at the
// universal origin.
func New(u *catalog.Universe, jd float64, opts ...Option) *Simulation {
	s := &Simulation{
		universe:  u,
		leap:      astro.DefaultLeapSeconds(),
		timeScale: 1,
		log:       logging.Noop(),
		metrics:   noopMetrics{},
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.observer = observer.New(jd, observer.WithLogger(s.log), observer.WithRecorder(s.metrics))
	s.metrics.SetBodyCount(u.BodyCount())
	s.unsubscribe = u.Subscribe(func(catalog.Event) { s.metrics.SetBodyCount(u.BodyCount()) })
	return s
}

// Close detaches the simulation from universe events.
func (s *Simulation) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Simulation) Universe() *catalog.Universe { return s.universe }

// Observer exposes the observer. Callers must not use it concurrently with
// Update.
func (s *Simulation) Observer() *observer.Observer { return s.observer }

// Time returns the simulation time as a TDB Julian date.
func (s *Simulation) Time() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observer.Time()
}

func (s *Simulation) SetTime(jd float64) {
	s.mu.Lock()
	s.observer.SetTime(jd)
	s.mu.Unlock()
}

func (s *Simulation) TimeScale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeScale
}

// SetTimeScale sets simulated seconds per wall second.
func (s *Simulation) SetTimeScale(scale float64) {
	s.mu.Lock()
	s.timeScale = scale
	s.mu.Unlock()
}

// Pause freezes simulation time. The observer keeps moving.
func (s *Simulation) Pause(paused bool) {
	s.mu.Lock()
	s.paused = paused
	s.mu.Unlock()
}

func (s *Simulation) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// AddTickListener registers a callback receiving a snapshot after every
// update.
func (s *Simulation) AddTickListener(fn func(Snapshot)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Update advances the simulation by dt of wall time.
func (s *Simulation) Update(ctx context.Context, dt time.Duration) Snapshot {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "sim.Update")
	defer span.End()

	s.mu.Lock()
	scale := s.timeScale
	if s.paused {
		scale = 0
	}
	wasTravelling := s.observer.Mode() == observer.Travelling
	s.observer.Update(dt.Seconds(), scale)
	if wasTravelling && s.observer.Mode() == observer.Free {
		s.log.Debug(ctx, "journey complete", logging.Float64("jd", s.observer.Time()))
	}
	snap := s.snapshotLocked()
	hits, misses := s.cacheDeltaLocked()
	listeners := append([]func(Snapshot){}, s.listeners...)
	s.mu.Unlock()

	s.metrics.AddCacheLookups(hits, misses)
	s.metrics.ObserveTick(snap.JD, time.Since(start))
	span.SetAttributes(
		attribute.Float64("sim.jd", snap.JD),
		attribute.Float64("sim.time_scale", scale),
		attribute.String("observer.mode", snap.Mode),
	)
	for _, fn := range listeners {
		fn(snap)
	}
	return snap
}

// Drive registers the simulation on a clock so that every clock tick
// updates it. The simulation's own time scale governs; the clock is kept
// in step with simulation time so it can serve as a SimClock.
func (s *Simulation) Drive(ctx context.Context, tc *timectrl.TimeController) {
	tc.StartJD = s.Time()
	tc.AddListener(func(tk timectrl.Tick) {
		snap := s.Update(ctx, tk.Wall)
		tc.SetTime(snap.JD)
	})
}

// Select resolves path in the universe and makes it the selection. Bodies
// that do not exist at the current simulation time cannot be selected.
func (s *Simulation) Select(path string) (solar.Selection, error) {
	sel, err := s.universe.FindAt(path, s.Time())
	if err != nil {
		return solar.Selection{}, err
	}
	s.SetSelection(sel)
	return sel, nil
}

// SetSelection replaces the selection; an empty selection clears it.
func (s *Simulation) SetSelection(sel solar.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = sel
	s.memo = nil
	if sel.Kind() == solar.SelectBody {
		s.memo = orbit.NewMemo(sel.Body().Orbit)
	}
	s.lastHits, s.lastMisses = 0, 0
}

func (s *Simulation) Selection() solar.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// selected returns the selection if it exists at the observer's time.
func (s *Simulation) selected() (solar.Selection, error) {
	if s.selection.Empty() {
		return solar.Selection{}, ErrNoSelection
	}
	if !s.selection.Reachable(s.observer.Time()) {
		return solar.Selection{}, fmt.Errorf("%w: %s", solar.ErrNotExtant, s.selection.Name())
	}
	return s.selection, nil
}

// Goto starts a journey to the selection lasting duration seconds.
func (s *Simulation) Goto(duration float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, err := s.selected()
	if err != nil {
		return err
	}
	return s.observer.GotoSelection(sel, duration, observer.DefaultGotoOptions())
}

// Center turns the observer to face the selection.
func (s *Simulation) Center(duration float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, err := s.selected()
	if err != nil {
		return err
	}
	return s.observer.CenterSelection(sel, duration)
}

// GotoSurface flies to a point altitude km above the selected body at the
// given planetocentric longitude and latitude in degrees, looking at the
// body's center.
func (s *Simulation) GotoSurface(lonDeg, latDeg, altitude, duration float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, err := s.selected()
	if err != nil {
		return err
	}
	if sel.Kind() != solar.SelectBody {
		return fmt.Errorf("GotoSurface: %s is not a body", sel.Name())
	}
	b := sel.Body()
	jd := s.observer.Time()
	local := b.PlanetocentricToCartesian(lonDeg, latDeg, altitude)
	toUniversal := b.GeographicToHeliocentric(jd)
	offset := geom.Rotate(toUniversal.Rot, local)
	dest := coord.RigidTransform{
		Translation: sel.Position(jd).OffsetKm(offset),
		Rotation:    geom.LookAt(offset, r3.Vec{}, geom.Rotate(toUniversal.Rot, r3.Vec{Z: 1})),
	}
	s.observer.GotoLocation(dest, duration)
	return nil
}

// Follow keeps the observer moving with the selection.
func (s *Simulation) Follow() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, err := s.selected()
	if err != nil {
		return err
	}
	return s.observer.Follow(sel)
}

// SyncOrbit keeps the observer fixed over the selection's surface.
func (s *Simulation) SyncOrbit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, err := s.selected()
	if err != nil {
		return err
	}
	return s.observer.GeosynchronousFollow(sel)
}

// PhaseLock keeps the selection at a fixed bearing from the frame center.
func (s *Simulation) PhaseLock() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, err := s.selected()
	if err != nil {
		return err
	}
	return s.observer.PhaseLock(sel)
}

// Chase keeps the observer aligned with the selection's direction of
// motion.
func (s *Simulation) Chase() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, err := s.selected()
	if err != nil {
		return err
	}
	return s.observer.Chase(sel)
}

// SetFrame switches the observer to a frame of the given kind centered on
// the selection. The universal frame needs no selection.
func (s *Simulation) SetFrame(kind frame.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kind == frame.KindUniversal {
		s.observer.SetFrame(frame.Universal{})
		return nil
	}
	sel, err := s.selected()
	if err != nil {
		return err
	}
	f, err := frame.New(kind, sel, sel.Parent())
	if err != nil {
		return err
	}
	s.observer.SetFrame(f)
	return nil
}

// Cancel stops any journey and free motion.
func (s *Simulation) Cancel() {
	s.mu.Lock()
	s.observer.CancelMotion()
	s.mu.Unlock()
}

// Snapshot returns the current state without advancing time.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// cacheDeltaLocked reports memo activity since the previous call.
func (s *Simulation) cacheDeltaLocked() (hits, misses int) {
	if s.memo == nil {
		return 0, 0
	}
	hits, misses = s.memo.Hits-s.lastHits, s.memo.Misses-s.lastMisses
	s.lastHits, s.lastMisses = s.memo.Hits, s.memo.Misses
	return hits, misses
}
