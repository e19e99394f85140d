// Package observer implements the viewpoint state machine: a situation held
// in a reference frame that either moves freely under its own velocity or
// travels along a timed journey toward a destination.
package observer

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/coord"
	"github.com/signalsfoundry/orrery/frame"
	"github.com/signalsfoundry/orrery/geom"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/solar"
)

// ErrNoSelection is returned by commands that need a target object.
var ErrNoSelection = errors.New("observer: no selection")

// Mode is the state of the observer.
type Mode int

const (
	Free Mode = iota
	Travelling
)

func (m Mode) String() string {
	if m == Travelling {
		return "travelling"
	}
	return "free"
}

// Journey kinds reported to the Recorder.
const (
	JourneyGoto     = "goto"
	JourneyCenter   = "center"
	JourneyLocation = "location"
)

// Recorder receives journey lifecycle events.
type Recorder interface {
	JourneyStarted(kind string)
	JourneyCompleted()
}

type noopRecorder struct{}

func (noopRecorder) JourneyStarted(string) {}
func (noopRecorder) JourneyCompleted()     {}

const secondsPerDay = 86400.0

// Observer is a camera situated in a reference frame. Its situation is
// stored in frame-local coordinates so that it rides along with moving
// frames. Velocity is in km/s along frame axes; angular velocity is in
// rad/s about the observer's own axes.
type Observer struct {
	frame           frame.Frame
	situation       coord.RigidTransform
	velocity        r3.Vec
	angularVelocity r3.Vec

	mode    Mode
	journey JourneyParams

	realTime float64
	simTime  float64

	log      logging.Logger
	recorder Recorder
}

// Option configures an Observer.
type Option func(*Observer)

// WithLogger sets the logger used for mode transitions.
func WithLogger(l logging.Logger) Option {
	return func(o *Observer) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRecorder sets the journey event sink.
func WithRecorder(r Recorder) Option {
	return func(o *Observer) {
		if r != nil {
			o.recorder = r
		}
	}
}

// New creates a free observer at the universal origin at simulation time jd.
func New(jd float64, opts ...Option) *Observer {
	o := &Observer{
		frame:     frame.Universal{},
		situation: coord.NewRigidTransform(coord.Origin()),
		simTime:   jd,
		log:       logging.Noop(),
		recorder:  noopRecorder{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Observer) Mode() Mode              { return o.mode }
func (o *Observer) Frame() frame.Frame      { return o.frame }
func (o *Observer) Time() float64           { return o.simTime }
func (o *Observer) RealTime() float64       { return o.realTime }
func (o *Observer) Velocity() r3.Vec        { return o.velocity }
func (o *Observer) AngularVelocity() r3.Vec { return o.angularVelocity }

// Journey returns the active journey, if any.
func (o *Observer) Journey() (JourneyParams, bool) {
	return o.journey, o.mode == Travelling
}

// SetTime sets the simulation date without moving the observer in its
// frame.
func (o *Observer) SetTime(jd float64) { o.simTime = jd }

// Situation is the universal position and orientation.
func (o *Observer) Situation() coord.RigidTransform {
	return frame.ToUniversal(o.frame, o.situation, o.simTime)
}

// Position is the universal position.
func (o *Observer) Position() coord.Universal { return o.Situation().Translation }

// Orientation maps observer axes to universal axes.
func (o *Observer) Orientation() quat.Number { return o.Situation().Rotation }

// SetSituation places the observer at a universal situation.
func (o *Observer) SetSituation(u coord.RigidTransform) {
	o.situation = frame.FromUniversal(o.frame, u, o.simTime)
}

// LocalSituation is the situation relative to the current frame.
func (o *Observer) LocalSituation() coord.RigidTransform { return o.situation }

// SetLocalSituation places the observer relative to the current frame.
func (o *Observer) SetLocalSituation(s coord.RigidTransform) { o.situation = s }

// SetPosition moves the observer to a universal position, keeping its
// orientation.
func (o *Observer) SetPosition(p coord.Universal) {
	u := o.Situation()
	u.Translation = p
	o.SetSituation(u)
}

// SetOrientation turns the observer to a universal orientation.
func (o *Observer) SetOrientation(q quat.Number) {
	u := o.Situation()
	u.Rotation = geom.Normalize(q)
	o.SetSituation(u)
}

func (o *Observer) SetVelocity(v r3.Vec)        { o.velocity = v }
func (o *Observer) SetAngularVelocity(w r3.Vec) { o.angularVelocity = w }

// Update advances wall time by dt seconds and simulation time by dt scaled
// by timeScale. A travelling observer follows its journey; a free one
// drifts with its velocities.
func (o *Observer) Update(dt, timeScale float64) {
	o.realTime += dt
	o.simTime += dt / secondsPerDay * timeScale

	if o.mode == Travelling {
		t := o.journey.progress(o.realTime)
		if t >= 1 {
			o.situation = o.journey.Final()
			o.mode = Free
			o.recorder.JourneyCompleted()
			o.log.Debug(context.Background(), "journey complete",
				logging.String("frame", o.frame.Kind().String()))
			return
		}
		o.situation = o.journey.At(math.Max(t, 0))
		return
	}

	if o.velocity != (r3.Vec{}) {
		o.situation.Translation = o.situation.Translation.OffsetKm(r3.Scale(dt, o.velocity))
	}
	if rate := r3.Norm(o.angularVelocity); rate != 0 {
		o.situation.Rotation = geom.Normalize(geom.Mul(o.situation.Rotation, geom.AxisAngle(o.angularVelocity, rate*dt)))
	}
}

// CancelMotion stops any journey and all free motion.
func (o *Observer) CancelMotion() {
	if o.mode == Travelling {
		o.log.Debug(context.Background(), "journey cancelled")
	}
	o.mode = Free
	o.velocity = r3.Vec{}
	o.angularVelocity = r3.Vec{}
}

// SetFrame moves the observer into f without changing its universal
// situation. An active journey is carried over into the new frame.
func (o *Observer) SetFrame(f frame.Frame) {
	if f == nil {
		f = frame.Universal{}
	}
	u := o.Situation()
	if o.mode == Travelling {
		from := frame.ToUniversal(o.frame, o.journey.Initial(), o.simTime)
		to := frame.ToUniversal(o.frame, o.journey.Final(), o.simTime)
		from = frame.FromUniversal(f, from, o.simTime)
		to = frame.FromUniversal(f, to, o.simTime)
		o.journey.From, o.journey.InitialOrientation = from.Translation, from.Rotation
		o.journey.To, o.journey.FinalOrientation = to.Translation, to.Rotation
	}
	o.frame = f
	o.situation = frame.FromUniversal(f, u, o.simTime)
}

// GotoOptions controls GotoSelection.
type GotoOptions struct {
	// Orientation turns between these fractions of the journey.
	StartInterpolation float64
	EndInterpolation   float64
	// Distance from the target center in km; zero picks PreferredDistance.
	Distance float64
	// Up is the universal up hint for the final orientation; zero keeps
	// the observer's current up vector.
	Up r3.Vec
}

// DefaultGotoOptions turns toward the target during the first half.
func DefaultGotoOptions() GotoOptions {
	return GotoOptions{StartInterpolation: 0, EndInterpolation: 0.5}
}

// PreferredDistance is the default viewing distance for sel in km.
func PreferredDistance(sel solar.Selection) float64 {
	r := sel.Radius()
	var d float64
	switch sel.Kind() {
	case solar.SelectStar:
		d = 100 * r
	case solar.SelectBody, solar.SelectDeepSky, solar.SelectLocation:
		d = 5 * r
	}
	return math.Max(d, 1)
}

// GotoSelection starts a journey that ends at a distance from sel, looking
// at it. The observer's frame is re-anchored on sel.
func (o *Observer) GotoSelection(sel solar.Selection, duration float64, opts GotoOptions) error {
	if sel.Empty() {
		return ErrNoSelection
	}
	jd := o.simTime
	dest, err := o.destinationFrame(sel)
	if err != nil {
		return err
	}
	cur := o.Situation()
	target := sel.Position(jd)

	dir := cur.Translation.DifferenceKm(target)
	if r3.Norm(dir) == 0 {
		dir = geom.ZAxis
	}
	dir = r3.Unit(dir)
	dist := opts.Distance
	if dist <= 0 {
		dist = PreferredDistance(sel)
	}
	offset := r3.Scale(dist, dir)
	final := coord.RigidTransform{
		Translation: target.OffsetKm(offset),
		Rotation:    geom.LookAt(offset, r3.Vec{}, o.upHint(cur, opts.Up)),
	}

	o.frame = dest
	o.situation = frame.FromUniversal(dest, cur, jd)
	o.startJourney(JourneyGoto, sel.Name(), frame.FromUniversal(dest, final, jd), duration, opts.StartInterpolation, opts.EndInterpolation)
	return nil
}

// CenterSelection turns the observer toward sel without moving it.
func (o *Observer) CenterSelection(sel solar.Selection, duration float64) error {
	if sel.Empty() {
		return ErrNoSelection
	}
	cur := o.Situation()
	toward := sel.Position(o.simTime).DifferenceKm(cur.Translation)
	final := coord.RigidTransform{
		Translation: cur.Translation,
		Rotation:    geom.LookAt(r3.Vec{}, toward, o.upHint(cur, r3.Vec{})),
	}
	local := frame.FromUniversal(o.frame, final, o.simTime)
	local.Translation = o.situation.Translation
	o.startJourney(JourneyCenter, sel.Name(), local, duration, 0, 0.5)
	return nil
}

// GotoLocation travels to a universal situation.
func (o *Observer) GotoLocation(dest coord.RigidTransform, duration float64) {
	local := frame.FromUniversal(o.frame, dest, o.simTime)
	o.startJourney(JourneyLocation, "", local, duration, 0.25, 0.75)
}

func (o *Observer) startJourney(kind, target string, to coord.RigidTransform, duration, startInterp, endInterp float64) {
	o.journey = newJourney(o.realTime, duration, o.situation, to, startInterp, endInterp)
	o.mode = Travelling
	o.velocity = r3.Vec{}
	o.angularVelocity = r3.Vec{}
	o.recorder.JourneyStarted(kind)
	o.log.Info(context.Background(), "journey started",
		logging.String("kind", kind),
		logging.String("target", target),
		logging.String("frame", o.frame.Kind().String()),
		logging.Float64("duration_s", duration),
		logging.Float64("distance_km", o.journey.distanceKm()),
	)
}

// destinationFrame keeps the current coordinate system but anchors it on
// sel. Frames that track a second object fall back to ecliptic axes.
func (o *Observer) destinationFrame(sel solar.Selection) (frame.Frame, error) {
	switch o.frame.Kind() {
	case frame.KindUniversal:
		return o.frame, nil
	case frame.KindTwoVector, frame.KindPhaseLock, frame.KindChase:
		return frame.NewEcliptic(sel)
	}
	f, err := frame.Rebind(o.frame, sel)
	if err != nil {
		return frame.NewEcliptic(sel)
	}
	return f, nil
}

func (o *Observer) upHint(cur coord.RigidTransform, up r3.Vec) r3.Vec {
	if r3.Norm(up) > 0 {
		return up
	}
	return geom.Rotate(cur.Rotation, geom.YAxis)
}

// Follow rides along with sel using ecliptic axes.
func (o *Observer) Follow(sel solar.Selection) error {
	f, err := frame.NewEcliptic(sel)
	if err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	o.SetFrame(f)
	return nil
}

// GeosynchronousFollow rides along with sel and rotates with it.
func (o *Observer) GeosynchronousFollow(sel solar.Selection) error {
	f, err := frame.NewBodyFixed(sel)
	if err != nil {
		return fmt.Errorf("sync orbit: %w", err)
	}
	o.SetFrame(f)
	return nil
}

// PhaseLock keeps the line from the current center to target fixed.
func (o *Observer) PhaseLock(target solar.Selection) error {
	center, target, err := o.lockPair(target)
	if err != nil {
		return err
	}
	f, err := frame.NewPhaseLock(center, target)
	if err != nil {
		return fmt.Errorf("phase lock: %w", err)
	}
	o.SetFrame(f)
	return nil
}

// Chase follows the current center with axes along its motion relative
// to target.
func (o *Observer) Chase(target solar.Selection) error {
	center, target, err := o.lockPair(target)
	if err != nil {
		return err
	}
	f, err := frame.NewChase(center, target)
	if err != nil {
		return fmt.Errorf("chase: %w", err)
	}
	o.SetFrame(f)
	return nil
}

// lockPair picks the center and target of a two-object frame. Locking onto
// the current center locks it to its parent instead.
func (o *Observer) lockPair(target solar.Selection) (solar.Selection, solar.Selection, error) {
	if target.Empty() {
		return solar.Selection{}, solar.Selection{}, ErrNoSelection
	}
	center := o.frame.Center()
	if center.Empty() || center.Equal(target) {
		center, target = target, target.Parent()
	}
	if target.Empty() {
		return solar.Selection{}, solar.Selection{}, fmt.Errorf("%w: %s has no parent", ErrNoSelection, center.Name())
	}
	return center, target, nil
}

// focus is the frame-local position of sel, or the frame origin when sel
// is empty.
func (o *Observer) focus(sel solar.Selection) coord.Universal {
	if sel.Empty() {
		return coord.Origin()
	}
	return frame.FromUniversal(o.frame, coord.NewRigidTransform(sel.Position(o.simTime)), o.simTime).Translation
}

// Orbit swings the observer around sel by q, given in the observer's own
// axes, keeping the same distance.
func (o *Observer) Orbit(sel solar.Selection, q quat.Number) {
	c := o.focus(sel)
	rot := o.situation.Rotation
	qf := geom.Mul(rot, q, quat.Conj(rot))
	v := o.situation.Translation.DifferenceKm(c)
	o.situation.Translation = c.OffsetKm(geom.Rotate(qf, v))
	o.situation.Rotation = geom.Normalize(geom.Mul(rot, q))
}

// ChangeOrbitDistance scales the distance to sel by e^delta, never closer
// than the surface of sel.
func (o *Observer) ChangeOrbitDistance(sel solar.Selection, delta float64) {
	c := o.focus(sel)
	v := o.situation.Translation.DifferenceKm(c)
	r := r3.Norm(v)
	if r == 0 {
		return
	}
	nr := r * math.Exp(delta)
	if floor := sel.Radius() * 1.001; nr < floor {
		nr = floor
	}
	o.situation.Translation = c.OffsetKm(r3.Scale(nr/r, v))
}

// Rotate turns the observer by q about its own axes.
func (o *Observer) Rotate(q quat.Number) {
	o.situation.Rotation = geom.Normalize(geom.Mul(o.situation.Rotation, q))
}

// LookAt turns the observer toward a universal position with the given
// universal up hint.
func (o *Observer) LookAt(target coord.Universal, up r3.Vec) {
	cur := o.Situation()
	cur.Rotation = geom.LookAt(r3.Vec{}, target.DifferenceKm(cur.Translation), up)
	o.SetSituation(cur)
}
