// Package timectrl drives simulation time. Simulation time is a TDB
// Julian date advanced from a wall-clock tick multiplied by a time scale.
package timectrl

import (
	"context"
	"sync"
	"time"

	"github.com/signalsfoundry/orrery/astro"
)

// SimClock is the read side of the controller, for components that only
// need to know the current simulation time.
type SimClock interface {
	// Now returns the simulation time as a TDB Julian date.
	Now() float64
	// Scale returns simulated seconds per wall-clock second.
	Scale() float64
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime waits one wall-clock tick between steps.
	RealTime Mode = iota
	// Accelerated steps as quickly as the loop can run while still stepping by Tick.
	Accelerated
)

func (m Mode) String() string {
	if m == Accelerated {
		return "accelerated"
	}
	return "realtime"
}

// Tick is delivered to listeners after each step.
type Tick struct {
	Seq uint64
	// JD is the simulation time after the step.
	JD float64
	// Wall is the wall-clock step.
	Wall time.Duration
	// Scale is the effective time scale of the step, zero while paused.
	Scale float64
}

// TimeController drives simulation time and notifies registered listeners.
type TimeController struct {
	mu      sync.RWMutex
	StartJD float64
	Tick    time.Duration
	Mode    Mode

	current float64
	scale   float64
	paused  bool
	seq     uint64

	listeners []func(Tick)
}

// NewTimeController constructs a controller at startJD running at unit
// time scale.
func NewTimeController(startJD float64, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartJD: startJD,
		Tick:    tick,
		Mode:    mode,
		current: startJD,
		scale:   1,
	}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() float64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.current
}

// SetTime jumps to jd.
func (tc *TimeController) SetTime(jd float64) {
	tc.mu.Lock()
	tc.current = jd
	tc.mu.Unlock()
}

// Scale returns the configured time scale. Implements SimClock.
func (tc *TimeController) Scale() float64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.scale
}

// SetTimeScale sets simulated seconds per wall second. Negative scales run
// time backwards.
func (tc *TimeController) SetTimeScale(s float64) {
	tc.mu.Lock()
	tc.scale = s
	tc.mu.Unlock()
}

func (tc *TimeController) Pause() {
	tc.mu.Lock()
	tc.paused = true
	tc.mu.Unlock()
}

func (tc *TimeController) Resume() {
	tc.mu.Lock()
	tc.paused = false
	tc.mu.Unlock()
}

func (tc *TimeController) Paused() bool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.paused
}

// AddListener registers a callback invoked on every tick. Listeners run on
// the stepping goroutine, in registration order.
func (tc *TimeController) AddListener(fn func(Tick)) {
	tc.mu.Lock()
	tc.listeners = append(tc.listeners, fn)
	tc.mu.Unlock()
}

// Step advances simulation time by one tick and notifies listeners.
func (tc *TimeController) Step() Tick {
	tc.mu.Lock()
	scale := tc.scale
	if tc.paused {
		scale = 0
	}
	tc.current += astro.SecsToDays(tc.Tick.Seconds() * scale)
	tc.seq++
	tick := Tick{Seq: tc.seq, JD: tc.current, Wall: tc.Tick, Scale: scale}
	listeners := append([]func(Tick){}, tc.listeners...)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(tick)
	}
	return tick
}

// Start runs the controller for the specified wall-clock duration in a
// separate goroutine, or until ctx is done when duration is zero. It
// returns a channel that is closed when the controller finishes.
func (tc *TimeController) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.mu.Lock()
		tc.current = tc.StartJD
		tc.mu.Unlock()

		var ticks <-chan time.Time
		if tc.Mode == RealTime {
			ticker := time.NewTicker(tc.Tick)
			defer ticker.Stop()
			ticks = ticker.C
		}

		elapsed := time.Duration(0)
		for {
			if duration > 0 && elapsed >= duration {
				return
			}
			if ticks != nil {
				select {
				case <-ctx.Done():
					return
				case <-ticks:
				}
			} else if ctx.Err() != nil {
				return
			}
			tc.Step()
			elapsed += tc.Tick
		}
	}()
	return done
}
