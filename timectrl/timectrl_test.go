package timectrl

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/orrery/astro"
)

func TestTimeControllerSetTime(t *testing.T) {
	tc := NewTimeController(astro.J2000, time.Second, RealTime)

	tc.SetTime(astro.J2000 + 42)
	if got := tc.Now(); got != astro.J2000+42 {
		t.Fatalf("Now() = %v, want %v", got, astro.J2000+42)
	}
}

func TestTimeControllerStepScaleAndPause(t *testing.T) {
	tc := NewTimeController(astro.J2000, time.Minute, Accelerated)
	tc.SetTimeScale(1440)

	var ticks []Tick
	tc.AddListener(func(tk Tick) { ticks = append(ticks, tk) })

	tick := tc.Step()
	if math.Abs(tick.JD-(astro.J2000+1)) > 1e-9 {
		t.Fatalf("JD after one scaled minute = %v, want %v", tick.JD, astro.J2000+1)
	}

	tc.Pause()
	if !tc.Paused() {
		t.Fatalf("Paused() = false after Pause")
	}
	tick = tc.Step()
	if tick.Scale != 0 || math.Abs(tick.JD-(astro.J2000+1)) > 1e-9 {
		t.Fatalf("paused step = %+v, want time held", tick)
	}
	tc.Resume()

	tc.SetTimeScale(-1440)
	tick = tc.Step()
	if math.Abs(tick.JD-astro.J2000) > 1e-9 {
		t.Fatalf("reverse step JD = %v, want %v", tick.JD, astro.J2000)
	}

	if len(ticks) != 3 || ticks[2].Seq != 3 || ticks[0].Wall != time.Minute {
		t.Fatalf("listener ticks = %+v", ticks)
	}
}

func TestTimeControllerStartUpdatesNow(t *testing.T) {
	tc := NewTimeController(astro.J2000, 5*time.Millisecond, Accelerated)
	tc.SetTimeScale(86400)

	done := tc.Start(context.Background(), 15*time.Millisecond)
	<-done

	want := astro.J2000 + 0.015
	if got := tc.Now(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("Now() = %v, want %v", got, want)
	}
}

func TestTimeControllerStopsOnContext(t *testing.T) {
	tc := NewTimeController(astro.J2000, time.Millisecond, RealTime)
	ctx, cancel := context.WithCancel(context.Background())

	steps := make(chan Tick, 1)
	tc.AddListener(func(tk Tick) {
		select {
		case steps <- tk:
		default:
		}
	})
	done := tc.Start(ctx, 0)

	select {
	case <-steps:
	case <-time.After(2 * time.Second):
		t.Fatalf("no tick within 2s")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("controller did not stop after cancel")
	}
}
