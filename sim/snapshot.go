package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Snapshot is the read-only state published after each update.
type Snapshot struct {
	JD        float64         `json:"jd"`
	UTC       string          `json:"utc"`
	TimeScale float64         `json:"time_scale"`
	Paused    bool            `json:"paused"`
	Mode      string          `json:"mode"`
	Frame     string          `json:"frame"`
	Observer  ObserverState   `json:"observer"`
	Selection *SelectionState `json:"selection,omitempty"`
}

// ObserverState is the observer's universal situation.
type ObserverState struct {
	// PositionUly is in micro-light-years, rounded to float64.
	PositionUly [3]float64 `json:"position_uly"`
	// Orientation is w, x, y, z.
	Orientation [4]float64 `json:"orientation"`
	VelocityKms [3]float64 `json:"velocity_kms"`
	// Progress is the journey fraction while travelling.
	Progress float64 `json:"progress,omitempty"`
}

type SelectionState struct {
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	RadiusKm   float64 `json:"radius_km"`
	DistanceKm float64 `json:"distance_km"`
	// OrbitPositionKm is a body's position relative to its orbit center.
	OrbitPositionKm *[3]float64 `json:"orbit_position_km,omitempty"`
}

func vec3(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func (s *Simulation) snapshotLocked() Snapshot {
	o := s.observer
	jd := o.Time()
	situation := o.Situation()
	q := situation.Rotation

	snap := Snapshot{
		JD:        jd,
		UTC:       s.leap.TDBtoUTC(jd).String(),
		TimeScale: s.timeScale,
		Paused:    s.paused,
		Mode:      o.Mode().String(),
		Frame:     o.Frame().Kind().String(),
		Observer: ObserverState{
			PositionUly: vec3(situation.Translation.Vec()),
			Orientation: [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag},
			VelocityKms: vec3(o.Velocity()),
		},
	}
	if p, ok := o.Journey(); ok && p.Duration > 0 {
		snap.Observer.Progress = math.Min(math.Max((o.RealTime()-p.StartTime)/p.Duration, 0), 1)
	}

	if !s.selection.Empty() {
		sel := s.selection
		st := &SelectionState{
			Name:       sel.Name(),
			Kind:       sel.Kind().String(),
			RadiusKm:   sel.Radius(),
			DistanceKm: sel.Position(jd).DistanceKm(situation.Translation),
		}
		if s.memo != nil {
			p := vec3(s.memo.PositionAtTime(jd))
			st.OrbitPositionKm = &p
		}
		snap.Selection = st
	}
	return snap
}
