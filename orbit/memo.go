package orbit

import "gonum.org/v1/gonum/spatial/r3"

// Memo remembers the most recent position computed for one orbit so that
// repeated queries for the same instant in a frame are not recomputed. A
// Memo is not safe for concurrent use; give each caller its own.
type Memo struct {
	orbit Orbit
	valid bool
	jd    float64
	pos   r3.Vec

	Hits, Misses int
}

// NewMemo returns an empty cache in front of o.
func NewMemo(o Orbit) *Memo { return &Memo{orbit: o} }

// PositionAtTime returns the cached position when jd matches the last
// query, otherwise evaluates the orbit and replaces the cached value.
func (m *Memo) PositionAtTime(jd float64) r3.Vec {
	if m.valid && m.jd == jd {
		m.Hits++
		return m.pos
	}
	m.Misses++
	m.pos = m.orbit.PositionAtTime(jd)
	m.jd = jd
	m.valid = true
	return m.pos
}

// Invalidate forgets the cached value.
func (m *Memo) Invalidate() { m.valid = false }

// Orbit returns the memoized orbit.
func (m *Memo) Orbit() Orbit { return m.orbit }
