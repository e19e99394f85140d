// Package catalog holds the loaded universe: stars, their planetary
// systems, deep sky objects and surface locations, along with the
// factories that turn definition hashes into orbits and rotation models.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/solar"
)

var (
	// ErrNoOrbit is returned when a body definition has no usable orbit.
	ErrNoOrbit = errors.New("no orbit defined")
	// ErrMissingProperty is returned when a required key is absent.
	ErrMissingProperty = errors.New("missing property")
	// ErrBadProperty is returned when a key holds a value of the wrong shape.
	ErrBadProperty = errors.New("bad property value")
	// ErrSystemExists is returned when a star already has a solar system.
	ErrSystemExists = errors.New("solar system already exists")
	// ErrDuplicateStar is returned when a catalog number is reused.
	ErrDuplicateStar = errors.New("duplicate star catalog number")
	// ErrNotFound is returned when a path names no object.
	ErrNotFound = errors.New("object not found")
)

// EventType indicates what kind of change happened in the universe.
type EventType int

const (
	EventStarAdded EventType = iota
	EventBodyAdded
	EventBodyRemoved
	EventDeepSkyAdded
)

func (t EventType) String() string {
	switch t {
	case EventStarAdded:
		return "star-added"
	case EventBodyAdded:
		return "body-added"
	case EventBodyRemoved:
		return "body-removed"
	case EventDeepSkyAdded:
		return "deepsky-added"
	}
	return "unknown"
}

// Event is emitted to subscribers when the universe changes.
type Event struct {
	Type EventType
	Path string
}

// Universe is a thread-safe store for stars, solar systems and deep sky
// objects. Bodies are reached through their star's solar system and named
// by slash separated paths such as "Sol/Earth/Moon".
//
// The lock guards the indexes only. Bodies handed out by Find are shared
// and must not be mutated while a simulation reads them.
type Universe struct {
	mu sync.RWMutex

	stars       map[uint32]*solar.Star
	starsByName map[string]*solar.Star
	systems     map[uint32]*solar.SolarSystem
	deepSky     map[string]*solar.DeepSky

	subs    []subscription
	nextSub uint64
	log     logging.Logger
}

type subscription struct {
	id uint64
	fn func(Event)
}

// NewUniverse constructs an empty universe.
func NewUniverse(log logging.Logger) *Universe {
	if log == nil {
		log = logging.Noop()
	}
	return &Universe{
		stars:       make(map[uint32]*solar.Star),
		starsByName: make(map[string]*solar.Star),
		systems:     make(map[uint32]*solar.SolarSystem),
		deepSky:     make(map[string]*solar.DeepSky),
		log:         log,
	}
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// AddStar adds a star. It returns an error if the catalog number exists.
func (u *Universe) AddStar(s *solar.Star) error {
	u.mu.Lock()
	if _, exists := u.stars[s.CatalogNumber]; exists {
		u.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrDuplicateStar, s.CatalogNumber)
	}
	u.stars[s.CatalogNumber] = s
	if s.Name != "" {
		u.starsByName[key(s.Name)] = s
	}
	subs := u.snapshotSubs()
	u.mu.Unlock()

	u.notify(subs, Event{Type: EventStarAdded, Path: s.Name})
	return nil
}

// Star returns the star with the given catalog number, or nil.
func (u *Universe) Star(catalog uint32) *solar.Star {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.stars[catalog]
}

// FindStar returns the star with the given name, or nil.
func (u *Universe) FindStar(name string) *solar.Star {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.starsByName[key(name)]
}

// Stars returns a snapshot of all stars ordered by catalog number.
func (u *Universe) Stars() []*solar.Star {
	u.mu.RLock()
	defer u.mu.RUnlock()

	res := make([]*solar.Star, 0, len(u.stars))
	for _, s := range u.stars {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CatalogNumber < res[j].CatalogNumber })
	return res
}

// CreateSolarSystem attaches an empty solar system to s.
func (u *Universe) CreateSolarSystem(s *solar.Star) (*solar.SolarSystem, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.stars[s.CatalogNumber]; !ok {
		return nil, fmt.Errorf("%w: star %d", ErrNotFound, s.CatalogNumber)
	}
	if _, exists := u.systems[s.CatalogNumber]; exists {
		return nil, fmt.Errorf("%w: %s", ErrSystemExists, s.Name)
	}
	ss := solar.NewSolarSystem(s)
	u.systems[s.CatalogNumber] = ss
	return ss, nil
}

// SolarSystem returns the solar system of s, or nil.
func (u *Universe) SolarSystem(s *solar.Star) *solar.SolarSystem {
	if s == nil {
		return nil
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.systems[s.CatalogNumber]
}

// AddBody adds b to the object named by parentPath: the planets of a star
// (creating its solar system on demand) or the satellites of a body.
func (u *Universe) AddBody(parentPath string, b *solar.Body) error {
	sel, err := u.Find(parentPath)
	if err != nil {
		return err
	}

	u.mu.Lock()
	var sys *solar.PlanetarySystem
	switch sel.Kind() {
	case solar.SelectStar:
		ss, ok := u.systems[sel.Star().CatalogNumber]
		if !ok {
			ss = solar.NewSolarSystem(sel.Star())
			u.systems[sel.Star().CatalogNumber] = ss
		}
		sys = ss.Planets()
	case solar.SelectBody:
		sys = sel.Body().CreateSatellites()
	default:
		u.mu.Unlock()
		return fmt.Errorf("%w: %s cannot have satellites", ErrNotFound, parentPath)
	}
	err = sys.AddBody(b)
	subs := u.snapshotSubs()
	u.mu.Unlock()
	if err != nil {
		return err
	}

	u.notify(subs, Event{Type: EventBodyAdded, Path: parentPath + "/" + b.Name})
	return nil
}

// RemoveBody detaches the body at path from its system.
func (u *Universe) RemoveBody(path string) error {
	sel, err := u.Find(path)
	if err != nil {
		return err
	}
	if sel.Kind() != solar.SelectBody {
		return fmt.Errorf("%w: %s is not a body", ErrNotFound, path)
	}
	u.mu.Lock()
	b := sel.Body()
	removed := b.System() != nil && b.System().RemoveBody(b)
	subs := u.snapshotSubs()
	u.mu.Unlock()
	if !removed {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	u.notify(subs, Event{Type: EventBodyRemoved, Path: path})
	return nil
}

// AddDeepSky adds a deep sky object under its name.
func (u *Universe) AddDeepSky(d *solar.DeepSky) {
	u.mu.Lock()
	u.deepSky[key(d.Name)] = d
	subs := u.snapshotSubs()
	u.mu.Unlock()
	u.notify(subs, Event{Type: EventDeepSkyAdded, Path: d.Name})
}

// BodyCount is the number of bodies in all solar systems.
func (u *Universe) BodyCount() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	n := 0
	for _, ss := range u.systems {
		ss.Planets().Traverse(func(*solar.Body) bool {
			n++
			return true
		})
	}
	return n
}

// Find resolves a path. The first element names a star or a deep sky
// object; further elements descend through bodies, and the last may name a
// location on the final body.
func (u *Universe) Find(path string) (solar.Selection, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || strings.TrimSpace(parts[0]) == "" {
		return solar.Selection{}, fmt.Errorf("%w: empty path", ErrNotFound)
	}

	u.mu.RLock()
	defer u.mu.RUnlock()

	star := u.starsByName[key(parts[0])]
	if star == nil {
		if len(parts) == 1 {
			if d := u.deepSky[key(parts[0])]; d != nil {
				return solar.DeepSkySelection(d), nil
			}
		}
		return solar.Selection{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if len(parts) == 1 {
		return solar.StarSelection(star), nil
	}
	ss := u.systems[star.CatalogNumber]
	if ss == nil {
		return solar.Selection{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	sys := ss.Planets()
	var body *solar.Body
	for i, name := range parts[1:] {
		var next *solar.Body
		if sys != nil {
			next = sys.Find(name, false)
		}
		if next == nil {
			if body != nil && i == len(parts)-2 {
				if l := body.FindLocation(name); l != nil {
					return solar.LocationSelection(l), nil
				}
			}
			return solar.Selection{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		body = next
		sys = body.Satellites()
	}
	return solar.BodySelection(body), nil
}

// FindAt is Find for picking at jd. Bodies outside their lifespan, and
// anything hanging from them, are reported with solar.ErrNotExtant.
func (u *Universe) FindAt(path string, jd float64) (solar.Selection, error) {
	sel, err := u.Find(path)
	if err != nil {
		return solar.Selection{}, err
	}
	if !sel.Reachable(jd) {
		return solar.Selection{}, fmt.Errorf("%w: %s", solar.ErrNotExtant, path)
	}
	return sel, nil
}

// Subscribe registers a callback for universe events. Callbacks run in
// subscription order. The returned function removes this callback and is
// safe to call more than once.
func (u *Universe) Subscribe(fn func(Event)) (unsubscribe func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.nextSub++
	id := u.nextSub
	u.subs = append(u.subs, subscription{id: id, fn: fn})

	return func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		for i, sub := range u.subs {
			if sub.id == id {
				u.subs = append(u.subs[:i], u.subs[i+1:]...)
				return
			}
		}
	}
}

// snapshotSubs must be called with the lock held.
func (u *Universe) snapshotSubs() []func(Event) {
	fns := make([]func(Event), len(u.subs))
	for i, sub := range u.subs {
		fns[i] = sub.fn
	}
	return fns
}

// notify runs outside the lock so subscribers may query the universe.
func (u *Universe) notify(subs []func(Event), ev Event) {
	u.log.Debug(context.Background(), "universe changed",
		logging.String("event", ev.Type.String()),
		logging.String("path", ev.Path))
	for _, sub := range subs {
		sub(ev)
	}
}
