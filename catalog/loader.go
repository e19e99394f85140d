package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/orrery/coord"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/orbit"
	"github.com/signalsfoundry/orrery/solar"
)

//go:embed data/sol.yaml
var defaultScenario []byte

// Scenario summarizes what a load added to the universe.
type Scenario struct {
	Stars     []string
	Bodies    []string
	DeepSky   []string
	Locations []string
	Skipped   []Skipped
}

// Skipped records an object that could not be built.
type Skipped struct {
	Kind string
	Name string
	Err  error
}

// internal YAML shapes, unexported so the file format can evolve. Orbit
// and rotation definitions are collected from the remaining keys.
type scenarioYAML struct {
	Stars     []starYAML     `yaml:"stars"`
	Bodies    []bodyYAML     `yaml:"bodies"`
	DeepSky   []deepSkyYAML  `yaml:"deep_sky"`
	Locations []locationYAML `yaml:"locations"`
}

type starYAML struct {
	Catalog    uint32     `yaml:"catalog"`
	Name       string     `yaml:"name"`
	Position   []float64  `yaml:"position"` // light years
	AbsMag     float64    `yaml:"abs_mag"`
	Spectral   string     `yaml:"spectral"`
	Radius     float64    `yaml:"radius"` // km; zero means solar
	Barycenter *uint32    `yaml:"barycenter"`
	Properties Properties `yaml:",inline"`
}

type bodyYAML struct {
	Name       string     `yaml:"name"`
	Parent     string     `yaml:"parent"`
	Class      string     `yaml:"class"`
	Radius     float64    `yaml:"radius"`
	Mass       float64    `yaml:"mass"`
	Oblateness float64    `yaml:"oblateness"`
	Albedo     float64    `yaml:"albedo"`
	Begin      any        `yaml:"begin"`
	End        any        `yaml:"end"`
	Barycenter string     `yaml:"barycenter"`
	Properties Properties `yaml:",inline"`
}

type deepSkyYAML struct {
	Catalog  uint32    `yaml:"catalog"`
	Name     string    `yaml:"name"`
	Type     string    `yaml:"type"`
	Position []float64 `yaml:"position"` // light years
	Radius   float64   `yaml:"radius"`   // light years
	AbsMag   float64   `yaml:"abs_mag"`
}

type locationYAML struct {
	Name string  `yaml:"name"`
	Body string  `yaml:"body"`
	Lon  float64 `yaml:"lon"`
	Lat  float64 `yaml:"lat"`
	Alt  float64 `yaml:"alt"`
	Type string  `yaml:"type"`
	Size float64 `yaml:"size"`
}

// LoadScenario reads a YAML scenario from r into u. It fails only on
// decode errors; objects that cannot be built are logged, skipped and
// listed in the summary. Bodies must follow the objects they orbit.
func LoadScenario(u *Universe, f *Factory, r io.Reader) (*Scenario, error) {
	if u == nil || f == nil {
		return nil, fmt.Errorf("LoadScenario: universe and factory are required")
	}
	var payload scenarioYAML
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}

	l := &loader{u: u, f: f, log: f.Log, result: &Scenario{}}
	for _, s := range payload.Stars {
		l.star(s)
	}
	for _, b := range payload.Bodies {
		l.body(b)
	}
	for _, d := range payload.DeepSky {
		l.deepSky(d)
	}
	for _, loc := range payload.Locations {
		l.location(loc)
	}

	l.log.Info(context.Background(), "scenario loaded",
		logging.Int("stars", len(l.result.Stars)),
		logging.Int("bodies", len(l.result.Bodies)),
		logging.Int("deep_sky", len(l.result.DeepSky)),
		logging.Int("locations", len(l.result.Locations)),
		logging.Int("skipped", len(l.result.Skipped)),
	)
	return l.result, nil
}

// LoadScenarioFile loads a scenario file. Relative sample files resolve
// against the file's directory unless the factory already has a BaseDir.
func LoadScenarioFile(u *Universe, f *Factory, path string) (*Scenario, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if f.BaseDir == "" {
		f.BaseDir = filepath.Dir(path)
	}
	return LoadScenario(u, f, file)
}

// LoadDefault loads the built-in solar system.
func LoadDefault(u *Universe, f *Factory) (*Scenario, error) {
	return LoadScenario(u, f, bytes.NewReader(defaultScenario))
}

type loader struct {
	u      *Universe
	f      *Factory
	log    logging.Logger
	result *Scenario
}

func (l *loader) skip(kind, name string, err error) {
	l.log.Warn(context.Background(), "skipping object",
		logging.String("kind", kind),
		logging.String("name", name),
		logging.Err(err))
	l.result.Skipped = append(l.result.Skipped, Skipped{Kind: kind, Name: name, Err: err})
}

func starPosition(v []float64) (coord.StarPosition, error) {
	if len(v) == 0 {
		return coord.StarPosition{}, nil
	}
	if len(v) != 3 {
		return coord.StarPosition{}, fmt.Errorf("%w: position: want 3 components, got %d", ErrBadProperty, len(v))
	}
	return coord.StarPosition{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}, nil
}

func (l *loader) star(s starYAML) {
	if s.Name == "" {
		l.skip("star", fmt.Sprint(s.Catalog), fmt.Errorf("%w: name", ErrMissingProperty))
		return
	}
	pos, err := starPosition(s.Position)
	if err != nil {
		l.skip("star", s.Name, err)
		return
	}
	st := solar.NewStar(s.Catalog, s.Name, pos)
	st.AbsMag = s.AbsMag
	st.SpectralClass = s.Spectral
	if s.Radius > 0 {
		st.Radius = s.Radius
	}

	o, _, err := l.f.CreateOrbit(s.Properties, nil)
	switch {
	case err == nil:
		st.Orbit = o
	case !errors.Is(err, ErrNoOrbit):
		l.skip("star", s.Name, err)
		return
	}
	rot, err := l.f.CreateRotationModel(s.Properties, 0)
	if err != nil {
		l.skip("star", s.Name, err)
		return
	}
	st.Rotation = rot

	if s.Barycenter != nil {
		bary := l.u.Star(*s.Barycenter)
		if bary == nil {
			l.skip("star", s.Name, fmt.Errorf("%w: barycenter %d", ErrNotFound, *s.Barycenter))
			return
		}
		if err := st.SetBarycenter(bary); err != nil {
			l.skip("star", s.Name, err)
			return
		}
	}
	if err := l.u.AddStar(st); err != nil {
		l.skip("star", s.Name, err)
		return
	}
	l.result.Stars = append(l.result.Stars, s.Name)
}

func (l *loader) body(b bodyYAML) {
	if b.Name == "" || b.Parent == "" {
		l.skip("body", b.Name, fmt.Errorf("%w: name and parent", ErrMissingProperty))
		return
	}
	path := b.Parent + "/" + b.Name
	parent, err := l.u.Find(b.Parent)
	if err != nil {
		l.skip("body", path, err)
		return
	}

	o, plane, err := l.f.CreateOrbit(b.Properties, parent.Body())
	if err != nil {
		l.skip("body", path, err)
		return
	}
	rot, err := l.f.CreateRotationModel(b.Properties, orbit.SyncPeriod(o))
	if err != nil {
		l.skip("body", path, err)
		return
	}

	body := solar.NewBody(b.Name, o, rot)
	body.Plane = plane
	body.Mass = b.Mass
	body.Oblateness = b.Oblateness
	if b.Radius > 0 {
		body.Radius = b.Radius
	}
	if b.Albedo > 0 {
		body.Albedo = b.Albedo
	}
	body.Class = solar.ParseClassification(b.Class)
	if body.Lifespan, err = l.lifespan(b); err != nil {
		l.skip("body", path, err)
		return
	}

	if err := l.u.AddBody(b.Parent, body); err != nil {
		l.skip("body", path, err)
		return
	}
	if b.Barycenter != "" {
		if err := l.barycenter(body, b.Barycenter); err != nil {
			_ = l.u.RemoveBody(path)
			l.skip("body", path, err)
			return
		}
	}
	l.result.Bodies = append(l.result.Bodies, path)
}

func (l *loader) lifespan(b bodyYAML) (solar.Lifespan, error) {
	span := solar.Always()
	p := Properties{}
	if b.Begin != nil {
		p["begin"] = b.Begin
	}
	if b.End != nil {
		p["end"] = b.End
	}
	var err error
	if span.Begin, err = p.Epoch("begin", l.f.Leap, math.Inf(-1)); err != nil {
		return span, err
	}
	if span.End, err = p.Epoch("end", l.f.Leap, math.Inf(1)); err != nil {
		return span, err
	}
	return span, nil
}

func (l *loader) barycenter(b *solar.Body, path string) error {
	sel, err := l.u.Find(path)
	if err != nil {
		return err
	}
	if sel.Kind() != solar.SelectBody {
		return fmt.Errorf("%w: barycenter %s is not a body", ErrBadProperty, path)
	}
	return b.SetBarycenter(sel.Body())
}

func (l *loader) deepSky(d deepSkyYAML) {
	if d.Name == "" {
		l.skip("deep_sky", fmt.Sprint(d.Catalog), fmt.Errorf("%w: name", ErrMissingProperty))
		return
	}
	pos, err := starPosition(d.Position)
	if err != nil {
		l.skip("deep_sky", d.Name, err)
		return
	}
	l.u.AddDeepSky(&solar.DeepSky{
		CatalogNumber: d.Catalog,
		Name:          d.Name,
		Type:          d.Type,
		Position:      coord.FromStar(pos),
		Radius:        d.Radius,
		AbsMag:        d.AbsMag,
	})
	l.result.DeepSky = append(l.result.DeepSky, d.Name)
}

func (l *loader) location(loc locationYAML) {
	path := loc.Body + "/" + loc.Name
	if loc.Name == "" {
		l.skip("location", path, fmt.Errorf("%w: name", ErrMissingProperty))
		return
	}
	sel, err := l.u.Find(loc.Body)
	if err != nil {
		l.skip("location", path, err)
		return
	}
	if sel.Kind() != solar.SelectBody {
		l.skip("location", path, fmt.Errorf("%w: %s is not a body", ErrBadProperty, loc.Body))
		return
	}
	nl := solar.NewLocation(sel.Body(), loc.Name, loc.Lon, loc.Lat, loc.Alt)
	nl.FeatureType = loc.Type
	nl.Size = loc.Size
	l.result.Locations = append(l.result.Locations, path)
}
