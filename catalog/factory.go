package catalog

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/astro"
	"github.com/signalsfoundry/orrery/geom"
	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/orbit"
	"github.com/signalsfoundry/orrery/rotation"
	"github.com/signalsfoundry/orrery/solar"
)

// ExternalOrbitFunc builds an orbit from the hash of an ExternalOrbit
// definition.
type ExternalOrbitFunc func(p Properties) (orbit.Orbit, error)

// ExternalRotationFunc builds a rotation model from the hash of an
// ExternalRotation definition.
type ExternalRotationFunc func(p Properties) (rotation.Model, error)

// Factory turns definition hashes into orbits and rotation models.
// Sampled tables loaded from files are cached by path and shared between
// bodies.
type Factory struct {
	Leap astro.LeapSecondTable
	Log  logging.Logger
	// BaseDir resolves relative sample file names.
	BaseDir string

	mu                sync.Mutex
	externalOrbits    map[string]ExternalOrbitFunc
	externalRotations map[string]ExternalRotationFunc
	trajectories      map[string]*orbit.Sampled
	orientations      map[string]*rotation.Sampled
}

// NewFactory returns a factory using the default leap second table.
func NewFactory(log logging.Logger) *Factory {
	if log == nil {
		log = logging.Noop()
	}
	return &Factory{
		Leap:              astro.DefaultLeapSeconds(),
		Log:               log,
		externalOrbits:    make(map[string]ExternalOrbitFunc),
		externalRotations: make(map[string]ExternalRotationFunc),
		trajectories:      make(map[string]*orbit.Sampled),
		orientations:      make(map[string]*rotation.Sampled),
	}
}

// RegisterExternalOrbit makes an ExternalOrbit module available by name.
func (f *Factory) RegisterExternalOrbit(module string, fn ExternalOrbitFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.externalOrbits[key(module)] = fn
}

// RegisterExternalRotation makes an ExternalRotation module available by
// name.
func (f *Factory) RegisterExternalRotation(module string, fn ExternalRotationFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.externalRotations[key(module)] = fn
}

// CachedTrajectories is the number of distinct sample files loaded.
func (f *Factory) CachedTrajectories() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.trajectories) + len(f.orientations)
}

// CreateOrbit builds the orbit a definition describes, along with the
// reference plane it is expressed in. parent is the body being orbited,
// or nil when the center is a star; in that case distances are in AU and
// periods in years.
//
// Definitions are tried in a fixed order: CustomOrbit, ExternalOrbit,
// TLE, SampledTrajectory, EllipticalOrbit, FixedPosition, LongLat. Unknown
// custom and external names are logged and skipped.
func (f *Factory) CreateOrbit(p Properties, parent *solar.Body) (orbit.Orbit, solar.ReferencePlane, error) {
	plane := solar.Ecliptic
	if s, ok := p.String("OrbitPlane"); ok {
		parsed, valid := solar.ParseReferencePlane(s)
		if !valid {
			return nil, plane, fmt.Errorf("%w: OrbitPlane %q", ErrBadProperty, s)
		}
		plane = parsed
	}
	explicitPlane := p.Has("OrbitPlane")
	planetUnits := parent == nil
	ctx := context.Background()

	if name, ok := p.String("CustomOrbit"); ok {
		if o, found := orbit.Custom(name); found {
			return o, plane, nil
		}
		f.Log.Warn(ctx, "unknown custom orbit", logging.String("name", name))
	}

	if h, ok, err := p.Hash("ExternalOrbit"); err != nil {
		return nil, plane, err
	} else if ok {
		module, _ := h.String("Module")
		f.mu.Lock()
		fn := f.externalOrbits[key(module)]
		f.mu.Unlock()
		if fn != nil {
			o, err := fn(h)
			if err != nil {
				return nil, plane, fmt.Errorf("external orbit %s: %w", module, err)
			}
			return o, plane, nil
		}
		f.Log.Warn(ctx, "unknown external orbit module", logging.String("module", module))
	}

	if h, ok, err := p.Hash("TLE"); err != nil {
		return nil, plane, err
	} else if ok {
		l1, _ := h.String("Line1")
		l2, _ := h.String("Line2")
		o, err := orbit.NewSGP4(l1, l2, f.Leap)
		if err != nil {
			return nil, plane, err
		}
		if !explicitPlane {
			plane = solar.EquatorJ2000
		}
		return o, plane, nil
	}

	if h, ok, err := p.Hash("SampledTrajectory"); err != nil {
		return nil, plane, err
	} else if ok {
		o, err := f.sampledTrajectory(h)
		return o, plane, err
	}

	if h, ok, err := p.Hash("EllipticalOrbit"); err != nil {
		return nil, plane, err
	} else if ok {
		o, err := f.ellipticalOrbit(h, planetUnits)
		return o, plane, err
	}

	if p.Has("FixedPosition") {
		o, err := fixedPosition(p, planetUnits)
		return o, plane, err
	}

	if v, ok, err := p.Vector("LongLat"); err != nil {
		return nil, plane, err
	} else if ok {
		if parent == nil {
			return nil, plane, fmt.Errorf("%w: LongLat needs a parent body", ErrBadProperty)
		}
		offset := parent.PlanetocentricToCartesian(v.X, v.Y, v.Z)
		return orbit.NewSynchronous(parent.Rotation, offset), solar.BodyEquator, nil
	}

	return nil, plane, ErrNoOrbit
}

func (f *Factory) ellipticalOrbit(h Properties, planetUnits bool) (orbit.Orbit, error) {
	distScale, periodScale := 1.0, 1.0
	if planetUnits {
		distScale, periodScale = astro.KmPerAU, astro.DaysPerYear
	}

	ecc, err := h.NumberOr("Eccentricity", 0)
	if err != nil {
		return nil, err
	}
	var peri float64
	if a, ok, err := h.Number("SemiMajorAxis"); err != nil {
		return nil, err
	} else if ok {
		peri = math.Abs(a * (1 - ecc))
	} else {
		q, err := h.RequireNumber("PericenterDistance")
		if err != nil {
			return nil, fmt.Errorf("%w: SemiMajorAxis or PericenterDistance", ErrMissingProperty)
		}
		peri = q
	}
	period, err := h.RequireNumber("Period")
	if err != nil {
		return nil, err
	}

	incl, err := h.Angle("Inclination", 0)
	if err != nil {
		return nil, err
	}
	node, err := h.Angle("AscendingNode", 0)
	if err != nil {
		return nil, err
	}
	argp, err := h.Angle("ArgOfPericenter", 0)
	if err != nil {
		return nil, err
	}
	if lp, ok, err := h.Number("LongOfPericenter"); err != nil {
		return nil, err
	} else if ok {
		argp = astro.DegToRad(lp) - node
	}
	mean, err := h.Angle("MeanAnomaly", 0)
	if err != nil {
		return nil, err
	}
	if ml, ok, err := h.Number("MeanLongitude"); err != nil {
		return nil, err
	} else if ok {
		mean = astro.DegToRad(ml) - (node + argp)
	}
	epoch, err := h.Epoch("Epoch", f.Leap, astro.J2000)
	if err != nil {
		return nil, err
	}

	return asOrbit(orbit.NewElliptical(orbit.Elements{
		PericenterDistance: peri * distScale,
		Eccentricity:       ecc,
		Inclination:        incl,
		AscendingNode:      node,
		ArgOfPericenter:    argp,
		MeanAnomaly:        mean,
		Period:             period * periodScale,
		Epoch:              epoch,
	}))
}

func fixedPosition(p Properties, planetUnits bool) (orbit.Orbit, error) {
	scale := 1.0
	if planetUnits {
		scale = astro.KmPerAU
	}
	v, _, err := p.Vector("FixedPosition")
	if err != nil {
		h, isHash, herr := p.Hash("FixedPosition")
		if herr != nil || !isHash {
			return nil, err
		}
		rect, ok, rerr := h.Vector("Rectangular")
		if rerr != nil {
			return nil, rerr
		}
		if !ok {
			return nil, fmt.Errorf("%w: FixedPosition.Rectangular", ErrMissingProperty)
		}
		return orbit.NewFixed(r3.Scale(scale, rect)), nil
	}
	return orbit.NewFixed(r3.Scale(scale, v)), nil
}

func interpolation(h Properties) (orbit.Interpolation, error) {
	s, _ := h.String("Interpolation")
	switch strings.ToLower(s) {
	case "", "cubic":
		return orbit.Cubic, nil
	case "linear":
		return orbit.Linear, nil
	}
	return orbit.Cubic, fmt.Errorf("%w: Interpolation %q", ErrBadProperty, s)
}

func (f *Factory) sampledTrajectory(h Properties) (orbit.Orbit, error) {
	interp, err := interpolation(h)
	if err != nil {
		return nil, err
	}
	withVelocity := h.Bool("WithVelocity")
	width := 4
	if withVelocity {
		width = 7
	}

	if rows, ok, err := h.Rows("Samples", width); err != nil {
		return nil, err
	} else if ok {
		return asOrbit(orbit.NewSampled(toSamples(rows, withVelocity), interp, withVelocity))
	}

	src, ok := h.String("Source")
	if !ok {
		return nil, fmt.Errorf("%w: SampledTrajectory needs Source or Samples", ErrMissingProperty)
	}
	path := f.resolve(src)
	cacheKey := fmt.Sprintf("%s|%d|%t", path, interp, withVelocity)

	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.trajectories[cacheKey]; ok {
		return s, nil
	}
	rows, err := readTable(path, width)
	if err != nil {
		return nil, err
	}
	s, err := orbit.NewSampled(toSamples(rows, withVelocity), interp, withVelocity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	f.trajectories[cacheKey] = s
	f.Log.Debug(context.Background(), "loaded trajectory",
		logging.String("source", src), logging.Int("samples", s.Samples()))
	return s, nil
}

func toSamples(rows [][]float64, withVelocity bool) []orbit.Sample {
	samples := make([]orbit.Sample, len(rows))
	for i, r := range rows {
		samples[i] = orbit.Sample{T: r[0], Position: r3.Vec{X: r[1], Y: r[2], Z: r[3]}}
		if withVelocity {
			samples[i].Velocity = r3.Vec{X: r[4], Y: r[5], Z: r[6]}
		}
	}
	return samples
}

func (f *Factory) resolve(name string) string {
	if filepath.IsAbs(name) || f.BaseDir == "" {
		return filepath.Clean(name)
	}
	return filepath.Join(f.BaseDir, name)
}

// readTable reads whitespace separated numeric rows. Blank lines and
// lines starting with '#' are skipped.
func readTable(path string, width int) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rows [][]float64
	sc := bufio.NewScanner(file)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < width {
			return nil, fmt.Errorf("%w: %s:%d: want %d values, got %d", ErrBadProperty, path, line, width, len(fields))
		}
		row := make([]float64, width)
		for i := range row {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s:%d: %q", ErrBadProperty, path, line, fields[i])
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// legacyRotationKeys are the top level keys of the older rotation syntax.
var legacyRotationKeys = []string{"RotationPeriod", "RotationOffset", "RotationEpoch", "Obliquity", "EquatorAscendingNode"}

// CreateRotationModel builds the rotation a definition describes.
// syncPeriod is the orbital period in days, used when a uniform rotation
// gives no period and as the default synchronous rotation.
func (f *Factory) CreateRotationModel(p Properties, syncPeriod float64) (rotation.Model, error) {
	ctx := context.Background()

	if name, ok := p.String("CustomRotation"); ok {
		if m, found := rotation.Custom(name); found {
			return m, nil
		}
		f.Log.Warn(ctx, "unknown custom rotation", logging.String("name", name))
	}

	if h, ok, err := p.Hash("ExternalRotation"); err != nil {
		return nil, err
	} else if ok {
		module, _ := h.String("Module")
		f.mu.Lock()
		fn := f.externalRotations[key(module)]
		f.mu.Unlock()
		if fn != nil {
			m, err := fn(h)
			if err != nil {
				return nil, fmt.Errorf("external rotation %s: %w", module, err)
			}
			return m, nil
		}
		f.Log.Warn(ctx, "unknown external rotation module", logging.String("module", module))
	}

	if h, ok, err := p.Hash("SampledOrientation"); err != nil {
		return nil, err
	} else if ok {
		return f.sampledOrientation(h)
	}

	if h, ok, err := p.Hash("PrecessingRotation"); err != nil {
		return nil, err
	} else if ok {
		params, err := f.uniformParams(h, "Period", "MeridianAngle", "Epoch", "Inclination", "AscendingNode", syncPeriod)
		if err != nil {
			return nil, err
		}
		years, err := h.NumberOr("PrecessionPeriod", 0)
		if err != nil {
			return nil, err
		}
		return asModel(rotation.NewPrecessing(params, years*astro.DaysPerYear))
	}

	if h, ok, err := p.Hash("UniformRotation"); err != nil {
		return nil, err
	} else if ok {
		params, err := f.uniformParams(h, "Period", "MeridianAngle", "Epoch", "Inclination", "AscendingNode", syncPeriod)
		if err != nil {
			return nil, err
		}
		return asModel(rotation.NewUniform(params))
	}

	if h, ok, err := p.Hash("FixedRotation"); err != nil {
		return nil, err
	} else if ok {
		q, err := fixedRotation(h)
		if err != nil {
			return nil, err
		}
		return rotation.NewConstant(q), nil
	}

	if h, ok, err := p.Hash("FixedAttitude"); err != nil {
		return nil, err
	} else if ok {
		heading, err := h.Angle("Heading", 0)
		if err != nil {
			return nil, err
		}
		tilt, err := h.Angle("Tilt", 0)
		if err != nil {
			return nil, err
		}
		roll, err := h.Angle("Roll", 0)
		if err != nil {
			return nil, err
		}
		return rotation.FixedAttitude(heading, tilt, roll), nil
	}

	for _, k := range legacyRotationKeys {
		if !p.Has(k) {
			continue
		}
		params, err := f.uniformParams(p, "RotationPeriod", "RotationOffset", "RotationEpoch", "Obliquity", "EquatorAscendingNode", syncPeriod)
		if err != nil {
			return nil, err
		}
		if !(params.Period > 0) {
			return rotation.NewConstant(geom.Mul(geom.ZRotation(params.AscendingNode), geom.XRotation(params.Inclination), geom.ZRotation(params.MeridianAngle))), nil
		}
		return asModel(rotation.NewUniform(params))
	}

	return rotation.Default(syncPeriod), nil
}

// uniformParams reads a uniform rotation with the period in hours and
// angles in degrees. A missing period is synchronous with the orbit.
func (f *Factory) uniformParams(h Properties, periodKey, meridianKey, epochKey, inclKey, nodeKey string, syncPeriod float64) (rotation.UniformParams, error) {
	var params rotation.UniformParams
	hours, ok, err := h.Number(periodKey)
	if err != nil {
		return params, err
	}
	params.Period = syncPeriod
	if ok {
		params.Period = hours / 24
	}
	if params.MeridianAngle, err = h.Angle(meridianKey, 0); err != nil {
		return params, err
	}
	if params.Epoch, err = h.Epoch(epochKey, f.Leap, astro.J2000); err != nil {
		return params, err
	}
	if params.Inclination, err = h.Angle(inclKey, 0); err != nil {
		return params, err
	}
	if params.AscendingNode, err = h.Angle(nodeKey, 0); err != nil {
		return params, err
	}
	return params, nil
}

func fixedRotation(h Properties) (quat.Number, error) {
	meridian, err := h.Angle("MeridianAngle", 0)
	if err != nil {
		return geom.Identity, err
	}
	incl, err := h.Angle("Inclination", 0)
	if err != nil {
		return geom.Identity, err
	}
	node, err := h.Angle("AscendingNode", 0)
	if err != nil {
		return geom.Identity, err
	}
	return geom.Mul(geom.ZRotation(node), geom.XRotation(incl), geom.ZRotation(meridian)), nil
}

func (f *Factory) sampledOrientation(h Properties) (rotation.Model, error) {
	toSamples := func(rows [][]float64) []rotation.OrientationSample {
		out := make([]rotation.OrientationSample, len(rows))
		for i, r := range rows {
			out[i] = rotation.OrientationSample{
				T: r[0],
				Q: geom.Normalize(quat.Number{Real: r[1], Imag: r[2], Jmag: r[3], Kmag: r[4]}),
			}
		}
		return out
	}

	if rows, ok, err := h.Rows("Samples", 5); err != nil {
		return nil, err
	} else if ok {
		return asModel(rotation.NewSampled(toSamples(rows)))
	}

	src, ok := h.String("Source")
	if !ok {
		return nil, fmt.Errorf("%w: SampledOrientation needs Source or Samples", ErrMissingProperty)
	}
	path := f.resolve(src)

	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.orientations[path]; ok {
		return s, nil
	}
	rows, err := readTable(path, 5)
	if err != nil {
		return nil, err
	}
	s, err := rotation.NewSampled(toSamples(rows))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	f.orientations[path] = s
	return s, nil
}

// asOrbit and asModel keep a failed constructor from yielding a non-nil
// interface holding a nil pointer.
func asOrbit[T orbit.Orbit](o T, err error) (orbit.Orbit, error) {
	if err != nil {
		return nil, err
	}
	return o, nil
}

func asModel[T rotation.Model](m T, err error) (rotation.Model, error) {
	if err != nil {
		return nil, err
	}
	return m, nil
}
