package coord

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/astro"
)

func TestZeroValueIsOrigin(t *testing.T) {
	var u Universal
	if !u.Equal(Origin()) {
		t.Fatalf("zero Universal = %v, want origin", u)
	}
	if got := u.Add(NewUniversal(1, 2, 3)).Vec(); got != (r3.Vec{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("zero + (1,2,3) = %v", got)
	}
}

func TestHeliocentricRoundTrip(t *testing.T) {
	star := StarPosition{X: 4.37, Y: -1.2, Z: 250.5}
	helio := r3.Vec{X: 1.496e8, Y: -3.2e7, Z: 12.5}

	p := FromHeliocentric(helio, star)
	got := Heliocentric(p, star)
	if d := r3.Norm(r3.Sub(got, helio)); d > 1e-3 {
		t.Fatalf("Heliocentric(FromHeliocentric(v)) off by %v km", d)
	}

	// universal(helio(p, star)) == p
	back := FromHeliocentric(Heliocentric(p, star), star)
	if d := back.DistanceKm(p); d > 1e-3 {
		t.Fatalf("universal(helio(p)) off by %v km", d)
	}
}

func TestFixedPointKeepsSmallOffsetsFarAway(t *testing.T) {
	// 100,000 light-years from the origin a float64 micro-light-year
	// coordinate resolves only about 100 km.
	far := NewUniversal(1e11, -2e10, 3e10)
	near := far.OffsetKm(r3.Vec{X: 0.5, Y: -0.25})
	d := near.DifferenceKm(far)
	if math.Abs(d.X-0.5) > 1e-4 || math.Abs(d.Y+0.25) > 1e-4 || d.Z != 0 {
		t.Fatalf("DifferenceKm = %v, want (0.5, -0.25, 0)", d)
	}
}

func TestStarConversion(t *testing.T) {
	s := StarPosition{X: 1, Y: 2, Z: -3}
	u := FromStar(s)
	if got := u.Vec(); got != (r3.Vec{X: 1e6, Y: 2e6, Z: -3e6}) {
		t.Fatalf("FromStar = %v", got)
	}
	if got := u.Star(); got != s {
		t.Fatalf("Star() = %v, want %v", got, s)
	}
	if d := Heliocentric(u, s); d != (r3.Vec{}) {
		t.Fatalf("star relative to itself = %v, want zero", d)
	}
}

func TestUnitConversions(t *testing.T) {
	v := r3.Vec{X: astro.KmPerLightYear * 1e-6}
	if got := KmToUly(v); math.Abs(got.X-1) > 1e-12 {
		t.Fatalf("KmToUly(1 uly in km) = %v", got)
	}
	if got := UlyToKm(r3.Vec{Y: 2}); math.Abs(got.Y-2*astro.KmPerLightYear*1e-6) > 1e-6 {
		t.Fatalf("UlyToKm = %v", got)
	}
	if got := NewUniversal(math.NaN(), math.Inf(1), 0); !got.Equal(Origin()) {
		t.Fatalf("non-finite components = %v, want origin", got)
	}
}
