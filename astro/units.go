// Package astro holds the time and unit machinery shared by every orbit,
// rotation model and frame: Julian dates, calendar dates, the UTC, TAI, TT
// and TDB time scales, unit conversions and the Kepler equation solver.
package astro

import "math"

const (
	// J2000 is the Julian date of the J2000.0 epoch (2000 Jan 1 12:00 TT).
	J2000 = 2451545.0

	SecondsPerDay   = 86400.0
	DaysPerYear     = 365.25
	DaysPerCentury  = 36525.0
	KmPerLightYear  = 9460730472580.8
	KmPerAU         = 149597870.7
	LightYearsPerPC = 3.26167

	// J2000Obliquity is the obliquity of the ecliptic at J2000, in radians.
	J2000Obliquity = 23.4392911 * math.Pi / 180.0

	// SolarAbsMag is the absolute visual magnitude of the Sun.
	SolarAbsMag = 4.83
	lnMag       = 1.085736204758129569 // 2.5 / ln(10)
)

func DegToRad(d float64) float64 { return d * math.Pi / 180.0 }
func RadToDeg(r float64) float64 { return r * 180.0 / math.Pi }

func SecsToDays(s float64) float64 { return s / SecondsPerDay }
func DaysToSecs(d float64) float64 { return d * SecondsPerDay }

func LightYearsToKm(ly float64) float64 { return ly * KmPerLightYear }
func KmToLightYears(km float64) float64 { return km / KmPerLightYear }

// MicroLightYearsToKm converts the universal coordinate unit to kilometers.
func MicroLightYearsToKm(uly float64) float64 { return uly * (KmPerLightYear * 1e-6) }

// KmToMicroLightYears converts kilometers to the universal coordinate unit.
func KmToMicroLightYears(km float64) float64 { return km / (KmPerLightYear * 1e-6) }

func AUToKm(au float64) float64 { return au * KmPerAU }
func KmToAU(km float64) float64 { return km / KmPerAU }

// AbsToAppMag returns the apparent magnitude of an object with absolute
// magnitude absMag seen from lyrs light years away.
func AbsToAppMag(absMag, lyrs float64) float64 {
	return absMag - 5 + 5*math.Log10(lyrs/LightYearsPerPC)
}

// AppToAbsMag is the inverse of AbsToAppMag.
func AppToAbsMag(appMag, lyrs float64) float64 {
	return appMag + 5 - 5*math.Log10(lyrs/LightYearsPerPC)
}

// LuminosityToAbsMag converts a luminosity in solar units to an absolute magnitude.
func LuminosityToAbsMag(lum float64) float64 {
	return SolarAbsMag - math.Log(lum)*lnMag
}

// AbsMagToLuminosity converts an absolute magnitude to solar luminosities.
func AbsMagToLuminosity(mag float64) float64 {
	return math.Exp((SolarAbsMag - mag) / lnMag)
}

// SphericalToCartesian converts longitude and latitude (radians) and a
// distance into a z-up cartesian vector.
func SphericalToCartesian(lon, lat, dist float64) (x, y, z float64) {
	cl := math.Cos(lat)
	return dist * cl * math.Cos(lon), dist * cl * math.Sin(lon), dist * math.Sin(lat)
}

// CartesianToSpherical is the inverse of SphericalToCartesian. The origin
// maps to zero angles and distance.
func CartesianToSpherical(x, y, z float64) (lon, lat, dist float64) {
	dist = math.Sqrt(x*x + y*y + z*z)
	if dist == 0 {
		return 0, 0, 0
	}
	return math.Atan2(y, x), math.Asin(z / dist), dist
}

// EquatorialToEcliptic rotates J2000 equatorial cartesian coordinates into
// the J2000 ecliptic.
func EquatorialToEcliptic(x, y, z float64) (float64, float64, float64) {
	s, c := math.Sincos(J2000Obliquity)
	return x, c*y + s*z, -s*y + c*z
}

// EclipticToEquatorial rotates J2000 ecliptic cartesian coordinates into the
// J2000 equator.
func EclipticToEquatorial(x, y, z float64) (float64, float64, float64) {
	s, c := math.Sincos(J2000Obliquity)
	return x, c*y - s*z, s*y + c*z
}

// EquatorialToCartesian converts right ascension (hours), declination
// (degrees) and distance into ecliptic cartesian coordinates.
func EquatorialToCartesian(raHours, decDeg, dist float64) (float64, float64, float64) {
	x, y, z := SphericalToCartesian(DegToRad(raHours*15), DegToRad(decDeg), dist)
	return EquatorialToEcliptic(x, y, z)
}
