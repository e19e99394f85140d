package astro

import "math"

// TTMinusTAI is the fixed offset between Terrestrial Time and TAI, in seconds.
const TTMinusTAI = 32.184

// Coefficients of the periodic TT to TDB correction.
const (
	tdbK  = 1.657e-3
	tdbEB = 1.671e-2
	tdbM0 = 6.239996
	tdbM1 = 1.99096871e-7
)

// LeapSecond records the cumulative TAI-UTC offset in effect from the UTC
// midnight at JD onward.
type LeapSecond struct {
	Offset float64 // TAI-UTC in seconds
	JD     float64
}

// LeapSecondTable converts between UTC and TAI. It is immutable once built.
type LeapSecondTable struct {
	preOffset float64
	entries   []LeapSecond
}

var defaultLeapSeconds = []LeapSecond{
	{10, 2441317.5}, // 1 Jan 1972
	{11, 2441499.5}, // 1 Jul 1972
	{12, 2441683.5}, // 1 Jan 1973
	{13, 2442048.5}, // 1 Jan 1974
	{14, 2442413.5}, // 1 Jan 1975
	{15, 2442778.5}, // 1 Jan 1976
	{16, 2443144.5}, // 1 Jan 1977
	{17, 2443509.5}, // 1 Jan 1978
	{18, 2443874.5}, // 1 Jan 1979
	{19, 2444239.5}, // 1 Jan 1980
	{20, 2444786.5}, // 1 Jul 1981
	{21, 2445151.5}, // 1 Jul 1982
	{22, 2445516.5}, // 1 Jul 1983
	{23, 2446247.5}, // 1 Jul 1985
	{24, 2447161.5}, // 1 Jan 1988
	{25, 2447892.5}, // 1 Jan 1990
	{26, 2448257.5}, // 1 Jan 1991
	{27, 2448804.5}, // 1 Jul 1992
	{28, 2449169.5}, // 1 Jul 1993
	{29, 2449534.5}, // 1 Jul 1994
	{30, 2450083.5}, // 1 Jan 1996
	{31, 2450630.5}, // 1 Jul 1997
	{32, 2451179.5}, // 1 Jan 1999
	{33, 2453736.5}, // 1 Jan 2006
	{34, 2454832.5}, // 1 Jan 2009
	{35, 2456109.5}, // 1 Jul 2012
	{36, 2457204.5}, // 1 Jul 2015
	{37, 2457754.5}, // 1 Jan 2017
}

// DefaultLeapSeconds returns the table of leap seconds from 1972 through
// 2017. Dates before the table use a 9 second offset.
func DefaultLeapSeconds() LeapSecondTable {
	return NewLeapSecondTable(9, defaultLeapSeconds)
}

// NewLeapSecondTable builds a table from entries sorted by JD with
// non-decreasing offsets. preOffset applies before the first entry.
func NewLeapSecondTable(preOffset float64, entries []LeapSecond) LeapSecondTable {
	cp := make([]LeapSecond, len(entries))
	copy(cp, entries)
	return LeapSecondTable{preOffset: preOffset, entries: cp}
}

// Entries returns a copy of the table entries.
func (t LeapSecondTable) Entries() []LeapSecond {
	cp := make([]LeapSecond, len(t.entries))
	copy(cp, t.entries)
	return cp
}

// OffsetAt returns TAI-UTC in effect on the UTC calendar day starting at
// dayJD. After the last entry the last offset is extrapolated.
func (t LeapSecondTable) OffsetAt(dayJD float64) float64 {
	off := t.preOffset
	for _, e := range t.entries {
		if e.JD > dayJD {
			break
		}
		off = e.Offset
	}
	return off
}

// UTCtoTAI converts a UTC calendar date to a TAI Julian date. The offset is
// chosen by the calendar day, so a leap second written as 23:59:60 belongs
// to the day before the table entry.
func (t LeapSecondTable) UTCtoTAI(utc Date) float64 {
	dayJD := NewDate(utc.Year, utc.Month, utc.Day).JD()
	dAT := t.OffsetAt(dayJD)
	secs := float64(utc.Hour)*3600 + float64(utc.Minute)*60 + utc.Seconds + dAT
	return dayJD + SecsToDays(secs)
}

// TAItoUTC converts a TAI Julian date to a UTC calendar date. Instants
// inside an inserted leap second have Seconds >= 60.
func (t LeapSecondTable) TAItoUTC(tai float64) Date {
	dAT := t.preOffset
	extra := 0.0

	for i := len(t.entries) - 1; i >= 0; i-- {
		e := t.entries[i]
		prev := t.preOffset
		if i > 0 {
			prev = t.entries[i-1].Offset
		}
		if tai-SecsToDays(e.Offset) >= e.JD {
			dAT = e.Offset
			break
		}
		if tai-SecsToDays(prev) >= e.JD {
			dAT = e.Offset
			extra = e.Offset - prev
			break
		}
	}

	d := DateFromJD(tai - SecsToDays(dAT))
	d.Seconds += extra
	return d
}

// UTCtoTT converts a UTC calendar date to a TT Julian date.
func (t LeapSecondTable) UTCtoTT(utc Date) float64 {
	return TAItoTT(t.UTCtoTAI(utc))
}

// UTCtoTDB converts a UTC calendar date to a TDB Julian date.
func (t LeapSecondTable) UTCtoTDB(utc Date) float64 {
	return TTtoTDB(TAItoTT(t.UTCtoTAI(utc)))
}

// TTtoUTC converts a TT Julian date to a UTC calendar date.
func (t LeapSecondTable) TTtoUTC(tt float64) Date {
	return t.TAItoUTC(TTtoTAI(tt))
}

// TDBtoUTC converts a TDB Julian date to a UTC calendar date.
func (t LeapSecondTable) TDBtoUTC(tdb float64) Date {
	return t.TAItoUTC(TTtoTAI(TDBtoTT(tdb)))
}

func TAItoTT(tai float64) float64 { return tai + SecsToDays(TTMinusTAI) }
func TTtoTAI(tt float64) float64  { return tt - SecsToDays(TTMinusTAI) }

// tdbCorrection returns TDB-TT in days, using Earth's approximate mean
// anomaly at jd.
func tdbCorrection(jd float64) float64 {
	t := DaysToSecs(jd - J2000)
	g := tdbM0 + tdbM1*t
	e := g + tdbEB*math.Sin(g)
	return SecsToDays(tdbK * math.Sin(e))
}

// TTtoTDB applies the periodic TDB correction to a TT Julian date.
func TTtoTDB(tt float64) float64 { return tt + tdbCorrection(tt) }

// TDBtoTT removes the periodic TDB correction. The correction is evaluated
// at the TDB instant, which differs from TT by under 2 ms.
func TDBtoTT(tdb float64) float64 { return tdb - tdbCorrection(tdb) }
