package astro

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrDateSyntax is returned when a date string does not match any
	// accepted layout.
	ErrDateSyntax = errors.New("malformed date")
	// ErrDateRange is returned when a date field is outside its valid range.
	ErrDateRange = errors.New("date field out of range")
)

var monthAbbr = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Date is a calendar date and time of day. Dates before 1582 Oct 15 are in
// the Julian calendar, later dates in the Gregorian calendar.
type Date struct {
	Year    int
	Month   int
	Day     int
	Hour    int
	Minute  int
	Seconds float64
}

// NewDate returns midnight of the given calendar day.
func NewDate(year, month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

func isGregorian(year, month, day int) bool {
	return year > 1582 ||
		(year == 1582 && (month > 10 || (month == 10 && day >= 15)))
}

// JD converts the calendar date to a Julian date.
func (d Date) JD() float64 {
	y, m := d.Year, d.Month
	if m <= 2 {
		y--
		m += 12
	}

	// Ten days vanished in October 1582 at the Gregorian reform.
	b := -2
	if isGregorian(d.Year, d.Month, d.Day) {
		b = y/400 - y/100
	}

	return math.Floor(365.25*float64(y)) +
		math.Floor(30.6001*float64(m+1)) +
		float64(b) + 1720996.5 +
		float64(d.Day) +
		float64(d.Hour)/24.0 +
		float64(d.Minute)/1440.0 +
		d.Seconds/SecondsPerDay
}

// DateFromJD converts a Julian date to a calendar date.
func DateFromJD(jd float64) Date {
	a := int64(math.Floor(jd + 0.5))

	var c float64
	if a < 2299161 {
		c = float64(a + 1524)
	} else {
		b := math.Floor((float64(a) - 1867216.25) / 36524.25)
		c = float64(a) + b - math.Floor(b/4) + 1525
	}

	d := math.Floor((c - 122.1) / 365.25)
	e := math.Floor(365.25 * d)
	f := math.Floor((c - e) / 30.6001)

	dday := c - e - math.Floor(30.6001*f) + ((jd + 0.5) - float64(a))

	month := int(f) - 1 - 12*(int(f)/14)
	year := int(d) - 4715 - int((7.0+float64(month))/10.0)
	day := int(dday)

	dhour := (dday - float64(day)) * 24
	hour := int(dhour)
	dminute := (dhour - float64(hour)) * 60
	minute := int(dminute)

	return Date{
		Year:    year,
		Month:   month,
		Day:     day,
		Hour:    hour,
		Minute:  minute,
		Seconds: (dminute - float64(minute)) * 60,
	}
}

// DaysInMonth returns the number of days in the month, honoring the Julian
// leap year rule for years before the Gregorian reform.
func DaysInMonth(year, month int) int {
	switch month {
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 31
	}
}

func isLeapYear(year int) bool {
	if year%4 != 0 {
		return false
	}
	if year <= 1582 {
		return true
	}
	return year%100 != 0 || year%400 == 0
}

// Validate reports whether every field is inside its calendar range.
func (d Date) Validate() error {
	switch {
	case d.Month < 1 || d.Month > 12:
		return fmt.Errorf("%w: month %d", ErrDateRange, d.Month)
	case d.Day < 1 || d.Day > DaysInMonth(d.Year, d.Month):
		return fmt.Errorf("%w: day %d", ErrDateRange, d.Day)
	case d.Hour < 0 || d.Hour > 23:
		return fmt.Errorf("%w: hour %d", ErrDateRange, d.Hour)
	case d.Minute < 0 || d.Minute > 59:
		return fmt.Errorf("%w: minute %d", ErrDateRange, d.Minute)
	case d.Seconds < 0 || d.Seconds >= 60 || math.IsNaN(d.Seconds):
		return fmt.Errorf("%w: seconds %v", ErrDateRange, d.Seconds)
	}
	return nil
}

// String formats the date as "YYYY Mon DD HH:MM:SS".
func (d Date) String() string {
	m := "???"
	if d.Month >= 1 && d.Month <= 12 {
		m = monthAbbr[d.Month-1]
	}
	return fmt.Sprintf("%d %s %02d %02d:%02d:%02d", d.Year, m, d.Day, d.Hour, d.Minute, int(d.Seconds))
}

// ParseDate parses "YYYY-MM-DD", "YYYY-MM-DD HH:MM" or
// "YYYY-MM-DD HH:MM:SS[.fff]". The date and time may be separated by a
// space or a 'T', and the year may be negative. On failure the zero Date is
// returned with an error.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty string", ErrDateSyntax)
	}

	datePart, timePart := s, ""
	if i := strings.IndexAny(s, " T"); i >= 0 {
		datePart, timePart = s[:i], strings.TrimSpace(s[i+1:])
		if timePart == "" {
			return Date{}, fmt.Errorf("%w: %q has no time after the separator", ErrDateSyntax, s)
		}
	}

	negative := strings.HasPrefix(datePart, "-")
	if negative {
		datePart = datePart[1:]
	}
	ymd := strings.Split(datePart, "-")
	if len(ymd) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrDateSyntax, s)
	}

	var d Date
	var err error
	if d.Year, err = atoi(ymd[0]); err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrDateSyntax, s)
	}
	if negative {
		d.Year = -d.Year
	}
	if d.Month, err = atoi(ymd[1]); err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrDateSyntax, s)
	}
	if d.Day, err = atoi(ymd[2]); err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrDateSyntax, s)
	}

	if timePart != "" {
		hms := strings.Split(timePart, ":")
		if len(hms) < 2 || len(hms) > 3 {
			return Date{}, fmt.Errorf("%w: %q", ErrDateSyntax, s)
		}
		if d.Hour, err = atoi(hms[0]); err != nil {
			return Date{}, fmt.Errorf("%w: %q", ErrDateSyntax, s)
		}
		if d.Minute, err = atoi(hms[1]); err != nil {
			return Date{}, fmt.Errorf("%w: %q", ErrDateSyntax, s)
		}
		if len(hms) == 3 {
			if hms[2] == "" || strings.ContainsAny(hms[2], "+-eE") {
				return Date{}, fmt.Errorf("%w: %q", ErrDateSyntax, s)
			}
			if d.Seconds, err = strconv.ParseFloat(hms[2], 64); err != nil {
				return Date{}, fmt.Errorf("%w: %q", ErrDateSyntax, s)
			}
		}
	}

	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// atoi accepts only unsigned decimal digits.
func atoi(s string) (int, error) {
	if s == "" {
		return 0, ErrDateSyntax
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrDateSyntax
		}
	}
	return strconv.Atoi(s)
}

// DateFromTime converts a Go time to a calendar date in UTC.
func DateFromTime(t time.Time) Date {
	u := t.UTC()
	return Date{
		Year:    u.Year(),
		Month:   int(u.Month()),
		Day:     u.Day(),
		Hour:    u.Hour(),
		Minute:  u.Minute(),
		Seconds: float64(u.Second()) + float64(u.Nanosecond())/1e9,
	}
}

// Time converts the date to a Go time in UTC. A leap second (Seconds >= 60)
// rolls over into the next minute.
func (d Date) Time() time.Time {
	whole := math.Floor(d.Seconds)
	nanos := int(math.Round((d.Seconds - whole) * 1e9))
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, int(whole), nanos, time.UTC)
}
