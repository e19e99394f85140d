package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orrery/astro"
)

// Properties is a definition hash as decoded from a scenario file. Keys
// are matched exactly; values are numbers, strings, booleans, lists or
// nested hashes.
type Properties map[string]any

// Has reports whether key is present.
func (p Properties) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Number returns a numeric value. ok is false when the key is absent; err
// is set when it is present but not a number.
func (p Properties) Number(key string) (v float64, ok bool, err error) {
	raw, ok := p[key]
	if !ok {
		return 0, false, nil
	}
	v, err = toFloat(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%w: %s: %v", ErrBadProperty, key, err)
	}
	return v, true, nil
}

// NumberOr returns the value of key or def when it is absent.
func (p Properties) NumberOr(key string, def float64) (float64, error) {
	v, ok, err := p.Number(key)
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

// RequireNumber is Number for mandatory keys.
func (p Properties) RequireNumber(key string) (float64, error) {
	v, ok, err := p.Number(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingProperty, key)
	}
	return v, nil
}

// String returns a string value.
func (p Properties) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

// Bool returns a boolean value, false when absent or not a boolean.
func (p Properties) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Hash returns a nested definition hash.
func (p Properties) Hash(key string) (Properties, bool, error) {
	raw, ok := p[key]
	if !ok {
		return nil, false, nil
	}
	h, err := toProperties(raw)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %s: %v", ErrBadProperty, key, err)
	}
	return h, true, nil
}

// Numbers returns a list of numbers.
func (p Properties) Numbers(key string) ([]float64, bool, error) {
	raw, ok := p[key]
	if !ok {
		return nil, false, nil
	}
	list, isList := raw.([]any)
	if !isList {
		return nil, true, fmt.Errorf("%w: %s: not a list", ErrBadProperty, key)
	}
	out := make([]float64, len(list))
	for i, item := range list {
		v, err := toFloat(item)
		if err != nil {
			return nil, true, fmt.Errorf("%w: %s[%d]: %v", ErrBadProperty, key, i, err)
		}
		out[i] = v
	}
	return out, true, nil
}

// Vector returns a three element list as a vector.
func (p Properties) Vector(key string) (r3.Vec, bool, error) {
	v, ok, err := p.Numbers(key)
	if err != nil || !ok {
		return r3.Vec{}, ok, err
	}
	if len(v) != 3 {
		return r3.Vec{}, true, fmt.Errorf("%w: %s: want 3 components, got %d", ErrBadProperty, key, len(v))
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, true, nil
}

// Rows returns a list of numeric rows, each at least width long.
func (p Properties) Rows(key string, width int) ([][]float64, bool, error) {
	raw, ok := p[key]
	if !ok {
		return nil, false, nil
	}
	list, isList := raw.([]any)
	if !isList {
		return nil, true, fmt.Errorf("%w: %s: not a list", ErrBadProperty, key)
	}
	rows := make([][]float64, 0, len(list))
	for i, item := range list {
		row := Properties{"row": item}
		v, _, err := row.Numbers("row")
		if err != nil {
			return nil, true, fmt.Errorf("%w: %s[%d]", ErrBadProperty, key, i)
		}
		if len(v) < width {
			return nil, true, fmt.Errorf("%w: %s[%d]: want %d values, got %d", ErrBadProperty, key, i, width, len(v))
		}
		rows = append(rows, v)
	}
	return rows, true, nil
}

// Epoch reads a date as a TDB Julian date. Numbers are taken as Julian
// dates; strings are parsed as UTC calendar dates.
func (p Properties) Epoch(key string, leap astro.LeapSecondTable, def float64) (float64, error) {
	raw, ok := p[key]
	if !ok {
		return def, nil
	}
	if s, isString := raw.(string); isString {
		d, err := astro.ParseDate(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrBadProperty, key, err)
		}
		return leap.UTCtoTDB(d), nil
	}
	return p.NumberOr(key, def)
}

// Angle reads degrees and returns radians.
func (p Properties) Angle(key string, defDeg float64) (float64, error) {
	v, err := p.NumberOr(key, defDeg)
	return astro.DegToRad(v), err
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		return f, nil
	}
	return 0, fmt.Errorf("not a number: %v", raw)
}

func toProperties(raw any) (Properties, error) {
	switch v := raw.(type) {
	case Properties:
		return v, nil
	case map[string]any:
		return Properties(v), nil
	case map[any]any:
		out := make(Properties, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = val
		}
		return out, nil
	}
	return nil, fmt.Errorf("not a hash: %v", raw)
}
