// Package convx holds the small coercion helpers used when turning loosely typed
// configuration values (environment variables, .env files) into Go values.
package convx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
)

// ErrUnsupportedType is returned when a value has no known conversion.
var ErrUnsupportedType = errors.New("unsupported type")

// AsInt parses text as a base 10 integer, ignoring surrounding whitespace.
func AsInt(text string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("unable to interpret %q as integer: %w", text, err)
	}
	return v, nil
}

// AsIntPtr is AsInt for optional values: a nil input yields a nil result.
func AsIntPtr(text *string) (*int, error) {
	if text == nil {
		return nil, nil
	}
	v, err := AsInt(*text)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// AsBool interprets common spellings of a boolean.
// Accepted (case-insensitive, trimmed): true/yes/on/y/t/1 and false/no/off/n/f/0.
func AsBool(text string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true", "yes", "on", "y", "t", "1":
		return true, nil
	case "false", "no", "off", "n", "f", "0":
		return false, nil
	}
	return false, fmt.Errorf("unable to interpret %q as boolean", text)
}

// ToDateTime normalizes date-like values to a time.Time.
// A time.Time is returned unmodified, a strfmt.Date becomes midnight of that day.
func ToDateTime(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case *time.Time:
		if val != nil {
			return *val, nil
		}
	case strfmt.DateTime:
		return time.Time(val), nil
	case strfmt.Date:
		t := time.Time(val)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), nil
	}
	return time.Time{}, fmt.Errorf("expected date, got %T: %w", v, ErrUnsupportedType)
}

// Seconds converts d to fractional seconds.
func Seconds(d time.Duration) float64 {
	return d.Seconds()
}

// TimeDifference returns later - earlier in whole seconds.
// Sub-second parts of both times are discarded before subtracting.
func TimeDifference(later, earlier time.Time) int {
	return int(later.Unix() - earlier.Unix())
}

// Ceil rounds t up to the next whole second. Times already on a second boundary are unchanged.
func Ceil(t time.Time) time.Time {
	if t.Nanosecond() == 0 {
		return t
	}
	return t.Add(time.Duration(int(time.Second) - t.Nanosecond()))
}

// SubConfig returns the entries of config whose key starts with prefix, with the prefix removed.
func SubConfig[V any](config map[string]V, prefix string) map[string]V {
	sub := make(map[string]V)
	for key, value := range config {
		if rest, ok := strings.CutPrefix(key, prefix); ok {
			sub[rest] = value
		}
	}
	return sub
}
