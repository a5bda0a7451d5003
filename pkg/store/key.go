package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Delimiter joins the segments of a multi-segment key.
const Delimiter = "."

// Key is the canonical form of a store key.
//
// A plain string is already canonical, so untyped string constants can be
// passed wherever a Key is expected:
//
//	s.Get("user.name")
//
// Multi-segment keys are built with Path. Path("user", "name") and
// "user.name" address the same entry. A segment that itself contains the
// delimiter is not escaped and collides with the equivalent multi-segment
// key.
type Key string

// NoKey is the zero Key. Subscribe and Unsubscribe treat it as "no key
// assigned yet" and do nothing.
const NoKey Key = ""

// Path builds a Key from ordered segments joined with Delimiter.
//
// Strings are used as-is, integers are written in base 10, floats use the
// shortest representation that round-trips (2.0 becomes "2", 1.5 becomes
// "1.5"), in exponent form below 1e-6 or from 1e21 up ("1e-7", "1e+21").
// fmt.Stringer values use their String method and anything else
// is formatted with fmt.Sprint.
func Path(segments ...any) Key {
	switch len(segments) {
	case 0:
		return NoKey
	case 1:
		return Key(segment(segments[0]))
	}

	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = segment(seg)
	}
	return Key(strings.Join(parts, Delimiter))
}

// Segments splits k on Delimiter.
func (k Key) Segments() []string {
	if k == NoKey {
		return nil
	}
	return strings.Split(string(k), Delimiter)
}

// Child returns k extended by the given segments.
func (k Key) Child(segments ...any) Key {
	if len(segments) == 0 {
		return k
	}
	child := Path(segments...)
	if k == NoKey {
		return child
	}
	return k + Delimiter + child
}

// String returns the canonical form.
func (k Key) String() string {
	return string(k)
}

func segment(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case Key:
		return string(s)
	case int:
		return strconv.Itoa(s)
	case int8:
		return strconv.FormatInt(int64(s), 10)
	case int16:
		return strconv.FormatInt(int64(s), 10)
	case int32:
		return strconv.FormatInt(int64(s), 10)
	case int64:
		return strconv.FormatInt(s, 10)
	case uint:
		return strconv.FormatUint(uint64(s), 10)
	case uint8:
		return strconv.FormatUint(uint64(s), 10)
	case uint16:
		return strconv.FormatUint(uint64(s), 10)
	case uint32:
		return strconv.FormatUint(uint64(s), 10)
	case uint64:
		return strconv.FormatUint(s, 10)
	case float32:
		return formatFloat(float64(s), 32)
	case float64:
		return formatFloat(s, 64)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

// formatFloat prints f the way JavaScript's Number#toString does.
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	if abs := math.Abs(f); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, bitSize)
	}

	// Go pads the exponent to two digits: 1e-07.
	s := strconv.FormatFloat(f, 'e', -1, bitSize)
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}
