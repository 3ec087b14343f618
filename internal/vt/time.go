// Package vt models valid time: the period during which a fact is asserted
// true, as opposed to the transaction time at which it was recorded.
//
// A Time is an explicit optional instant with millisecond resolution. Absent
// means "the system decides at apply time" and is distinguishable from any
// present value at the type level.
package vt

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/cruxtx/internal/ir"
)

// Time is an optional valid-time instant. The zero value is absent.
type Time struct {
	ms      int64
	present bool
}

// None returns an absent Time.
func None() Time {
	return Time{}
}

// At returns a present Time for t, truncated to the millisecond.
func At(t time.Time) Time {
	return Time{ms: t.UnixMilli(), present: true}
}

// FromMillis returns a present Time for a Unix millisecond timestamp.
func FromMillis(ms int64) Time {
	return Time{ms: ms, present: true}
}

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) Time {
	return At(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Present reports whether t holds an instant.
func (t Time) Present() bool {
	return t.present
}

// Time returns the instant in UTC and whether it is present.
func (t Time) Time() (time.Time, bool) {
	if !t.present {
		return time.Time{}, false
	}
	return time.UnixMilli(t.ms).UTC(), true
}

// Millis returns the Unix millisecond timestamp and whether it is present.
func (t Time) Millis() (int64, bool) {
	return t.ms, t.present
}

// Compare orders t against o. Absent sorts before every present value.
func (t Time) Compare(o Time) int {
	switch {
	case !t.present && !o.present:
		return 0
	case !t.present:
		return -1
	case !o.present:
		return 1
	case t.ms < o.ms:
		return -1
	case t.ms > o.ms:
		return 1
	default:
		return 0
	}
}

// Before reports whether both are present and t is strictly earlier than o.
func (t Time) Before(o Time) bool {
	return t.present && o.present && t.ms < o.ms
}

// Equal reports whether t and o are both absent or the same instant.
func (t Time) Equal(o Time) bool {
	return t == o
}

// String renders the instant as RFC 3339 with milliseconds, or "-".
func (t Time) String() string {
	tm, ok := t.Time()
	if !ok {
		return "-"
	}
	return tm.Format("2006-01-02T15:04:05.000Z07:00")
}

// IR returns the wire form: an ir.IRInt of Unix milliseconds. The second
// result is false when t is absent and the field should be omitted.
func (t Time) IR() (ir.IRValue, bool) {
	if !t.present {
		return nil, false
	}
	return ir.IRInt(t.ms), true
}

// FromIR decodes a wire value. A nil value decodes to an absent Time.
func FromIR(v ir.IRValue) (Time, error) {
	switch val := v.(type) {
	case nil:
		return None(), nil
	case ir.IRInt:
		return FromMillis(int64(val)), nil
	default:
		return Time{}, fmt.Errorf("valid time must be integer milliseconds, got %T", v)
	}
}

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Parse reads an RFC 3339 timestamp or a bare date (midnight UTC). An empty
// string parses to an absent Time.
func Parse(s string) (Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return None(), nil
	}
	for _, layout := range parseLayouts {
		if tm, err := time.Parse(layout, s); err == nil {
			return At(tm), nil
		}
	}
	return Time{}, fmt.Errorf("invalid valid time %q: expected RFC 3339 or YYYY-MM-DD", s)
}
