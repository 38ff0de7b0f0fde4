package value

import (
	"fmt"
	"time"
)

// Temporal is the shared behavior of DateTime/Date/Time/Duration
// values: string rendering plus the named-component accessor used by
// Property(src, key) evaluation (spec.md 4.2). Duration only supports
// the subset of accessors that make sense for a span (seconds,
// milliseconds, ...); anything else returns UnsupportedTemporalAccessor.
type Temporal interface {
	fmt.Stringer
	Component(name string) (Value, error)
}

// DateTime wraps a zoned instant. Date and Time reuse the same
// underlying representation (a time.Time, flagged by which calendar
// fields are meaningful) since Cypher's date/time/datetime/duration
// family shares component names.
type DateTime struct {
	T time.Time
}

func NewDateTime(t time.Time) DateTime { return DateTime{T: t} }

func (d DateTime) String() string { return d.T.Format(time.RFC3339Nano) }

// Component implements the full accessor set from spec.md 4.2:
// year, quarter, month, week (ISO-adjusted), day/dayOfYear/dayOfMonth,
// dayOfWeek, hour, minute, second, millisecond, microsecond,
// nanosecond, offset, epochSeconds, epochMillis.
func (d DateTime) Component(name string) (Value, error) {
	t := d.T
	switch name {
	case "year":
		return Int(int64(t.Year())), nil
	case "quarter":
		return Int(int64((int(t.Month())-1)/3 + 1)), nil
	case "month":
		return Int(int64(t.Month())), nil
	case "week":
		_, week := t.ISOWeek()
		return Int(int64(week)), nil
	case "day", "dayOfMonth":
		return Int(int64(t.Day())), nil
	case "dayOfYear":
		return Int(int64(t.YearDay())), nil
	case "dayOfWeek":
		// ISO-8601: Monday=1 .. Sunday=7
		wd := int(t.Weekday())
		if wd == 0 {
			wd = 7
		}
		return Int(int64(wd)), nil
	case "hour":
		return Int(int64(t.Hour())), nil
	case "minute":
		return Int(int64(t.Minute())), nil
	case "second":
		return Int(int64(t.Second())), nil
	case "millisecond":
		return Int(int64(t.Nanosecond() / 100000)), nil
	case "microsecond":
		return Int(int64(t.Nanosecond() / 100)), nil
	case "nanosecond":
		return Int(int64(t.Nanosecond())), nil
	case "offset":
		_, offset := t.Zone()
		return Str(formatOffset(offset)), nil
	case "epochSeconds":
		return Int(t.Unix()), nil
	case "epochMillis":
		return Int(t.UnixMilli()), nil
	default:
		return Null, unsupportedAccessor(name)
	}
}

func formatOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	return fmt.Sprintf("%s%02d:%02d", sign, h, m)
}

// Duration represents a span of time, supporting the accessor subset
// that applies to durations rather than instants.
type Duration struct {
	D time.Duration
}

func NewDuration(d time.Duration) Duration { return Duration{D: d} }

func (d Duration) String() string { return d.D.String() }

func (d Duration) Component(name string) (Value, error) {
	switch name {
	case "seconds", "epochSeconds":
		return Int(int64(d.D / time.Second)), nil
	case "milliseconds", "epochMillis":
		return Int(int64(d.D / time.Millisecond)), nil
	case "microseconds":
		return Int(int64(d.D / time.Microsecond)), nil
	case "nanoseconds":
		return Int(int64(d.D)), nil
	default:
		return Null, unsupportedAccessor(name)
	}
}

func unsupportedAccessor(name string) error {
	return &unsupportedTemporalAccessor{name: name}
}

type unsupportedTemporalAccessor struct{ name string }

func (e *unsupportedTemporalAccessor) Error() string {
	return fmt.Sprintf("unsupported temporal accessor %q", e.name)
}

func (e *unsupportedTemporalAccessor) AccessorName() string { return e.name }
