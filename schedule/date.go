package schedule

import (
	"time"
)

// =============================================================================
// DATE - Day-granularity time abstraction (due dates are whole days)
// =============================================================================

// Date is a calendar day. The wall-clock portion is always normalized to
// midnight UTC so that two Dates compare equal iff they are the same day.
type Date struct {
	t time.Time
}

// NewDate builds a Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time.Time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.t.After(other.t) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.t.Before(other.t) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }

// Time returns the underlying midnight-UTC instant.
func (d Date) Time() time.Time { return d.t }

// At anchors a wall-clock hour/minute onto the day. Used to place calendar
// entry windows and notification fire times on a due date.
func (d Date) At(hour, minute int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}

func (d Date) String() string { return d.t.Format("2006-01-02") }

// MarshalText / UnmarshalText make Date usable directly in JSON and YAML.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	t, err := time.Parse("2006-01-02", string(b))
	if err != nil {
		return err
	}
	*d = DateOf(t)
	return nil
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// =============================================================================
// MONTH ARITHMETIC
// =============================================================================
//
// Month stepping deliberately works on (year, month) pairs instead of
// time.Time.AddDate: AddDate(0, 1, 0) on January 31 lands on March 3, which
// silently skips February. Candidate due dates are always rebuilt from the
// (year, month) pair plus a clamped day.

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampedDate builds a Date in the given month, substituting the last valid
// day when day exceeds the month's length (e.g. 31 in February).
func ClampedDate(year int, month time.Month, day int) Date {
	if max := DaysIn(year, month); day > max {
		day = max
	}
	return NewDate(year, month, day)
}

// AddMonths advances a (year, month) pair by n months.
func AddMonths(year int, month time.Month, n int) (int, time.Month) {
	m := int(month) - 1 + n
	return year + m/12, time.Month(m%12 + 1)
}

// MonthsBetween counts whole month steps from one (year, month) to another.
func MonthsBetween(fromYear int, fromMonth time.Month, toYear int, toMonth time.Month) int {
	return (toYear-fromYear)*12 + int(toMonth) - int(fromMonth)
}
