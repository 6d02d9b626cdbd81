// Package timeseries provides day-granularity dates and sparse daily value
// series with last-known-value carry-forward. Both the portfolio
// reconstruction walk and the benchmark alignment use the same carry-forward
// primitive, so the logic lives here exactly once.
package timeseries

import (
	"fmt"
	"time"
)

// DateFormat is the canonical string representation of a Date.
const DateFormat = "2006-01-02"

// Date is a calendar day. The zero value is the zero date.
// Dates are comparable with == and ordered with Before/After.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate returns a normalized Date for the given year, month and day.
// Out-of-range components roll over the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	y, m, d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Date()
	return Date{year: y, month: m, day: d}
}

// DateOf truncates a time.Time to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{year: y, month: m, day: d}
}

// Today returns the current UTC calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a date in 2006-01-02 form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Year returns the year.
func (d Date) Year() int { return d.year }

// Month returns the month.
func (d Date) Month() time.Month { return d.month }

// Day returns the day of the month.
func (d Date) Day() int { return d.day }

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool { return d.year == 0 && d.month == 0 && d.day == 0 }

// Time returns the canonical time for the day: midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as 2006-01-02.
func (d Date) String() string { return d.Time().Format(DateFormat) }

// Before reports whether d is before x.
func (d Date) Before(x Date) bool { return d.Time().Before(x.Time()) }

// After reports whether d is after x.
func (d Date) After(x Date) bool { return d.Time().After(x.Time()) }

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after x.
func (d Date) Compare(x Date) int {
	switch {
	case d.Before(x):
		return -1
	case d.After(x):
		return 1
	default:
		return 0
	}
}

// Add returns the date days calendar days after d (or before, if negative).
func (d Date) Add(days int) Date {
	return NewDate(d.year, d.month, d.day+days)
}

// MarshalJSON encodes the date as a "2006-01-02" JSON string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "2006-01-02" JSON string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date literal %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns the number of calendar days from start to end.
// Zero when the dates are equal, negative when end is before start.
func DaysBetween(start, end Date) int {
	return int(end.Time().Sub(start.Time()).Hours() / 24)
}

// MinDate returns the earlier of a and b.
func MinDate(a, b Date) Date {
	if b.Before(a) {
		return b
	}
	return a
}

// Range returns every calendar day from start to end inclusive, in ascending
// order. The result is empty when end is before start.
func Range(start, end Date) []Date {
	if end.Before(start) {
		return nil
	}
	days := make([]Date, 0, DaysBetween(start, end)+1)
	for day := start; !day.After(end); day = day.Add(1) {
		days = append(days, day)
	}
	return days
}
