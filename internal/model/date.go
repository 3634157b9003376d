package model

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// CalendarDate is a date without a time component. Grid dates are derived
// from the requested year/month on every render.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalizes out-of-range values the way time.Date does, so
// NewDate(2025, 12, 32) is 2026-01-01.
func NewDate(year int, month time.Month, day int) CalendarDate {
	return DateOf(time.Date(year, month, day, 12, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (CalendarDate, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// At returns the instant at the given hour of this date in loc.
func (d CalendarDate) At(loc *time.Location, hour int) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, hour, 0, 0, 0, loc)
}

// Midday is the instant used for day-membership tests. Noon is never
// skipped or repeated by DST transitions.
func (d CalendarDate) Midday(loc *time.Location) time.Time {
	return d.At(loc, 12)
}

// StartOfDay is the first instant of the date in loc. That is 00:00 except
// in zones where a DST transition skips midnight, where it is the
// transition instant (e.g. 01:00 in America/Santiago on 2022-09-11).
func (d CalendarDate) StartOfDay(loc *time.Location) time.Time {
	t := d.At(loc, 0)
	if DateOf(t).Before(d) {
		// time.Date resolved the skipped midnight with the previous
		// offset; the zone in effect at t ends where the date begins.
		if _, end := t.ZoneBounds(); !end.IsZero() {
			t = end
		}
	}
	return t
}

// EndOfDay is 23:59:59.999 of the date in loc.
func (d CalendarDate) EndOfDay(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 23, 59, 59, int(999*time.Millisecond), loc)
}

func (d CalendarDate) AddDays(n int) CalendarDate {
	return NewDate(d.Year, d.Month, d.Day+n)
}

func (d CalendarDate) Weekday() time.Weekday {
	return d.Midday(time.UTC).Weekday()
}

func (d CalendarDate) IsZero() bool {
	return d == CalendarDate{}
}

func (d CalendarDate) Equal(o CalendarDate) bool {
	return d == o
}

func (d CalendarDate) Before(o CalendarDate) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d CalendarDate) String() string {
	return d.Midday(time.UTC).Format(dateLayout)
}

func (d CalendarDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *CalendarDate) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
