// Package layout places calendar events on a 6x7 month grid.
//
// For every week row of a month view it decides which column each event
// starts in, how many columns it spans, and which vertical layer it
// occupies so that overlapping bars never collide. Weeks start on Sunday.
//
// All functions are pure: they allocate per call, never mutate their
// inputs and are safe for concurrent use.
package layout

import (
	"errors"
	"fmt"
	"time"

	"voicecal/internal/model"
)

const (
	DaysPerWeek   = 7
	WeeksPerGrid  = 6
	GridCellCount = DaysPerWeek * WeeksPerGrid
)

// ErrInvalidGridSize is returned by Weeks when the date sequence cannot be
// split into whole weeks. It indicates a bug in the grid builder.
var ErrInvalidGridSize = errors.New("layout: grid size is not a multiple of 7")

// WeekRow is one row of the month grid; index 0 is Sunday.
type WeekRow [DaysPerWeek]model.CalendarDate

func (w WeekRow) First() model.CalendarDate { return w[0] }
func (w WeekRow) Last() model.CalendarDate  { return w[DaysPerWeek-1] }

// firstOfMonth takes a 0-based month and lets time.Date normalize overflow
// (-1 is December of the previous year, 12 is January of the next).
func firstOfMonth(year, month int) time.Time {
	return time.Date(year, time.Month(month+1), 1, 12, 0, 0, 0, time.UTC)
}

// LeadDays is the number of previous-month days shown before day 1.
func LeadDays(year, month int) int {
	return int(firstOfMonth(year, month).Weekday())
}

// DaysInMonth is the day-of-month of "day 0 of the next month".
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month+2), 0, 12, 0, 0, 0, time.UTC).Day()
}

// MonthGrid returns the 42 dates of the month view for a 0-based month:
// trailing days of the previous month, every day of the month, then
// leading days of the next month.
func MonthGrid(year, month int) []model.CalendarDate {
	first := model.DateOf(firstOfMonth(year, month))
	lead := LeadDays(year, month)
	days := DaysInMonth(year, month)

	dates := make([]model.CalendarDate, 0, GridCellCount)
	for i := lead; i > 0; i-- {
		dates = append(dates, first.AddDays(-i))
	}
	for i := 0; i < days; i++ {
		dates = append(dates, first.AddDays(i))
	}
	for i := 0; len(dates) < GridCellCount; i++ {
		dates = append(dates, first.AddDays(days+i))
	}
	return dates
}

// Weeks slices a date sequence into rows of seven.
func Weeks(dates []model.CalendarDate) ([]WeekRow, error) {
	if len(dates)%DaysPerWeek != 0 {
		return nil, fmt.Errorf("%w: got %d dates", ErrInvalidGridSize, len(dates))
	}
	weeks := make([]WeekRow, 0, len(dates)/DaysPerWeek)
	for i := 0; i < len(dates); i += DaysPerWeek {
		var w WeekRow
		copy(w[:], dates[i:i+DaysPerWeek])
		weeks = append(weeks, w)
	}
	return weeks, nil
}
