package layout

import (
	"time"

	"voicecal/internal/model"
)

// dayRange is an event range widened to whole days in the display location:
// start floored to 00:00:00.000, end ceiled to 23:59:59.999. Both the week
// filter and the column resolver use it, so they agree on every boundary.
type dayRange struct {
	start time.Time
	end   time.Time
}

func eventDayRange(ev model.CalendarEvent, loc *time.Location) dayRange {
	return dayRange{
		start: model.DateOf(ev.Start.In(loc)).StartOfDay(loc),
		end:   model.DateOf(ev.End.In(loc)).EndOfDay(loc),
	}
}

// overlaps is a closed-interval test: touching endpoints count.
func (r dayRange) overlaps(start, end time.Time) bool {
	return !r.start.After(end) && !r.end.Before(start)
}

func (r dayRange) contains(t time.Time) bool {
	return !t.Before(r.start) && !t.After(r.end)
}

func resolveLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

// EventsInWeek returns the events whose range intersects
// [weekStart 00:00:00, weekEnd 23:59:59.999], in input order.
func EventsInWeek(events []model.CalendarEvent, week WeekRow, loc *time.Location) []model.CalendarEvent {
	loc = resolveLocation(loc)
	weekStart := week.First().StartOfDay(loc)
	weekEnd := week.Last().EndOfDay(loc)

	out := make([]model.CalendarEvent, 0)
	for _, ev := range events {
		if eventDayRange(ev, loc).overlaps(weekStart, weekEnd) {
			out = append(out, ev)
		}
	}
	return out
}

// EventsOnDay returns the events covering the given date, checked at the
// date's midday.
func EventsOnDay(events []model.CalendarEvent, date model.CalendarDate, loc *time.Location) []model.CalendarEvent {
	loc = resolveLocation(loc)
	noon := date.Midday(loc)

	out := make([]model.CalendarEvent, 0)
	for _, ev := range events {
		if eventDayRange(ev, loc).contains(noon) {
			out = append(out, ev)
		}
	}
	return out
}
