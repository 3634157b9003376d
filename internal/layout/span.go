package layout

import (
	"time"

	"voicecal/internal/model"
)

// ResolveColumns finds the first and last weekday columns of week whose
// midday falls inside the event's day range. ok is false when no day
// qualifies; callers must skip the (event, week) pair in that case.
func ResolveColumns(ev model.CalendarEvent, week WeekRow, loc *time.Location) (startCol, endCol int, ok bool) {
	loc = resolveLocation(loc)
	r := eventDayRange(ev, loc)

	startCol, endCol = -1, -1
	for col, day := range week {
		if !r.contains(day.Midday(loc)) {
			continue
		}
		if startCol == -1 {
			startCol = col
		}
		endCol = col
	}
	if startCol == -1 {
		return 0, 0, false
	}
	return startCol, endCol, true
}

// place builds the layer-less placement of ev in row, or ok=false.
func place(ev model.CalendarEvent, row int, week WeekRow, loc *time.Location) (model.EventPlacement, bool) {
	startCol, endCol, ok := ResolveColumns(ev, week, loc)
	if !ok {
		return model.EventPlacement{}, false
	}

	evStart := model.DateOf(ev.Start.In(loc))
	evEnd := model.DateOf(ev.End.In(loc))
	first := week[startCol]
	last := week[endCol]

	return model.EventPlacement{
		Event:           ev,
		Row:             row,
		StartCol:        startCol,
		Span:            endCol - startCol + 1,
		ContinuesBefore: evStart.Before(first),
		ContinuesAfter:  last.Before(evEnd),
		DayIndex:        daysBetween(evStart, first) + 1,
	}, true
}

func daysBetween(from, to model.CalendarDate) int {
	// Noon-to-noon in UTC is always a whole number of 24h days.
	return int(to.Midday(time.UTC).Sub(from.Midday(time.UTC)) / (24 * time.Hour))
}
