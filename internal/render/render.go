// Package render draws a layout.MonthView as an HTML page (served at
// /calendar and captured to PNG) or as a terminal grid.
package render

import (
	"strconv"
	"time"

	"voicecal/internal/layout"
	"voicecal/internal/model"
)

const defaultColor = "#3b82f6"

// Options controls presentation only; placement is already decided by the
// layout engine.
type Options struct {
	// Location formats event times. Nil means time.Local.
	Location *time.Location
	// Today is highlighted when it falls inside the grid. Zero means none.
	Today model.CalendarDate
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

var weekdayLabels = [layout.DaysPerWeek]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

type cellData struct {
	Day     int
	InMonth bool
	Today   bool
	Weekend bool
}

type barData struct {
	Title    string
	Time     string
	Color    string
	Col      int // 1-based CSS grid column
	Span     int
	GridRow  int // 1-based; row 1 holds the day numbers
	Layer    int
	Before   bool
	After    bool
	DayIndex int
	EventID  string
	Tooltip  string
	startCol int
}

type rowData struct {
	Cells  [layout.DaysPerWeek]cellData
	Bars   []barData
	Layers int
}

type monthData struct {
	Title    string
	Weekdays [layout.DaysPerWeek]string
	Rows     []rowData
}

func buildMonth(view layout.MonthView, opts Options) monthData {
	loc := opts.location()
	data := monthData{
		Title:    view.Month.String() + " " + strconv.Itoa(view.Year),
		Weekdays: weekdayLabels,
		Rows:     make([]rowData, len(view.Weeks)),
	}

	for r, week := range view.Weeks {
		row := &data.Rows[r]
		for c, d := range week {
			row.Cells[c] = cellData{
				Day:     d.Day,
				InMonth: d.Year == view.Year && d.Month == view.Month,
				Today:   !opts.Today.IsZero() && d.Equal(opts.Today),
				Weekend: c == 0 || c == layout.DaysPerWeek-1,
			}
		}
		if r < len(view.MaxLayers) {
			row.Layers = view.MaxLayers[r] + 1
		}
	}

	for _, p := range view.Placements {
		if p.Row < 0 || p.Row >= len(data.Rows) {
			continue
		}
		color := p.Event.Color
		if color == "" {
			color = defaultColor
		}
		b := barData{
			Title:    p.Event.Title,
			Color:    color,
			Col:      p.StartCol + 1,
			Span:     p.Span,
			GridRow:  p.Layer + 2,
			Layer:    p.Layer,
			Before:   p.ContinuesBefore,
			After:    p.ContinuesAfter,
			DayIndex: p.DayIndex,
			EventID:  p.Event.ID,
			Tooltip:  p.Event.Description,
			startCol: p.StartCol,
		}
		if !p.ContinuesBefore && !isAllDay(p.Event, loc) {
			b.Time = p.Event.Start.In(loc).Format("15:04")
		}
		data.Rows[p.Row].Bars = append(data.Rows[p.Row].Bars, b)
	}
	return data
}

// isAllDay reports whether ev covers whole days in loc, which is how ICS
// all-day events and date-only API events are stored.
func isAllDay(ev model.CalendarEvent, loc *time.Location) bool {
	start := ev.Start.In(loc)
	end := ev.End.In(loc)
	return start.Equal(model.DateOf(start).StartOfDay(loc)) && end.Equal(model.DateOf(end).EndOfDay(loc))
}
