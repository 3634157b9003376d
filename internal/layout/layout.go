package layout

import (
	"sort"
	"time"

	"voicecal/internal/model"
)

// Engine lays out events for month views in a fixed display location.
// The zero value uses time.Local.
type Engine struct {
	loc *time.Location
}

// New creates an Engine that evaluates day boundaries in loc.
// If loc is nil, time.Local is used.
func New(loc *time.Location) *Engine {
	return &Engine{loc: resolveLocation(loc)}
}

// Location returns the display location used for day boundaries.
func (e *Engine) Location() *time.Location {
	return resolveLocation(e.loc)
}

// MonthView bundles the grid and the placements for one (year, month)
// request; it is what renderers and the HTTP API consume.
type MonthView struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Weeks []WeekRow  `json:"weeks"`

	Placements []model.EventPlacement `json:"placements"`
	// MaxLayers holds the highest layer per row (-1 for empty rows).
	MaxLayers [WeeksPerGrid]int `json:"max_layers"`
}

// LayoutMonth lays out events for a 0-based month using time.Local.
func LayoutMonth(events []model.CalendarEvent, year, month int) []model.EventPlacement {
	return New(time.Local).LayoutMonth(events, year, month)
}

// LayoutMonth returns one placement per (event, week row) overlap for the
// 42-day grid of the given 0-based month. Output is grouped by row, then
// by the input order of events within the row. Layers are assigned per row
// and never carry over between rows.
//
// Events are not sorted; callers wanting stable ordering across renders
// should pass them through SortForLayout first.
func (e *Engine) LayoutMonth(events []model.CalendarEvent, year, month int) []model.EventPlacement {
	weeks := mustWeeks(MonthGrid(year, month))
	return e.layoutWeeks(events, weeks)
}

// View is LayoutMonth plus the grid and per-row layer counts.
func (e *Engine) View(events []model.CalendarEvent, year, month int) MonthView {
	weeks := mustWeeks(MonthGrid(year, month))
	placements := e.layoutWeeks(events, weeks)

	first := firstOfMonth(year, month)
	view := MonthView{
		Year:       first.Year(),
		Month:      first.Month(),
		Weeks:      weeks,
		Placements: placements,
	}
	for row := range view.MaxLayers {
		view.MaxLayers[row] = MaxLayer(placements, row)
	}
	return view
}

func (e *Engine) layoutWeeks(events []model.CalendarEvent, weeks []WeekRow) []model.EventPlacement {
	loc := e.Location()
	out := make([]model.EventPlacement, 0)

	for row, week := range weeks {
		inWeek := EventsInWeek(events, week, loc)
		rowPlacements := make([]model.EventPlacement, 0, len(inWeek))
		for _, ev := range inWeek {
			p, ok := place(ev, row, week, loc)
			if !ok {
				continue
			}
			rowPlacements = append(rowPlacements, p)
		}
		AssignLayers(rowPlacements)
		out = append(out, rowPlacements...)
	}
	return out
}

// mustWeeks partitions a grid produced by MonthGrid, which always has 42
// cells.
func mustWeeks(dates []model.CalendarDate) []WeekRow {
	weeks, err := Weeks(dates)
	if err != nil {
		panic(err)
	}
	return weeks
}

// SortForLayout returns a copy of events ordered by (Start, ID).
func SortForLayout(events []model.CalendarEvent) []model.CalendarEvent {
	out := make([]model.CalendarEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
