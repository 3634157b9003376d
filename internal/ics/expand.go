package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"voicecal/internal/layout"
	appLog "voicecal/internal/log"
	"voicecal/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone occurrences are converted to and in
	// which all-day dates are anchored. If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive time window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// Color is copied onto every produced event.
	Color string

	// MaxOccurrencesPerEvent is a safety cap to avoid infinite or extremely
	// large expansions. If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the expanded events and truncation info.
type ExpandResult struct {
	Events []model.CalendarEvent
	// TruncatedEvents records UIDs that hit the MaxOccurrencesPerEvent cap.
	TruncatedEvents []string
}

// Expand turns parsed VEVENTs into concrete calendar events within the
// configured range, handling RRULE, EXDATE, RECURRENCE-ID overrides and
// all-day semantics. The result is ordered by (Start, ID).
//
// All-day events are anchored at 00:00 in the display location and end at
// 23:59:59.999 of their last day: ICS DTEND is exclusive, while the month
// layout treats event ends as inclusive.
func Expand(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
		}
	}

	out := make([]model.CalendarEvent, 0)
	for uid, baseEvents := range baseByUID {
		ov := overridesByUID[uid]
		truncated := false

		for _, ev := range baseEvents {
			var evs []model.CalendarEvent
			if ev.RawRRule == "" {
				evs = expandSingle(ev, ov, cfg)
			} else {
				var hitCap bool
				evs, hitCap = expandRecurring(ev, ov, cfg)
				truncated = truncated || hitCap
			}
			out = append(out, evs...)
		}

		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Warn("expand: truncated occurrences for UID due to cap",
				"uid", uid,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	result.Events = layout.SortForLayout(out)
	return result, nil
}

func expandSingle(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.CalendarEvent {
	start, end := ev.Start, ev.End
	if o, ok := findOverride(overrides, start); ok {
		ev, start, end = o, o.Start, o.End
	}

	ce := toCalendarEvent(ev, start, end, false, cfg)
	if !overlapsRange(ce, cfg) {
		return nil
	}
	return []model.CalendarEvent{ce}
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.CalendarEvent, bool) {
	out := make([]model.CalendarEvent, 0)

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the lower bound by the event duration so occurrences that began
	// before the range but still run into it are kept.
	dur := ev.End.Sub(ev.Start)
	rangeStart := cfg.RangeStart.Add(-dur).In(ev.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Start.Location())

	occTimes := set.Between(rangeStart, rangeEnd, true)
	hitCap := false
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	for _, occStart := range occTimes {
		base, start, end := ev, occStart, occStart.Add(dur)
		if o, ok := findOverride(overrides, occStart); ok {
			base, start, end = o, o.Start, o.End
		}

		ce := toCalendarEvent(base, start, end, true, cfg)
		// Instance IDs stay keyed on the original occurrence start so an
		// override keeps the ID of the slot it replaces.
		ce.ID = instanceID(ev, occStart)
		if overlapsRange(ce, cfg) {
			out = append(out, ce)
		}
	}

	return out, hitCap
}

// findOverride finds an override whose RECURRENCE-ID equals occStart.
func findOverride(overrides []ParsedEvent, occStart time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(occStart) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

func toCalendarEvent(ev ParsedEvent, start, end time.Time, recurring bool, cfg ExpandConfig) model.CalendarEvent {
	loc := cfg.DisplayLocation

	if ev.AllDay {
		first := model.DateOf(start)
		last := first
		if ev.HasEnd {
			// DTEND of an all-day event is the day after the last day.
			if endDate := model.DateOf(end).AddDays(-1); first.Before(endDate) {
				last = endDate
			}
		}
		start = first.StartOfDay(loc)
		end = last.EndOfDay(loc)
	} else {
		start = start.In(loc)
		end = end.In(loc)
		if end.Before(start) {
			end = start
		}
	}

	ce := model.CalendarEvent{
		ID:          ev.Source.ID + ":" + ev.UID,
		Title:       ev.Summary,
		Start:       start,
		End:         end,
		Description: ev.Description,
		Color:       cfg.Color,
		SourceID:    ev.Source.ID,
	}
	if ce.Title == "" {
		ce.Title = "(no title)"
	}
	if recurring {
		ce.ID = instanceID(ev, start)
	}
	return ce
}

func instanceID(ev ParsedEvent, occStart time.Time) string {
	return ev.Source.ID + ":" + ev.UID + "@" + occStart.UTC().Format(time.RFC3339)
}

func overlapsRange(ev model.CalendarEvent, cfg ExpandConfig) bool {
	return !ev.End.Before(cfg.RangeStart) && !cfg.RangeEnd.Before(ev.Start)
}
