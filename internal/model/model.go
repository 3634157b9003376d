package model

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyID        = errors.New("event id is empty")
	ErrEmptyTitle     = errors.New("event title is empty")
	ErrEndBeforeStart = errors.New("event end is before start")
)

// CalendarEvent is a single event as shown on the month grid. Events are
// created and updated by the application layer (API, events file, ICS feeds);
// the layout engine only reads them.
type CalendarEvent struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`

	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`

	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Color is a CSS color used only by renderers.
	Color string `yaml:"color,omitempty" json:"color,omitempty"`

	// SourceID is empty for locally created events and carries the ICS
	// source ID for feed-imported ones.
	SourceID string `yaml:"-" json:"source_id,omitempty"`
}

// Validate checks the invariants callers must hold before handing events to
// the layout engine. The engine itself never corrects malformed events.
func (e CalendarEvent) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if e.End.Before(e.Start) {
		return ErrEndBeforeStart
	}
	return nil
}

// EventPlacement is the computed position of one event inside one week row.
// An event spanning N week rows yields N placements.
type EventPlacement struct {
	Event CalendarEvent `json:"event"`

	Row      int `json:"row"`
	StartCol int `json:"start_col"`
	Span     int `json:"span"`
	Layer    int `json:"layer"`

	// ContinuesBefore is set when the event covers days before StartCol
	// (i.e. it started in an earlier row). Renderers square off the left edge.
	ContinuesBefore bool `json:"continues_before"`
	// ContinuesAfter is set when the event covers days after the last
	// column of this placement.
	ContinuesAfter bool `json:"continues_after"`
	// DayIndex is the 1-based day number of the event at StartCol.
	DayIndex int `json:"day_index"`
}

// EndCol is the last column covered by the placement.
func (p EventPlacement) EndCol() int {
	return p.StartCol + p.Span - 1
}
