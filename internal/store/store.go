// Package store keeps the in-memory set of calendar events the month view is
// built from: locally created events (API or events file) and events
// imported from ICS feeds, grouped by source.
package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"voicecal/internal/layout"
	"voicecal/internal/model"
)

var (
	ErrNotFound  = errors.New("event not found")
	ErrDuplicate = errors.New("event id already exists")
)

// Store is safe for concurrent use. Readers get copies, never views into
// internal state, so layouts always run on an immutable snapshot.
type Store struct {
	mu sync.RWMutex

	local map[string]model.CalendarEvent
	// fileIDs tracks which local events came from the events file so a
	// reload can replace them without touching API-created events.
	fileIDs map[string]struct{}
	sources map[string][]model.CalendarEvent
}

func New() *Store {
	return &Store{
		local:   make(map[string]model.CalendarEvent),
		fileIDs: make(map[string]struct{}),
		sources: make(map[string][]model.CalendarEvent),
	}
}

// Add validates and inserts a local event, generating an ID when empty.
func (s *Store) Add(ev model.CalendarEvent) (model.CalendarEvent, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.SourceID = ""
	if err := ev.Validate(); err != nil {
		return model.CalendarEvent{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.local[ev.ID]; ok {
		return model.CalendarEvent{}, fmt.Errorf("%w: %s", ErrDuplicate, ev.ID)
	}
	s.local[ev.ID] = ev
	return ev, nil
}

// Update replaces the local event with the given id. Feed events are
// read-only and report ErrNotFound.
func (s *Store) Update(id string, ev model.CalendarEvent) (model.CalendarEvent, error) {
	ev.ID = id
	ev.SourceID = ""
	if err := ev.Validate(); err != nil {
		return model.CalendarEvent{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.local[id]; !ok {
		return model.CalendarEvent{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.local[id] = ev
	delete(s.fileIDs, id)
	return ev, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.local[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.local, id)
	delete(s.fileIDs, id)
	return nil
}

// Get looks up an event by id across local and feed events.
func (s *Store) Get(id string) (model.CalendarEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ev, ok := s.local[id]; ok {
		return ev, true
	}
	for _, evs := range s.sources {
		for _, ev := range evs {
			if ev.ID == id {
				return ev, true
			}
		}
	}
	return model.CalendarEvent{}, false
}

// ReplaceSource swaps all events of one feed source. An empty slice clears it.
func (s *Store) ReplaceSource(sourceID string, events []model.CalendarEvent) {
	cp := make([]model.CalendarEvent, len(events))
	for i, ev := range events {
		ev.SourceID = sourceID
		cp[i] = ev
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(cp) == 0 {
		delete(s.sources, sourceID)
		return
	}
	s.sources[sourceID] = cp
}

// replaceFileEvents swaps the events that came from the events file.
func (s *Store) replaceFileEvents(events []model.CalendarEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.fileIDs {
		delete(s.local, id)
	}
	s.fileIDs = make(map[string]struct{}, len(events))
	for _, ev := range events {
		ev.SourceID = ""
		s.local[ev.ID] = ev
		s.fileIDs[ev.ID] = struct{}{}
	}
}

// Len is the total number of events held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.local)
	for _, evs := range s.sources {
		n += len(evs)
	}
	return n
}

// Snapshot returns a copy of every event ordered by (Start, ID), the order
// the layout engine expects for stable rendering.
func (s *Store) Snapshot() []model.CalendarEvent {
	s.mu.RLock()
	all := make([]model.CalendarEvent, 0, len(s.local))
	for _, ev := range s.local {
		all = append(all, ev)
	}
	for _, evs := range s.sources {
		all = append(all, evs...)
	}
	s.mu.RUnlock()

	return layout.SortForLayout(all)
}

// Search does a case-insensitive substring match on title and description.
// An empty query matches nothing.
func (s *Store) Search(query string) []model.CalendarEvent {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.CalendarEvent, 0)
	if q == "" {
		return out
	}
	for _, ev := range s.Snapshot() {
		if strings.Contains(strings.ToLower(ev.Title), q) ||
			strings.Contains(strings.ToLower(ev.Description), q) {
			out = append(out, ev)
		}
	}
	return out
}

// Upcoming returns events overlapping [now, now+days), ordered by start.
func (s *Store) Upcoming(now time.Time, days int) []model.CalendarEvent {
	if days <= 0 {
		days = 7
	}
	until := now.AddDate(0, 0, days)

	out := make([]model.CalendarEvent, 0)
	for _, ev := range s.Snapshot() {
		if ev.End.Before(now) || !ev.Start.Before(until) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
