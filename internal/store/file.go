package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	appLog "voicecal/internal/log"
	"voicecal/internal/metrics"
	"voicecal/internal/model"
)

// eventsFile is the on-disk shape of the local events file:
//
//	events:
//	  - id: standup
//	    title: Team standup
//	    start: 2025-11-03T09:00:00+09:00
//	    end: 2025-11-03T09:15:00+09:00
type eventsFile struct {
	Events []model.CalendarEvent `yaml:"events"`
}

// ReadEventsFile parses and validates an events file. Any invalid event
// fails the whole file so a half-edited file never replaces a good one.
func ReadEventsFile(path string) ([]model.CalendarEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f eventsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("events file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(f.Events))
	for i, ev := range f.Events {
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("events file %s: event %d (%q): %w", path, i, ev.ID, err)
		}
		if _, dup := seen[ev.ID]; dup {
			return nil, fmt.Errorf("events file %s: %w: %s", path, ErrDuplicate, ev.ID)
		}
		seen[ev.ID] = struct{}{}
	}
	return f.Events, nil
}

// LoadFile replaces the file-backed events with the contents of path.
func (s *Store) LoadFile(path string) error {
	events, err := ReadEventsFile(path)
	if err != nil {
		return err
	}
	s.replaceFileEvents(events)
	metrics.StoredEvents.Set(float64(s.Len()))
	appLog.Info("events file loaded", "path", path, "event_count", len(events))
	return nil
}

// Watch reloads path whenever it is written or replaced. The parent
// directory is watched so editors that save via rename are picked up.
// Call the returned stop function to clean up.
func (s *Store) Watch(path string) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("events watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("events watcher add %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if err := s.LoadFile(path); err != nil {
					// Keep the previous events.
					appLog.Error("events file reload failed", err, "path", path)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				appLog.Error("events watcher error", err, "path", path)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}
