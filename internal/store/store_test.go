package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicecal/internal/metrics"
	"voicecal/internal/model"
	"voicecal/internal/store"
)

func ev(id, title string, start time.Time, d time.Duration) model.CalendarEvent {
	return model.CalendarEvent{ID: id, Title: title, Start: start, End: start.Add(d)}
}

var base = time.Date(2025, time.November, 3, 9, 0, 0, 0, time.UTC)

func TestAddGeneratesID(t *testing.T) {
	s := store.New()

	got, err := s.Add(model.CalendarEvent{Title: "lunch", Start: base, End: base.Add(time.Hour)})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)

	stored, ok := s.Get(got.ID)
	require.True(t, ok)
	assert.Equal(t, got, stored)
}

func TestAddRejectsInvalidAndDuplicate(t *testing.T) {
	s := store.New()

	_, err := s.Add(model.CalendarEvent{ID: "x", Title: "bad", Start: base, End: base.Add(-time.Hour)})
	assert.ErrorIs(t, err, model.ErrEndBeforeStart)

	_, err = s.Add(ev("x", "ok", base, time.Hour))
	require.NoError(t, err)
	_, err = s.Add(ev("x", "again", base, time.Hour))
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestUpdateAndDelete(t *testing.T) {
	s := store.New()
	_, err := s.Add(ev("a", "draft", base, time.Hour))
	require.NoError(t, err)

	updated, err := s.Update("a", ev("ignored", "final", base, 2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "a", updated.ID)
	assert.Equal(t, "final", updated.Title)

	_, err = s.Update("missing", ev("", "x", base, time.Hour))
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Delete("a"))
	assert.ErrorIs(t, s.Delete("a"), store.ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestReplaceSourceAndSnapshotOrder(t *testing.T) {
	s := store.New()
	_, err := s.Add(ev("local-b", "b", base, time.Hour))
	require.NoError(t, err)
	_, err = s.Add(ev("local-a", "a", base, time.Hour))
	require.NoError(t, err)

	s.ReplaceSource("work", []model.CalendarEvent{
		ev("feed-1", "review", base.Add(-time.Hour), time.Hour),
	})

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "feed-1", snap[0].ID)
	assert.Equal(t, "work", snap[0].SourceID)
	assert.Equal(t, "local-a", snap[1].ID)
	assert.Equal(t, "local-b", snap[2].ID)

	// Feed events are read-only through Update/Delete.
	assert.ErrorIs(t, s.Delete("feed-1"), store.ErrNotFound)
	_, ok := s.Get("feed-1")
	assert.True(t, ok)

	s.ReplaceSource("work", nil)
	assert.Equal(t, 2, s.Len())

	// Mutating the snapshot does not leak into the store.
	snap[1].Title = "changed"
	got, _ := s.Get("local-a")
	assert.Equal(t, "a", got.Title)
}

func TestSearch(t *testing.T) {
	s := store.New()
	_, _ = s.Add(ev("1", "Dentist appointment", base, time.Hour))
	e := ev("2", "Lunch", base.Add(time.Hour), time.Hour)
	e.Description = "with the dentist's team"
	_, _ = s.Add(e)
	_, _ = s.Add(ev("3", "Gym", base, time.Hour))

	got := s.Search("DENTIST")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)

	assert.Empty(t, s.Search("   "))
}

func TestUpcoming(t *testing.T) {
	s := store.New()
	_, _ = s.Add(ev("past", "old", base.AddDate(0, 0, -3), time.Hour))
	_, _ = s.Add(ev("ongoing", "trip", base.AddDate(0, 0, -1), 48*time.Hour))
	_, _ = s.Add(ev("soon", "call", base.AddDate(0, 0, 2), time.Hour))
	_, _ = s.Add(ev("later", "party", base.AddDate(0, 0, 10), time.Hour))

	got := s.Upcoming(base, 7)
	require.Len(t, got, 2)
	assert.Equal(t, "ongoing", got[0].ID)
	assert.Equal(t, "soon", got[1].ID)
}

const eventsYAML = `events:
  - id: standup
    title: Team standup
    start: 2025-11-03T09:00:00Z
    end: 2025-11-03T09:15:00Z
  - id: offsite
    title: Offsite
    start: 2025-11-05T00:00:00Z
    end: 2025-11-07T18:00:00Z
    color: "#10b981"
`

func TestLoadFileReplacesOnlyFileEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte(eventsYAML), 0o600))

	s := store.New()
	_, err := s.Add(ev("api", "from api", base, time.Hour))
	require.NoError(t, err)

	require.NoError(t, s.LoadFile(path))
	assert.Equal(t, 3, s.Len())

	offsite, ok := s.Get("offsite")
	require.True(t, ok)
	assert.Equal(t, "#10b981", offsite.Color)

	require.NoError(t, os.WriteFile(path, []byte("events: []\n"), 0o600))
	require.NoError(t, s.LoadFile(path))
	assert.Equal(t, 1, s.Len())
	_, ok = s.Get("api")
	assert.True(t, ok)
}

func TestReadEventsFileValidation(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`events:
  - id: x
    title: reversed
    start: 2025-11-03T10:00:00Z
    end: 2025-11-03T09:00:00Z
`), 0o600))
	_, err := store.ReadEventsFile(bad)
	assert.ErrorIs(t, err, model.ErrEndBeforeStart)

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte(`events:
  - {id: x, title: a, start: 2025-11-03T09:00:00Z, end: 2025-11-03T10:00:00Z}
  - {id: x, title: b, start: 2025-11-03T09:00:00Z, end: 2025-11-03T10:00:00Z}
`), 0o600))
	_, err = store.ReadEventsFile(dup)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	_, err = store.ReadEventsFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events: []\n"), 0o600))

	s := store.New()
	require.NoError(t, s.LoadFile(path))

	stop, err := s.Watch(path)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte(eventsYAML), 0o600))

	assert.Eventually(t, func() bool {
		return s.Len() == 2 && storedEventsGauge(t) == 2
	}, 5*time.Second, 20*time.Millisecond)
}

func storedEventsGauge(t *testing.T) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.StoredEvents.Write(&m))
	return m.GetGauge().GetValue()
}
