package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicecal/internal/config"
	"voicecal/internal/layout"
	"voicecal/internal/model"
	"voicecal/internal/store"
)

var fixedNow = time.Date(2023, time.November, 15, 8, 0, 0, 0, time.UTC)

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(context.Context) error {
	f.calls++
	return f.err
}

func newTestServer(t *testing.T, cfg *config.Config, refresher Refresher) (*Server, *store.Store) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Preview.Output = filepath.Join(t.TempDir(), "preview.png")
	st := store.New()
	s := NewServer(cfg, st, layout.New(time.UTC), refresher)
	s.now = func() time.Time { return fixedNow }
	return s, st
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func seed(t *testing.T, st *store.Store) {
	t.Helper()
	for _, ev := range []model.CalendarEvent{
		{
			ID:    "a",
			Title: "Conference",
			Start: time.Date(2023, time.November, 6, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2023, time.November, 8, 17, 0, 0, 0, time.UTC),
		},
		{
			ID:          "b",
			Title:       "Dentist",
			Description: "Dr. Kim",
			Start:       time.Date(2023, time.November, 7, 14, 0, 0, 0, time.UTC),
			End:         time.Date(2023, time.November, 7, 15, 0, 0, 0, time.UTC),
		},
		{
			ID:    "c",
			Title: "Lunch",
			Start: time.Date(2023, time.November, 15, 12, 0, 0, 0, time.UTC),
			End:   time.Date(2023, time.November, 15, 13, 0, 0, 0, time.UTC),
		},
	} {
		_, err := st.Add(ev)
		require.NoError(t, err)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	s, _ := newTestServer(t, cfg, nil)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", "").Code)

	rec := do(t, s, http.MethodGet, "/api/events", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.SetBasicAuth("admin", "wrong!")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBasicAuthDisabledWhenIncomplete(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin"}
	s, _ := newTestServer(t, cfg, nil)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/events", "").Code)
}

type layoutBody struct {
	Year       int                    `json:"year"`
	Month      int                    `json:"month"`
	Weeks      [][]string             `json:"weeks"`
	Placements []model.EventPlacement `json:"placements"`
	MaxLayers  []int                  `json:"max_layers"`
	Timezone   string                 `json:"timezone"`
}

func TestLayout(t *testing.T) {
	s, st := newTestServer(t, nil, nil)
	seed(t, st)

	rec := do(t, s, http.MethodGet, "/api/layout?year=2023&month=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[layoutBody](t, rec)

	assert.Equal(t, 2023, body.Year)
	assert.Equal(t, int(time.November), body.Month)
	assert.Equal(t, "UTC", body.Timezone)
	require.Len(t, body.Weeks, layout.WeeksPerGrid)
	assert.Equal(t, "2023-10-29", body.Weeks[0][0])

	require.Len(t, body.Placements, 3)
	conf, dent := body.Placements[0], body.Placements[1]
	assert.Equal(t, "a", conf.Event.ID)
	assert.Equal(t, 1, conf.Row)
	assert.Equal(t, 1, conf.StartCol)
	assert.Equal(t, 3, conf.Span)
	assert.Equal(t, 0, conf.Layer)
	assert.Equal(t, "b", dent.Event.ID)
	assert.Equal(t, 1, dent.Layer)
	assert.Equal(t, []int{-1, 1, 0, -1, -1, -1}, body.MaxLayers)
}

func TestLayoutDefaultsAndOverflow(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	body := decode[layoutBody](t, do(t, s, http.MethodGet, "/api/layout", ""))
	assert.Equal(t, 2023, body.Year)
	assert.Equal(t, int(time.November), body.Month)

	body = decode[layoutBody](t, do(t, s, http.MethodGet, "/api/layout?year=2023&month=12", ""))
	assert.Equal(t, 2024, body.Year)
	assert.Equal(t, int(time.January), body.Month)

	rec := do(t, s, http.MethodGet, "/api/layout?month=nov", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendarPage(t *testing.T) {
	s, st := newTestServer(t, nil, nil)
	seed(t, st)

	rec := do(t, s, http.MethodGet, "/calendar?year=2023&month=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `data-ready="true"`)
	assert.Contains(t, rec.Body.String(), "Conference")
}

func TestDay(t *testing.T) {
	s, st := newTestServer(t, nil, nil)
	seed(t, st)

	body := decode[eventsByDay](t, do(t, s, http.MethodGet, "/api/day?date=2023-11-07", ""))
	assert.Equal(t, "2023-11-07", body.Date)
	assert.Equal(t, []string{"a", "b"}, ids(body.Events))

	body = decode[eventsByDay](t, do(t, s, http.MethodGet, "/api/day", ""))
	assert.Equal(t, "2023-11-15", body.Date)
	assert.Equal(t, []string{"c"}, ids(body.Events))

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/day?date=11/07", "").Code)
}

type eventsByDay struct {
	Date   string                `json:"date"`
	Events []model.CalendarEvent `json:"events"`
}

func ids(evs []model.CalendarEvent) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.ID)
	}
	return out
}

func TestEventCRUD(t *testing.T) {
	s, st := newTestServer(t, nil, nil)

	rec := do(t, s, http.MethodPost, "/api/events",
		`{"title":"Standup","start":"2023-11-20T09:00:00Z","end":"2023-11-20T09:15:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.CalendarEvent](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 1, st.Len())

	rec = do(t, s, http.MethodGet, "/api/events/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Standup", decode[model.CalendarEvent](t, rec).Title)

	rec = do(t, s, http.MethodPut, "/api/events/"+created.ID,
		`{"title":"Standup (moved)","start":"2023-11-21T09:00:00Z","end":"2023-11-21T09:15:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got, _ := st.Get(created.ID)
	assert.Equal(t, "Standup (moved)", got.Title)

	rec = do(t, s, http.MethodDelete, "/api/events/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/events/"+created.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/api/events/"+created.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPut, "/api/events/nope",
		`{"title":"x","start":"2023-11-21T09:00:00Z"}`).Code)
}

func TestCreateEventErrors(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"unknown field", `{"title":"x","start":"2023-11-20T09:00:00Z","where":"home"}`, http.StatusBadRequest},
		{"empty title", `{"title":"  ","start":"2023-11-20T09:00:00Z"}`, http.StatusBadRequest},
		{"end before start", `{"title":"x","start":"2023-11-20T09:00:00Z","end":"2023-11-19T09:00:00Z"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, do(t, s, http.MethodPost, "/api/events", tt.body).Code)
		})
	}

	body := `{"id":"fixed","title":"x","start":"2023-11-20T09:00:00Z"}`
	assert.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/events", body).Code)
	assert.Equal(t, http.StatusConflict, do(t, s, http.MethodPost, "/api/events", body).Code)
}

func TestCreateAllDayEvent(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	rec := do(t, s, http.MethodPost, "/api/events",
		`{"title":"Holiday","start":"2023-11-23T10:00:00Z","end":"2023-11-24T10:00:00Z","all_day":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	ev := decode[model.CalendarEvent](t, rec)
	assert.Equal(t, time.Date(2023, time.November, 23, 0, 0, 0, 0, time.UTC), ev.Start.UTC())
	assert.Equal(t, time.Date(2023, time.November, 24, 23, 59, 59, int(999*time.Millisecond), time.UTC), ev.End.UTC())
}

func TestListSearchSummary(t *testing.T) {
	s, st := newTestServer(t, nil, nil)
	seed(t, st)

	list := decode[eventsResponse](t, do(t, s, http.MethodGet, "/api/events", ""))
	assert.Equal(t, 3, list.Count)
	assert.Equal(t, []string{"a", "b", "c"}, ids(list.Events))

	found := decode[eventsResponse](t, do(t, s, http.MethodGet, "/api/search?q=kim", ""))
	assert.Equal(t, []string{"b"}, ids(found.Events))
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/search?q=", "").Code)

	sum := decode[summaryResponse](t, do(t, s, http.MethodGet, "/api/summary?days=3", ""))
	assert.Equal(t, 3, sum.Days)
	assert.Equal(t, []string{"c"}, ids(sum.Events))
}

func TestCommand(t *testing.T) {
	s, st := newTestServer(t, nil, nil)
	seed(t, st)

	tests := []struct {
		name      string
		body      string
		matched   bool
		action    string
		year, mon int
	}{
		{"next month wraps", `{"transcript":"다음 달","year":2025,"month":11}`, true, "NEXT_MONTH", 2026, 0},
		{"previous month", `{"transcript":"previous month","year":2025,"month":0}`, true, "PREVIOUS_MONTH", 2024, 11},
		{"today ignores shown month", `{"transcript":"오늘","year":2020,"month":3}`, true, "GO_TO_TODAY", 2023, 10},
		{"defaults to current month", `{"transcript":"일정 추가"}`, true, "ADD_EVENT", 2023, 10},
		{"unmatched", `{"transcript":"hello there","year":2025,"month":4}`, false, "", 2025, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/command", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			resp := decode[commandResponse](t, rec)
			assert.Equal(t, tt.matched, resp.Matched)
			assert.Equal(t, tt.action, string(resp.Action))
			assert.Equal(t, tt.year, resp.Year)
			assert.Equal(t, tt.mon, resp.Month)
		})
	}

	resp := decode[commandResponse](t, do(t, s, http.MethodPost, "/api/command", `{"transcript":"다가오는 일정"}`))
	require.NotNil(t, resp.Summary)
	assert.Equal(t, []string{"c"}, ids(resp.Summary.Events))

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/command", `{"transcript":""}`).Code)
}

func TestRefresh(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodPost, "/api/refresh", "").Code)

	ok := &fakeRefresher{}
	s, _ = newTestServer(t, nil, ok)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/refresh", "").Code)
	assert.Equal(t, 1, ok.calls)

	failing := &fakeRefresher{err: errors.New("feed down")}
	s, _ = newTestServer(t, nil, failing)
	rec := do(t, s, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "feed down")
}

func TestPreview(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/preview.png", "").Code)

	png := []byte("\x89PNG\r\n\x1a\nfake")
	require.NoError(t, os.WriteFile(s.cfg.Preview.Output, png, 0o644))
	rec := do(t, s, http.MethodGet, "/preview.png", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, png, rec.Body.Bytes())
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)
	do(t, s, http.MethodGet, "/api/layout", "")

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "voicecal_layout_requests_total")
}
