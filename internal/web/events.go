package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"voicecal/internal/command"
	appLog "voicecal/internal/log"
	"voicecal/internal/metrics"
	"voicecal/internal/model"
	"voicecal/internal/store"
)

const maxBodyBytes = 1 << 20

// eventRequest is the body of POST /api/events and PUT /api/events/{id}.
// With all_day set, start and end are widened to whole days in the display
// location.
type eventRequest struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	AllDay      bool      `json:"all_day,omitempty"`
}

func (s *Server) decodeEvent(w http.ResponseWriter, r *http.Request) (model.CalendarEvent, bool) {
	var req eventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return model.CalendarEvent{}, false
	}

	ev := model.CalendarEvent{
		ID:          req.ID,
		Title:       strings.TrimSpace(req.Title),
		Start:       req.Start,
		End:         req.End,
		Description: req.Description,
		Color:       req.Color,
	}
	if ev.End.IsZero() {
		ev.End = ev.Start
	}
	if req.AllDay {
		loc := s.engine.Location()
		ev.Start = model.DateOf(ev.Start.In(loc)).StartOfDay(loc)
		ev.End = model.DateOf(ev.End.In(loc)).EndOfDay(loc)
	}
	return ev, true
}

// writeStoreError maps store and validation errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrEmptyID),
		errors.Is(err, model.ErrEmptyTitle),
		errors.Is(err, model.ErrEndBeforeStart):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		appLog.Error("store operation failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) updateStoreGauge() {
	metrics.StoredEvents.Set(float64(s.store.Len()))
}

type eventsResponse struct {
	Events []model.CalendarEvent `json:"events"`
	Count  int                   `json:"count"`
}

func newEventsResponse(evs []model.CalendarEvent) eventsResponse {
	return eventsResponse{Events: evs, Count: len(evs)}
}

// handleListEvents returns every stored event ordered by (start, id).
func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newEventsResponse(s.store.Snapshot()))
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.decodeEvent(w, r)
	if !ok {
		return
	}
	created, err := s.store.Add(ev)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.updateStoreGauge()
	appLog.Info("event created", "id", created.ID, "title", created.Title)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ev, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ev, ok := s.decodeEvent(w, r)
	if !ok {
		return
	}
	updated, err := s.store.Update(id, ev)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	appLog.Info("event updated", "id", updated.ID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(id); err != nil {
		writeStoreError(w, err)
		return
	}
	s.updateStoreGauge()
	appLog.Info("event deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleSearch: GET /api/search?q=dentist
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	writeJSON(w, http.StatusOK, newEventsResponse(s.store.Search(q)))
}

type summaryResponse struct {
	From   time.Time             `json:"from"`
	Days   int                   `json:"days"`
	Events []model.CalendarEvent `json:"events"`
	Count  int                   `json:"count"`
}

func (s *Server) summary(days int) summaryResponse {
	if days <= 0 {
		days = 7
	}
	now := s.now().In(s.engine.Location())
	evs := s.store.Upcoming(now, days)
	return summaryResponse{From: now, Days: days, Events: evs, Count: len(evs)}
}

// handleSummary lists upcoming events: GET /api/summary?days=7
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.summary(parseIntDefault(r.URL.Query().Get("days"), 7)))
}

type commandRequest struct {
	Transcript string `json:"transcript"`
	// Year and Month (0-based) are the month currently shown; navigation
	// actions are applied to it. Missing values mean the current month.
	Year  *int `json:"year,omitempty"`
	Month *int `json:"month,omitempty"`
}

type commandResponse struct {
	Action  command.Action `json:"action,omitempty"`
	Matched bool           `json:"matched"`
	Year    int            `json:"year"`
	Month   int            `json:"month"`

	Summary *summaryResponse `json:"summary,omitempty"`
}

// handleCommand classifies a transcript and applies navigation.
// Unmatched transcripts return matched=false so the client can fall back to
// the remote intent service.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		writeError(w, http.StatusBadRequest, "transcript is required")
		return
	}

	now := s.now().In(s.engine.Location())
	year, month := now.Year(), int(now.Month())-1
	if req.Year != nil {
		year = *req.Year
	}
	if req.Month != nil {
		month = *req.Month
	}

	action, ok := command.Parse(req.Transcript)
	label := string(action)
	if !ok {
		label = "unmatched"
	}
	metrics.Commands.WithLabelValues(label).Inc()
	appLog.Debug("voice command", "action", label)

	year, month = command.Navigate(action, year, month, now)
	resp := commandResponse{Action: action, Matched: ok, Year: year, Month: month}
	if action == command.SummarizeEvents {
		sum := s.summary(7)
		resp.Summary = &sum
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRefresh re-imports the ICS feeds synchronously.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "no ICS sources configured")
		return
	}
	if err := s.refresher.Refresh(r.Context()); err != nil {
		appLog.Error("manual refresh failed", err)
		s.updateStoreGauge()
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.updateStoreGauge()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "events": s.store.Len()})
}
