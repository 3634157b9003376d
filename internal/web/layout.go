package web

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"voicecal/internal/layout"
	appLog "voicecal/internal/log"
	"voicecal/internal/metrics"
	"voicecal/internal/model"
	"voicecal/internal/render"
)

// monthParams reads ?year= and ?month= (0-based, overflow allowed). Missing
// values default to the current month in the display location.
func (s *Server) monthParams(r *http.Request) (year, month int, ok bool) {
	now := s.now().In(s.engine.Location())
	year, month = now.Year(), int(now.Month())-1

	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		month = n
	}
	return year, month, true
}

// monthView runs the layout engine on a store snapshot and records metrics.
func (s *Server) monthView(year, month int) layout.MonthView {
	start := time.Now()
	view := s.engine.View(s.store.Snapshot(), year, month)
	elapsed := time.Since(start)

	metrics.LayoutRequests.Inc()
	metrics.PlacementsProduced.Add(float64(len(view.Placements)))
	metrics.LayoutDuration.Observe(float64(elapsed.Microseconds()) / 1000)

	appLog.Debug("month layout",
		"year", view.Year,
		"month", view.Month,
		"placements", len(view.Placements),
		"elapsed", elapsed,
	)
	return view
}

func (s *Server) renderOptions() render.Options {
	loc := s.engine.Location()
	return render.Options{
		Location: loc,
		Today:    model.DateOf(s.now().In(loc)),
	}
}

// layoutResponse is the JSON response shape for /api/layout.
type layoutResponse struct {
	layout.MonthView
	Timezone string `json:"timezone"`
}

// handleLayout returns the month view for GET /api/layout?year=2025&month=10.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	year, month, ok := s.monthParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "year and month must be integers")
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse{
		MonthView: s.monthView(year, month),
		Timezone:  s.engine.Location().String(),
	})
}

// handleCalendar renders the HTML month grid captured by the preview job.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, month, ok := s.monthParams(r)
	if !ok {
		http.Error(w, "year and month must be integers", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := render.HTML(&buf, s.monthView(year, month), s.renderOptions()); err != nil {
		appLog.Error("calendar render failed", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

type dayResponse struct {
	Date   model.CalendarDate    `json:"date"`
	Events []model.CalendarEvent `json:"events"`
}

// handleDay lists the events covering one date: GET /api/day?date=2025-11-05.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	loc := s.engine.Location()
	date := model.DateOf(s.now().In(loc))
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = d
	}
	writeJSON(w, http.StatusOK, dayResponse{
		Date:   date,
		Events: layout.EventsOnDay(s.store.Snapshot(), date, loc),
	})
}
