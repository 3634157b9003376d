package ics

import (
	"context"
	"errors"
	"time"

	"voicecal/internal/config"
	appLog "voicecal/internal/log"
	"voicecal/internal/model"
)

// Sink receives the expanded events of one source. *store.Store satisfies it.
type Sink interface {
	ReplaceSource(sourceID string, events []model.CalendarEvent)
}

// Refresher runs fetch -> parse -> expand for every configured source and
// hands the result to a Sink.
type Refresher struct {
	fetcher *Fetcher
	sink    Sink
	sources []Source
	loc     *time.Location

	monthsBack  int
	monthsAhead int

	now func() time.Time
}

// NewRefresher builds a Refresher from the application config.
func NewRefresher(cfg *config.Config, fetcher *Fetcher, sink Sink, loc *time.Location) *Refresher {
	sources := make([]Source, 0, len(cfg.ICS))
	for _, c := range cfg.ICS {
		if c.URL == "" {
			continue
		}
		sources = append(sources, Source{ID: c.SourceID(), URL: c.URL, Color: c.Color})
	}
	if loc == nil {
		loc = time.Local
	}
	return &Refresher{
		fetcher:     fetcher,
		sink:        sink,
		sources:     sources,
		loc:         loc,
		monthsBack:  cfg.MonthsBack,
		monthsAhead: cfg.MonthsAhead,
		now:         time.Now,
	}
}

// Sources returns the configured feed sources.
func (r *Refresher) Sources() []Source {
	return r.sources
}

// Refresh updates every source. A source that fails to fetch or parse
// keeps its previous events; the joined error reports every failure.
func (r *Refresher) Refresh(ctx context.Context) error {
	if len(r.sources) == 0 {
		return nil
	}

	now := r.now().In(r.loc)
	rangeStart := time.Date(now.Year(), now.Month()-time.Month(r.monthsBack), 1, 0, 0, 0, 0, r.loc)
	rangeEnd := time.Date(now.Year(), now.Month()+time.Month(r.monthsAhead)+1, 1, 0, 0, 0, 0, r.loc)

	results, errs := r.fetcher.FetchAll(ctx, r.sources)
	for _, res := range results {
		parsed, err := ParseICS(res.Source, res.Body)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		expanded, err := Expand(parsed, ExpandConfig{
			DisplayLocation: r.loc,
			RangeStart:      rangeStart,
			RangeEnd:        rangeEnd,
			Color:           res.Source.Color,
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}

		r.sink.ReplaceSource(res.Source.ID, expanded.Events)
		appLog.Info("ics source refreshed",
			"id", res.Source.ID,
			"events", len(expanded.Events),
			"from_cache", res.FromCache,
			"truncated", len(expanded.TruncatedEvents),
		)
	}

	return errors.Join(errs...)
}
