package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LayoutRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicecal_layout_requests_total",
		Help: "Total number of month layouts computed.",
	})

	PlacementsProduced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicecal_placements_total",
		Help: "Total number of event placements produced by month layouts.",
	})

	LayoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voicecal_layout_duration_ms",
		Help:    "Month layout computation latency in milliseconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})

	ICSFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecal_ics_fetches_total",
		Help: "ICS fetches, labelled by outcome (ok, not_modified, cache_fallback, error).",
	}, []string{"outcome"})

	StoredEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voicecal_stored_events",
		Help: "Number of events currently held in the store.",
	})

	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicecal_commands_total",
		Help: "Transcripts classified by the keyword matcher, labelled by action.",
	}, []string{"action"})
)
