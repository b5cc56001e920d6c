package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CalendarsDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lookout_calendars_decoded_total",
		Help: "VCALENDAR objects read from feeds, labelled by result (parsed, skipped).",
	}, []string{"result"})

	EventsNormalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lookout_events_normalized_total",
		Help: "Events seen by the future filter, labelled by outcome (retained, past, dropped).",
	}, []string{"outcome"})

	FeedFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lookout_feed_fetches_total",
		Help: "Feed fetch attempts, labelled by result (fresh, cached, error).",
	}, []string{"result"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lookout_events_published_total",
		Help: "Events handed to a publisher, labelled by publisher and status.",
	}, []string{"publisher", "status"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lookout_run_duration_seconds",
		Help:    "Duration of a fetch, normalize and publish cycle.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	LastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lookout_last_success_timestamp_seconds",
		Help: "Unix time of the last cycle that completed without error.",
	})
)
