package ics

import (
	"errors"
	"fmt"
	"io"

	appLog "github.com/jdhoffa/lookout-g/internal/log"
	"github.com/jdhoffa/lookout-g/internal/metrics"
	"github.com/jdhoffa/lookout-g/internal/model"
)

// DiagnosticKind classifies a Diagnostic.
type DiagnosticKind string

const (
	// DiagCalendarSkipped marks a VCALENDAR discarded for a syntax error.
	DiagCalendarSkipped DiagnosticKind = "calendar_skipped"
	// DiagDropped marks an event discarded for having no usable start.
	DiagDropped DiagnosticKind = "event_dropped"
)

// Diagnostic records a non-fatal problem found while normalizing a feed.
// Calendar and Event are 1-based positions in the feed; Event is zero for
// calendar-level diagnostics.
type Diagnostic struct {
	Kind     DiagnosticKind
	Calendar int
	Event    int
	Err      error
}

func (d Diagnostic) String() string {
	if d.Event == 0 {
		return fmt.Sprintf("%s: calendar %d: %v", d.Kind, d.Calendar, d.Err)
	}
	return fmt.Sprintf("%s: calendar %d event %d: %v", d.Kind, d.Calendar, d.Event, d.Err)
}

// Result is the normalized event sequence of one feed, in feed order.
type Result struct {
	Events      []model.Event
	Diagnostics []Diagnostic
	// Past counts events dropped because they start before today.
	Past int
}

// Normalize decodes a feed and returns the retained events. Malformed
// calendar objects and events without a start are reported as diagnostics;
// only a failure of r itself is returned as an error.
func Normalize(r io.Reader, f Filter) (*Result, error) {
	res := &Result{Events: []model.Event{}}

	calIdx := 0
	for cal, err := range NewDecoder(r).Calendars() {
		calIdx++
		if err != nil {
			var se *SyntaxError
			if !errors.As(err, &se) {
				return res, err
			}
			appLog.Error("ics calendar skipped", err, "calendar", calIdx)
			metrics.CalendarsDecoded.WithLabelValues("skipped").Inc()
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Kind: DiagCalendarSkipped, Calendar: calIdx, Err: err})
			continue
		}
		metrics.CalendarsDecoded.WithLabelValues("parsed").Inc()

		for i, block := range cal.Events {
			ev := NormalizeEvent(Extract(block))
			keep, err := f.Retain(ev)
			switch {
			case err != nil:
				appLog.Info("ics event dropped", "calendar", calIdx, "event", i+1, "reason", err.Error())
				metrics.EventsNormalized.WithLabelValues("dropped").Inc()
				res.Diagnostics = append(res.Diagnostics, Diagnostic{Kind: DiagDropped, Calendar: calIdx, Event: i + 1, Err: err})
			case !keep:
				metrics.EventsNormalized.WithLabelValues("past").Inc()
				res.Past++
			default:
				metrics.EventsNormalized.WithLabelValues("retained").Inc()
				res.Events = append(res.Events, ev)
			}
		}
	}

	appLog.Info("ics normalize completed",
		"calendars", calIdx,
		"retained", len(res.Events),
		"past", res.Past,
		"diagnostics", len(res.Diagnostics),
	)
	return res, nil
}
