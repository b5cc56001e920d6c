package ics

import (
	"errors"
	"fmt"
	"time"

	"github.com/jdhoffa/lookout-g/internal/model"
)

// ErrNoStart marks an event dropped because it has no usable start.
var ErrNoStart = errors.New("event has no parseable start")

// AllDayPolicy decides what happens to events whose start is date-only.
type AllDayPolicy string

const (
	// AllDayKeep retains every date-only event.
	AllDayKeep AllDayPolicy = "keep"
	// AllDayCompare retains a date-only event if its date is today or later.
	AllDayCompare AllDayPolicy = "compare"
)

// ParseAllDayPolicy validates a config/flag value. Empty means AllDayKeep.
func ParseAllDayPolicy(s string) (AllDayPolicy, error) {
	switch AllDayPolicy(s) {
	case "", AllDayKeep:
		return AllDayKeep, nil
	case AllDayCompare:
		return AllDayCompare, nil
	default:
		return "", fmt.Errorf("unknown all-day policy %q (want %q or %q)", s, AllDayKeep, AllDayCompare)
	}
}

// Filter keeps events that start today or later.
type Filter struct {
	// Now returns the reference instant. Defaults to time.Now.
	Now func() time.Time
	// Location is used to derive today's date from Now. Defaults to time.Local.
	Location *time.Location
	// AllDay decides date-only events. The zero value behaves as AllDayKeep.
	AllDay AllDayPolicy
}

// Retain reports whether ev should be published. Comparison is done at
// calendar-date granularity: an event earlier today is still retained.
// It returns ErrNoStart, wrapped, when the event has neither a start date
// nor a start date-time.
func (f Filter) Retain(ev model.Event) (bool, error) {
	today := f.today()

	switch {
	case ev.Start.DateTime != nil:
		t := ev.Start.DateTime.UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return !day.Before(today), nil

	case ev.Start.Date != "":
		if f.AllDay == AllDayCompare {
			return ev.Start.Date >= today.Format(time.DateOnly), nil
		}
		return true, nil

	default:
		return false, fmt.Errorf("summary %q: %w", ev.Summary, ErrNoStart)
	}
}

// today returns the reference date at midnight UTC so it compares directly
// with the UTC-anchored wall-clock values produced by NormalizeDateTime.
func (f Filter) today() time.Time {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	y, m, d := now().In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
