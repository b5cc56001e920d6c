// Package publish hands normalized events to their destination: a JSON or
// iCalendar document, Google Calendar, or a CalDAV collection.
package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	appLog "github.com/jdhoffa/lookout-g/internal/log"
	"github.com/jdhoffa/lookout-g/internal/metrics"
	"github.com/jdhoffa/lookout-g/internal/model"
)

// ErrCalendarNotFound is returned when no remote calendar matches the
// configured name.
var ErrCalendarNotFound = errors.New("calendar not found")

// Receipt reports the outcome for one event. Link is a URL or path to the
// stored copy when the destination provides one.
type Receipt struct {
	Summary string
	Link    string
	Err     error
}

// Publisher accepts the normalized sequence. A returned error means nothing
// could be published; per-event failures are reported in the receipts.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, events []model.Event) ([]Receipt, error)
}

// Failed counts receipts carrying an error.
func Failed(receipts []Receipt) int {
	n := 0
	for _, r := range receipts {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func record(publisher string, r Receipt) {
	if r.Err != nil {
		metrics.EventsPublished.WithLabelValues(publisher, "error").Inc()
		appLog.Error("publish event failed", r.Err, "publisher", publisher, "summary", r.Summary)
		return
	}
	metrics.EventsPublished.WithLabelValues(publisher, "ok").Inc()
	appLog.Info("event published", "publisher", publisher, "summary", r.Summary, "link", r.Link)
}

// eventUID returns the source UID, or a random one for events without it.
func eventUID(ev model.Event) string {
	if ev.ID != nil && *ev.ID != "" {
		return *ev.ID
	}
	return uuid.NewString() + "@lookout"
}

func describe(ev model.Event) string {
	if ev.Summary != "" {
		return ev.Summary
	}
	return fmt.Sprintf("(untitled %s)", model.StringValue(ev.ID))
}
