package publish

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"github.com/jdhoffa/lookout-g/internal/model"
)

type objectPutter interface {
	PutCalendarObject(ctx context.Context, path string, cal *ical.Calendar) (*caldav.CalendarObject, error)
}

// CalDAV stores every event as its own object in one collection.
type CalDAV struct {
	client       objectPutter
	calendarPath string
	now          func() time.Time
}

// NewCalDAV connects to endpoint and resolves calendar, which is either a
// collection path ("/dav/cal/work/") or a display name looked up in the
// user's calendar home set.
func NewCalDAV(ctx context.Context, endpoint, username, password, calendar string) (*CalDAV, error) {
	httpClient := webdav.HTTPClientWithBasicAuth(&http.Client{Timeout: 30 * time.Second}, username, password)
	client, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	path := calendar
	if !strings.HasPrefix(calendar, "/") {
		path, err = findCalendarPath(ctx, client, calendar)
		if err != nil {
			return nil, err
		}
	}
	return &CalDAV{client: client, calendarPath: path, now: time.Now}, nil
}

func findCalendarPath(ctx context.Context, client *caldav.Client, name string) (string, error) {
	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("find principal: %w", err)
	}
	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("find home set: %w", err)
	}
	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("find calendars: %w", err)
	}
	for _, c := range cals {
		if c.Name == name {
			return c.Path, nil
		}
	}
	return "", fmt.Errorf("caldav calendar %q: %w", name, ErrCalendarNotFound)
}

func (c *CalDAV) Name() string { return "caldav" }

func (c *CalDAV) Publish(ctx context.Context, events []model.Event) ([]Receipt, error) {
	receipts := make([]Receipt, 0, len(events))
	for _, ev := range events {
		uid := eventUID(ev)
		path := strings.TrimSuffix(c.calendarPath, "/") + "/" + objectName(uid) + ".ics"

		r := Receipt{Summary: describe(ev), Link: path}
		if _, err := c.client.PutCalendarObject(ctx, path, c.toCalendar(uid, ev)); err != nil {
			r.Err = fmt.Errorf("put %s: %w", path, err)
		}
		record(c.Name(), r)
		receipts = append(receipts, r)
	}
	return receipts, nil
}

func (c *CalDAV) toCalendar(uid string, ev model.Event) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, uid)
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, c.now().UTC())
	vevent.Props.SetText(ical.PropSummary, ev.Summary)
	if ev.Location != nil {
		vevent.Props.SetText(ical.PropLocation, *ev.Location)
	}
	if ev.Description != nil {
		vevent.Props.SetText(ical.PropDescription, *ev.Description)
	}
	setDAVDateTime(vevent, ical.PropDateTimeStart, ev.Start)
	setDAVDateTime(vevent, ical.PropDateTimeEnd, ev.End)

	cal.Children = append(cal.Children, vevent.Component)
	return cal
}

// setDAVDateTime re-attaches the canonical zone to the wall-clock fields so
// the server sees TZID=<zone> rather than a UTC instant.
func setDAVDateTime(vevent *ical.Event, name string, dt model.DateTime) {
	switch {
	case dt.DateTime != nil:
		t := dt.DateTime.UTC()
		if dt.TimeZone != "" {
			if loc, err := time.LoadLocation(dt.TimeZone); err == nil {
				t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
			}
		}
		vevent.Props.SetDateTime(name, t)
	case dt.Date != "":
		prop := ical.NewProp(name)
		prop.SetValueType(ical.ValueDate)
		prop.Value = strings.ReplaceAll(dt.Date, "-", "")
		vevent.Props.Set(prop)
	}
}

// objectName makes a UID safe to use as a path segment.
func objectName(uid string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '?', '#', '%', ' ':
			return '_'
		}
		return r
	}, uid)
}
