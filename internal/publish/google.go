package publish

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/jdhoffa/lookout-g/internal/model"
)

const sourceUIDPropertyKey = "lookout-source-uid"

// CalendarService is the subset of the Google Calendar API the publisher
// uses.
type CalendarService interface {
	// FindCalendar returns the ID of the calendar whose summary is name.
	FindCalendar(ctx context.Context, name string) (string, error)
	Insert(ctx context.Context, calendarID string, ev *calendar.Event) (*calendar.Event, error)
}

// Google inserts each event into the calendar named CalendarName.
type Google struct {
	Service      CalendarService
	CalendarName string
}

// NewGoogle builds a publisher on top of an authorized HTTP client.
func NewGoogle(ctx context.Context, client *http.Client, calendarName string) (*Google, error) {
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Google{Service: &calendarService{srv: srv}, CalendarName: calendarName}, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) Publish(ctx context.Context, events []model.Event) ([]Receipt, error) {
	calendarID, err := g.Service.FindCalendar(ctx, g.CalendarName)
	if err != nil {
		return nil, fmt.Errorf("resolve calendar %q: %w", g.CalendarName, err)
	}

	receipts := make([]Receipt, 0, len(events))
	for _, ev := range events {
		r := Receipt{Summary: describe(ev)}
		created, err := g.Service.Insert(ctx, calendarID, ToGoogleEvent(ev))
		if err != nil {
			r.Err = err
		} else {
			r.Link = created.HtmlLink
		}
		record(g.Name(), r)
		receipts = append(receipts, r)
	}
	return receipts, nil
}

// ToGoogleEvent maps a normalized event onto the Calendar API resource.
// The source UID is kept as a private extended property because Google
// event IDs have their own format.
func ToGoogleEvent(ev model.Event) *calendar.Event {
	out := &calendar.Event{
		Summary:     ev.Summary,
		Location:    model.StringValue(ev.Location),
		Description: model.StringValue(ev.Description),
		Start:       toGoogleDateTime(ev.Start),
		End:         toGoogleDateTime(ev.End),
	}
	if ev.ID != nil {
		out.ExtendedProperties = &calendar.EventExtendedProperties{
			Private: map[string]string{sourceUIDPropertyKey: *ev.ID},
		}
	}
	return out
}

func toGoogleDateTime(dt model.DateTime) *calendar.EventDateTime {
	out := &calendar.EventDateTime{
		Date:     dt.Date,
		TimeZone: dt.TimeZone,
	}
	if dt.DateTime != nil {
		out.DateTime = dt.DateTime.Format(time.RFC3339)
	}
	return out
}

type calendarService struct {
	srv *calendar.Service
}

func (c *calendarService) FindCalendar(ctx context.Context, name string) (string, error) {
	var id string
	err := c.srv.CalendarList.List().Pages(ctx, func(list *calendar.CalendarList) error {
		for _, entry := range list.Items {
			if id == "" && entry.Summary == name {
				id = entry.Id
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("list calendars: %w", err)
	}
	if id == "" {
		return "", ErrCalendarNotFound
	}
	return id, nil
}

func (c *calendarService) Insert(ctx context.Context, calendarID string, ev *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Insert(calendarID, ev).Context(ctx).Do()
}
