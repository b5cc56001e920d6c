package publish

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	goics "github.com/arran4/golang-ical"

	"github.com/jdhoffa/lookout-g/internal/model"
)

const productID = "-//lookout//normalized feed//EN"

// ICSFile re-serializes the normalized events as an iCalendar document with
// canonical TZID values.
type ICSFile struct {
	W   io.Writer
	Now func() time.Time
}

func (p *ICSFile) Name() string { return "ics" }

func (p *ICSFile) Publish(_ context.Context, events []model.Event) ([]Receipt, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	cal := goics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(goics.MethodPublish)

	receipts := make([]Receipt, 0, len(events))
	for _, ev := range events {
		uid := eventUID(ev)
		vev := cal.AddEvent(uid)
		vev.SetDtStampTime(now())
		vev.SetSummary(ev.Summary)
		if ev.Location != nil {
			vev.SetLocation(*ev.Location)
		}
		if ev.Description != nil {
			vev.SetDescription(*ev.Description)
		}
		setICSDateTime(vev, goics.ComponentPropertyDtStart, ev.Start)
		setICSDateTime(vev, goics.ComponentPropertyDtEnd, ev.End)

		r := Receipt{Summary: describe(ev), Link: uid}
		record(p.Name(), r)
		receipts = append(receipts, r)
	}

	if _, err := io.WriteString(p.W, cal.Serialize()); err != nil {
		return nil, fmt.Errorf("write calendar: %w", err)
	}
	return receipts, nil
}

// setICSDateTime writes the wall-clock value back with its canonical zone.
// A date-time without a zone is written in UTC form.
func setICSDateTime(vev *goics.VEvent, prop goics.ComponentProperty, dt model.DateTime) {
	switch {
	case dt.DateTime != nil:
		value := dt.DateTime.UTC().Format("20060102T150405")
		if dt.TimeZone == "" {
			vev.SetProperty(prop, value+"Z")
			return
		}
		vev.SetProperty(prop, value, &goics.KeyValues{Key: string(goics.ParameterTzid), Value: []string{dt.TimeZone}})
	case dt.Date != "":
		vev.SetProperty(prop, strings.ReplaceAll(dt.Date, "-", ""),
			&goics.KeyValues{Key: string(goics.ParameterValue), Value: []string{"DATE"}})
	}
}
