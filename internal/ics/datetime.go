package ics

import (
	"strings"
	"time"

	appLog "github.com/jdhoffa/lookout-g/internal/log"
	"github.com/jdhoffa/lookout-g/internal/model"
)

const (
	wallClockLayout = "20060102T150405"
	wallClockLen    = len(wallClockLayout)
	dateOnlyLen     = len("20060102")
)

// NormalizeDateTime converts a raw DTSTART/DTEND into its normalized form.
//
//   - 15 characters or more: YYYYMMDDTHHMMSS, optionally followed by the UTC
//     designator Z. The wall-clock fields are taken as a UTC instant. If they
//     do not parse, the result carries neither a date nor a date-time.
//   - 8 to 14 characters: the first 8 are reformatted to YYYY-MM-DD without
//     any range check.
//   - shorter: nothing is populated.
//
// The TZID alias is resolved the same way in every case.
func NormalizeDateTime(raw RawDateTime) model.DateTime {
	out := model.DateTime{TimeZone: ResolveTimeZone(raw.Params)}

	v := raw.Value
	switch {
	case len(v) >= wallClockLen:
		t, err := time.ParseInLocation(wallClockLayout, strings.TrimSuffix(v, "Z"), time.UTC)
		if err != nil {
			appLog.Debug("ics date-time not parsed", "value", v, "err", err)
			return out
		}
		out.DateTime = &t
	case len(v) >= dateOnlyLen:
		out.Date = v[0:4] + "-" + v[4:6] + "-" + v[6:8]
	}
	return out
}

// NormalizeEvent turns an extracted event into the output record.
func NormalizeEvent(raw RawEvent) model.Event {
	return model.Event{
		ID:          raw.ID,
		Summary:     raw.Summary,
		Location:    raw.Location,
		Description: raw.Description,
		Start:       NormalizeDateTime(raw.Start),
		End:         NormalizeDateTime(raw.End),
	}
}
