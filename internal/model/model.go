package model

import "time"

// DateTime is a normalized event boundary. At most one of Date and DateTime
// is set; both are empty when the source timestamp could not be used.
type DateTime struct {
	// Date is a calendar date (YYYY-MM-DD) for events without a time of day.
	Date string `json:"date,omitempty"`

	// DateTime holds the wall-clock fields of the source timestamp anchored
	// to UTC. No zone arithmetic is applied; TimeZone is metadata only.
	DateTime *time.Time `json:"dateTime,omitempty"`

	// TimeZone is a canonical IANA zone name resolved from the TZID alias.
	TimeZone string `json:"timeZone,omitempty"`
}

// IsZero reports whether neither a date nor a date-time was populated.
func (d DateTime) IsZero() bool {
	return d.Date == "" && d.DateTime == nil
}

// Event is a single normalized VEVENT, independent of source feed quirks.
type Event struct {
	ID          *string  `json:"id,omitempty"`
	Summary     string   `json:"summary"`
	Location    *string  `json:"location,omitempty"`
	Description *string  `json:"description,omitempty"`
	Start       DateTime `json:"start"`
	End         DateTime `json:"end"`
}

// StringValue dereferences an optional string field.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
