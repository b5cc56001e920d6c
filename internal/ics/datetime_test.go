package ics

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func TestResolveTimeZone(t *testing.T) {
	tests := []struct {
		name   string
		params []Param
		want   string
	}{
		{"romance", []Param{{Name: "TZID", Values: []string{"Romance Standard Time"}}}, "Europe/Paris"},
		{"gmt", []Param{{Name: "TZID", Values: []string{"GMT Standard Time"}}}, "Europe/London"},
		{"central europe", []Param{{Name: "TZID", Values: []string{"Central Europe Standard Time"}}}, "Europe/Berlin"},
		{"first value wins", []Param{{Name: "TZID", Values: []string{"UTC", "Pacific Standard Time"}}}, "UTC"},
		{"other params ignored", []Param{{Name: "VALUE", Values: []string{"DATE"}}, {Name: "TZID", Values: []string{"Eastern Standard Time"}}}, "America/New_York"},
		{"case sensitive", []Param{{Name: "TZID", Values: []string{"romance standard time"}}}, ""},
		{"iana name is not an alias", []Param{{Name: "TZID", Values: []string{"Europe/Paris"}}}, ""},
		{"no tzid", []Param{{Name: "VALUE", Values: []string{"DATE"}}}, ""},
		{"no params", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 3 {
				if got := ResolveTimeZone(tt.params); got != tt.want {
					t.Fatalf("ResolveTimeZone() = %q, want %q", got, tt.want)
				}
			}
		})
	}
}

func TestAliasTableZonesLoad(t *testing.T) {
	for alias, zone := range aliasZones {
		if _, err := time.LoadLocation(zone); err != nil {
			t.Errorf("alias %q maps to unknown zone %q: %v", alias, zone, err)
		}
	}
}

func TestNormalizeDateTime(t *testing.T) {
	paris := []Param{{Name: "TZID", Values: []string{"Romance Standard Time"}}}

	tests := []struct {
		name         string
		raw          RawDateTime
		wantDate     string
		wantDateTime string // RFC 3339, empty for none
		wantZone     string
	}{
		{
			name:         "date-time with alias",
			raw:          RawDateTime{Value: "20230801T090000", Params: paris},
			wantDateTime: "2023-08-01T09:00:00Z",
			wantZone:     "Europe/Paris",
		},
		{
			name:         "utc designator",
			raw:          RawDateTime{Value: "20231224T183000Z"},
			wantDateTime: "2023-12-24T18:30:00Z",
		},
		{
			name:     "unparseable date-time keeps zone only",
			raw:      RawDateTime{Value: "2023-08-01T09:00", Params: paris},
			wantZone: "Europe/Paris",
		},
		{
			name: "impossible clock",
			raw:  RawDateTime{Value: "20230801T250000"},
		},
		{
			name:     "date only",
			raw:      RawDateTime{Value: "20230801"},
			wantDate: "2023-08-01",
		},
		{
			name:     "date with trailing text under 15 chars",
			raw:      RawDateTime{Value: "20230801T0900"},
			wantDate: "2023-08-01",
		},
		{
			name:     "out of range month passes through",
			raw:      RawDateTime{Value: "20231345", Params: paris},
			wantDate: "2023-13-45",
			wantZone: "Europe/Paris",
		},
		{
			name: "too short",
			raw:  RawDateTime{Value: "2023080"},
		},
		{
			name: "missing",
			raw:  RawDateTime{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDateTime(tt.raw)

			if got.Date != tt.wantDate {
				t.Errorf("Date = %q, want %q", got.Date, tt.wantDate)
			}
			switch {
			case tt.wantDateTime == "" && got.DateTime != nil:
				t.Errorf("DateTime = %v, want none", got.DateTime)
			case tt.wantDateTime != "" && got.DateTime == nil:
				t.Errorf("DateTime missing, want %s", tt.wantDateTime)
			case tt.wantDateTime != "" && got.DateTime.Format(time.RFC3339) != tt.wantDateTime:
				t.Errorf("DateTime = %s, want %s", got.DateTime.Format(time.RFC3339), tt.wantDateTime)
			}
			if got.Date != "" && got.DateTime != nil {
				t.Errorf("both date and date-time populated: %+v", got)
			}
			if got.TimeZone != tt.wantZone {
				t.Errorf("TimeZone = %q, want %q", got.TimeZone, tt.wantZone)
			}
		})
	}
}

func TestNormalizeDateTimeLengthClasses(t *testing.T) {
	const full = "20240229T235959"
	for n := 0; n <= len(full); n++ {
		got := NormalizeDateTime(RawDateTime{Value: full[:n]})
		switch {
		case n >= 15:
			if got.DateTime == nil || got.Date != "" {
				t.Errorf("len %d: got %+v, want date-time only", n, got)
			}
		case n >= 8:
			if got.Date != "2024-02-29" || got.DateTime != nil {
				t.Errorf("len %d: got %+v, want date 2024-02-29 only", n, got)
			}
		default:
			if !got.IsZero() {
				t.Errorf("len %d: got %+v, want empty", n, got)
			}
		}
	}
}
