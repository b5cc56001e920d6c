package ics

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	goics "github.com/arran4/golang-ical"
)

func crlf(lines ...string) string {
	return strings.Join(lines, "\r\n") + "\r\n"
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Property
		wantErr bool
	}{
		{
			name: "plain value",
			line: "SUMMARY:Team sync",
			want: Property{Name: "SUMMARY", Value: "Team sync"},
		},
		{
			name: "value containing colons",
			line: "DESCRIPTION:Join at https://example.com:8443/x",
			want: Property{Name: "DESCRIPTION", Value: "Join at https://example.com:8443/x"},
		},
		{
			name: "single parameter",
			line: "DTSTART;TZID=Romance Standard Time:20230801T090000",
			want: Property{
				Name:   "DTSTART",
				Value:  "20230801T090000",
				Params: []Param{{Name: "TZID", Values: []string{"Romance Standard Time"}}},
			},
		},
		{
			name: "multi-valued and quoted parameters",
			line: `ATTENDEE;ROLE=REQ-PARTICIPANT;DELEGATED-TO="mailto:a@x.org","mailto:b@x.org";X=1,2:mailto:c@x.org`,
			want: Property{
				Name:  "ATTENDEE",
				Value: "mailto:c@x.org",
				Params: []Param{
					{Name: "DELEGATED-TO", Values: []string{"mailto:a@x.org", "mailto:b@x.org"}},
					{Name: "ROLE", Values: []string{"REQ-PARTICIPANT"}},
					{Name: "X", Values: []string{"1", "2"}},
				},
			},
		},
		{
			name: "quoted value with colon",
			line: `DTSTART;TZID="(UTC+01:00) Amsterdam":20230801T090000`,
			want: Property{
				Name:   "DTSTART",
				Value:  "20230801T090000",
				Params: []Param{{Name: "TZID", Values: []string{"(UTC+01:00) Amsterdam"}}},
			},
		},
		{
			name: "empty value",
			line: "LOCATION:",
			want: Property{Name: "LOCATION", Value: ""},
		},
		{
			name: "text escapes",
			line: `DESCRIPTION:Budget\, Q3\; see\nnotes\\old`,
			want: Property{Name: "DESCRIPTION", Value: "Budget, Q3; see\nnotes\\old"},
		},
		{
			name: "repeated parameter keeps source order",
			line: "DTSTART;TZID=First;TZID=Second:20230801T090000",
			want: Property{
				Name:   "DTSTART",
				Value:  "20230801T090000",
				Params: []Param{{Name: "TZID", Values: []string{"First", "Second"}}},
			},
		},
		{name: "no colon", line: "GARBAGE LINE", wantErr: true},
		{name: "empty name", line: ":value", wantErr: true},
		{name: "parameter without equals", line: "DTSTART;TZID:20230801", wantErr: true},
		{name: "unterminated quote", line: `DTSTART;TZID="Europe:20230801`, wantErr: true},
		{name: "junk after quoted value", line: `DTSTART;TZID="a"b:20230801`, wantErr: true},
		{name: "junk before name", line: "  SUMMARY:x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLine(goics.ContentLine(tt.line))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseLine(%q) expected error, got %+v", tt.line, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLine(%q) unexpected error: %v", tt.line, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseLine(%q)\n got %+v\nwant %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestDecodeSingleCalendar(t *testing.T) {
	feed := crlf(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"X-WR-CALNAME:Work",
		"BEGIN:VTIMEZONE",
		"TZID:Romance Standard Time",
		"END:VTIMEZONE",
		"BEGIN:VEVENT",
		"UID:1",
		"SUMMARY:First",
		"BEGIN:VALARM",
		"ACTION:DISPLAY",
		"DESCRIPTION:Reminder",
		"END:VALARM",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:2",
		"END:VEVENT",
		"END:VCALENDAR",
	)

	dec := NewDecoder(strings.NewReader(feed))
	cal, err := dec.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(cal.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(cal.Events))
	}

	first := cal.Events[0].Properties
	if len(first) != 2 {
		t.Fatalf("alarm properties leaked into event: %+v", first)
	}
	if first[0].Name != "UID" || first[1].Name != "SUMMARY" {
		t.Errorf("properties out of order: %+v", first)
	}

	if _, err := dec.Decode(); !errors.Is(err, io.EOF) {
		t.Errorf("second Decode = %v, want io.EOF", err)
	}
}

func TestDecodeUnfoldsLines(t *testing.T) {
	feed := "BEGIN:VCALENDAR\nBEGIN:VEVENT\nDESCRIPTION:line one\n  continues\n\tand ends\nEND:VEVENT\nEND:VCALENDAR\n"

	cal, err := NewDecoder(strings.NewReader(feed)).Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := cal.Events[0].Properties[0].Value
	if want := "line one continuesand ends"; got != want {
		t.Errorf("unfolded value = %q, want %q", got, want)
	}
}

func TestDecodeIgnoresLinesOutsideCalendar(t *testing.T) {
	feed := crlf(
		"garbage before",
		"SUMMARY:stray",
		"",
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"SUMMARY:kept",
		"END:VEVENT",
		"END:VCALENDAR",
		"trailing junk",
	)

	var cals []*Calendar
	for cal, err := range NewDecoder(strings.NewReader(feed)).Calendars() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cals = append(cals, cal)
	}
	if len(cals) != 1 || len(cals[0].Events) != 1 {
		t.Fatalf("got %d calendars, want 1 with 1 event", len(cals))
	}
}

func TestDecodeRecoversAfterMalformedCalendar(t *testing.T) {
	tests := []struct {
		name string
		bad  []string
	}{
		{
			name: "line without colon",
			bad:  []string{"BEGIN:VCALENDAR", "BEGIN:VEVENT", "SUMMARY broken", "END:VEVENT", "END:VCALENDAR"},
		},
		{
			name: "mismatched end",
			bad:  []string{"BEGIN:VCALENDAR", "BEGIN:VEVENT", "SUMMARY:x", "END:VCALENDAR"},
		},
		{
			name: "missing end before next calendar",
			bad:  []string{"BEGIN:VCALENDAR", "BEGIN:VEVENT", "SUMMARY:x", "END:VEVENT"},
		},
	}

	good := []string{"BEGIN:VCALENDAR", "BEGIN:VEVENT", "SUMMARY:good", "END:VEVENT", "END:VCALENDAR"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := crlf(append(append([]string{}, tt.bad...), good...)...)

			var (
				syntaxErrs int
				events     []EventBlock
			)
			for cal, err := range NewDecoder(strings.NewReader(feed)).Calendars() {
				var se *SyntaxError
				if errors.As(err, &se) {
					syntaxErrs++
					if se.Line == 0 {
						t.Errorf("syntax error without line number: %v", se)
					}
					continue
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				events = append(events, cal.Events...)
			}

			if syntaxErrs != 1 {
				t.Errorf("got %d syntax errors, want 1", syntaxErrs)
			}
			if len(events) != 1 || events[0].Properties[0].Value != "good" {
				t.Errorf("got events %+v, want only the good one", events)
			}
		})
	}
}

func TestDecodeTruncatedInput(t *testing.T) {
	feed := crlf("BEGIN:VCALENDAR", "BEGIN:VEVENT", "SUMMARY:cut")

	dec := NewDecoder(strings.NewReader(feed))
	_, err := dec.Decode()
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("Decode = %v, want *SyntaxError", err)
	}
	if _, err := dec.Decode(); !errors.Is(err, io.EOF) {
		t.Errorf("Decode after truncation = %v, want io.EOF", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestDecodeReaderError(t *testing.T) {
	dec := NewDecoder(failingReader{})
	_, err := dec.Decode()
	if err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("Decode = %v, want read error", err)
	}
	var se *SyntaxError
	if errors.As(err, &se) {
		t.Errorf("read error reported as syntax error: %v", err)
	}
}

func TestDecodeComponentNamesIgnoreSurroundingSpace(t *testing.T) {
	feed := crlf(
		"BEGIN:VCALENDAR ",
		"BEGIN:vevent ",
		"SUMMARY:padded",
		"END:VEVENT\t",
		"END: VCALENDAR",
	)

	cal, err := NewDecoder(strings.NewReader(feed)).Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(cal.Events) != 1 || cal.Events[0].Properties[0].Value != "padded" {
		t.Errorf("events = %+v, want the padded VEVENT", cal.Events)
	}
}

func TestDecodeVeryLongLine(t *testing.T) {
	long := "DESCRIPTION:" + strings.Repeat("x", 5<<20)
	feed := crlf(
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT", "SUMMARY:first", long, "END:VEVENT",
		"END:VCALENDAR",
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT", "SUMMARY:second", "END:VEVENT",
		"END:VCALENDAR",
	)

	var summaries []string
	for cal, err := range NewDecoder(strings.NewReader(feed)).Calendars() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, ev := range cal.Events {
			summaries = append(summaries, ev.Properties[0].Value)
		}
	}
	if !reflect.DeepEqual(summaries, []string{"first", "second"}) {
		t.Errorf("summaries = %v", summaries)
	}
}

func TestDecodeLastLineWithoutNewline(t *testing.T) {
	feed := "BEGIN:VCALENDAR\r\nBEGIN:VEVENT\r\nEND:VEVENT\r\nEND:VCALENDAR"

	dec := NewDecoder(strings.NewReader(feed))
	cal, err := dec.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(cal.Events) != 1 {
		t.Errorf("got %d events, want 1", len(cal.Events))
	}
	if _, err := dec.Decode(); !errors.Is(err, io.EOF) {
		t.Errorf("second Decode = %v, want io.EOF", err)
	}
}
