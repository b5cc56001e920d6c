package ics

import "testing"

func TestExtract(t *testing.T) {
	block := EventBlock{Properties: []Property{
		{Name: "UID", Value: "abc@example.com"},
		{Name: "SUMMARY", Value: "Draft"},
		{Name: "SUMMARY", Value: "Budget, Q3 review"},
		{Name: "LOCATION", Value: "Room 4; floor 2"},
		{Name: "DESCRIPTION", Value: "Agenda:\n1. numbers\\totals"},
		{Name: "DTSTART", Value: "20230801T090000", Params: []Param{{Name: "TZID", Values: []string{"Romance Standard Time"}}}},
		{Name: "DTEND", Value: "20230801T100000"},
		{Name: "X-MICROSOFT-CDO-BUSYSTATUS", Value: "BUSY"},
		{Name: "summary", Value: "lowercase names are not SUMMARY"},
	}}

	ev := Extract(block)

	if ev.ID == nil || *ev.ID != "abc@example.com" {
		t.Errorf("ID = %v", ev.ID)
	}
	if ev.Summary != "Budget, Q3 review" {
		t.Errorf("Summary = %q, want last SUMMARY", ev.Summary)
	}
	if ev.Location == nil || *ev.Location != "Room 4; floor 2" {
		t.Errorf("Location = %v", ev.Location)
	}
	if ev.Description == nil || *ev.Description != "Agenda:\n1. numbers\\totals" {
		t.Errorf("Description = %q", *ev.Description)
	}
	if ev.Start.Value != "20230801T090000" || len(ev.Start.Params) != 1 {
		t.Errorf("Start = %+v", ev.Start)
	}
	if ev.End.Value != "20230801T100000" || len(ev.End.Params) != 0 {
		t.Errorf("End = %+v", ev.End)
	}
}

func TestExtractEmptyBlock(t *testing.T) {
	ev := Extract(EventBlock{})

	if ev.ID != nil || ev.Location != nil || ev.Description != nil {
		t.Errorf("optional fields set on empty block: %+v", ev)
	}
	if ev.Summary != "" {
		t.Errorf("Summary = %q, want empty", ev.Summary)
	}
	if ev.Start.Value != "" || ev.End.Value != "" {
		t.Errorf("raw dates set on empty block: %+v", ev)
	}
}

func TestExtractEmptyUID(t *testing.T) {
	tests := []struct {
		name  string
		props []Property
	}{
		{name: "empty value", props: []Property{{Name: "UID", Value: ""}}},
		{name: "empty value wins", props: []Property{{Name: "UID", Value: "a@x"}, {Name: "UID", Value: ""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ev := Extract(EventBlock{Properties: tt.props}); ev.ID != nil {
				t.Errorf("ID = %q, want nil", *ev.ID)
			}
		})
	}
}
