package ics

// RawDateTime is a DTSTART/DTEND value before normalization.
type RawDateTime struct {
	Value  string
	Params []Param
}

// RawEvent is the result of a single pass over an EventBlock.
type RawEvent struct {
	ID          *string
	Summary     string
	Location    *string
	Description *string
	Start       RawDateTime
	End         RawDateTime
}

type propertyHandler func(ev *RawEvent, p Property)

// propertyHandlers maps property names to the field they fill. Names not
// listed here are ignored by Extract.
var propertyHandlers = map[string]propertyHandler{
	// An empty UID counts as absent.
	"UID": func(ev *RawEvent, p Property) {
		ev.ID = nil
		if p.Value != "" {
			ev.ID = stringPtr(p.Value)
		}
	},
	"SUMMARY": func(ev *RawEvent, p Property) {
		ev.Summary = p.Value
	},
	"LOCATION": func(ev *RawEvent, p Property) {
		ev.Location = stringPtr(p.Value)
	},
	"DESCRIPTION": func(ev *RawEvent, p Property) {
		ev.Description = stringPtr(p.Value)
	},
	"DTSTART": func(ev *RawEvent, p Property) {
		ev.Start = RawDateTime{Value: p.Value, Params: p.Params}
	},
	"DTEND": func(ev *RawEvent, p Property) {
		ev.End = RawDateTime{Value: p.Value, Params: p.Params}
	},
}

// Extract fills a RawEvent from the block's properties. A property that
// appears more than once keeps its last value. No property is required.
func Extract(block EventBlock) RawEvent {
	var ev RawEvent
	for _, p := range block.Properties {
		handle, ok := propertyHandlers[p.Name]
		if !ok {
			continue
		}
		handle(&ev, p)
	}
	return ev
}

func stringPtr(s string) *string {
	return &s
}
