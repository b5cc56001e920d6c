package ics

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"
	"strings"

	goics "github.com/arran4/golang-ical"
)

// Param is one property parameter. Values keeps the comma-separated list in
// source order with surrounding quotes removed.
type Param struct {
	Name   string
	Values []string
}

// Property is a single unfolded content line of a VEVENT. TEXT values
// (SUMMARY, LOCATION, DESCRIPTION, UID...) are already unescaped.
type Property struct {
	Name   string
	Value  string
	Params []Param
}

// Param returns the values of the first parameter with the given name.
func (p Property) Param(name string) ([]string, bool) {
	for _, prm := range p.Params {
		if prm.Name == name {
			return prm.Values, true
		}
	}
	return nil, false
}

// EventBlock holds the properties of one VEVENT in source order. Properties
// of components nested inside the event (VALARM etc.) are not included.
type EventBlock struct {
	Properties []Property
}

// Calendar is one VCALENDAR object of a feed.
type Calendar struct {
	Events []EventBlock
}

// SyntaxError reports a malformed VCALENDAR object. Line is the 1-based
// index of the unfolded content line. The decoder can keep going after it.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("ics: line %d: %s", e.Line, e.Msg)
}

type contentLine struct {
	raw goics.ContentLine
	no  int
}

// Decoder reads VCALENDAR objects from a stream one at a time.
type Decoder struct {
	cs     *goics.CalendarStream
	lineNo int

	carry      *contentLine // BEGIN:VCALENDAR seen inside an unterminated object
	readFailed bool
}

// NewDecoder returns a Decoder reading from r. Lines have no length limit.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{cs: goics.NewCalendarStream(r)}
}

// Decode returns the next VCALENDAR object. It returns io.EOF when the input
// is exhausted and a *SyntaxError when the object is malformed; in the latter
// case the next call resumes at the following BEGIN:VCALENDAR. Any other
// error comes from the underlying reader and is terminal.
func (d *Decoder) Decode() (*Calendar, error) {
	if d.readFailed {
		return nil, io.EOF
	}
	for {
		ln, err := d.next()
		if err != nil {
			return nil, err
		}
		// Anything outside a VCALENDAR, including the remains of an object
		// that failed to parse, is skipped here.
		if p, err := parseLine(ln.raw); err == nil && isComponent(p, "BEGIN", "VCALENDAR") {
			return d.decodeCalendar()
		}
	}
}

// Calendars yields each object of the stream together with its decode error.
// Syntax errors do not end the sequence.
func (d *Decoder) Calendars() iter.Seq2[*Calendar, error] {
	return func(yield func(*Calendar, error) bool) {
		for {
			cal, err := d.Decode()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(cal, err) {
				return
			}
			var se *SyntaxError
			if err != nil && !errors.As(err, &se) {
				return
			}
		}
	}
}

func (d *Decoder) decodeCalendar() (*Calendar, error) {
	cal := &Calendar{}
	stack := []string{"VCALENDAR"}
	var cur *EventBlock

	for {
		ln, err := d.next()
		if errors.Is(err, io.EOF) {
			return nil, &SyntaxError{Line: d.lineNo, Msg: "unexpected end of input inside " + stack[len(stack)-1]}
		}
		if err != nil {
			return nil, err
		}

		p, err := parseLine(ln.raw)
		if err != nil {
			return nil, &SyntaxError{Line: ln.no, Msg: err.Error()}
		}

		switch {
		case strings.EqualFold(p.Name, "BEGIN"):
			name := componentName(p)
			switch name {
			case "":
				return nil, &SyntaxError{Line: ln.no, Msg: "BEGIN without component name"}
			case "VCALENDAR":
				d.carry = &ln
				return nil, &SyntaxError{Line: ln.no, Msg: "BEGIN:VCALENDAR before END:" + stack[len(stack)-1]}
			}
			stack = append(stack, name)
			if len(stack) == 2 && name == "VEVENT" {
				cur = &EventBlock{}
			}

		case strings.EqualFold(p.Name, "END"):
			name := componentName(p)
			if open := stack[len(stack)-1]; name != open {
				return nil, &SyntaxError{Line: ln.no, Msg: fmt.Sprintf("END:%s does not close %s", name, open)}
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return cal, nil
			}
			if len(stack) == 1 && cur != nil {
				cal.Events = append(cal.Events, *cur)
				cur = nil
			}

		default:
			// Only direct children of the VEVENT belong to the block.
			if cur != nil && len(stack) == 2 {
				cur.Properties = append(cur.Properties, p)
			}
		}
	}
}

// next returns the next unfolded, non-blank content line, io.EOF at the end
// of input, or a wrapped read error.
func (d *Decoder) next() (contentLine, error) {
	if d.carry != nil {
		ln := *d.carry
		d.carry = nil
		return ln, nil
	}
	for {
		raw, err := d.cs.ReadLine()
		if err != nil && !errors.Is(err, io.EOF) {
			d.readFailed = true
			return contentLine{}, fmt.Errorf("ics: read feed: %w", err)
		}
		// The stream hands back the last line together with io.EOF when
		// the input does not end in a newline.
		if raw == nil || strings.TrimSpace(string(*raw)) == "" {
			if err != nil {
				return contentLine{}, io.EOF
			}
			continue
		}
		d.lineNo++
		return contentLine{raw: *raw, no: d.lineNo}, nil
	}
}

// parseLine splits a content line into name, parameters and value.
func parseLine(raw goics.ContentLine) (Property, error) {
	bp, err := goics.ParseProperty(raw)
	if err != nil {
		return Property{}, err
	}
	// ParseProperty skips leading junk before the name; treat that as
	// malformed too.
	if bp == nil || !strings.HasPrefix(string(raw), bp.IANAToken) {
		return Property{}, fmt.Errorf("malformed content line %q", truncate(string(raw), 40))
	}

	p := Property{Name: bp.IANAToken, Value: bp.Value}
	for _, name := range slices.Sorted(maps.Keys(bp.ICalParameters)) {
		p.Params = append(p.Params, Param{Name: name, Values: bp.ICalParameters[name]})
	}
	return p, nil
}

func componentName(p Property) string {
	return strings.ToUpper(strings.TrimSpace(p.Value))
}

func isComponent(p Property, keyword, name string) bool {
	return strings.EqualFold(p.Name, keyword) && componentName(p) == name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
