package ics

import (
	"bytes"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "icsfix/internal/log"
)

// Finding is one diagnostic reported by Lint.
type Finding struct {
	Component string // "VCALENDAR", "VEVENT" or "VTODO"
	UID       string
	Message   string
}

// Lint loads body with an independent RFC 5545 parser and reports what a
// strict client would reject. It never modifies anything and is meant to
// run on Writer output.
//
//   - the whole text must load;
//   - every VEVENT/VTODO should carry a UID;
//   - every RRULE must parse.
func Lint(source string, body []byte) []Finding {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Debug("lint: calendar does not load", "source", source, "err", err)
		return []Finding{{Component: "VCALENDAR", Message: "does not load: " + err.Error()}}
	}

	var out []Finding
	for _, c := range cal.Components {
		switch comp := c.(type) {
		case *ical.VEvent:
			out = append(out, lintComponent(source, "VEVENT", &comp.ComponentBase)...)
		case *ical.VTodo:
			out = append(out, lintComponent(source, "VTODO", &comp.ComponentBase)...)
		}
	}

	appLog.Debug("lint completed", "source", source, "findings", len(out))
	return out
}

func lintComponent(source, name string, cb *ical.ComponentBase) []Finding {
	var out []Finding

	uid := ""
	if p := cb.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		uid = p.Value
	}
	if uid == "" {
		out = append(out, Finding{Component: name, Message: "missing UID"})
	}

	for _, p := range cb.GetProperties(ical.ComponentPropertyRrule) {
		if _, err := rrule.StrToRRule(p.Value); err != nil {
			appLog.Debug("lint: bad RRULE", "source", source, "uid", uid, "rrule", p.Value, "err", err)
			out = append(out, Finding{Component: name, UID: uid, Message: "bad RRULE: " + err.Error()})
		}
	}
	return out
}
