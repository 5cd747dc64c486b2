package ics

import "errors"

var (
	// ErrNotICS is returned by the parser when the first line is not
	// BEGIN:VCALENDAR.
	ErrNotICS = errors.New("not ics data")

	// ErrNoCalendar is returned when a document has no VCALENDAR root.
	ErrNoCalendar = errors.New("no VCALENDAR root")

	// ErrNoEvents is returned by Fixup when the calendar holds no VEVENT.
	ErrNoEvents = errors.New("calendar has no VEVENT")

	// ErrNoEntries is returned by Split when the calendar holds neither
	// VEVENT nor VTODO.
	ErrNoEntries = errors.New("calendar has no VEVENT or VTODO")

	// ErrNothingToSplit is returned by Split for a single-entry calendar.
	ErrNothingToSplit = errors.New("nothing to split, single entry")
)
