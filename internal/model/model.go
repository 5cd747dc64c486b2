package model

// Level1Kind names a component nested directly under VCALENDAR.
type Level1Kind string

const (
	KindEvent    Level1Kind = "VEVENT"
	KindTodo     Level1Kind = "VTODO"
	KindTimezone Level1Kind = "VTIMEZONE"
	KindAlarm1   Level1Kind = "ALARM"
)

// Level2Kind names a component nested under a level-1 component.
type Level2Kind string

const (
	KindValarm   Level2Kind = "VALARM"
	KindStandard Level2Kind = "STANDARD"
	KindDaylight Level2Kind = "DAYLIGHT"
)

// RootTag is the tag of the single document root.
const RootTag = "VCALENDAR"

// Level1KindOf reports whether tag is a recognized level-1 component name.
func Level1KindOf(tag string) (Level1Kind, bool) {
	switch k := Level1Kind(tag); k {
	case KindEvent, KindTodo, KindTimezone, KindAlarm1:
		return k, true
	}
	return "", false
}

// Level2KindOf reports whether tag is a recognized level-2 component name.
func Level2KindOf(tag string) (Level2Kind, bool) {
	switch k := Level2Kind(tag); k {
	case KindValarm, KindStandard, KindDaylight:
		return k, true
	}
	return "", false
}

// IsMultiValue reports whether repeated lines with key are collected
// into a list instead of overwriting each other.
func IsMultiValue(key string) bool {
	return key == "ATTACH" || key == "ATTENDEE"
}

// Document is the result of parsing one ICS text. Root is nil when the
// text carried no VCALENDAR.
type Document struct {
	Root *Calendar
}

// Calendar is the VCALENDAR root: calendar-level properties plus the
// level-1 components in first-seen order.
type Calendar struct {
	Props   Props
	entries map[Level1Kind][]*Entry
}

// Entry is a level-1 component such as a VEVENT or VTODO.
type Entry struct {
	Kind  Level1Kind
	Props Props
	subs  map[Level2Kind][]*Sub
}

// Sub is a level-2 component such as a VALARM. It cannot nest further.
type Sub struct {
	Kind  Level2Kind
	Props Props
}

func NewCalendar() *Calendar {
	return &Calendar{entries: make(map[Level1Kind][]*Entry)}
}

func NewEntry(kind Level1Kind) *Entry {
	return &Entry{Kind: kind, subs: make(map[Level2Kind][]*Sub)}
}

func NewSub(kind Level2Kind) *Sub {
	return &Sub{Kind: kind}
}

// Add appends e to the list for kind. The first entry of a kind fixes
// the position of the whole group relative to the calendar properties.
// kind is normally e.Kind, but the parser files entries under the tag
// that closed them.
func (c *Calendar) Add(kind Level1Kind, e *Entry) {
	if c.entries == nil {
		c.entries = make(map[Level1Kind][]*Entry)
	}
	if _, ok := c.entries[kind]; !ok {
		c.Props.markGroup(string(kind))
	}
	c.entries[kind] = append(c.entries[kind], e)
}

// Entries returns the stored entries of kind in order.
func (c *Calendar) Entries(kind Level1Kind) []*Entry {
	return c.entries[kind]
}

// Count returns the number of entries of the given kinds.
func (c *Calendar) Count(kinds ...Level1Kind) int {
	n := 0
	for _, k := range kinds {
		n += len(c.entries[k])
	}
	return n
}

// Kinds returns the level-1 kinds present, in first-seen order.
func (c *Calendar) Kinds() []Level1Kind {
	var out []Level1Kind
	for _, m := range c.Props.order {
		if m.Group {
			out = append(out, Level1Kind(m.Name))
		}
	}
	return out
}

// Layout returns properties and groups in their stored order.
func (c *Calendar) Layout() []Member {
	return c.Props.Layout()
}

// Without returns a deep copy of c that lacks the given entry kinds.
func (c *Calendar) Without(kinds ...Level1Kind) *Calendar {
	skip := make(map[Level1Kind]bool, len(kinds))
	for _, k := range kinds {
		skip[k] = true
	}
	out := NewCalendar()
	out.Props.vals = make(map[string]Value, len(c.Props.vals))
	for _, m := range c.Props.order {
		if m.Group {
			kind := Level1Kind(m.Name)
			if skip[kind] {
				continue
			}
			for _, e := range c.entries[kind] {
				out.Add(kind, e.Clone())
			}
			continue
		}
		out.Props.order = append(out.Props.order, m)
		out.Props.vals[m.Name] = c.Props.vals[m.Name].clone()
	}
	return out
}

// Clone returns a deep copy of c.
func (c *Calendar) Clone() *Calendar {
	return c.Without()
}

// Add appends s to the list for kind.
func (e *Entry) Add(kind Level2Kind, s *Sub) {
	if e.subs == nil {
		e.subs = make(map[Level2Kind][]*Sub)
	}
	if _, ok := e.subs[kind]; !ok {
		e.Props.markGroup(string(kind))
	}
	e.subs[kind] = append(e.subs[kind], s)
}

// Subs returns the stored sub-components of kind in order.
func (e *Entry) Subs(kind Level2Kind) []*Sub {
	return e.subs[kind]
}

// Layout returns properties and sub-component groups in stored order.
func (e *Entry) Layout() []Member {
	return e.Props.Layout()
}

func (e *Entry) Clone() *Entry {
	out := NewEntry(e.Kind)
	out.Props.vals = make(map[string]Value, len(e.Props.vals))
	for _, m := range e.Props.order {
		if m.Group {
			kind := Level2Kind(m.Name)
			for _, s := range e.subs[kind] {
				out.Add(kind, s.Clone())
			}
			continue
		}
		out.Props.order = append(out.Props.order, m)
		out.Props.vals[m.Name] = e.Props.vals[m.Name].clone()
	}
	return out
}

func (s *Sub) Clone() *Sub {
	return &Sub{Kind: s.Kind, Props: s.Props.Clone()}
}
