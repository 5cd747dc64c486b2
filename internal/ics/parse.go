package ics

import (
	"strings"

	appLog "icsfix/internal/log"
	"icsfix/internal/model"
)

// WarningKind classifies a structural problem found while parsing.
type WarningKind string

const (
	WarnUnknownContext     WarningKind = "unknown context"
	WarnOutOfContext       WarningKind = "out of context"
	WarnMissingContext     WarningKind = "context missing"
	WarnBrokenContinuation WarningKind = "broken continuation"
	WarnMissingColon       WarningKind = "missing colon"
)

// Warning describes a line the parser dropped or could not place.
type Warning struct {
	Source string
	Line   int
	Kind   WarningKind
	Text   string
}

// Parser turns ICS text into a model.Document. The zero value is a strict
// parser.
type Parser struct {
	// Lenient accepts a first line that merely ends with BEGIN:VCALENDAR
	// and trims whatever precedes it.
	Lenient bool

	// Debug lists substrings; every input line containing one is logged
	// together with the open component context.
	Debug []string

	// OnWarning, if set, receives every structural warning in addition
	// to the log.
	OnWarning func(Warning)
}

const (
	beginPrefix = "BEGIN:"
	endPrefix   = "END:"
	beginRoot   = beginPrefix + model.RootTag
)

// scope is one open component frame. Exactly one of the pointers is set.
type scope struct {
	cal   *model.Calendar
	entry *model.Entry
	sub   *model.Sub
}

func (s scope) props() *model.Props {
	switch {
	case s.sub != nil:
		return &s.sub.Props
	case s.entry != nil:
		return &s.entry.Props
	default:
		return &s.cal.Props
	}
}

// parseState holds the per-call state of Parse.
type parseState struct {
	p      *Parser
	source string
	lineno int

	tags   []string // every BEGIN tag still open, recognized or not
	frames []scope  // calendar, then optionally entry, then optionally sub
	key    string   // last property key, target of continuation lines
}

// Parse parses body, decoded lossily as UTF-8. source labels log lines.
// It returns ErrNotICS if the first line does not open a VCALENDAR.
func (p *Parser) Parse(source string, body []byte) (*model.Document, error) {
	lines := splitLines(strings.ToValidUTF8(string(body), "\uFFFD"))
	if len(lines) == 0 {
		appLog.Debug("not ics data", "source", source, "reason", "empty")
		return nil, ErrNotICS
	}

	first := lines[0]
	if p.Lenient && first != beginRoot && strings.HasSuffix(first, beginRoot) {
		appLog.Debug("trimming prefix before BEGIN:VCALENDAR", "source", source, "bytes", len(first)-len(beginRoot))
		first = beginRoot
	}
	if first != beginRoot {
		appLog.Debug("not ics data", "source", source)
		return nil, ErrNotICS
	}
	lines[0] = first

	st := &parseState{
		p:      p,
		source: source,
		frames: []scope{{cal: model.NewCalendar()}},
	}
	for i, line := range lines {
		st.lineno = i + 1
		st.debug(line)
		st.line(line)
	}

	return &model.Document{Root: st.frames[0].cal}, nil
}

func (st *parseState) line(line string) {
	switch {
	case strings.HasPrefix(line, beginPrefix):
		st.begin(line, strings.TrimPrefix(line, beginPrefix))
	case strings.HasPrefix(line, endPrefix):
		st.end(line, strings.TrimPrefix(line, endPrefix))
	case strings.HasPrefix(line, " "), strings.HasPrefix(line, `\`):
		st.continuation(line)
	default:
		st.property(line)
	}
}

func (st *parseState) begin(line, tag string) {
	st.tags = append(st.tags, tag)

	if tag == model.RootTag {
		st.frames = []scope{{cal: model.NewCalendar()}}
		return
	}
	if kind, ok := model.Level1KindOf(tag); ok {
		st.frames = append(st.frames[:1], scope{entry: model.NewEntry(kind)})
		return
	}
	if kind, ok := model.Level2KindOf(tag); ok {
		if st.entry() == nil {
			// Detached: properties up to the matching END are discarded.
			st.warn(WarnMissingContext, line)
			st.frames = append(st.frames[:1], scope{sub: model.NewSub(kind)})
			return
		}
		st.frames = append(st.frames[:2], scope{sub: model.NewSub(kind)})
		return
	}

	// Unknown components open no scope. Their properties land in
	// whatever component is currently open.
	st.warn(WarnUnknownContext, line)
}

func (st *parseState) end(line, tag string) {
	appLog.Debug("closing component", "source", st.source, "line", st.lineno, "context", st.context())
	if n := len(st.tags); n == 0 {
		st.warn(WarnOutOfContext, line)
	} else {
		if st.tags[n-1] != tag {
			st.warn(WarnOutOfContext, line)
		}
		st.tags = st.tags[:n-1]
	}

	if tag == model.RootTag {
		return
	}
	if kind, ok := model.Level1KindOf(tag); ok {
		entry := st.entry()
		if entry == nil {
			st.warn(WarnMissingContext, line)
			st.frames = st.frames[:1]
			return
		}
		st.frames[0].cal.Add(kind, entry)
		st.frames = st.frames[:1]
		return
	}
	if kind, ok := model.Level2KindOf(tag); ok {
		entry, sub := st.entry(), st.sub()
		if entry == nil {
			st.warn(WarnMissingContext, line)
			st.frames = st.frames[:1]
			return
		}
		if sub == nil {
			st.warn(WarnMissingContext, line)
			return
		}
		entry.Add(kind, sub)
		st.frames = st.frames[:2]
		return
	}

	st.warn(WarnUnknownContext, line)
}

func (st *parseState) continuation(line string) {
	if strings.HasPrefix(line, `\`) {
		line = " " + line
	}
	if st.key == "" || !st.innermost().props().Fold(st.key, line) {
		st.warn(WarnBrokenContinuation, line)
	}
}

func (st *parseState) property(line string) {
	key, val, ok := strings.Cut(line, ":")
	if !ok {
		st.warn(WarnMissingColon, line)
		return
	}
	props := st.innermost().props()
	if model.IsMultiValue(key) {
		props.Append(key, val)
	} else {
		props.SetText(key, val)
	}
	st.key = key
}

func (st *parseState) innermost() scope {
	return st.frames[len(st.frames)-1]
}

func (st *parseState) entry() *model.Entry {
	if len(st.frames) > 1 {
		return st.frames[1].entry
	}
	return nil
}

func (st *parseState) sub() *model.Sub {
	if len(st.frames) > 2 {
		return st.frames[2].sub
	}
	return nil
}

func (st *parseState) context() string {
	return strings.Join(st.tags, " -> ")
}

func (st *parseState) warn(kind WarningKind, line string) {
	appLog.Warn(string(kind), "source", st.source, "line", st.lineno, "text", line, "context", st.context())
	if st.p.OnWarning != nil {
		st.p.OnWarning(Warning{Source: st.source, Line: st.lineno, Kind: kind, Text: line})
	}
}

func (st *parseState) debug(line string) {
	for _, pattern := range st.p.Debug {
		if pattern != "" && strings.Contains(line, pattern) {
			appLog.Info("debug pattern found", "source", st.source, "line", st.lineno, "pattern", pattern, "text", line, "context", st.context())
		}
	}
}

// splitLines splits on CRLF, LF or CR. A trailing line break does not
// produce an empty last line.
func splitLines(s string) []string {
	var out []string
	for len(s) > 0 {
		i := strings.IndexAny(s, "\r\n")
		if i < 0 {
			out = append(out, s)
			break
		}
		out = append(out, s[:i])
		if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
			i++
		}
		s = s[i+1:]
	}
	return out
}
