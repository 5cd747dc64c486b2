package ics

import (
	"bytes"
	"strings"

	"icsfix/internal/model"
)

// Writer serializes a model.Document back to ICS text. Values are written
// as stored; long lines are not re-folded.
type Writer struct {
	// LineEnding terminates every output line and replaces the "\n"
	// joining folded continuation lines. Empty means "\n".
	LineEnding string
}

// Write renders doc. It returns ErrNoCalendar if doc has no root.
func (w Writer) Write(doc *model.Document) ([]byte, error) {
	if doc == nil || doc.Root == nil {
		return nil, ErrNoCalendar
	}
	eol := w.LineEnding
	if eol == "" {
		eol = "\n"
	}
	out := &lineWriter{eol: eol}

	cal := doc.Root
	out.line(beginRoot)
	for _, m := range cal.Layout() {
		if !m.Group {
			out.prop(&cal.Props, m.Name)
			continue
		}
		kind := model.Level1Kind(m.Name)
		for _, e := range cal.Entries(kind) {
			out.entry(kind, e)
		}
	}
	out.line(endPrefix + model.RootTag)

	return out.buf.Bytes(), nil
}

// DetectLineEnding returns "\r\n" if the first line break in body is CRLF,
// otherwise "\n".
func DetectLineEnding(body []byte) string {
	i := bytes.IndexByte(body, '\n')
	if i > 0 && body[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

type lineWriter struct {
	buf bytes.Buffer
	eol string
}

func (w *lineWriter) line(s string) {
	if w.eol != "\n" {
		s = strings.ReplaceAll(s, "\n", w.eol)
	}
	w.buf.WriteString(s)
	w.buf.WriteString(w.eol)
}

func (w *lineWriter) prop(p *model.Props, key string) {
	v, _ := p.Get(key)
	for _, item := range v.Items() {
		w.line(key + ":" + item)
	}
}

func (w *lineWriter) entry(kind model.Level1Kind, e *model.Entry) {
	w.line(beginPrefix + string(kind))
	for _, m := range e.Layout() {
		if !m.Group {
			w.prop(&e.Props, m.Name)
			continue
		}
		sk := model.Level2Kind(m.Name)
		for _, s := range e.Subs(sk) {
			w.line(beginPrefix + string(sk))
			for _, key := range s.Props.Keys() {
				w.prop(&s.Props, key)
			}
			w.line(endPrefix + string(sk))
		}
	}
	w.line(endPrefix + string(kind))
}
