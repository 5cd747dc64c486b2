package ics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	appLog "icsfix/internal/log"
	"icsfix/internal/model"
)

const (
	keyUID          = "UID"
	keyRadicaleName = "X-RADICALE-NAME"
)

// idKeys are the properties sync tools treat as identifiers, in the
// order they are checked.
var idKeys = []string{keyUID, keyRadicaleName}

// idPatterns holds what each identifier property must look like. \w in
// the usual sense: any letter, digit or underscore.
var idPatterns = map[string]*regexp.Regexp{
	keyUID:          regexp.MustCompile(`^[\p{L}\p{N}_][\p{L}\p{N}_-]+[\p{L}\p{N}_]$`),
	keyRadicaleName: regexp.MustCompile(`^[\p{L}\p{N}_./-]+$`),
}

// rename maps keys starting with prefix onto a plain key.
type rename struct {
	prefix string
	to     string
}

var (
	entryRenames = []rename{{prefix: "DTSTAMP;VALUE=DATE", to: "DTSTAMP"}}
	alarmRenames = []rename{
		{prefix: "DTSTAMP;VALUE=DATE", to: "DTSTAMP"},
		{prefix: "TRIGGER;VALUE=DURATION", to: "TRIGGER"},
	}
)

const licErrorPrefix = "X-LIC-ERROR"

// Change records one modification made by Fixup.
type Change struct {
	Component string // e.g. "VEVENT[2]" or "VTODO[0]/VALARM[1]"
	Key       string
	Old       string
	New       string // empty when the property was dropped
	Reason    string
}

// Report lists the changes Fixup made to one document.
type Report struct {
	Changes []Change
}

func (r Report) Modified() bool { return len(r.Changes) > 0 }

// Fixer normalizes identifier properties and strips constructs that
// CalDAV clients choke on.
type Fixer struct {
	// NewID returns a fresh identifier. It defaults to a random UUIDv4,
	// which satisfies every identifier pattern.
	NewID func() string
}

// Fixup repairs doc in place. Every identifier it keeps or assigns is
// added to reg. It returns ErrNoCalendar or ErrNoEvents, without touching
// doc or reg, if doc has nothing to fix.
func (f *Fixer) Fixup(doc *model.Document, reg *Registry) (Report, error) {
	if doc == nil || doc.Root == nil {
		return Report{}, ErrNoCalendar
	}
	cal := doc.Root
	if len(cal.Entries(model.KindEvent)) == 0 {
		return Report{}, ErrNoEvents
	}
	if reg == nil {
		reg = NewRegistry()
	}

	run := &fixRun{
		newID:   f.NewID,
		reg:     reg,
		working: make(map[string]struct{}),
	}
	if run.newID == nil {
		run.newID = uuid.NewString
	}

	for _, kind := range cal.Kinds() {
		if kind != model.KindEvent && kind != model.KindTodo {
			continue
		}
		for i, e := range cal.Entries(kind) {
			path := fmt.Sprintf("%s[%d]", kind, i)
			alarms := e.Subs(model.KindValarm)

			run.identifiers(path, &e.Props)
			for j, a := range alarms {
				run.identifiers(fmt.Sprintf("%s/%s[%d]", path, model.KindValarm, j), &a.Props)
			}

			if kind == model.KindEvent {
				run.drop(path, &e.Props, "TZID", "redundant timezone id")
			}
			run.rewrite(path, &e.Props, entryRenames)
			for j, a := range alarms {
				run.rewrite(fmt.Sprintf("%s/%s[%d]", path, model.KindValarm, j), &a.Props, alarmRenames)
			}
		}
	}

	return run.report, nil
}

// fixRun is the state of one Fixup call.
type fixRun struct {
	newID   func() string
	reg     *Registry
	working map[string]struct{}
	report  Report
}

func (r *fixRun) identifiers(path string, props *model.Props) {
	for _, key := range idKeys {
		r.assign(path, props, key)
	}

	uid, ok1 := props.Get(keyUID)
	name, ok2 := props.Get(keyRadicaleName)
	if ok1 && ok2 && !uid.IsList() && !name.IsList() && uid.Text() == name.Text() {
		id := r.replace(path, props, keyRadicaleName, name.Text(), "same as UID")
		r.record(id)
	}
}

func (r *fixRun) assign(path string, props *model.Props, key string) {
	v, ok := props.Get(key)
	if !ok || v.IsList() {
		return
	}
	id := v.Text()

	if strings.HasSuffix(id, ".ics") {
		id = r.replace(path, props, key, id, "ends with .ics")
	} else if r.taken(id) {
		id = r.replace(path, props, key, id, "not unique")
	}
	if !idPatterns[key].MatchString(id) {
		id = r.replace(path, props, key, id, "bad format")
	}

	r.record(id)
}

func (r *fixRun) taken(id string) bool {
	if _, ok := r.working[id]; ok {
		return true
	}
	return r.reg.Has(id)
}

func (r *fixRun) record(id string) {
	r.working[id] = struct{}{}
	r.reg.Add(id)
}

func (r *fixRun) replace(path string, props *model.Props, key, old, reason string) string {
	id := r.newID()
	props.SetText(key, id)
	r.note(Change{Component: path, Key: key, Old: old, New: id, Reason: reason})
	return id
}

func (r *fixRun) drop(path string, props *model.Props, key, reason string) {
	v, ok := props.Get(key)
	if !ok {
		return
	}
	props.Delete(key)
	r.note(Change{Component: path, Key: key, Old: v.Text(), Reason: reason})
}

// rewrite drops X-LIC-ERROR annotations and collapses parameterized keys
// onto their plain form. If several keys share a prefix the last one wins.
func (r *fixRun) rewrite(path string, props *model.Props, renames []rename) {
	for _, key := range props.Keys() {
		if strings.HasPrefix(key, licErrorPrefix) {
			r.drop(path, props, key, "client annotation")
		}
	}

	for _, rn := range renames {
		var last string
		for _, key := range props.Keys() {
			if strings.HasPrefix(key, rn.prefix) {
				last = key
			}
		}
		if last == "" {
			continue
		}
		v, _ := props.Get(last)
		for _, key := range props.Keys() {
			if strings.HasPrefix(key, rn.prefix) && key != last {
				props.Delete(key)
			}
		}
		props.Rename(last, rn.to)
		r.note(Change{Component: path, Key: last, Old: v.Text(), New: rn.to, Reason: "renamed"})
	}
}

func (r *fixRun) note(c Change) {
	appLog.Debug("fixup", "component", c.Component, "key", c.Key, "old", c.Old, "new", c.New, "reason", c.Reason)
	r.report.Changes = append(r.report.Changes, c)
}
