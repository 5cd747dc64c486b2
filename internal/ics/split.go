package ics

import (
	"github.com/google/uuid"

	"icsfix/internal/model"
)

// Part is one single-entry document produced by Split.
type Part struct {
	ID  string
	Doc *model.Document
}

// splitKinds are the entry kinds that become documents of their own.
var splitKinds = []model.Level1Kind{model.KindEvent, model.KindTodo}

// Split breaks doc into one document per VEVENT and VTODO. Each part
// carries every calendar property and non-entry component (VTIMEZONE
// etc.) of doc. Parts are keyed by UID; an entry without a UID, or whose
// UID an earlier part already took, gets a fresh identifier from newID
// (a random UUID if nil). doc is not modified.
func Split(doc *model.Document, newID func() string) ([]Part, error) {
	if doc == nil || doc.Root == nil {
		return nil, ErrNoCalendar
	}
	cal := doc.Root
	switch cal.Count(splitKinds...) {
	case 0:
		return nil, ErrNoEntries
	case 1:
		return nil, ErrNothingToSplit
	}
	if newID == nil {
		newID = uuid.NewString
	}

	template := cal.Without(splitKinds...)
	used := make(map[string]bool)
	var parts []Part
	for _, kind := range splitKinds {
		for _, e := range cal.Entries(kind) {
			id := ""
			if v, ok := e.Props.Get(keyUID); ok && !v.IsList() {
				id = v.Text()
			}
			if id == "" || used[id] {
				id = newID()
			}
			used[id] = true

			root := template.Clone()
			root.Add(kind, e.Clone())
			parts = append(parts, Part{ID: id, Doc: &model.Document{Root: root}})
		}
	}
	return parts, nil
}
