package ics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icsfix/internal/model"
)

func TestSplitOneDocumentPerEvent(t *testing.T) {
	doc := mustParse(t, lines(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"BEGIN:VEVENT",
		"UID:U1",
		"SUMMARY:one",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:U2",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:U3",
		"END:VEVENT",
		"END:VCALENDAR",
	))

	parts, err := Split(doc, nil)
	require.NoError(t, err)
	require.Len(t, parts, 3)

	for i, want := range []string{"U1", "U2", "U3"} {
		part := parts[i]
		assert.Equal(t, want, part.ID)
		cal := part.Doc.Root
		assert.Equal(t, "2.0", text(t, &cal.Props, "VERSION"))
		events := cal.Entries(model.KindEvent)
		require.Len(t, events, 1)
		assert.Equal(t, want, text(t, &events[0].Props, "UID"))
	}

	out, err := Writer{}.Write(parts[0].Doc)
	require.NoError(t, err)
	assert.Equal(t, lines(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"BEGIN:VEVENT",
		"UID:U1",
		"SUMMARY:one",
		"END:VEVENT",
		"END:VCALENDAR",
	), out)
}

func TestSplitKeepsTimezonesAndTodos(t *testing.T) {
	doc := mustParse(t, []byte(sampleCalendar))

	parts, err := Split(doc, nil)
	require.NoError(t, err)
	require.Len(t, parts, 2)

	ev := parts[0].Doc.Root
	assert.Equal(t, "7f1c2b9e-1111-4a2b-9c3d-000000000001", parts[0].ID)
	assert.Equal(t, []model.Level1Kind{model.KindTimezone, model.KindEvent}, ev.Kinds())
	assert.Equal(t, []string{"VERSION", "PRODID", "X-WR-CALNAME"}, ev.Props.Keys())
	require.Len(t, ev.Entries(model.KindEvent)[0].Subs(model.KindValarm), 1)

	todo := parts[1].Doc.Root
	assert.Equal(t, "todo-42", parts[1].ID)
	assert.Equal(t, []model.Level1Kind{model.KindTimezone, model.KindTodo}, todo.Kinds())
	assert.Empty(t, todo.Entries(model.KindEvent))
}

func TestSplitSingleEntry(t *testing.T) {
	doc := mustParse(t, lines(
		"BEGIN:VCALENDAR",
		"BEGIN:VTIMEZONE",
		"TZID:UTC",
		"END:VTIMEZONE",
		"BEGIN:VTODO",
		"UID:only",
		"END:VTODO",
		"END:VCALENDAR",
	))
	_, err := Split(doc, nil)
	assert.ErrorIs(t, err, ErrNothingToSplit)
}

func TestSplitNoEntries(t *testing.T) {
	doc := mustParse(t, lines("BEGIN:VCALENDAR", "VERSION:2.0", "END:VCALENDAR"))
	_, err := Split(doc, nil)
	assert.ErrorIs(t, err, ErrNoEntries)

	_, err = Split(&model.Document{}, nil)
	assert.ErrorIs(t, err, ErrNoCalendar)
}

func TestSplitMissingAndDuplicateUIDs(t *testing.T) {
	doc := mustParse(t, lines(
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:dup",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"SUMMARY:no uid",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:dup",
		"END:VEVENT",
		"END:VCALENDAR",
	))

	parts, err := Split(doc, seqIDs())
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, "dup", parts[0].ID)
	assert.Equal(t, "new-1", parts[1].ID)
	assert.Equal(t, "new-2", parts[2].ID)
	assert.False(t, parts[1].Doc.Root.Entries(model.KindEvent)[0].Props.Has("UID"), "split does not add UIDs")
}

func TestSplitDoesNotShareState(t *testing.T) {
	doc := mustParse(t, []byte(sampleCalendar))
	parts, err := Split(doc, nil)
	require.NoError(t, err)

	parts[0].Doc.Root.Props.SetText("VERSION", "9.9")
	parts[0].Doc.Root.Entries(model.KindEvent)[0].Props.SetText("SUMMARY", "changed")

	assert.Equal(t, "2.0", text(t, &parts[1].Doc.Root.Props, "VERSION"))
	assert.Equal(t, "2.0", text(t, &doc.Root.Props, "VERSION"))
	assert.Equal(t, "Planning", text(t, &doc.Root.Entries(model.KindEvent)[0].Props, "SUMMARY"))
}
