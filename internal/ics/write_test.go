package ics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icsfix/internal/model"
)

const sampleCalendar = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Example Corp//Calendar//EN
BEGIN:VTIMEZONE
TZID:Europe/London
BEGIN:STANDARD
DTSTART:19701025T020000
TZOFFSETFROM:+0100
TZOFFSETTO:+0000
END:STANDARD
BEGIN:DAYLIGHT
DTSTART:19700329T010000
TZOFFSETFROM:+0000
TZOFFSETTO:+0100
END:DAYLIGHT
END:VTIMEZONE
BEGIN:VEVENT
UID:7f1c2b9e-1111-4a2b-9c3d-000000000001
DTSTAMP:20240101T090000Z
DTSTART;TZID=Europe/London:20240105T100000
SUMMARY:Planning
DESCRIPTION:A long description that was folded by the client at seventy-
 five octets and continues here
ATTENDEE;CN=A:mailto:a@example.com
ATTENDEE:mailto:b@example.com
ATTENDEE:mailto:c@example.com
BEGIN:VALARM
ACTION:DISPLAY
TRIGGER:-PT15M
END:VALARM
END:VEVENT
X-WR-CALNAME:Work
BEGIN:VTODO
UID:todo-42
SUMMARY:Write report
END:VTODO
END:VCALENDAR
`

func TestWriteRoundTripIsByteIdentical(t *testing.T) {
	doc := mustParse(t, []byte(sampleCalendar))

	out, err := Writer{}.Write(doc)
	require.NoError(t, err)
	assert.Equal(t, sampleCalendar, string(out))
}

func TestWriteRoundTripCRLF(t *testing.T) {
	crlf := strings.ReplaceAll(sampleCalendar, "\n", "\r\n")
	doc := mustParse(t, []byte(crlf))

	out, err := Writer{LineEnding: DetectLineEnding([]byte(crlf))}.Write(doc)
	require.NoError(t, err)
	assert.Equal(t, crlf, string(out))
}

func TestWriteReparsesToSameStructure(t *testing.T) {
	first := mustParse(t, []byte(sampleCalendar))
	out, err := Writer{}.Write(first)
	require.NoError(t, err)

	second := mustParse(t, out)
	assert.Equal(t, first, second)
}

func TestWriteMultiValueOneLinePerItem(t *testing.T) {
	cal := model.NewCalendar()
	ev := model.NewEntry(model.KindEvent)
	ev.Props.Append("ATTACH", "a.png")
	ev.Props.Append("ATTACH", "b.png")
	ev.Props.SetText("SUMMARY", "x")
	cal.Add(model.KindEvent, ev)

	out, err := Writer{}.Write(&model.Document{Root: cal})
	require.NoError(t, err)
	assert.Equal(t, lines(
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"ATTACH:a.png",
		"ATTACH:b.png",
		"SUMMARY:x",
		"END:VEVENT",
		"END:VCALENDAR",
	), out)
}

func TestWriteNormalizesBackslashContinuation(t *testing.T) {
	doc := mustParse(t, lines(
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"DESCRIPTION:Hello",
		`\rest`,
		"END:VEVENT",
		"END:VCALENDAR",
	))
	out, err := Writer{}.Write(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "DESCRIPTION:Hello\n \\rest\n")
}

func TestWriteWithoutRoot(t *testing.T) {
	_, err := Writer{}.Write(&model.Document{})
	assert.ErrorIs(t, err, ErrNoCalendar)

	_, err = Writer{}.Write(nil)
	assert.ErrorIs(t, err, ErrNoCalendar)
}

func TestDetectLineEnding(t *testing.T) {
	assert.Equal(t, "\r\n", DetectLineEnding([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")))
	assert.Equal(t, "\n", DetectLineEnding([]byte("BEGIN:VCALENDAR\nEND:VCALENDAR\r\n")))
	assert.Equal(t, "\n", DetectLineEnding([]byte("BEGIN:VCALENDAR")))
	assert.Equal(t, "\n", DetectLineEnding([]byte("\nBEGIN:VCALENDAR")))
}
