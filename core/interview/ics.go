package interview

import (
	"fmt"
	"strings"
	"time"
)

const icsTimeLayout = "20060102T150405Z"

// CalendarEvent is the minimal RFC 5545 surface needed for an interview
// invitation attachment.
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Organizer   string // email address
	Attendee    string // email address
}

// ICS renders the event as a single-event iCalendar document.
func (ev CalendarEvent) ICS() string {
	var b strings.Builder
	writeLine := func(format string, args ...interface{}) {
		b.WriteString(fmt.Sprintf(format, args...))
		b.WriteString("\r\n")
	}

	writeLine("BEGIN:VCALENDAR")
	writeLine("VERSION:2.0")
	writeLine("PRODID:-//darasa//admissions//EN")
	writeLine("METHOD:REQUEST")
	writeLine("BEGIN:VEVENT")
	writeLine("UID:%s", ev.UID)
	writeLine("DTSTAMP:%s", time.Now().UTC().Format(icsTimeLayout))
	writeLine("DTSTART:%s", ev.Start.UTC().Format(icsTimeLayout))
	writeLine("DTEND:%s", ev.End.UTC().Format(icsTimeLayout))
	writeLine("SUMMARY:%s", escapeICS(ev.Summary))
	if ev.Description != "" {
		writeLine("DESCRIPTION:%s", escapeICS(ev.Description))
	}
	if ev.Location != "" {
		writeLine("LOCATION:%s", escapeICS(ev.Location))
	}
	if ev.Organizer != "" {
		writeLine("ORGANIZER:mailto:%s", ev.Organizer)
	}
	if ev.Attendee != "" {
		writeLine("ATTENDEE;RSVP=TRUE:mailto:%s", ev.Attendee)
	}
	writeLine("STATUS:CONFIRMED")
	writeLine("END:VEVENT")
	writeLine("END:VCALENDAR")
	return b.String()
}

func escapeICS(s string) string {
	r := strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)
	return r.Replace(s)
}
