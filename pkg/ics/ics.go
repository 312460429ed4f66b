// Package ics renders meeting records into iCalendar documents. Rendering is
// pure: the same record, method and stamp always produce the same bytes, and
// missing optional fields become empty values rather than errors.
package ics

import (
	"strconv"
	"strings"
	"time"

	"github.com/pershin-daniil/CalBridge/pkg/models"
)

type Method string

const (
	MethodRequest Method = "REQUEST"
	MethodCancel  Method = "CANCEL"
)

const (
	prodID      = "-//CalBridge//Meeting Scheduler//EN"
	stampLayout = "20060102T150405Z"
)

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
)

// DQUOTE cannot appear inside a quoted parameter value, newlines cannot
// appear in a content line at all.
var paramEscaper = strings.NewReplacer(
	`"`, "'",
	"\r\n", " ",
	"\n", " ",
)

func Render(m models.Meeting, method Method) string {
	return RenderAt(m, method, time.Now())
}

// RenderAt renders the meeting with an explicit DTSTAMP. Everything except
// DTSTAMP is a function of the record alone.
func RenderAt(m models.Meeting, method Method, stamp time.Time) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteString("\r\n")
	}
	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:" + prodID)
	line("CALSCALE:GREGORIAN")
	line("METHOD:" + string(method))
	line("BEGIN:VEVENT")
	line("UID:" + m.ICSUID)
	line("DTSTAMP:" + stamp.UTC().Format(stampLayout))
	line("DTSTART:" + m.StartTime.UTC().Format(stampLayout))
	line("DTEND:" + m.EndTime.UTC().Format(stampLayout))
	line("SUMMARY:" + textEscaper.Replace(m.Title))
	line("DESCRIPTION:" + textEscaper.Replace(m.Description))
	line("LOCATION:" + textEscaper.Replace(m.Location))
	line(`ORGANIZER;CN="` + paramEscaper.Replace(m.Organizer.Name) + `":mailto:` + m.Organizer.Email)
	for _, att := range m.Attendees {
		line(attendeeLine(att))
	}
	if m.Status == models.MeetingCancelled {
		line("STATUS:CANCELLED")
	} else {
		line("STATUS:CONFIRMED")
	}
	line("SEQUENCE:" + strconv.Itoa(m.Sequence))
	line("END:VEVENT")
	line("END:VCALENDAR")
	return b.String()
}

func attendeeLine(att models.Attendee) string {
	var b strings.Builder
	b.WriteString("ATTENDEE")
	if att.Name != "" {
		b.WriteString(`;CN="` + paramEscaper.Replace(att.Name) + `"`)
	}
	b.WriteString(";RSVP=TRUE;PARTSTAT=")
	b.WriteString(partStat(att.Status))
	b.WriteString(":mailto:")
	b.WriteString(att.Email)
	return b.String()
}

func partStat(status models.AttendeeStatus) string {
	if status == "" {
		return "NEEDS-ACTION"
	}
	return strings.ToUpper(string(status))
}
