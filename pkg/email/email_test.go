package email

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pershin-daniil/CalBridge/pkg/logger"
	"github.com/pershin-daniil/CalBridge/pkg/models"
	"github.com/stretchr/testify/require"
)

func testSender() *Sender {
	return New(logger.New(), Config{
		Host: "localhost",
		Port: 2525,
		From: "scheduler@corp.example.com",
	})
}

func testMeeting() models.Meeting {
	return models.Meeting{
		ID:        "m-1",
		ICSUID:    "uid-1",
		Title:     "Demo",
		StartTime: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
		Location:  "Room 1",
		Attendees: []models.Attendee{
			{Email: "a@ext.com", Name: "a"},
			{Email: "b@ext.com", Name: "Bee"},
		},
		Organizer: models.Organizer{Email: "boss@corp.example.com", Name: "Boss"},
	}
}

func renderMessage(t *testing.T, s *Sender, m models.Meeting, doc string, kind mailKind) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := s.buildMessage(m, doc, kind).WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestInviteMessage(t *testing.T) {
	s := testSender()
	raw := renderMessage(t, s, testMeeting(), "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n", inviteKind)

	require.Contains(t, raw, "From: scheduler@corp.example.com")
	require.Contains(t, raw, "a@ext.com")
	require.Contains(t, raw, "b@ext.com")
	require.Contains(t, raw, "Subject: Meeting Invitation: Demo")
	require.Contains(t, raw, "text/calendar")
	require.Contains(t, raw, "method=REQUEST")
	require.Contains(t, raw, "uid-1.ics")
	require.Contains(t, raw, "text/html")
}

func TestCancellationMessage(t *testing.T) {
	s := testSender()
	raw := renderMessage(t, s, testMeeting(), "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n", cancelKind)

	require.Contains(t, raw, "Subject: Meeting Cancelled: Demo")
	require.Contains(t, raw, "method=CANCEL")
}

func TestHTMLBodyListsAttendees(t *testing.T) {
	s := testSender()
	body := s.htmlBody(testMeeting(), inviteKind)
	require.Contains(t, body, "You have been invited to a meeting")
	require.Contains(t, body, "a, Bee")
	require.Contains(t, body, "Boss (boss@corp.example.com)")
	require.Contains(t, body, "Room 1")
}

func TestSendSkipsWithoutAttendees(t *testing.T) {
	s := testSender()
	m := testMeeting()
	m.Attendees = nil
	// No dial happens, so this must succeed even with no SMTP server around.
	require.NoError(t, s.SendInvite(context.Background(), m, ""))
}
