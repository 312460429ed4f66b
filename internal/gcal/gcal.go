// Package gcal syncs meetings to Google Calendar through the Calendar API.
// The sync reference stored on the meeting is the Google event id.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pershin-daniil/CalBridge/pkg/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type Config struct {
	CredentialsFile string
	TokenFile       string
	CalendarID      string
}

type Client struct {
	log        *logrus.Entry
	srv        *calendar.Service
	calendarID string
}

func New(ctx context.Context, log *logrus.Logger, cfg Config) (*Client, error) {
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret file: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret file: %w", err)
	}
	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("read cached oauth token: %w", err)
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("new calendar service: %w", err)
	}
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Client{
		log:        log.WithField("component", "gcal"),
		srv:        srv,
		calendarID: calendarID,
	}, nil
}

func (c *Client) CreateEvent(ctx context.Context, m models.Meeting, _ string) (string, error) {
	created, err := c.srv.Events.Insert(c.calendarID, buildEvent(m)).Context(ctx).SendUpdates("none").Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	c.log.Debugf("event %s created for meeting %s", created.Id, m.ID)
	return created.Id, nil
}

func (c *Client) UpdateEvent(ctx context.Context, m models.Meeting, _ string) error {
	if m.CaldavEventURL == "" {
		return fmt.Errorf("meeting %s has no event reference", m.ID)
	}
	if _, err := c.srv.Events.Update(c.calendarID, m.CaldavEventURL, buildEvent(m)).Context(ctx).SendUpdates("none").Do(); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

func (c *Client) CancelEvent(ctx context.Context, m models.Meeting) error {
	if m.CaldavEventURL == "" {
		return fmt.Errorf("meeting %s has no event reference", m.ID)
	}
	if err := c.srv.Events.Delete(c.calendarID, m.CaldavEventURL).Context(ctx).SendUpdates("none").Do(); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func buildEvent(m models.Meeting) *calendar.Event {
	attendees := make([]*calendar.EventAttendee, 0, len(m.Attendees))
	for _, att := range m.Attendees {
		attendees = append(attendees, &calendar.EventAttendee{
			Email:          att.Email,
			DisplayName:    att.Name,
			ResponseStatus: responseStatus(att.Status),
		})
	}
	status := "confirmed"
	if m.Status == models.MeetingCancelled {
		status = "cancelled"
	}
	return &calendar.Event{
		Summary:     m.Title,
		Description: m.Description,
		Location:    m.Location,
		Start:       &calendar.EventDateTime{DateTime: m.StartTime.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: m.EndTime.Format(time.RFC3339)},
		Attendees:   attendees,
		ICalUID:     m.ICSUID,
		Sequence:    int64(m.Sequence),
		Status:      status,
	}
}

func responseStatus(status models.AttendeeStatus) string {
	switch status {
	case models.AttendeeAccepted:
		return "accepted"
	case models.AttendeeDeclined:
		return "declined"
	case models.AttendeeTentative:
		return "tentative"
	default:
		return "needsAction"
	}
}

// Retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}
