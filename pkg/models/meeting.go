package models

import (
	"fmt"
	"strings"
	"time"
)

type MeetingStatus string

const (
	MeetingScheduled MeetingStatus = "scheduled"
	MeetingUpdated   MeetingStatus = "updated"
	MeetingCancelled MeetingStatus = "cancelled"
)

type AttendeeStatus string

const (
	AttendeeAccepted    AttendeeStatus = "accepted"
	AttendeeDeclined    AttendeeStatus = "declined"
	AttendeeTentative   AttendeeStatus = "tentative"
	AttendeeNeedsAction AttendeeStatus = "needs-action"
)

type Attendee struct {
	Email      string         `json:"email"`
	Name       string         `json:"name,omitempty"`
	IsExternal bool           `json:"isExternal"`
	Status     AttendeeStatus `json:"status"`
}

type Organizer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Ref   string `json:"ref"`
}

// Meeting is the canonical meeting record. ID and ICSUID are assigned once at
// creation; ICSUID is carried as the UID of every ICS rendering so calendar
// clients can correlate revisions to the same event.
type Meeting struct {
	ID             string        `json:"id"`
	ICSUID         string        `json:"icsUid"`
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	StartTime      time.Time     `json:"startTime"`
	EndTime        time.Time     `json:"endTime"`
	Location       string        `json:"location,omitempty"`
	Attendees      []Attendee    `json:"attendees"`
	Organizer      Organizer     `json:"organizer"`
	ChannelID      string        `json:"channelId"`
	CaldavEventURL string        `json:"caldavEventUrl,omitempty"`
	Sequence       int           `json:"sequence"`
	Status         MeetingStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// MeetingRequest is the inbound form shape shared by the HTTP and chat
// boundaries. On update, empty string fields keep prior values; Description
// and Location are pointers so an explicit empty value can clear them.
type MeetingRequest struct {
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	Duration       int     `json:"duration"`
	EndDate        string  `json:"endDate"`
	EndTime        string  `json:"endTime"`
	Location       *string `json:"location"`
	MeetingURL     string  `json:"meetingUrl"`
	Attendees      string  `json:"attendees"`
	OrganizerEmail string  `json:"organizerEmail"`
	OrganizerName  string  `json:"organizerName"`
}

// Clone returns a copy that shares no mutable state with the receiver.
func (m Meeting) Clone() Meeting {
	out := m
	out.Attendees = make([]Attendee, len(m.Attendees))
	copy(out.Attendees, m.Attendees)
	return out
}

// Summary renders the meeting as the short text posted to the originating
// channel and returned by chat commands.
func (m Meeting) Summary() string {
	var b strings.Builder
	if m.Status == MeetingCancelled {
		b.WriteString("[CANCELLED] ")
	}
	b.WriteString(m.Title)
	b.WriteString("\n")
	fmt.Fprintf(&b, "When: %s - %s\n", m.StartTime.Format("Mon, 2 Jan 2006 15:04"), m.EndTime.Format("15:04 MST"))
	if m.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", m.Location)
	}
	if m.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", m.Description)
	}
	fmt.Fprintf(&b, "Organizer: %s\n", m.Organizer.Name)
	names := make([]string, 0, len(m.Attendees))
	for _, att := range m.Attendees {
		if att.Name != "" {
			names = append(names, att.Name)
		} else {
			names = append(names, att.Email)
		}
	}
	fmt.Fprintf(&b, "Attendees: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Meeting ID: %s", m.ID)
	return b.String()
}
