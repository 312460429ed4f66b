package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pershin-daniil/CalBridge/pkg/models"
	tele "gopkg.in/telebot.v3"
)

const meetUsage = `Usage: /meet Title | 2025-06-01 10:00 | 30 | Location | a@example.com, b@example.com
Duration (minutes), location and attendees are optional.`

func (t *Telegram) initHandlers() {
	t.bot.Handle("/meet", t.meetHandler)
	t.bot.Handle("/cancel", t.cancelHandler)
	t.bot.Handle("/meetings", t.meetingsHandler)
}

func (t *Telegram) meetHandler(ctx tele.Context) error {
	form, err := parseMeetCommand(ctx.Message().Payload)
	if err != nil {
		return ctx.Send(fmt.Sprintf("%v\n\n%s", err, meetUsage))
	}
	sender := ctx.Sender()
	organizer := models.Organizer{
		Name: strings.TrimSpace(sender.FirstName + " " + sender.LastName),
		Ref:  strconv.FormatInt(sender.ID, 10),
	}
	channelID := strconv.FormatInt(ctx.Chat().ID, 10)
	meeting, err := t.app.CreateMeeting(context.Background(), form, organizer, channelID)
	if err != nil {
		t.log.Warnf("err creating meeting from chat: %v", err)
		return ctx.Send(fmt.Sprintf("Could not create meeting: %v", err))
	}
	return ctx.Send(meeting.Summary())
}

func (t *Telegram) cancelHandler(ctx tele.Context) error {
	meetingID := strings.TrimSpace(ctx.Message().Payload)
	if meetingID == "" {
		return ctx.Send("Usage: /cancel <meeting-id>")
	}
	meeting, err := t.app.CancelMeeting(context.Background(), meetingID)
	switch {
	case errors.Is(err, models.ErrMeetingNotFound):
		return ctx.Send(fmt.Sprintf("No meeting with id %s", meetingID))
	case err != nil:
		t.log.Warnf("err cancelling meeting from chat: %v", err)
		return ctx.Send(fmt.Sprintf("Could not cancel meeting: %v", err))
	}
	return ctx.Send(meeting.Summary())
}

func (t *Telegram) meetingsHandler(ctx tele.Context) error {
	meetings := t.app.ListMeetings(context.Background())
	if len(meetings) == 0 {
		return ctx.Send("No meetings scheduled.")
	}
	summaries := make([]string, 0, len(meetings))
	for _, m := range meetings {
		summaries = append(summaries, m.Summary())
	}
	return ctx.Send(strings.Join(summaries, "\n\n"))
}

// parseMeetCommand turns the pipe separated /meet payload into a meeting
// request: Title | date time | duration | location | attendees.
func parseMeetCommand(payload string) (models.MeetingRequest, error) {
	parts := strings.Split(payload, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return models.MeetingRequest{}, fmt.Errorf("expected at least a title and a start time")
	}
	form := models.MeetingRequest{Title: parts[0]}
	startFields := strings.Fields(parts[1])
	if len(startFields) != 2 {
		return models.MeetingRequest{}, fmt.Errorf("start time must look like 2025-06-01 10:00")
	}
	form.Date, form.Time = startFields[0], startFields[1]
	if len(parts) > 2 && parts[2] != "" {
		duration, err := strconv.Atoi(parts[2])
		if err != nil || duration <= 0 {
			return models.MeetingRequest{}, fmt.Errorf("duration must be a positive number of minutes")
		}
		form.Duration = duration
	}
	if len(parts) > 3 && parts[3] != "" {
		location := parts[3]
		form.Location = &location
	}
	if len(parts) > 4 {
		form.Attendees = parts[4]
	}
	return form, nil
}
