// Package email delivers meeting invitations over SMTP. Every message
// carries the ICS document twice: as a text/calendar alternative part so
// calendar clients pick the invite up inline, and as a <uid>.ics attachment.
package email

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/pershin-daniil/CalBridge/pkg/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Secure   bool
}

type Sender struct {
	log    *logrus.Entry
	dialer *gomail.Dialer
	from   string
}

func New(log *logrus.Logger, cfg Config) *Sender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Secure
	return &Sender{
		log:    log.WithField("component", "email"),
		dialer: d,
		from:   cfg.From,
	}
}

type mailKind struct {
	name    string
	subject string
	heading string
	method  string
}

var (
	inviteKind = mailKind{"invite", "Meeting Invitation", "You have been invited to a meeting", "REQUEST"}
	updateKind = mailKind{"update", "Meeting Updated", "A meeting has been updated", "REQUEST"}
	cancelKind = mailKind{"cancel", "Meeting Cancelled", "A meeting has been cancelled", "CANCEL"}
)

func (s *Sender) SendInvite(ctx context.Context, m models.Meeting, icsDoc string) error {
	return s.send(ctx, m, icsDoc, inviteKind)
}

func (s *Sender) SendUpdate(ctx context.Context, m models.Meeting, icsDoc string) error {
	return s.send(ctx, m, icsDoc, updateKind)
}

func (s *Sender) SendCancellation(ctx context.Context, m models.Meeting, icsDoc string) error {
	return s.send(ctx, m, icsDoc, cancelKind)
}

func (s *Sender) send(ctx context.Context, m models.Meeting, icsDoc string, kind mailKind) error {
	if len(m.Attendees) == 0 {
		s.log.Debugf("meeting %s has no attendees, nothing to send", m.ID)
		return nil
	}
	msg := s.buildMessage(m, icsDoc, kind)
	// gomail has no context support, so the dial runs in a goroutine and the
	// deadline is enforced here.
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.dialer.DialAndSend(msg)
	}()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("send %s mail: %w", kind.name, err)
		}
		s.log.Infof("%s mail for meeting %s sent to %d attendees", kind.name, m.ID, len(m.Attendees))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send %s mail: %w", kind.name, ctx.Err())
	}
}

func (s *Sender) buildMessage(m models.Meeting, icsDoc string, kind mailKind) *gomail.Message {
	to := make([]string, 0, len(m.Attendees))
	for _, att := range m.Attendees {
		to = append(to, att.Email)
	}
	calType := fmt.Sprintf("text/calendar; charset=UTF-8; method=%s", kind.method)

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", kind.subject+": "+m.Title)
	msg.SetBody("text/html", s.htmlBody(m, kind))
	msg.AddAlternative(calType, icsDoc)
	msg.Attach(m.ICSUID+".ics",
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := io.WriteString(w, icsDoc)
			return err
		}),
		gomail.SetHeader(map[string][]string{"Content-Type": {calType}}),
	)
	return msg
}

var bodyTemplate = template.Must(template.New("body").Parse(`<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>{{.Heading}}</h2>
  <p><b>Title:</b> {{.Title}}</p>
  <p><b>Start:</b> {{.Start}}</p>
  <p><b>End:</b> {{.End}}</p>
  {{if .Location}}<p><b>Location:</b> {{.Location}}</p>{{end}}
  {{if .Description}}<p><b>Description:</b> {{.Description}}</p>{{end}}
  <p><b>Organizer:</b> {{.Organizer}}</p>
  <p><b>Attendees:</b> {{.Attendees}}</p>
  <p style="color: #777; font-size: 0.9em;">Please accept or decline by responding to the attached calendar invite.</p>
</body>
</html>`))

func (s *Sender) htmlBody(m models.Meeting, kind mailKind) string {
	const layout = "Monday, January 2, 2006 15:04 MST"
	names := make([]string, 0, len(m.Attendees))
	for _, att := range m.Attendees {
		if att.Name != "" {
			names = append(names, att.Name)
		} else {
			names = append(names, att.Email)
		}
	}
	var b strings.Builder
	err := bodyTemplate.Execute(&b, map[string]string{
		"Heading":     kind.heading,
		"Title":       m.Title,
		"Start":       m.StartTime.Format(layout),
		"End":         m.EndTime.Format(layout),
		"Location":    m.Location,
		"Description": m.Description,
		"Organizer":   fmt.Sprintf("%s (%s)", m.Organizer.Name, m.Organizer.Email),
		"Attendees":   strings.Join(names, ", "),
	})
	if err != nil {
		s.log.Warnf("err rendering mail body: %v", err)
		return kind.heading + ": " + m.Title
	}
	return b.String()
}
