// Package service owns the meeting lifecycle: it builds the canonical record,
// advances its revision sequence and coordinates the calendar and email side
// effects. Calendar sync is best effort on create; the email invite is the
// primary notification channel and its failure fails the operation.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pershin-daniil/CalBridge/pkg/ics"
	"github.com/pershin-daniil/CalBridge/pkg/metrics"
	"github.com/pershin-daniil/CalBridge/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	defaultTitle    = "Untitled meeting"
	defaultLocation = "TBD"
	defaultDuration = 60 * time.Minute
	defaultTimeout  = 15 * time.Second

	dateLayout = "2006-01-02 15:04"
)

type Store interface {
	Save(m models.Meeting)
	Get(id string) (models.Meeting, bool)
	GetByICSUID(uid string) (models.Meeting, bool)
	Delete(id string) bool
	List() []models.Meeting
}

type Mailer interface {
	SendInvite(ctx context.Context, m models.Meeting, icsDoc string) error
	SendUpdate(ctx context.Context, m models.Meeting, icsDoc string) error
	SendCancellation(ctx context.Context, m models.Meeting, icsDoc string) error
}

// Calendar is implemented per backend (CalDAV, Google). CreateEvent returns
// an opaque sync reference the backend understands on later update/cancel.
type Calendar interface {
	CreateEvent(ctx context.Context, m models.Meeting, icsDoc string) (string, error)
	UpdateEvent(ctx context.Context, m models.Meeting, icsDoc string) error
	CancelEvent(ctx context.Context, m models.Meeting) error
}

type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type Config struct {
	InternalDomain        string
	DefaultOrganizerEmail string
	Timezone              *time.Location
	AdapterTimeout        time.Duration
}

type MeetingService struct {
	log      *logrus.Entry
	store    Store
	mailer   Mailer
	calendar Calendar
	notifier Notifier
	cfg      Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(log *logrus.Logger, store Store, mailer Mailer, calendar Calendar, notifier Notifier, cfg Config) *MeetingService {
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = defaultTimeout
	}
	return &MeetingService{
		log:      log.WithField("component", "service"),
		store:    store,
		mailer:   mailer,
		calendar: calendar,
		notifier: notifier,
		cfg:      cfg,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *MeetingService) CreateMeeting(ctx context.Context, form models.MeetingRequest, organizer models.Organizer, channelID string) (models.Meeting, error) {
	defer s.trackOp("create")()
	attendees, err := s.parseAttendees(form.Attendees)
	if err != nil {
		return models.Meeting{}, err
	}
	start, err := s.parseDateTime(form.Date, form.Time, "startTime")
	if err != nil {
		return models.Meeting{}, err
	}
	end, err := s.resolveEnd(form, start)
	if err != nil {
		return models.Meeting{}, err
	}
	if !end.After(start) {
		return models.Meeting{}, &models.ValidationError{Field: "endTime", Reason: "must be after start time"}
	}

	if organizer.Email == "" {
		organizer.Email = s.cfg.DefaultOrganizerEmail
	}
	if organizer.Name == "" {
		organizer.Name = "Organizer"
	}
	title := strings.TrimSpace(form.Title)
	if title == "" {
		title = defaultTitle
	}
	location := defaultLocation
	if form.Location != nil {
		location = *form.Location
	}
	if form.MeetingURL != "" {
		location = form.MeetingURL
	}

	now := time.Now()
	m := models.Meeting{
		ID:        uuid.New().String(),
		ICSUID:    uuid.New().String(),
		Title:     title,
		StartTime: start,
		EndTime:   end,
		Location:  location,
		Attendees: attendees,
		Organizer: organizer,
		ChannelID: channelID,
		Sequence:  0,
		Status:    models.MeetingScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if form.Description != nil {
		m.Description = *form.Description
	}

	doc := ics.Render(m, ics.MethodRequest)

	// Calendar sync is an enhancement, not a precondition: log and continue.
	ref, err := s.createCalendarEvent(ctx, m, doc)
	if err != nil {
		s.log.Warnf("calendar sync skipped for meeting %s: %v", m.ID, err)
		metrics.CalendarErrCount.WithLabelValues("create").Inc()
	} else {
		m.CaldavEventURL = ref
	}

	if err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.mailer.SendInvite(ctx, m, doc)
	}); err != nil {
		metrics.EmailErrCount.WithLabelValues("create").Inc()
		return models.Meeting{}, &models.DeliveryError{Err: err}
	}

	s.store.Save(m)
	s.notify(ctx, m.Summary())
	s.log.Infof("meeting %s created, %d attendees", m.ID, len(m.Attendees))
	return m, nil
}

func (s *MeetingService) UpdateMeeting(ctx context.Context, meetingID string, form models.MeetingRequest) (models.Meeting, error) {
	defer s.trackOp("update")()
	unlock := s.lockMeeting(meetingID)
	defer unlock()

	stored, ok := s.store.Get(meetingID)
	if !ok {
		return models.Meeting{}, models.ErrMeetingNotFound
	}
	m := stored.Clone()
	if err := s.applyUpdate(&m, form); err != nil {
		return models.Meeting{}, err
	}
	m.Sequence++
	m.Status = models.MeetingUpdated
	m.UpdatedAt = time.Now()

	doc := ics.Render(m, ics.MethodRequest)

	// Unlike create, update surfaces a sync failure: the calendar event
	// already exists and there is no other signal that the change did not
	// take. A meeting that was never synced skips the step.
	if err := s.updateCalendarEvent(ctx, m, doc); err != nil {
		metrics.CalendarErrCount.WithLabelValues("update").Inc()
		return models.Meeting{}, &models.SyncError{Err: err}
	}

	if err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.mailer.SendUpdate(ctx, m, doc)
	}); err != nil {
		metrics.EmailErrCount.WithLabelValues("update").Inc()
		return models.Meeting{}, &models.DeliveryError{Err: err}
	}

	s.store.Save(m)
	s.notify(ctx, m.Summary())
	s.log.Infof("meeting %s updated, sequence %d", m.ID, m.Sequence)
	return m, nil
}

func (s *MeetingService) CancelMeeting(ctx context.Context, meetingID string) (models.Meeting, error) {
	defer s.trackOp("cancel")()
	unlock := s.lockMeeting(meetingID)
	defer unlock()

	stored, ok := s.store.Get(meetingID)
	if !ok {
		return models.Meeting{}, models.ErrMeetingNotFound
	}
	m := stored.Clone()
	m.Status = models.MeetingCancelled
	m.Sequence++
	m.UpdatedAt = time.Now()

	doc := ics.Render(m, ics.MethodCancel)

	if err := s.cancelCalendarEvent(ctx, m); err != nil {
		metrics.CalendarErrCount.WithLabelValues("cancel").Inc()
		return models.Meeting{}, &models.SyncError{Err: err}
	}

	if err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.mailer.SendCancellation(ctx, m, doc)
	}); err != nil {
		metrics.EmailErrCount.WithLabelValues("cancel").Inc()
		return models.Meeting{}, &models.DeliveryError{Err: err}
	}

	s.store.Save(m)
	s.notify(ctx, m.Summary())
	s.log.Infof("meeting %s cancelled, sequence %d", m.ID, m.Sequence)
	return m, nil
}

// GetMeeting looks a meeting up by id, falling back to the ICS UID calendar
// clients know the event by.
func (s *MeetingService) GetMeeting(_ context.Context, idOrUID string) (models.Meeting, error) {
	if m, ok := s.store.Get(idOrUID); ok {
		return m, nil
	}
	if m, ok := s.store.GetByICSUID(idOrUID); ok {
		return m, nil
	}
	return models.Meeting{}, models.ErrMeetingNotFound
}

func (s *MeetingService) ListMeetings(_ context.Context) []models.Meeting {
	return s.store.List()
}

func (s *MeetingService) applyUpdate(m *models.Meeting, form models.MeetingRequest) error {
	if title := strings.TrimSpace(form.Title); title != "" {
		m.Title = title
	}
	if form.Description != nil {
		m.Description = *form.Description
	}
	if form.Location != nil {
		m.Location = *form.Location
	}
	if form.MeetingURL != "" {
		m.Location = form.MeetingURL
	}
	if form.Date != "" && form.Time != "" {
		start, err := s.parseDateTime(form.Date, form.Time, "startTime")
		if err != nil {
			return err
		}
		// A reschedule that moves only the start keeps the meeting length.
		if (form.EndDate == "" || form.EndTime == "") && form.Duration <= 0 {
			m.EndTime = start.Add(m.EndTime.Sub(m.StartTime))
		}
		m.StartTime = start
	}
	switch {
	case form.EndDate != "" && form.EndTime != "":
		end, err := s.parseDateTime(form.EndDate, form.EndTime, "endTime")
		if err != nil {
			return err
		}
		m.EndTime = end
	case form.Duration > 0:
		m.EndTime = m.StartTime.Add(time.Duration(form.Duration) * time.Minute)
	}
	if !m.EndTime.After(m.StartTime) {
		return &models.ValidationError{Field: "endTime", Reason: "must be after start time"}
	}
	if strings.TrimSpace(form.Attendees) != "" {
		attendees, err := s.parseAttendees(form.Attendees)
		if err != nil {
			return err
		}
		m.Attendees = attendees
	}
	return nil
}

func (s *MeetingService) parseAttendees(raw string) ([]models.Attendee, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' })
	attendees := make([]models.Attendee, 0, len(fields))
	for _, field := range fields {
		email := strings.TrimSpace(field)
		if email == "" {
			continue
		}
		at := strings.LastIndex(email, "@")
		if at <= 0 || at == len(email)-1 {
			return nil, &models.ValidationError{Field: "attendees", Reason: fmt.Sprintf("malformed email %q", email)}
		}
		attendees = append(attendees, models.Attendee{
			Email:      email,
			Name:       email[:at],
			IsExternal: !strings.EqualFold(email[at+1:], s.cfg.InternalDomain),
			Status:     models.AttendeeNeedsAction,
		})
	}
	return attendees, nil
}

func (s *MeetingService) parseDateTime(date, clock, field string) (time.Time, error) {
	if date == "" || clock == "" {
		return time.Time{}, &models.ValidationError{Field: field, Reason: "date and time are required"}
	}
	t, err := time.ParseInLocation(dateLayout, date+" "+clock, s.cfg.Timezone)
	if err != nil {
		return time.Time{}, &models.ValidationError{Field: field, Reason: fmt.Sprintf("want %q, got %q %q", dateLayout, date, clock)}
	}
	return t, nil
}

func (s *MeetingService) resolveEnd(form models.MeetingRequest, start time.Time) (time.Time, error) {
	if form.EndDate != "" && form.EndTime != "" {
		return s.parseDateTime(form.EndDate, form.EndTime, "endTime")
	}
	if form.Duration > 0 {
		return start.Add(time.Duration(form.Duration) * time.Minute), nil
	}
	return start.Add(defaultDuration), nil
}

func (s *MeetingService) createCalendarEvent(ctx context.Context, m models.Meeting, doc string) (string, error) {
	if s.calendar == nil {
		return "", models.ErrCalendarNotConfigured
	}
	var ref string
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		ref, err = s.calendar.CreateEvent(ctx, m, doc)
		return err
	})
	return ref, err
}

func (s *MeetingService) updateCalendarEvent(ctx context.Context, m models.Meeting, doc string) error {
	if s.calendar == nil || m.CaldavEventURL == "" {
		s.log.Debugf("meeting %s has no calendar event, skipping sync", m.ID)
		return nil
	}
	return s.withTimeout(ctx, func(ctx context.Context) error {
		return s.calendar.UpdateEvent(ctx, m, doc)
	})
}

func (s *MeetingService) cancelCalendarEvent(ctx context.Context, m models.Meeting) error {
	if s.calendar == nil || m.CaldavEventURL == "" {
		s.log.Debugf("meeting %s has no calendar event, skipping sync", m.ID)
		return nil
	}
	return s.withTimeout(ctx, func(ctx context.Context) error {
		return s.calendar.CancelEvent(ctx, m)
	})
}

func (s *MeetingService) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AdapterTimeout)
	defer cancel()
	return fn(ctx)
}

func (s *MeetingService) notify(ctx context.Context, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, message); err != nil {
		s.log.Errorf("err notifying channel: %v", err)
	}
}

// lockMeeting serializes operations on the same meeting id so sequence
// increments never interleave. Operations on different ids proceed
// concurrently. The map keeps one entry per id for the life of the process,
// matching the store's lifetime.
func (s *MeetingService) lockMeeting(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *MeetingService) trackOp(op string) func() {
	start := time.Now()
	metrics.MeetingOpsCount.WithLabelValues(op).Inc()
	return func() {
		metrics.MeetingOpsDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
