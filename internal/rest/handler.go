package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pershin-daniil/CalBridge/pkg/models"
)

const webChannel = "web"

type meetingSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
	Attendees int       `json:"attendees"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Meeting *meetingSummary `json:"meeting,omitempty"`
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeResponse(w, http.StatusOK, map[string]string{"status": "ok", "service": "CalBridge API"})
}

func (s *Server) versionHandler(w http.ResponseWriter, _ *http.Request) {
	_, err := fmt.Fprintf(w, "%s\n", s.version)
	if err != nil {
		s.log.Warnf("err during writing to connection: %v", err)
	}
}

func (s *Server) createMeetingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var form models.MeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		s.writeError(w, &models.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	organizer := models.Organizer{
		Email: form.OrganizerEmail,
		Name:  form.OrganizerName,
		Ref:   webChannel,
	}
	meeting, err := s.app.CreateMeeting(ctx, form, organizer, webChannel)
	if err != nil {
		s.log.Warnf("err during creating meeting: %v", err)
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusCreated, envelope{
		Success: true,
		Message: "Meeting created and invites sent!",
		Meeting: &meetingSummary{
			ID:        meeting.ID,
			Title:     meeting.Title,
			StartTime: meeting.StartTime,
			Attendees: len(meeting.Attendees),
		},
	})
}

func (s *Server) updateMeetingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var form models.MeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		s.writeError(w, &models.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	meeting, err := s.app.UpdateMeeting(ctx, chi.URLParam(r, "id"), form)
	if err != nil {
		s.log.Warnf("err during updating meeting: %v", err)
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, meeting)
}

func (s *Server) cancelMeetingHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	meeting, err := s.app.CancelMeeting(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.log.Warnf("err during cancelling meeting: %v", err)
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, meeting)
}

func (s *Server) getMeetingHandler(w http.ResponseWriter, r *http.Request) {
	meeting, err := s.app.GetMeeting(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, http.StatusOK, meeting)
}

func (s *Server) listMeetingsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, http.StatusOK, s.app.ListMeetings(r.Context()))
}

// writeError translates the error taxonomy into a structured failure payload;
// callers never see a raw stack trace.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var validationErr *models.ValidationError
	var deliveryErr *models.DeliveryError
	var syncErr *models.SyncError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrMeetingNotFound):
		status = http.StatusNotFound
	case errors.As(err, &deliveryErr), errors.As(err, &syncErr):
		status = http.StatusBadGateway
	}
	s.writeResponse(w, status, envelope{Success: false, Error: err.Error()})
}

func (s *Server) writeResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warnf("err during encoding response: %v", err)
	}
}
