package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pershin-daniil/CalBridge/pkg/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type App interface {
	CreateMeeting(ctx context.Context, form models.MeetingRequest, organizer models.Organizer, channelID string) (models.Meeting, error)
	UpdateMeeting(ctx context.Context, meetingID string, form models.MeetingRequest) (models.Meeting, error)
	CancelMeeting(ctx context.Context, meetingID string) (models.Meeting, error)
	GetMeeting(ctx context.Context, idOrUID string) (models.Meeting, error)
	ListMeetings(ctx context.Context) []models.Meeting
}

type Server struct {
	log     *logrus.Entry
	app     App
	address string
	version string
	server  *http.Server
}

func New(log *logrus.Logger, app App, address, version string) *Server {
	return &Server{
		log:     log.WithField("component", "rest"),
		app:     app,
		address: address,
		version: version,
	}
}

func (s *Server) Run(ctx context.Context) error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequest)
	r.Get("/health", s.healthHandler)
	r.Get("/version", s.versionHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Post("/meeting/create", s.createMeetingHandler)
		r.Put("/meeting/{id}", s.updateMeetingHandler)
		r.Post("/meeting/{id}/cancel", s.cancelMeetingHandler)
		r.Get("/meeting/{id}", s.getMeetingHandler)
		r.Get("/meetings", s.listMeetingsHandler)
	})

	s.server = &http.Server{
		Addr:              s.address,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("err during server shutdown: %v", err)
		}
	}()
	s.log.Infof("listening on %s", s.address)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debugf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}
