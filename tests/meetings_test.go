package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/pershin-daniil/CalBridge/internal/rest"
	"github.com/pershin-daniil/CalBridge/pkg/logger"
	"github.com/pershin-daniil/CalBridge/pkg/models"
	"github.com/pershin-daniil/CalBridge/pkg/service"
	"github.com/pershin-daniil/CalBridge/pkg/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

const (
	testURL = "http://localhost:8099"
	address = ":8099"
	version = "test"
)

type fakeMailer struct {
	invites int
	updates int
	cancels int
}

func (f *fakeMailer) SendInvite(context.Context, models.Meeting, string) error {
	f.invites++
	return nil
}

func (f *fakeMailer) SendUpdate(context.Context, models.Meeting, string) error {
	f.updates++
	return nil
}

func (f *fakeMailer) SendCancellation(context.Context, models.Meeting, string) error {
	f.cancels++
	return nil
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Meeting struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Attendees int    `json:"attendees"`
	} `json:"meeting"`
}

type IntegrationTestSuite struct {
	suite.Suite
	log    *logrus.Logger
	store  *store.Store
	mailer *fakeMailer
	app    *service.MeetingService
	cancel context.CancelFunc
}

func TestIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.log = logger.New()
	s.store = store.New(s.log)
	s.mailer = &fakeMailer{}
	s.app = service.New(s.log, s.store, s.mailer, nil, nil, service.Config{
		InternalDomain:        "corp.example.com",
		DefaultOrganizerEmail: "scheduler@corp.example.com",
		Timezone:              time.UTC,
	})
	server := rest.New(s.log, s.app, address, version)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		_ = server.Run(ctx)
	}()
	time.Sleep(100 * time.Millisecond)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *IntegrationTestSuite) sendRequest(ctx context.Context, method, endpoint string, body interface{}, dest interface{}) *http.Response {
	s.T().Helper()
	reqBody, err := json.Marshal(body)
	s.Require().NoError(err)
	req, err := http.NewRequestWithContext(ctx, method, testURL+endpoint, bytes.NewReader(reqBody))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer func() {
		err = resp.Body.Close()
		s.Require().NoError(err)
	}()
	if dest != nil {
		err = json.NewDecoder(resp.Body).Decode(&dest)
		s.Require().NoError(err)
	}
	return resp
}

func (s *IntegrationTestSuite) createDemoMeeting(ctx context.Context) envelope {
	var created envelope
	resp := s.sendRequest(ctx, http.MethodPost, "/api/meeting/create", models.MeetingRequest{
		Title:     "Demo",
		Date:      "2025-06-01",
		Time:      "10:00",
		Duration:  30,
		Attendees: "a@ext.com, b@corp.example.com",
	}, &created)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	s.Require().True(created.Success)
	s.Require().NotEmpty(created.Meeting.ID)
	return created
}

func (s *IntegrationTestSuite) TestHealth() {
	ctx := context.Background()
	var health map[string]string
	resp := s.sendRequest(ctx, http.MethodGet, "/health", nil, &health)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().Equal("ok", health["status"])
}

func (s *IntegrationTestSuite) TestCreateAndGetMeeting() {
	ctx := context.Background()
	created := s.createDemoMeeting(ctx)
	s.Require().Equal("Meeting created and invites sent!", created.Message)
	s.Require().Equal(2, created.Meeting.Attendees)

	var meeting models.Meeting
	resp := s.sendRequest(ctx, http.MethodGet, "/api/meeting/"+created.Meeting.ID, nil, &meeting)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().Equal(created.Meeting.ID, meeting.ID)
	s.Require().Equal("Demo", meeting.Title)
	s.Require().Equal(0, meeting.Sequence)
	s.Require().Equal(models.MeetingScheduled, meeting.Status)
	s.Require().Len(meeting.Attendees, 2)
	s.Require().True(meeting.Attendees[0].IsExternal)
	s.Require().False(meeting.Attendees[1].IsExternal)
}

func (s *IntegrationTestSuite) TestUpdateAndCancelMeeting() {
	ctx := context.Background()
	created := s.createDemoMeeting(ctx)

	var updated models.Meeting
	resp := s.sendRequest(ctx, http.MethodPut, "/api/meeting/"+created.Meeting.ID, models.MeetingRequest{
		Title: "Demo rescheduled",
		Date:  "2025-06-02",
		Time:  "11:00",
	}, &updated)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().Equal("Demo rescheduled", updated.Title)
	s.Require().Equal(1, updated.Sequence)
	s.Require().Equal(models.MeetingUpdated, updated.Status)

	var cancelled models.Meeting
	resp = s.sendRequest(ctx, http.MethodPost, "/api/meeting/"+created.Meeting.ID+"/cancel", nil, &cancelled)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().Equal(2, cancelled.Sequence)
	s.Require().Equal(models.MeetingCancelled, cancelled.Status)
}

func (s *IntegrationTestSuite) TestCancelUnknownMeeting() {
	ctx := context.Background()
	var result envelope
	resp := s.sendRequest(ctx, http.MethodPost, "/api/meeting/nope/cancel", nil, &result)
	s.Require().Equal(http.StatusNotFound, resp.StatusCode)
	s.Require().False(result.Success)
	s.Require().NotEmpty(result.Error)
}

func (s *IntegrationTestSuite) TestCreateMeetingValidation() {
	ctx := context.Background()
	var result envelope
	resp := s.sendRequest(ctx, http.MethodPost, "/api/meeting/create", models.MeetingRequest{
		Title:     "Broken",
		Date:      "2025-06-01",
		Time:      "25:99",
		Attendees: "a@ext.com",
	}, &result)
	s.Require().Equal(http.StatusBadRequest, resp.StatusCode)
	s.Require().False(result.Success)
	s.Require().Contains(result.Error, "startTime")
}

func (s *IntegrationTestSuite) TestListMeetings() {
	ctx := context.Background()
	s.createDemoMeeting(ctx)

	var meetings []models.Meeting
	resp := s.sendRequest(ctx, http.MethodGet, "/api/meetings", nil, &meetings)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().NotEmpty(meetings)
}
