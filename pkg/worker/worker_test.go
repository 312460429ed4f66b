package worker

import (
	"context"
	"testing"
	"time"

	"github.com/pershin-daniil/CalBridge/pkg/logger"
	"github.com/pershin-daniil/CalBridge/pkg/models"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	meetings []models.Meeting
}

func (s *stubStore) List() []models.Meeting { return s.meetings }

type stubNotifier struct {
	messages []string
}

func (n *stubNotifier) Notify(_ context.Context, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

func TestRemindOncePerMeeting(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 55, 0, 0, time.UTC)
	st := &stubStore{meetings: []models.Meeting{
		{ID: "m-1", Title: "Demo", StartTime: now.Add(5 * time.Minute), Status: models.MeetingScheduled},
	}}
	n := &stubNotifier{}
	w := New(logger.New(), st, n, time.Minute, 10*time.Minute)

	w.remind(context.Background(), now)
	w.remind(context.Background(), now.Add(time.Minute))
	require.Len(t, n.messages, 1)
	require.Contains(t, n.messages[0], `"Demo"`)
	require.Contains(t, n.messages[0], "10:00")
}

func TestRemindSkipsOutsideWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	st := &stubStore{meetings: []models.Meeting{
		{ID: "far", Title: "Far", StartTime: now.Add(time.Hour), Status: models.MeetingScheduled},
		{ID: "past", Title: "Past", StartTime: now.Add(-time.Minute), Status: models.MeetingScheduled},
	}}
	n := &stubNotifier{}
	w := New(logger.New(), st, n, time.Minute, 10*time.Minute)

	w.remind(context.Background(), now)
	require.Empty(t, n.messages)

	// The far meeting gets its reminder once the clock catches up.
	w.remind(context.Background(), now.Add(55*time.Minute))
	require.Len(t, n.messages, 1)
	require.Contains(t, n.messages[0], `"Far"`)
}

func TestRemindSkipsCancelled(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 55, 0, 0, time.UTC)
	st := &stubStore{meetings: []models.Meeting{
		{ID: "m-1", Title: "Demo", StartTime: now.Add(5 * time.Minute), Status: models.MeetingCancelled},
	}}
	n := &stubNotifier{}
	w := New(logger.New(), st, n, time.Minute, 10*time.Minute)

	w.remind(context.Background(), now)
	require.Empty(t, n.messages)
}
