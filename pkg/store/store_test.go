package store

import (
	"testing"
	"time"

	"github.com/pershin-daniil/CalBridge/pkg/logger"
	"github.com/pershin-daniil/CalBridge/pkg/models"
	"github.com/stretchr/testify/require"
)

func testMeeting(id, uid string, createdAt time.Time) models.Meeting {
	return models.Meeting{
		ID:        id,
		ICSUID:    uid,
		Title:     "Sync",
		Attendees: []models.Attendee{{Email: "a@ext.com"}},
		CreatedAt: createdAt,
	}
}

func TestSaveAndGet(t *testing.T) {
	s := New(logger.New())
	m := testMeeting("m-1", "uid-1", time.Now())
	s.Save(m)

	got, ok := s.Get("m-1")
	require.True(t, ok)
	require.Equal(t, m, got)

	_, ok = s.Get("missing")
	require.False(t, ok)
}

func TestGetByICSUID(t *testing.T) {
	s := New(logger.New())
	s.Save(testMeeting("m-1", "uid-1", time.Now()))

	got, ok := s.GetByICSUID("uid-1")
	require.True(t, ok)
	require.Equal(t, "m-1", got.ID)

	_, ok = s.GetByICSUID("uid-2")
	require.False(t, ok)
}

func TestDelete(t *testing.T) {
	s := New(logger.New())
	s.Save(testMeeting("m-1", "uid-1", time.Now()))

	require.True(t, s.Delete("m-1"))
	require.False(t, s.Delete("m-1"))
	_, ok := s.GetByICSUID("uid-1")
	require.False(t, ok)
}

func TestListOrderedByCreation(t *testing.T) {
	s := New(logger.New())
	base := time.Now()
	s.Save(testMeeting("m-2", "uid-2", base.Add(time.Minute)))
	s.Save(testMeeting("m-1", "uid-1", base))

	list := s.List()
	require.Len(t, list, 2)
	require.Equal(t, "m-1", list[0].ID)
	require.Equal(t, "m-2", list[1].ID)
}

func TestStoredRecordIsIsolated(t *testing.T) {
	s := New(logger.New())
	m := testMeeting("m-1", "uid-1", time.Now())
	s.Save(m)

	// Mutating what the caller holds must not reach the store.
	m.Attendees[0].Email = "changed@ext.com"
	got, ok := s.Get("m-1")
	require.True(t, ok)
	require.Equal(t, "a@ext.com", got.Attendees[0].Email)

	got.Attendees[0].Email = "changed@ext.com"
	again, ok := s.Get("m-1")
	require.True(t, ok)
	require.Equal(t, "a@ext.com", again.Attendees[0].Email)
}
