// Package store holds meeting records for the lifetime of the process,
// keyed by meeting id and by ICS UID. All mutation goes through the
// orchestrator, never directly.
package store

import (
	"sort"
	"sync"

	"github.com/pershin-daniil/CalBridge/pkg/models"
	"github.com/sirupsen/logrus"
)

type Store struct {
	log      *logrus.Entry
	mu       sync.RWMutex
	meetings map[string]models.Meeting
	byUID    map[string]string
}

func New(log *logrus.Logger) *Store {
	return &Store{
		log:      log.WithField("component", "store"),
		meetings: make(map[string]models.Meeting),
		byUID:    make(map[string]string),
	}
}

// Save writes a copy of the record; callers keep no aliases into the store.
func (s *Store) Save(m models.Meeting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[m.ID] = m.Clone()
	s.byUID[m.ICSUID] = m.ID
	s.log.Debugf("saved meeting %s (seq %d)", m.ID, m.Sequence)
}

func (s *Store) Get(id string) (models.Meeting, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meetings[id]
	if !ok {
		return models.Meeting{}, false
	}
	return m.Clone(), true
}

func (s *Store) GetByICSUID(uid string) (models.Meeting, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUID[uid]
	if !ok {
		return models.Meeting{}, false
	}
	m, ok := s.meetings[id]
	if !ok {
		return models.Meeting{}, false
	}
	return m.Clone(), true
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return false
	}
	delete(s.meetings, id)
	delete(s.byUID, m.ICSUID)
	return true
}

// List returns all records ordered by creation time.
func (s *Store) List() []models.Meeting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Meeting, 0, len(s.meetings))
	for _, m := range s.meetings {
		result = append(result, m.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}
