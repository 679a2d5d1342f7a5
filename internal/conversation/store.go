package conversation

import (
	"context"
	"sync"

	appErrors "telegram-schedule-bot/internal/errors"
	"telegram-schedule-bot/internal/models"
)

// SessionStore persists conversation contexts. Get returns
// appErrors.ErrNotFound for a chat without a session.
type SessionStore interface {
	Get(ctx context.Context, chatID int64) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, chatID int64) error
}

// Auditor receives a copy of everything fetched from the site.
type Auditor interface {
	RecordPlaces(ctx context.Context, places models.Options) error
	RecordGroups(ctx context.Context, placeLink string, groups models.Options) error
	RecordTeachers(ctx context.Context, teachers models.Options) error
	RecordSchedule(ctx context.Context, queryLink string, week models.WeekSchedule) error
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*models.Session)}
}

func (m *MemoryStore) Get(ctx context.Context, chatID int64) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[chatID]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ChatID] = s.Clone()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, chatID)
	return nil
}
