package repository

import (
	"context"
	"sync"

	"authgate/api/internal/models"
)

// MemoryStore is a process-local credential backend for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]models.User // by id
	emails   map[string]string      // email -> id
	sessions map[string]models.Session
	tokens   map[string]string // token -> user id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]models.User),
		emails:   make(map[string]string),
		sessions: make(map[string]models.Session),
		tokens:   make(map[string]string),
	}
}

var (
	_ UserStore    = (*MemoryStore)(nil)
	_ SessionStore = (*MemoryStore)(nil)
)

func (m *MemoryStore) Store() Store {
	return Store{
		Users:    m,
		Sessions: m,
		Ping:     func(context.Context) error { return nil },
		Close:    func(context.Context) error { return nil },
	}
}

func (m *MemoryStore) Create(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.emails[user.Email]; ok {
		return ErrEmailTaken
	}
	user.PasswordHash = cloneBytes(user.PasswordHash)
	m.users[user.ID] = user
	m.emails[user.Email] = user.ID
	return nil
}

func (m *MemoryStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	user, err := m.FindCredentialsByEmail(ctx, email)
	user.PasswordHash = nil
	return user, err
}

func (m *MemoryStore) FindCredentialsByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[email]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	user := m.users[id]
	user.PasswordHash = cloneBytes(user.PasswordHash)
	return user, nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	user.PasswordHash = nil
	return user, nil
}

func (m *MemoryStore) UpdateByEmail(_ context.Context, email string, update models.UserUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.emails[email]
	if !ok {
		return ErrUserNotFound
	}
	return m.updateLocked(id, update)
}

func (m *MemoryStore) UpdateByID(_ context.Context, id string, update models.UserUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(id, update)
}

func (m *MemoryStore) updateLocked(id string, update models.UserUpdate) error {
	user, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	update.Apply(&user)
	m.users[id] = user
	return nil
}

func (m *MemoryStore) UpsertForUser(_ context.Context, session models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.sessions[session.UserID]; ok {
		delete(m.tokens, prev.SessionToken)
	}
	m.sessions[session.UserID] = session
	m.tokens[session.SessionToken] = session.UserID
	return nil
}

func (m *MemoryStore) FindByToken(_ context.Context, token string) (models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	userID, ok := m.tokens[token]
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	return m.sessions[userID], nil
}

func (m *MemoryStore) DeleteByToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID, ok := m.tokens[token]
	if !ok {
		return ErrSessionNotFound
	}
	delete(m.tokens, token)
	delete(m.sessions, userID)
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
