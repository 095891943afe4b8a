package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/procurement-admin/internal/domain"
)

// credentialStoreInMemory держит учётные записи в памяти процесса.
type credentialStoreInMemory struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewCredentialStore создаёт хранилище с начальным набором пользователей.
// Пароли должны быть уже захешированы.
func NewCredentialStore(users ...domain.User) domain.CredentialStore {
	store := &credentialStoreInMemory{users: make(map[string]domain.User, len(users))}
	for _, u := range users {
		store.users[strings.ToLower(u.Username)] = u
	}
	return store
}

func (s *credentialStoreInMemory) Lookup(ctx context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return domain.User{}, domain.NewNotFoundError("user", username)
	}
	return u, nil
}

// sessionStoreInMemory — fallback для сессий, когда Redis не настроен.
type sessionStoreInMemory struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	now      func() time.Time
}

// NewSessionStore создаёт in-memory хранилище сессий.
func NewSessionStore() domain.SessionStore {
	return &sessionStoreInMemory{
		sessions: make(map[string]domain.Session),
		now:      time.Now,
	}
}

func (s *sessionStoreInMemory) Create(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session
	return nil
}

// Get возвращает сессию; истёкшая сессия удаляется и считается отсутствующей.
func (s *sessionStoreInMemory) Get(ctx context.Context, id string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.NewNotFoundError("session", id)
	}
	if session.Expired(s.now()) {
		delete(s.sessions, id)
		return domain.Session{}, domain.NewNotFoundError("session", id)
	}
	return session, nil
}

func (s *sessionStoreInMemory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

var (
	_ domain.CredentialStore = (*credentialStoreInMemory)(nil)
	_ domain.SessionStore    = (*sessionStoreInMemory)(nil)
)
