package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fixwell/maintenance-service/internal/domain"
)

// ErrNotFound signals a missing or expired session.
var ErrNotFound = errors.New("session not found")

// Store holds server-side session state keyed by session id.
type Store interface {
	Create(ctx context.Context, sess *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

const janitorInterval = time.Minute

// MemoryStore keeps sessions in process memory. A janitor goroutine
// evicts expired entries so abandoned sessions do not accumulate.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore initializes the store and starts its janitor.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]domain.Session),
		stop:     make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) Create(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Expired(time.Now()) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}
	found := sess
	return &found, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Close stops the janitor.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, sess := range s.sessions {
				if sess.Expired(now) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
