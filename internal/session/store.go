// Package session maps external session identifiers to consultations.
// The store is bounded: least-recently-used sessions are evicted at
// capacity. Each session carries its own mutex so concurrent requests
// for the same identifier serialize instead of racing the interview
// state.
package session

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/complyeu/aiact-cli/internal/advisor"
)

// Session is one tracked consultation.
type Session struct {
	mu sync.Mutex

	Consultation *Consultation
	CreatedAt    time.Time
	LastUsed     time.Time
}

// Consultation aliases the advisor type so shells only import this package.
type Consultation = advisor.Consultation

// Lock serializes access to the session. Consultations are not safe for
// concurrent use.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Store is a bounded, process-wide session map.
type Store struct {
	mu      sync.Mutex
	cache   *lru.Cache[string, *Session]
	advisor *advisor.Advisor
}

// NewStore creates a Store evicting least-recently-used sessions beyond
// capacity.
func NewStore(a *advisor.Advisor, capacity int) (*Store, error) {
	cache, err := lru.NewWithEvict(capacity, func(id string, _ *Session) {
		zap.L().Info("session evicted", zap.String("session_id", id))
	})
	if err != nil {
		return nil, eris.Wrap(err, "session: create store")
	}
	return &Store{cache: cache, advisor: a}, nil
}

// Get returns the session for id, creating it on first use.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if sess, ok := s.cache.Get(id); ok {
		sess.LastUsed = now
		return sess
	}
	sess := &Session{
		Consultation: s.advisor.NewConsultation(),
		CreatedAt:    now,
		LastUsed:     now,
	}
	s.cache.Add(id, sess)
	zap.L().Info("session created", zap.String("session_id", id))
	return sess
}

// Delete removes a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Remove(id)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}
