package conversation

import (
	"sync"
	"time"

	"medical-text2sql-be/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
)

// StoreConfig sizes the session table. Zero values fall back to the defaults.
type StoreConfig struct {
	HistoryCapacity int
	SessionTimeout  time.Duration
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Store holds the sessions of every conversation in memory.
//
// Expiry is driven by last-activity and swept on each table access, so the
// cache itself never expires items on its own.
type Store struct {
	mu       sync.Mutex
	sessions *cache.Cache
	capacity int
	timeout  time.Duration
	now      func() time.Time
	logger   logger.ILogger
}

func NewStore(cfg StoreConfig, log logger.ILogger) *Store {
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = DefaultHistoryCapacity
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = DefaultSessionTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		sessions: cache.New(cache.NoExpiration, 0),
		capacity: cfg.HistoryCapacity,
		timeout:  cfg.SessionTimeout,
		now:      cfg.Now,
		logger:   log,
	}
}

// GetOrCreate sweeps expired sessions, then returns the live session for id
// with its activity refreshed, creating an empty one when needed.
func (s *Store) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	if x, found := s.sessions.Get(id); found {
		sess := x.(*Session)
		sess.touch(now)
		return sess
	}

	sess := newSession(id, s.capacity, now)
	s.sessions.Set(id, sess, cache.NoExpiration)
	s.logger.Debug(logger.ModuleConversation, "Session created", map[string]interface{}{"session_id": id})
	return sess
}

// Get returns a live session without creating or refreshing it.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(s.now())
	if x, found := s.sessions.Get(id); found {
		return x.(*Session), true
	}
	return nil, false
}

// Delete removes the session if present.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Delete(id)
}

// Len counts sessions, including ones that expired but were not swept yet.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.ItemCount()
}

func (s *Store) sweepLocked(now time.Time) {
	for id, item := range s.sessions.Items() {
		sess := item.Object.(*Session)
		if sess.expired(now, s.timeout) {
			s.sessions.Delete(id)
			s.logger.Info(logger.ModuleConversation, "Session expired", map[string]interface{}{"session_id": id})
		}
	}
}

func (s *Store) allLocked() map[string]*Session {
	items := s.sessions.Items()
	out := make(map[string]*Session, len(items))
	for id, item := range items {
		out[id] = item.Object.(*Session)
	}
	return out
}
