package store

import (
	"context"
	"sync"
	"time"

	"github.com/zhouzirui/travel-tavern/backend/internal/model/chat"
)

const (
	minSweepInterval = time.Second
	maxSweepInterval = time.Minute
)

type memorySession struct {
	session  chat.Session
	messages []chat.Message
	lastSeen time.Time
}

// MemoryStore keeps everything in process memory; suitable for a single instance.
// With a TTL, sessions idle for longer than the TTL are treated as missing
// and freed by a background sweeper.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore returns an empty MemoryStore whose sessions never expire.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		now:      time.Now,
	}
}

// NewMemoryStoreWithTTL expires sessions idle for longer than ttl. The
// sweeper stops when ctx is cancelled.
func NewMemoryStoreWithTTL(ctx context.Context, ttl time.Duration) *MemoryStore {
	s := NewMemoryStore()
	if ttl <= 0 {
		return s
	}
	s.ttl = ttl
	go s.sweep(ctx, sweepInterval(ttl))
	return s
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval < minSweepInterval {
		return minSweepInterval
	}
	if interval > maxSweepInterval {
		return maxSweepInterval
	}
	return interval
}

// live returns the session if it exists and has not expired. Callers hold mu.
func (s *MemoryStore) live(sessionID string) (*memorySession, bool) {
	entry, ok := s.sessions[sessionID]
	if !ok || s.expired(entry, s.now()) {
		return nil, false
	}
	return entry, true
}

func (s *MemoryStore) expired(entry *memorySession, now time.Time) bool {
	return s.ttl > 0 && now.Sub(entry.lastSeen) > s.ttl
}

func (s *MemoryStore) CreateSession(_ context.Context, session chat.Session) error {
	s.mu.Lock()
	s.sessions[session.ID] = &memorySession{
		session:  session,
		messages: make([]chat.Message, 0, 16),
		lastSeen: s.now(),
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.live(sessionID)
	if !ok {
		return chat.Session{}, ErrNotFound
	}
	return entry.session, nil
}

// AppendMessage stores message and refreshes the session TTL.
func (s *MemoryStore) AppendMessage(_ context.Context, message chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(message.SessionID)
	if !ok {
		return ErrNotFound
	}
	entry.messages = append(entry.messages, message)
	entry.lastSeen = s.now()
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.live(sessionID)
	if !ok {
		return nil, ErrNotFound
	}

	copied := make([]chat.Message, len(entry.messages))
	copy(copied, entry.messages)
	return copied, nil
}

func (s *MemoryStore) ClearMessages(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(sessionID)
	if !ok {
		return ErrNotFound
	}
	entry.messages = entry.messages[:0:0]
	return nil
}

// Len returns the number of sessions held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evict(s.now())
		}
	}
}

func (s *MemoryStore) evict(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, id)
		}
	}
}

func (s *MemoryStore) Close() error { return nil }
