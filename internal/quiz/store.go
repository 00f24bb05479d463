// internal/quiz/store.go
package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"learnly/pkg/cache"
)

var ErrNoActiveSession = errors.New("no active quiz session")

// SessionStore keeps the one in-flight session of each user. Sessions are
// disposable: losing one only loses the attempt.
type SessionStore interface {
	Get(ctx context.Context, userID uint) (*Session, error)
	Save(ctx context.Context, userID uint, s *Session) error
	Delete(ctx context.Context, userID uint) error
}

// MemoryStore is a process-local SessionStore.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[uint][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[uint][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, userID uint) (*Session, error) {
	m.mu.Lock()
	data, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNoActiveSession
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, userID uint, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	m.mu.Lock()
	m.sessions[userID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID uint) error {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
	return nil
}

// RedisStore keeps sessions in redis so they survive a server restart.
type RedisStore struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

func NewRedisStore(c *cache.RedisCache, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: c, ttl: ttl}
}

func sessionKey(userID uint) string {
	return fmt.Sprintf("quiz:session:%d", userID)
}

func (r *RedisStore) Get(ctx context.Context, userID uint) (*Session, error) {
	var s Session
	err := r.cache.GetJSON(ctx, sessionKey(userID), &s)
	if errors.Is(err, cache.ErrMiss) {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, userID uint, s *Session) error {
	return r.cache.SetJSON(ctx, sessionKey(userID), s, r.ttl)
}

func (r *RedisStore) Delete(ctx context.Context, userID uint) error {
	return r.cache.Delete(ctx, sessionKey(userID))
}
