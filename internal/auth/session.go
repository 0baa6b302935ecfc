package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deskflow/helpdesk/internal/domain"
)

// ErrNoSession is returned when a user has no active session.
var ErrNoSession = errors.New("no active session")

// SessionStore keeps at most one active session per user.
type SessionStore interface {
	// Put replaces the user's active session.
	Put(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, userID int64) (*domain.Session, error)
	// Delete removes the user's session only if its id is sessionID.
	Delete(ctx context.Context, userID int64, sessionID string) error
}

// MemorySessionStore is a process-local SessionStore.
type MemorySessionStore struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[int64]domain.Session
}

// NewMemorySessionStore returns an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{now: time.Now, sessions: map[int64]domain.Session{}}
}

func (s *MemorySessionStore) Put(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UserID] = session
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, userID int64) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	if !session.ExpiresAt.IsZero() && !s.now().Before(session.ExpiresAt) {
		delete(s.sessions, userID)
		return nil, ErrNoSession
	}
	return &session, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, userID int64, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.sessions[userID]; ok && current.ID == sessionID {
		delete(s.sessions, userID)
	}
	return nil
}

// RedisSessionStore keeps sessions under one key per user with the token TTL.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionStore builds a store writing keys under prefix.
func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = "helpdesk:session"
	}
	return &RedisSessionStore{client: client, prefix: prefix}
}

func (s *RedisSessionStore) key(userID int64) string {
	return fmt.Sprintf("%s:%d", s.prefix, userID)
}

// redisSession is the stored form. deleteIfMatches reads the "id" field.
type redisSession struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *RedisSessionStore) Put(ctx context.Context, session domain.Session) error {
	payload, err := json.Marshal(redisSession(session))
	if err != nil {
		return err
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	return s.client.Set(ctx, s.key(session.UserID), payload, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	payload, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var stored redisSession
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}
	session := domain.Session(stored)
	return &session, nil
}

// deleteIfMatches drops the key only while it still holds the given session id.
var deleteIfMatches = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then return 0 end
local session = cjson.decode(raw)
if session["id"] == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *RedisSessionStore) Delete(ctx context.Context, userID int64, sessionID string) error {
	return deleteIfMatches.Run(ctx, s.client, []string{s.key(userID)}, sessionID).Err()
}
