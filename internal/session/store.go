package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hopewell-bot/hopewell/internal/llm"
)

const (
	// DefaultMaxTurns caps retained history per session (10 exchanges).
	DefaultMaxTurns = 20

	// DefaultTTL evicts sessions idle for this long.
	DefaultTTL = 1 * time.Hour

	cleanupInterval = 5 * time.Minute
)

// Store is the session registry: the only structure shared across users.
// Lookup-or-create is atomic so racing first messages from the same user
// cannot produce a duplicated, silently-orphaned history.
type Store struct {
	llm      llm.Client
	maxTurns int
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// StoreOption is a functional option for configuring Store.
type StoreOption func(*Store)

// WithMaxTurns sets the per-session history cap.
func WithMaxTurns(n int) StoreOption {
	return func(st *Store) {
		if n > 0 {
			st.maxTurns = n
		}
	}
}

// WithTTL sets the idle-session eviction window.
func WithTTL(ttl time.Duration) StoreOption {
	return func(st *Store) {
		if ttl > 0 {
			st.ttl = ttl
		}
	}
}

// NewStore creates a session registry and starts its eviction loop.
func NewStore(client llm.Client, opts ...StoreOption) *Store {
	st := &Store{
		llm:      client,
		maxTurns: DefaultMaxTurns,
		ttl:      DefaultTTL,
		sessions: make(map[string]*Session),
	}

	for _, opt := range opts {
		opt(st)
	}

	go st.cleanupLoop()

	return st
}

// GetOrCreate returns the user's session, creating it atomically on first
// contact.
func (st *Store) GetOrCreate(userID string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if sess, ok := st.sessions[userID]; ok {
		return sess
	}

	sess := newSession(userID, st.llm, st.maxTurns)
	st.sessions[userID] = sess
	slog.Debug("created session", "user", userID, "session", sess.ID())
	return sess
}

// Reset clears the user's session history and hands it a fresh chat handle.
// Returns false when the user has no active session.
func (st *Store) Reset(ctx context.Context, userID string) (bool, error) {
	st.mu.Lock()
	sess, ok := st.sessions[userID]
	st.mu.Unlock()

	if !ok {
		return false, nil
	}

	if err := sess.Reset(ctx); err != nil {
		return true, err
	}
	slog.Debug("reset session", "user", userID, "session", sess.ID())
	return true, nil
}

// Len returns the number of active sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		st.cleanup()
	}
}

func (st *Store) cleanup() {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	for userID, sess := range st.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.updatedAt) > st.ttl
		busy := sess.state != stateIdle
		sess.mu.Unlock()

		if idle && !busy {
			delete(st.sessions, userID)
			slog.Debug("evicted idle session", "user", userID, "session", sess.ID())
		}
	}
}
