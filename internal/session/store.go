package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/craftbot/core/logger"
)

var (
	// ErrNotFound reports that the user has no session.
	ErrNotFound = errors.New("session: not found")
	// ErrExpired reports that the session idled past the timeout and was dropped.
	ErrExpired = errors.New("session: expired")
	// ErrGone reports a write-back for a session that was replaced or removed.
	ErrGone = errors.New("session: gone")
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// DefaultIdleTimeout is used when the store is built with a non-positive timeout.
const DefaultIdleTimeout = 15 * time.Minute

// Store maps user ids to their single active session.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	ttl      time.Duration
	clock    Clock
}

// NewStore constructs a store expiring sessions idle longer than ttl.
func NewStore(ttl time.Duration, clock Clock) *Store {
	if ttl <= 0 {
		ttl = DefaultIdleTimeout
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Store{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		clock:    clock,
	}
}

// IdleTimeout returns the configured expiry window.
func (s *Store) IdleTimeout() time.Duration { return s.ttl }

// Get returns a copy of the user's session. An expired session is removed and
// reported as ErrExpired.
func (s *Store) Get(userID int64) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.expired(sess, s.clock.Now()) {
		delete(s.sessions, userID)
		return Session{}, ErrExpired
	}
	return sess.Clone(), nil
}

// CreateOrReplace starts a fresh session, discarding any existing one.
func (s *Store) CreateOrReplace(userID int64, meta Meta) Session {
	now := s.clock.Now()
	sess := &Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		Meta:           meta,
		State:          Initial(),
		CreatedAt:      now,
		LastActivityAt: now,
	}

	s.mu.Lock()
	s.sessions[userID] = sess
	s.mu.Unlock()

	return sess.Clone()
}

// Touch refreshes the activity timestamp of the given session.
func (s *Store) Touch(userID int64, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok && sess.ID == sessionID {
		sess.LastActivityAt = s.clock.Now()
	}
}

// Save writes back a mutated copy. It fails with ErrGone when the stored
// session is no longer the one the copy was taken from.
func (s *Store) Save(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.sessions[sess.UserID]
	if !ok || cur.ID != sess.ID {
		return ErrGone
	}
	next := sess.Clone()
	next.LastActivityAt = s.clock.Now()
	s.sessions[sess.UserID] = &next
	return nil
}

// Remove deletes the session if it is still the current one.
func (s *Store) Remove(userID int64, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sessions[userID]; ok && cur.ID == sessionID {
		delete(s.sessions, userID)
		return true
	}
	return false
}

// Exists reports whether sessionID is still the user's current session.
func (s *Store) Exists(userID int64, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sessions[userID]
	return ok && cur.ID == sessionID
}

// Len returns the number of stored sessions, expired ones included until swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SweepExpired drops every session idle past the timeout at now.
func (s *Store) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for uid, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, uid)
			removed++
		}
	}
	return removed
}

// RunSweeper periodically removes expired sessions until ctx is cancelled.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info(ctx, "session", "sweeper.start", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info(context.Background(), "session", "sweeper.stop")
			return
		case <-ticker.C:
			start := time.Now()
			n := s.SweepExpired(s.clock.Now())
			if n == 0 {
				continue
			}
			logger.Info(ctx, "session", "sweeper.run",
				slog.String("status", "ok"),
				slog.Int("count", n),
				slog.Int("pending_count", s.Len()),
				slog.Duration("duration", logger.RoundMS(time.Since(start))),
			)
		}
	}
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return now.Sub(sess.LastActivityAt) > s.ttl
}
