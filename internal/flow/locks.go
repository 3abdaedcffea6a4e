package flow

import "sync"

// userLocks is a keyed try-lock: at most one holder per user id.
type userLocks struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

func newUserLocks() *userLocks {
	return &userLocks{held: make(map[int64]struct{})}
}

// TryLock acquires the user's lock without waiting. The returned func
// releases it and is safe to call more than once.
func (l *userLocks) TryLock(userID int64) (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[userID]; busy {
		return nil, false
	}
	l.held[userID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, userID)
			l.mu.Unlock()
		})
	}, true
}

// Held returns how many users currently have an event in progress.
func (l *userLocks) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}
